package smartsheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type correlationKey struct{}

// WithCorrelationID stamps ctx with a correlation ID that the client echoes
// on every outbound request as X-Correlation-Id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return ""
}

// APIError is a non-2xx response from the backend, parsed from its
// {errorCode, message, refId} envelope.
type APIError struct {
	StatusCode int
	ErrorCode  int
	Message    string
	RefID      string
}

func (e *APIError) Error() string {
	if e.ErrorCode != 0 {
		return fmt.Sprintf("smartsheet api: status=%d errorCode=%d message=%s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("smartsheet api: status=%d message=%s", e.StatusCode, e.Message)
}

type ClientOptions struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
	UserAgent   string
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Client is the long-lived handle to the sheet backend. It is safe for
// concurrent use; all fields are set at construction and never mutated.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	userAgent   string
	maxRetries  int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.smartsheet.com/2.0"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: strings.TrimSpace(opts.AccessToken),
		httpClient:  httpClient,
		userAgent:   strings.TrimSpace(opts.UserAgent),
		maxRetries:  maxRetries,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

// GetSheet reads a sheet, optionally filtered to specific rows and columns.
func (c *Client) GetSheet(ctx context.Context, sheetID int64, opts GetSheetOptions) (*Sheet, error) {
	query := url.Values{}
	if len(opts.RowIDs) > 0 {
		query.Set("rowIds", joinIDs(opts.RowIDs))
	}
	if len(opts.ColumnIDs) > 0 {
		query.Set("columnIds", joinIDs(opts.ColumnIDs))
	}
	if opts.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	var sheet Sheet
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sheets/%d", sheetID), query, nil, &sheet); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// UpdateRow issues a single row update. The backend accepts a list of rows;
// this client only ever sends one.
func (c *Client) UpdateRow(ctx context.Context, sheetID int64, update RowUpdate) (*Row, error) {
	var envelope struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		Result     []Row  `json:"result"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/sheets/%d/rows", sheetID), nil, []RowUpdate{update}, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Result) == 0 {
		return nil, fmt.Errorf("smartsheet api: row update returned no rows")
	}
	return &envelope.Result[0], nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	query := url.Values{}
	query.Set("includeAll", "true")
	var list struct {
		TotalCount int       `json:"totalCount"`
		Data       []Webhook `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/webhooks", query, nil, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) CreateWebhook(ctx context.Context, create WebhookCreate) (*Webhook, error) {
	var envelope struct {
		ResultCode int     `json:"resultCode"`
		Message    string  `json:"message"`
		Result     Webhook `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/webhooks", nil, create, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Result, nil
}

func (c *Client) UpdateWebhook(ctx context.Context, webhookID int64, update WebhookUpdate) (*Webhook, error) {
	var envelope struct {
		ResultCode int     `json:"resultCode"`
		Message    string  `json:"message"`
		Result     Webhook `json:"result"`
	}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/webhooks/%d", webhookID), nil, update, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Result, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	if c.accessToken == "" {
		return fmt.Errorf("smartsheet access token is required")
	}
	var bodyBytes []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyBytes = encoded
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	correlationID := correlationFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("X-Correlation-Id", correlationID)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("smartsheet api: decode response: %w", err)
			}
			return nil
		}

		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
		var parsed struct {
			ErrorCode int    `json:"errorCode"`
			Message   string `json:"message"`
			RefID     string `json:"refId"`
		}
		if json.Unmarshal(respBody, &parsed) == nil {
			apiErr.ErrorCode = parsed.ErrorCode
			apiErr.RefID = parsed.RefID
			if strings.TrimSpace(parsed.Message) != "" {
				apiErr.Message = parsed.Message
			}
		}
		return apiErr
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}
