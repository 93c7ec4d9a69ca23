package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sheetops/cellrelay/internal/relay"
)

type recordingHandler struct {
	batches []*relay.EventBatch
}

func (h *recordingHandler) HandleBatch(_ context.Context, batch *relay.EventBatch) {
	h.batches = append(h.batches, batch)
}

func postNotification(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHandshakeEchoesChallenge(t *testing.T) {
	handler := &recordingHandler{}
	server := NewServer(handler, zap.NewNop())

	rec := postNotification(t, server, `{"challenge":"abc123","webhookId":123}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["smartsheetHookResponse"] != "abc123" {
		t.Fatalf("expected challenge echo, got %+v", payload)
	}
	if rec.Header().Get("Smartsheet-Hook-Response") != "abc123" {
		t.Fatalf("expected challenge echoed in header")
	}
	if len(handler.batches) != 0 {
		t.Fatalf("handshake must not reach the batch handler")
	}
}

func TestEventBatchIsAcknowledgedAndDispatched(t *testing.T) {
	handler := &recordingHandler{}
	server := NewServer(handler, zap.NewNop())

	rec := postNotification(t, server, `{
		"scope": "sheet",
		"scopeObjectId": 111,
		"events": [{"objectType":"cell","eventType":"updated","rowId":501,"columnId":7}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(handler.batches) != 1 {
		t.Fatalf("expected one dispatched batch, got %d", len(handler.batches))
	}
	if handler.batches[0].Events[0].RowID != 501 {
		t.Fatalf("unexpected batch contents: %+v", handler.batches[0])
	}
}

func TestNonSheetScopeBatchStillAcknowledged(t *testing.T) {
	// The acknowledgment policy is unconditional for valid batches; per-event
	// outcomes never shape the response.
	server := NewServer(&recordingHandler{}, zap.NewNop())
	rec := postNotification(t, server, `{"scope":"discussion","scopeObjectId":9,"events":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected unconditional 200, got %d", rec.Code)
	}
}

func TestStatusUpdateYields200WithoutDispatch(t *testing.T) {
	handler := &recordingHandler{}
	server := NewServer(handler, zap.NewNop())

	rec := postNotification(t, server, `{"newWebHookStatus":"ENABLED"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(handler.batches) != 0 {
		t.Fatalf("status update must not reach the batch handler")
	}
}

func TestUnrecognizedPayloadYields200(t *testing.T) {
	handler := &recordingHandler{}
	server := NewServer(handler, zap.NewNop())

	rec := postNotification(t, server, `{"something":"else"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(handler.batches) != 0 {
		t.Fatalf("unrecognized payload must not reach the batch handler")
	}
}

func TestMalformedJSONYields500(t *testing.T) {
	server := NewServer(&recordingHandler{}, zap.NewNop())

	rec := postNotification(t, server, `{"challenge":`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Fatalf("expected error surfaced in body, got %s", rec.Body.String())
	}
}

func TestSchemaInvalidBatchIsDroppedWith200(t *testing.T) {
	handler := &recordingHandler{}
	server := NewServer(handler, zap.NewNop())

	rec := postNotification(t, server, `{"events":[{"objectType":"cell","rowId":"bad"}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for dropped batch, got %d", rec.Code)
	}
	if len(handler.batches) != 0 {
		t.Fatalf("schema-invalid batch must not be dispatched")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := NewServer(&recordingHandler{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUnknownRouteYields404(t *testing.T) {
	server := NewServer(&recordingHandler{}, zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPanicInHandlerYields500(t *testing.T) {
	server := NewServer(panickingHandler{}, zap.NewNop())

	rec := postNotification(t, server, `{"scope":"sheet","scopeObjectId":1,"events":[{"objectType":"cell","rowId":1,"columnId":2}]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on uncaught fault, got %d", rec.Code)
	}
}

type panickingHandler struct{}

func (panickingHandler) HandleBatch(context.Context, *relay.EventBatch) {
	panic("boom")
}
