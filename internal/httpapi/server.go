package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sheetops/cellrelay/internal/relay"
	"github.com/sheetops/cellrelay/internal/smartsheet"
)

// BatchHandler consumes classified event batches. *relay.Pipeline satisfies
// it.
type BatchHandler interface {
	HandleBatch(ctx context.Context, batch *relay.EventBatch)
}

type ServerConfig struct {
	MaxBodyBytes int64
}

// Server is the notification receiver: one POST endpoint that classifies
// inbound payloads and acknowledges them. Event batches are always
// acknowledged with 200 regardless of per-event outcomes, so the
// notification source never enters a re-delivery storm over sync failures.
type Server struct {
	handler BatchHandler
	logger  *zap.Logger
	cfg     ServerConfig
}

func NewServer(handler BatchHandler, logger *zap.Logger) *Server {
	return NewServerWithConfig(handler, logger, ServerConfig{})
}

func NewServerWithConfig(handler BatchHandler, logger *zap.Logger, cfg ServerConfig) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Server{handler: handler, logger: logger, cfg: cfg}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("panic while handling notification", zap.Any("panic", recovered))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error": fmt.Sprintf("internal error: %v", recovered),
			})
		}
	}()

	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if r.URL.Path == "/" && r.Method == http.MethodPost {
		s.handleNotification(w, r)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
}

func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	correlationID := uuid.NewString()
	logger := s.logger.With(zap.String("correlationId", correlationID))
	ctx := smartsheet.WithCorrelationID(r.Context(), correlationID)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("failed to read notification body", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	notification, err := relay.Classify(body)
	if err != nil {
		if errors.Is(err, relay.ErrBatchSchema) {
			// Drop the malformed batch but still acknowledge: a 500 here
			// would only trigger redundant re-delivery of the same payload.
			logger.Warn("dropping event batch", zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]string{"status": "dropped"})
			return
		}
		logger.Error("unparseable notification payload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	switch notification.Kind {
	case relay.KindHandshake:
		logger.Info("answering webhook verification handshake")
		w.Header().Set("Smartsheet-Hook-Response", notification.Challenge)
		writeJSON(w, http.StatusOK, map[string]string{"smartsheetHookResponse": notification.Challenge})
	case relay.KindEventBatch:
		logger.Info("processing event batch",
			zap.String("scope", notification.Batch.Scope),
			zap.Int("events", len(notification.Batch.Events)),
		)
		s.handler.HandleBatch(ctx, notification.Batch)
		writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
	case relay.KindStatusUpdate:
		logger.Info("webhook status update", zap.String("newStatus", notification.NewStatus))
		writeJSON(w, http.StatusOK, map[string]string{"status": "noted"})
	default:
		logger.Warn("unrecognized notification payload", zap.ByteString("payload", snippet(notification.Raw)))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func snippet(raw []byte) []byte {
	const limit = 256
	if len(raw) <= limit {
		return raw
	}
	return raw[:limit]
}
