package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBatchSchema marks an event-batch payload that carried an events field
// but did not match the callback schema. The caller logs and drops it; the
// notification source is still acknowledged with 200.
var ErrBatchSchema = errors.New("event batch failed schema validation")

type NotificationKind string

const (
	KindHandshake    NotificationKind = "handshake"
	KindEventBatch   NotificationKind = "event_batch"
	KindStatusUpdate NotificationKind = "status_update"
	KindUnrecognized NotificationKind = "unrecognized"
)

// Notification is one classified inbound payload. Exactly one of the
// kind-specific fields is populated.
type Notification struct {
	Kind      NotificationKind
	Challenge string
	Batch     *EventBatch
	NewStatus string
	Raw       json.RawMessage
}

type EventBatch struct {
	Nonce         string        `json:"nonce"`
	Scope         string        `json:"scope"`
	ScopeObjectID int64         `json:"scopeObjectId"`
	WebhookID     int64         `json:"webhookId"`
	Events        []ChangeEvent `json:"events"`
}

type ChangeEvent struct {
	ObjectType string `json:"objectType"`
	EventType  string `json:"eventType"`
	RowID      int64  `json:"rowId"`
	ColumnID   int64  `json:"columnId"`
	Timestamp  string `json:"timestamp"`
}

// ScopeSheet is the only batch scope the pipeline acts on; other scopes are
// discarded without error.
const ScopeSheet = "sheet"

// ObjectTypeCell is the only event object type that maps to a cell mutation.
const ObjectTypeCell = "cell"

// Classify turns a raw payload into a Notification. Classification is
// first-match in a fixed order: challenge, events, newWebHookStatus,
// anything else. A payload that is not a JSON object at all is an error and
// surfaces as HTTP 500 upstream.
func Classify(raw []byte) (Notification, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Notification{}, fmt.Errorf("parse notification payload: %w", err)
	}

	if challengeRaw, ok := probe["challenge"]; ok {
		var challenge string
		if err := json.Unmarshal(challengeRaw, &challenge); err != nil {
			return Notification{}, fmt.Errorf("parse handshake challenge: %w", err)
		}
		return Notification{Kind: KindHandshake, Challenge: challenge}, nil
	}

	if _, ok := probe["events"]; ok {
		if err := validateEventBatch(raw); err != nil {
			return Notification{}, fmt.Errorf("%w: %v", ErrBatchSchema, err)
		}
		var batch EventBatch
		if err := json.Unmarshal(raw, &batch); err != nil {
			return Notification{}, fmt.Errorf("%w: %v", ErrBatchSchema, err)
		}
		return Notification{Kind: KindEventBatch, Batch: &batch}, nil
	}

	if statusRaw, ok := probe["newWebHookStatus"]; ok {
		var status string
		if err := json.Unmarshal(statusRaw, &status); err != nil {
			return Notification{}, fmt.Errorf("parse webhook status: %w", err)
		}
		return Notification{Kind: KindStatusUpdate, NewStatus: status}, nil
	}

	return Notification{Kind: KindUnrecognized, Raw: json.RawMessage(raw)}, nil
}
