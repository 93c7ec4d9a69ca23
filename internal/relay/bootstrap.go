package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sheetops/cellrelay/internal/smartsheet"
)

// webhookEventsAll subscribes to every event type on the scoped sheet.
var webhookEventsAll = []string{"*.*"}

const webhookVersion = 1

// Bootstrapper converges the webhook subscription for the source sheet:
// find it by (scope object, name), create it if absent, then unconditionally
// point it at the callback address and enable it. Runs once at startup.
type Bootstrapper struct {
	gateway       Gateway
	sourceSheetID int64
	name          string
	callbackURL   string
	logger        *zap.Logger
}

func NewBootstrapper(gateway Gateway, sourceSheetID int64, name, callbackURL string, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		gateway:       gateway,
		sourceSheetID: sourceSheetID,
		name:          name,
		callbackURL:   callbackURL,
		logger:        logger,
	}
}

func (b *Bootstrapper) EnsureWebhook(ctx context.Context) error {
	hooks, err := b.gateway.ListWebhooks(ctx)
	if err != nil {
		return fmt.Errorf("list webhooks: %w", err)
	}

	var existing *smartsheet.Webhook
	for i := range hooks {
		if hooks[i].ScopeObjectID == b.sourceSheetID && hooks[i].Name == b.name {
			existing = &hooks[i]
			break
		}
	}

	if existing == nil {
		created, err := b.gateway.CreateWebhook(ctx, smartsheet.WebhookCreate{
			Name:          b.name,
			CallbackURL:   b.callbackURL,
			Scope:         ScopeSheet,
			ScopeObjectID: b.sourceSheetID,
			Events:        webhookEventsAll,
			Version:       webhookVersion,
		})
		if err != nil {
			return fmt.Errorf("create webhook: %w", err)
		}
		b.logger.Info("created webhook subscription",
			zap.Int64("webhookId", created.ID),
			zap.String("name", created.Name),
		)
		existing = created
	} else {
		b.logger.Info("found existing webhook subscription",
			zap.Int64("webhookId", existing.ID),
			zap.String("status", existing.Status),
		)
	}

	enabled := true
	updated, err := b.gateway.UpdateWebhook(ctx, existing.ID, smartsheet.WebhookUpdate{
		Enabled:     &enabled,
		CallbackURL: b.callbackURL,
	})
	if err != nil {
		return fmt.Errorf("enable webhook: %w", err)
	}
	b.logger.Info("webhook subscription enabled",
		zap.Int64("webhookId", updated.ID),
		zap.String("callbackUrl", b.callbackURL),
		zap.String("status", updated.Status),
	)
	return nil
}
