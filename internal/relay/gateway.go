package relay

import (
	"context"

	"github.com/sheetops/cellrelay/internal/smartsheet"
)

// Gateway is the slice of the sheet backend the pipeline needs. The
// *smartsheet.Client satisfies it; tests inject fakes.
type Gateway interface {
	GetSheet(ctx context.Context, sheetID int64, opts smartsheet.GetSheetOptions) (*smartsheet.Sheet, error)
	UpdateRow(ctx context.Context, sheetID int64, update smartsheet.RowUpdate) (*smartsheet.Row, error)
	ListWebhooks(ctx context.Context) ([]smartsheet.Webhook, error)
	CreateWebhook(ctx context.Context, create smartsheet.WebhookCreate) (*smartsheet.Webhook, error)
	UpdateWebhook(ctx context.Context, webhookID int64, update smartsheet.WebhookUpdate) (*smartsheet.Webhook, error)
}
