package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sheetops/cellrelay/internal/smartsheet"
)

// Applier issues the single-cell destination write. Writes are last-write-wins
// keyed by (rowId, columnId), so reapplying the same resolved cell converges
// to the same destination state under duplicate delivery.
type Applier struct {
	gateway Gateway
	sheetID int64
	logger  *zap.Logger
}

func NewApplier(gateway Gateway, sheetID int64, logger *zap.Logger) *Applier {
	return &Applier{gateway: gateway, sheetID: sheetID, logger: logger}
}

// Apply writes value into the target cell. A nil value is written as an
// explicit null: a cleared source cell clears the destination cell rather
// than leaving stale data.
func (a *Applier) Apply(ctx context.Context, target DestinationTarget, value *string) error {
	_, err := a.gateway.UpdateRow(ctx, a.sheetID, smartsheet.RowUpdate{
		ID:    target.RowID,
		Cells: []smartsheet.CellUpdate{{ColumnID: target.ColumnID, Value: value}},
	})
	if err != nil {
		return fmt.Errorf("write destination cell: %w", err)
	}
	a.logger.Info("applied destination cell update",
		zap.Int64("rowId", target.RowID),
		zap.Int64("columnId", target.ColumnID),
		zap.Bool("cleared", value == nil),
	)
	return nil
}
