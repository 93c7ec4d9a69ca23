package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sheetops/cellrelay/internal/smartsheet"
)

// ResolvedCell is the changed cell's display value plus the semantic keys
// used for cross-sheet matching. Value is nil when the source cell is empty.
type ResolvedCell struct {
	Value       *string
	ColumnID    int64
	ColumnTitle string
	RowID       int64
	RowNumber   int64
}

// Resolver turns a cell-change event into a ResolvedCell by fetching the
// minimal source-sheet slice: one row, one column.
type Resolver struct {
	gateway Gateway
	sheetID int64
	logger  *zap.Logger
}

func NewResolver(gateway Gateway, sheetID int64, logger *zap.Logger) *Resolver {
	return &Resolver{gateway: gateway, sheetID: sheetID, logger: logger}
}

func (r *Resolver) Resolve(ctx context.Context, event ChangeEvent) (*ResolvedCell, error) {
	sheet, err := r.gateway.GetSheet(ctx, r.sheetID, smartsheet.GetSheetOptions{
		RowIDs:    []int64{event.RowID},
		ColumnIDs: []int64{event.ColumnID},
		PageSize:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch source cell: %w", err)
	}
	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("source row %d not found in sheet %d", event.RowID, r.sheetID)
	}
	row := sheet.Rows[0]
	if len(row.Cells) == 0 {
		return nil, fmt.Errorf("source row %d returned no cell for column %d", event.RowID, event.ColumnID)
	}
	cell := row.Cells[0]

	var title string
	found := false
	for _, column := range sheet.Columns {
		if column.ID == cell.ColumnID {
			title = column.Title
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("column %d not present in source column listing", cell.ColumnID)
	}

	resolved := &ResolvedCell{
		Value:       cell.DisplayValue,
		ColumnID:    cell.ColumnID,
		ColumnTitle: title,
		RowID:       row.ID,
		RowNumber:   row.RowNumber,
	}
	r.logger.Debug("resolved source cell",
		zap.Int64("rowId", resolved.RowID),
		zap.Int64("rowNumber", resolved.RowNumber),
		zap.String("columnTitle", resolved.ColumnTitle),
	)
	return resolved, nil
}
