package relay

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sheetops/cellrelay/internal/smartsheet"
)

// ErrNoMatch means the destination sheet has no column/row matching the
// source cell's semantic keys. A benign outcome: the event is skipped.
var ErrNoMatch = errors.New("no matching destination coordinates")

// DestinationTarget is the write address in the destination sheet. Its IDs
// are unrelated to the source sheet's IDs even when numerically equal.
type DestinationTarget struct {
	RowID    int64
	ColumnID int64
}

// Locator maps (column title, row number) onto destination identifiers.
// It reads the destination sheet in full on every lookup; destination sheets
// are assumed small enough for that.
type Locator struct {
	gateway Gateway
	sheetID int64
	logger  *zap.Logger
}

func NewLocator(gateway Gateway, sheetID int64, logger *zap.Logger) *Locator {
	return &Locator{gateway: gateway, sheetID: sheetID, logger: logger}
}

func (l *Locator) Locate(ctx context.Context, cell *ResolvedCell) (*DestinationTarget, error) {
	sheet, err := l.gateway.GetSheet(ctx, l.sheetID, smartsheet.GetSheetOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch destination sheet: %w", err)
	}

	var columnID int64
	columnMatches := 0
	for _, column := range sheet.Columns {
		if column.Title == cell.ColumnTitle {
			if columnMatches == 0 {
				columnID = column.ID
			}
			columnMatches++
		}
	}
	if columnMatches == 0 {
		return nil, fmt.Errorf("%w: column titled %q", ErrNoMatch, cell.ColumnTitle)
	}
	if columnMatches > 1 {
		l.logger.Warn("ambiguous destination column title, using first match in listing order",
			zap.String("columnTitle", cell.ColumnTitle),
			zap.Int("matches", columnMatches),
		)
	}

	var rowID int64
	rowMatches := 0
	for _, row := range sheet.Rows {
		if row.RowNumber == cell.RowNumber {
			if rowMatches == 0 {
				rowID = row.ID
			}
			rowMatches++
		}
	}
	if rowMatches == 0 {
		return nil, fmt.Errorf("%w: row number %d", ErrNoMatch, cell.RowNumber)
	}
	if rowMatches > 1 {
		l.logger.Warn("ambiguous destination row number, using first match in listing order",
			zap.Int64("rowNumber", cell.RowNumber),
			zap.Int("matches", rowMatches),
		)
	}

	return &DestinationTarget{RowID: rowID, ColumnID: columnID}, nil
}
