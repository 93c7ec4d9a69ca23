package relay

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Pipeline runs the event-to-mutation stages for one notification:
// resolve the changed source cell, locate the destination coordinates,
// apply the write. All state is per-call; the shared gateway handle is the
// only long-lived dependency.
type Pipeline struct {
	resolver *Resolver
	locator  *Locator
	applier  *Applier
	logger   *zap.Logger
}

func NewPipeline(gateway Gateway, sourceSheetID, destSheetID int64, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		resolver: NewResolver(gateway, sourceSheetID, logger),
		locator:  NewLocator(gateway, destSheetID, logger),
		applier:  NewApplier(gateway, destSheetID, logger),
		logger:   logger,
	}
}

// HandleBatch processes one event batch. Events run sequentially in array
// order; a failure on one event is logged and never blocks its siblings.
// There is deliberately no error return: the HTTP acknowledgment is
// unconditional for event batches.
func (p *Pipeline) HandleBatch(ctx context.Context, batch *EventBatch) {
	if batch == nil {
		return
	}
	if batch.Scope != ScopeSheet {
		p.logger.Debug("discarding batch with non-sheet scope", zap.String("scope", batch.Scope))
		return
	}
	for _, event := range batch.Events {
		if event.ObjectType != ObjectTypeCell {
			continue
		}
		p.handleCellEvent(ctx, event)
	}
}

func (p *Pipeline) handleCellEvent(ctx context.Context, event ChangeEvent) {
	eventLogger := p.logger.With(
		zap.Int64("sourceRowId", event.RowID),
		zap.Int64("sourceColumnId", event.ColumnID),
	)

	cell, err := p.resolver.Resolve(ctx, event)
	if err != nil {
		eventLogger.Warn("skipping event, failed to resolve source cell", zap.Error(err))
		return
	}

	target, err := p.locator.Locate(ctx, cell)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			eventLogger.Info("skipping event, no corresponding destination field",
				zap.String("columnTitle", cell.ColumnTitle),
				zap.Int64("rowNumber", cell.RowNumber),
			)
			return
		}
		eventLogger.Warn("skipping event, destination lookup failed", zap.Error(err))
		return
	}

	if err := p.applier.Apply(ctx, *target, cell.Value); err != nil {
		eventLogger.Error("destination write failed", zap.Error(err))
	}
}
