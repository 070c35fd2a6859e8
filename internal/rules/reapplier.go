package rules

import (
	"context"
	"log/slog"
)

// Reapplier runs deferred batch rule application after categorization
// events. Callers enqueue an owner instead of wiring hidden callbacks
// into the persistence layer; the worker drains the queue and runs a
// bounded ApplyToAll pass per owner.
//
// The batch pass only touches currently-uncategorized transactions, so
// running it more than once for the same owner converges and duplicate
// enqueues are harmless.
type Reapplier struct {
	engine *Engine
	queue  chan string
}

// NewReapplier creates a reapplier with the given queue capacity.
func NewReapplier(engine *Engine, buffer int) *Reapplier {
	if buffer <= 0 {
		buffer = 16
	}
	return &Reapplier{
		engine: engine,
		queue:  make(chan string, buffer),
	}
}

// Enqueue schedules a batch re-apply for the owner. Non-blocking: if the
// queue is full a pending run for some owner already exists and dropping
// this one loses nothing, since every pass re-selects all uncategorized
// transactions.
func (r *Reapplier) Enqueue(ownerID string) {
	select {
	case r.queue <- ownerID:
	default:
		slog.Debug("reapply queue full, dropping request", "owner", ownerID)
	}
}

// Run drains the queue until the context is canceled.
func (r *Reapplier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ownerID := <-r.queue:
			updated, total, err := r.engine.ApplyToAll(ctx, ownerID, r.engine.cfg.ReapplyLimit)
			if err != nil {
				slog.Error("deferred rule application failed", "owner", ownerID, "error", err)
				continue
			}
			slog.Info("deferred rule application finished",
				"owner", ownerID,
				"updated", updated,
				"considered", total)
		}
	}
}

// Drain runs at most one queued re-apply synchronously. Intended for CLI
// flows that want the deferred pass to finish before exiting.
func (r *Reapplier) Drain(ctx context.Context) error {
	select {
	case ownerID := <-r.queue:
		_, _, err := r.engine.ApplyToAll(ctx, ownerID, r.engine.cfg.ReapplyLimit)
		return err
	default:
		return nil
	}
}
