package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/core"
	"contas/internal/metrics"
	"contas/internal/storage"
)

// Generator materializes the instance set for a reference period. It is
// idempotent: existing instances are never modified, and an insert lost to
// a concurrent generation run is treated as already done.
type Generator struct {
	store storage.Store
}

func NewGenerator(store storage.Store) *Generator {
	return &Generator{store: store}
}

// EnsureInstancesForPeriod guarantees that every active bill visible to the
// user and covering p has exactly one instance for p, and returns the
// period's full visible instance set. Bills outside coverage are skipped
// silently; a period with zero eligible bills is not an error.
func (g *Generator) EnsureInstancesForPeriod(ctx context.Context, userID string, p core.Period) ([]core.BillInstance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bills, err := g.store.ListVisibleActiveBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	created := 0
	for _, b := range bills {
		inst, ok := b.Materialize(p)
		if !ok {
			continue
		}
		if _, err := g.store.GetInstanceByBillPeriod(ctx, b.ID, p); err == nil {
			continue
		} else if !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("check instance: %w", err)
		}

		if err := g.store.CreateInstance(ctx, &inst); err != nil {
			// A concurrent run won the unique (bill, period) index. The
			// existing row is the instance; nothing to do.
			if errors.Is(err, core.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("create instance: %w", err)
		}
		created++
		metrics.InstancesGenerated.Inc()
	}

	if created > 0 {
		slog.InfoContext(ctx, "Generated bill instances",
			"user_id", userID,
			"period", p.String(),
			"created", created)
	}

	return g.store.ListInstancesForPeriod(ctx, userID, p)
}
