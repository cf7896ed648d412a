package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/metrics"
	"contas/internal/storage"
)

// BillService owns the bill lifecycle: creation, the version-guarded
// edit-and-reconcile transaction, and soft deletion. Edits publish a
// bill.updated event on a best-effort basis.
type BillService struct {
	store      storage.Store
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewBillService(store storage.Store, amqpClient *amqp.Client) *BillService {
	return &BillService{
		store:      store,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// CreateBill validates and persists a new bill on a card the user owns.
// No instances are generated eagerly; the generator materializes them on
// the first read of a covered period.
func (s *BillService) CreateBill(ctx context.Context, userID string, b core.Bill) (*core.Bill, error) {
	if _, err := ownedCard(ctx, s.store, userID, b.CardID); err != nil {
		return nil, err
	}
	if b.Type != core.BillParcelada {
		b.TotalInstallments = nil
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	b.ID = ""
	b.Version = 1
	b.IsActive = true
	b.CreatedAt = s.now()
	b.DeletedAt = nil

	if err := s.store.CreateBill(ctx, &b); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}

	slog.InfoContext(ctx, "Created bill",
		"bill_id", b.ID,
		"card_id", b.CardID,
		"type", string(b.Type))

	return &b, nil
}

func (s *BillService) GetBill(ctx context.Context, userID, billID string) (*core.Bill, error) {
	return visibleBill(ctx, s.store, userID, billID)
}

func (s *BillService) ListBillsByCard(ctx context.Context, userID, cardID string) ([]core.Bill, error) {
	if _, err := visibleCard(ctx, s.store, userID, cardID); err != nil {
		return nil, err
	}
	return s.store.ListBillsByCard(ctx, cardID)
}

// UpdateBill applies a patch to a bill and reconciles every instance from
// the current period onward, all inside one transaction. The write is
// guarded by expectedVersion; a mismatch returns core.ErrConflict and
// nothing is applied. Paid and cancelled instances are never touched.
func (s *BillService) UpdateBill(ctx context.Context, userID, billID string, patch core.BillPatch, expectedVersion int64, current core.Period) (*core.Bill, error) {
	if err := current.Validate(); err != nil {
		return nil, err
	}

	var updated core.Bill
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		b, err := ownedBill(ctx, tx, userID, billID)
		if err != nil {
			return err
		}

		updated, err = patch.Apply(*b)
		if err != nil {
			return err
		}

		if err := tx.UpdateBillVersioned(ctx, &updated, expectedVersion); err != nil {
			if errors.Is(err, core.ErrConflict) {
				metrics.VersionConflicts.Inc()
			}
			return err
		}

		return reconcileInstances(ctx, tx, &updated, current)
	})
	if err != nil {
		return nil, err
	}

	metrics.ReconcileRuns.Inc()
	s.publishBillUpdated(ctx, updated.ID, updated.Version)

	return &updated, nil
}

// DeleteBill soft-deletes the bill. Its instances stay in place but drop
// out of period listings, which join non-deleted bills only.
func (s *BillService) DeleteBill(ctx context.Context, userID, billID string) error {
	if _, err := ownedBill(ctx, s.store, userID, billID); err != nil {
		return err
	}
	if err := s.store.SoftDeleteBill(ctx, billID, s.now()); err != nil {
		return fmt.Errorf("soft delete bill: %w", err)
	}
	slog.InfoContext(ctx, "Soft-deleted bill", "bill_id", billID)
	return nil
}

// reconcileInstances re-derives the structural fields of every instance of
// b with period >= current. Final (pago/cancelado) instances are immutable
// to reconciliation. Manual overrides exempt an instance from recomputation
// but not from out-of-range deletion: when a parcelada or avulsa edit moves
// an overridden instance outside the bill's coverage it is still deleted
// (the deleteOutOfRangeWins policy). Deleting an instance that has payments
// aborts the whole transaction with a StateError.
func reconcileInstances(ctx context.Context, tx storage.Store, b *core.Bill, current core.Period) error {
	instances, err := tx.ListInstancesFrom(ctx, b.ID, current)
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}

	for idx := range instances {
		inst := &instances[idx]
		if inst.IsFinal() {
			metrics.InstancesReconciled.WithLabelValues("skipped_final").Inc()
			continue
		}

		switch b.Type {
		case core.BillRecorrente:
			// Recurring instances survive range changes; only their
			// structure is re-derived and any installment number from a
			// previous parcelada life is cleared.
			if inst.HasOverride() {
				metrics.InstancesReconciled.WithLabelValues("skipped_override").Inc()
				continue
			}
			inst.Amount = b.Amount
			inst.DueDate = core.DueDateFor(b.RecurrenceDay, inst.Period)
			inst.InstallmentNumber = nil
			if err := tx.UpdateInstanceStructural(ctx, inst); err != nil {
				return fmt.Errorf("recompute instance %s: %w", inst.ID, err)
			}
			metrics.InstancesReconciled.WithLabelValues("recomputed").Inc()

		case core.BillParcelada, core.BillAvulsa:
			fresh, covered := b.Materialize(inst.Period)
			if !covered {
				if err := deleteReconciled(ctx, tx, inst); err != nil {
					return err
				}
				metrics.InstancesReconciled.WithLabelValues("deleted").Inc()
				continue
			}
			if inst.HasOverride() {
				metrics.InstancesReconciled.WithLabelValues("skipped_override").Inc()
				continue
			}
			inst.Amount = fresh.Amount
			inst.DueDate = fresh.DueDate
			inst.InstallmentNumber = fresh.InstallmentNumber
			if err := tx.UpdateInstanceStructural(ctx, inst); err != nil {
				return fmt.Errorf("recompute instance %s: %w", inst.ID, err)
			}
			metrics.InstancesReconciled.WithLabelValues("recomputed").Inc()
		}
	}

	return nil
}

// deleteReconciled removes an instance that no longer exists under the new
// bill definition. Payments are a hard block on deletion.
func deleteReconciled(ctx context.Context, tx storage.Store, inst *core.BillInstance) error {
	n, err := tx.CountPaymentsByInstance(ctx, inst.ID)
	if err != nil {
		return fmt.Errorf("count payments: %w", err)
	}
	if n > 0 {
		return core.NewStateError(
			"instance %s for %s has %d payment(s) and cannot be removed by this edit",
			inst.ID, inst.Period.String(), n)
	}
	if err := tx.DeleteInstance(ctx, inst.ID); err != nil {
		return fmt.Errorf("delete instance %s: %w", inst.ID, err)
	}
	return nil
}

func (s *BillService) publishBillUpdated(ctx context.Context, billID string, version int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishBillUpdated(ctx, billID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish bill.updated event",
			"bill_id", billID, "error", err)
		// The edit is committed; event delivery is best effort.
	}
}
