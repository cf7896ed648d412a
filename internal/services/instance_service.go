package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/metrics"
	"contas/internal/storage"
)

// InstanceService runs the instance state machine: pay, cancel, uncancel,
// manual override and payment recording. Status transitions write only
// status fields; structural fields belong to the reconciler. All operations
// are access-scoped, so instances on invisible cards read as not-found.
type InstanceService struct {
	store      storage.Store
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewInstanceService(store storage.Store, amqpClient *amqp.Client) *InstanceService {
	return &InstanceService{
		store:      store,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// PayResult reports a pay transition. AlreadyPaid marks the no-op case of
// paying an instance that was paid before the call.
type PayResult struct {
	Instance    core.BillInstance
	AlreadyPaid bool
}

// Pay transitions the instance to pago, recording a payment for the
// outstanding effective amount. Paying a cancelled instance is a state
// error; paying a paid one succeeds as a no-op.
func (s *InstanceService) Pay(ctx context.Context, userID, instanceID string) (*PayResult, error) {
	var result PayResult
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		inst, _, err := visibleInstance(ctx, tx, userID, instanceID)
		if err != nil {
			return err
		}

		switch inst.Status {
		case core.StatusCancelado:
			return core.NewStateError("cannot pay a cancelled instance")
		case core.StatusPago:
			result = PayResult{Instance: *inst, AlreadyPaid: true}
			return nil
		}

		paid, err := tx.SumPaymentsByInstance(ctx, inst.ID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		if outstanding := inst.EffectiveAmount().Cents - paid; outstanding > 0 {
			p := core.Payment{
				InstanceID:   inst.ID,
				Amount:       core.Money{Cents: outstanding},
				PaidByUserID: userID,
				PaidAt:       s.now(),
			}
			if err := tx.CreatePayment(ctx, &p); err != nil {
				return fmt.Errorf("record payment: %w", err)
			}
			metrics.PaymentsRecorded.Inc()
		}

		at := s.now()
		inst.Status = core.StatusPago
		inst.PaidAt = &at
		inst.PaidByUserID = &userID
		if err := tx.UpdateInstanceStatus(ctx, inst); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		result = PayResult{Instance: *inst}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyPaid {
		metrics.StateTransitions.WithLabelValues("pay").Inc()
		s.publishInstanceEvent(ctx, "paid", &result.Instance)
	}
	return &result, nil
}

// CancelResult reports a cancel transition, with the no-op flag for
// instances that were already cancelled.
type CancelResult struct {
	Instance         core.BillInstance
	AlreadyCancelled bool
}

// Cancel transitions the instance to cancelado. Recorded payments are a
// hard block; cancelling a cancelled instance is a no-op.
func (s *InstanceService) Cancel(ctx context.Context, userID, instanceID string) (*CancelResult, error) {
	var result CancelResult
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		inst, _, err := visibleInstance(ctx, tx, userID, instanceID)
		if err != nil {
			return err
		}

		if inst.Status == core.StatusCancelado {
			result = CancelResult{Instance: *inst, AlreadyCancelled: true}
			return nil
		}

		n, err := tx.CountPaymentsByInstance(ctx, inst.ID)
		if err != nil {
			return fmt.Errorf("count payments: %w", err)
		}
		if n > 0 {
			return core.NewStateError("cannot cancel an instance with %d recorded payment(s)", n)
		}

		at := s.now()
		inst.Status = core.StatusCancelado
		inst.CancelledAt = &at
		if err := tx.UpdateInstanceStatus(ctx, inst); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		result = CancelResult{Instance: *inst}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyCancelled {
		metrics.StateTransitions.WithLabelValues("cancel").Inc()
		s.publishInstanceEvent(ctx, "cancelled", &result.Instance)
	}
	return &result, nil
}

// Uncancel returns a cancelled instance to pendente. Only reachable from
// cancelado, and only when no money was ever paid against the instance.
func (s *InstanceService) Uncancel(ctx context.Context, userID, instanceID string) (*core.BillInstance, error) {
	var out core.BillInstance
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		inst, _, err := visibleInstance(ctx, tx, userID, instanceID)
		if err != nil {
			return err
		}

		if inst.Status != core.StatusCancelado {
			return core.NewStateError("only a cancelled instance can be uncancelled")
		}
		paid, err := tx.SumPaymentsByInstance(ctx, inst.ID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		if paid > 0 {
			return core.NewStateError("cannot uncancel an instance with recorded payments")
		}

		inst.Status = core.StatusPendente
		inst.CancelledAt = nil
		if err := tx.UpdateInstanceStatus(ctx, inst); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		out = *inst
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StateTransitions.WithLabelValues("uncancel").Inc()
	return &out, nil
}

// Override applies manual amount and due-date overrides. Only pendente
// instances accept overrides; an overridden instance is exempt from
// structural recomputation on later bill edits.
func (s *InstanceService) Override(ctx context.Context, userID, instanceID string, patch core.OverridePatch) (*core.BillInstance, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	inst, _, err := visibleInstance(ctx, s.store, userID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != core.StatusPendente {
		return nil, core.NewStateError("cannot override a paid or cancelled instance")
	}

	patch.Apply(inst)
	if err := s.store.UpdateInstanceOverrides(ctx, inst); err != nil {
		return nil, fmt.Errorf("update overrides: %w", err)
	}

	metrics.StateTransitions.WithLabelValues("override").Inc()
	return inst, nil
}

// RecordPayment writes a partial payment against a non-cancelled instance.
// The instance stays pendente; Pay settles the remainder.
func (s *InstanceService) RecordPayment(ctx context.Context, userID, instanceID string, amount core.Money, note string) (*core.Payment, error) {
	if err := amount.Validate(); err != nil {
		return nil, err
	}

	inst, _, err := visibleInstance(ctx, s.store, userID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == core.StatusCancelado {
		return nil, core.NewStateError("cannot record a payment on a cancelled instance")
	}

	p := core.Payment{
		InstanceID:   inst.ID,
		Amount:       amount,
		PaidByUserID: userID,
		PaidAt:       s.now(),
		Note:         note,
	}
	if err := s.store.CreatePayment(ctx, &p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	metrics.PaymentsRecorded.Inc()
	return &p, nil
}

func (s *InstanceService) ListPayments(ctx context.Context, userID, instanceID string) ([]core.Payment, error) {
	if _, _, err := visibleInstance(ctx, s.store, userID, instanceID); err != nil {
		return nil, err
	}
	return s.store.ListPaymentsByInstance(ctx, instanceID)
}

func (s *InstanceService) GetInstance(ctx context.Context, userID, instanceID string) (*core.BillInstance, error) {
	inst, _, err := visibleInstance(ctx, s.store, userID, instanceID)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *InstanceService) publishInstanceEvent(ctx context.Context, kind string, inst *core.BillInstance) {
	if s.amqpClient == nil {
		return
	}
	var err error
	switch kind {
	case "paid":
		err = s.amqpClient.PublishInstancePaid(ctx, inst)
	case "cancelled":
		err = s.amqpClient.PublishInstanceCancelled(ctx, inst)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish instance event",
			"kind", kind,
			"instance_id", inst.ID,
			"error", err)
		// The transition is committed; event delivery is best effort.
	}
}
