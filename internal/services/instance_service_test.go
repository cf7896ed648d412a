package services

import (
	"context"
	"errors"
	"testing"

	"contas/internal/core"
)

// seedInstance materializes one pendente instance for a fresh recurring
// bill and returns it.
func seedInstance(t *testing.T, f *fixture) *core.BillInstance {
	t.Helper()
	ctx := context.Background()
	bill := f.seedBill(t, core.Bill{
		Type:          core.BillRecorrente,
		RecurrenceDay: intp(10),
		StartDate:     core.NewDate(2024, 1, 10),
	})
	ensureMonths(t, f, f.owner.ID, core.NewPeriod(2024, 2))
	inst, err := f.store.GetInstanceByBillPeriod(ctx, bill.ID, core.NewPeriod(2024, 2))
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	return inst
}

func TestPay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	result, err := svc.Pay(ctx, f.owner.ID, inst.ID)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if result.AlreadyPaid {
		t.Error("first pay reported as already paid")
	}
	if result.Instance.Status != core.StatusPago || result.Instance.PaidAt == nil {
		t.Errorf("instance after pay = %+v, want pago with timestamps", result.Instance)
	}
	if result.Instance.PaidByUserID == nil || *result.Instance.PaidByUserID != f.owner.ID {
		t.Error("paidByUserId not recorded")
	}

	// Paying settles the outstanding effective amount.
	sum, err := f.store.SumPaymentsByInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("sum payments: %v", err)
	}
	if sum != 9990 {
		t.Errorf("paid total = %d, want 9990", sum)
	}

	// Paying again is a no-op, not an error, and records nothing new.
	again, err := svc.Pay(ctx, f.owner.ID, inst.ID)
	if err != nil {
		t.Fatalf("second pay: %v", err)
	}
	if !again.AlreadyPaid {
		t.Error("second pay not flagged as already paid")
	}
	if n, _ := f.store.CountPaymentsByInstance(ctx, inst.ID); n != 1 {
		t.Errorf("payments after double pay = %d, want 1", n)
	}
}

func TestPay_PartialPaymentSettlesRemainder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	if _, err := svc.RecordPayment(ctx, f.owner.ID, inst.ID, core.Money{Cents: 4000}, "first half"); err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if _, err := svc.Pay(ctx, f.owner.ID, inst.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	sum, _ := f.store.SumPaymentsByInstance(ctx, inst.ID)
	if sum != 9990 {
		t.Errorf("paid total = %d, want exactly the effective amount", sum)
	}
	if n, _ := f.store.CountPaymentsByInstance(ctx, inst.ID); n != 2 {
		t.Errorf("payments = %d, want partial plus remainder", n)
	}
}

func TestPay_CancelledRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	if _, err := svc.Cancel(ctx, f.owner.ID, inst.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := svc.Pay(ctx, f.owner.ID, inst.ID)
	var stateErr *core.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("pay cancelled = %v, want StateError", err)
	}
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	result, err := svc.Cancel(ctx, f.owner.ID, inst.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.AlreadyCancelled || result.Instance.Status != core.StatusCancelado || result.Instance.CancelledAt == nil {
		t.Errorf("cancel result = %+v", result)
	}

	again, err := svc.Cancel(ctx, f.owner.ID, inst.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if !again.AlreadyCancelled {
		t.Error("second cancel not flagged as no-op")
	}
}

func TestCancel_PaymentLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	if _, err := svc.RecordPayment(ctx, f.owner.ID, inst.ID, core.Money{Cents: 1000}, ""); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	_, err := svc.Cancel(ctx, f.owner.ID, inst.ID)
	var stateErr *core.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("cancel with payments = %v, want StateError", err)
	}

	stored, _ := f.store.GetInstance(ctx, inst.ID)
	if stored.Status != core.StatusPendente {
		t.Errorf("status after rejected cancel = %s, want pendente", stored.Status)
	}
}

func TestUncancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	// Only a cancelled instance can be uncancelled.
	var stateErr *core.StateError
	if _, err := svc.Uncancel(ctx, f.owner.ID, inst.ID); !errors.As(err, &stateErr) {
		t.Fatalf("uncancel pendente = %v, want StateError", err)
	}

	if _, err := svc.Cancel(ctx, f.owner.ID, inst.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, err := svc.Uncancel(ctx, f.owner.ID, inst.ID)
	if err != nil {
		t.Fatalf("uncancel: %v", err)
	}
	if got.Status != core.StatusPendente || got.CancelledAt != nil {
		t.Errorf("instance after uncancel = %+v, want pendente", got)
	}
}

func TestOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	amount := int64(5000)
	due := core.NewDate(2024, 2, 20)
	got, err := svc.Override(ctx, f.owner.ID, inst.ID, core.OverridePatch{
		AmountCents: &amount,
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got.EffectiveAmount().Cents != 5000 || got.EffectiveDueDate() != due {
		t.Errorf("override not applied: %+v", got)
	}

	// Clearing restores the bill-derived values.
	got, err = svc.Override(ctx, f.owner.ID, inst.ID, core.OverridePatch{ClearAmount: true})
	if err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if got.EffectiveAmount().Cents != 9990 {
		t.Errorf("effective amount after clear = %d, want 9990", got.EffectiveAmount().Cents)
	}

	// Overrides are pendente-only.
	if _, err := svc.Pay(ctx, f.owner.ID, inst.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	_, err = svc.Override(ctx, f.owner.ID, inst.ID, core.OverridePatch{AmountCents: &amount})
	var stateErr *core.StateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("override on pago = %v, want StateError", err)
	}

	// An empty patch is a validation error.
	_, err = svc.Override(ctx, f.owner.ID, inst.ID, core.OverridePatch{})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("empty override = %v, want ValidationError", err)
	}
}

func TestInstanceAccess_UnauthorizedIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inst := seedInstance(t, f)
	svc := NewInstanceService(f.store, nil)

	for name, call := range map[string]func() error{
		"pay": func() error {
			_, err := svc.Pay(ctx, f.other.ID, inst.ID)
			return err
		},
		"cancel": func() error {
			_, err := svc.Cancel(ctx, f.other.ID, inst.ID)
			return err
		},
		"override": func() error {
			amount := int64(1)
			_, err := svc.Override(ctx, f.other.ID, inst.ID, core.OverridePatch{AmountCents: &amount})
			return err
		},
		"get": func() error {
			_, err := svc.GetInstance(ctx, f.other.ID, inst.ID)
			return err
		},
		"payments": func() error {
			_, err := svc.ListPayments(ctx, f.other.ID, inst.ID)
			return err
		},
	} {
		if err := call(); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("%s by outsider = %v, want ErrNotFound", name, err)
		}
	}

	// A grant turns the same calls into successes.
	f.grantOther(t)
	if _, err := svc.GetInstance(ctx, f.other.ID, inst.ID); err != nil {
		t.Errorf("get after grant: %v", err)
	}
}
