package services

import (
	"context"
	"testing"

	"contas/internal/core"
)

func TestEnsureInstancesForPeriod_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bill := f.seedBill(t, core.Bill{
		Type:          core.BillRecorrente,
		RecurrenceDay: intp(10),
		StartDate:     core.NewDate(2024, 1, 10),
	})
	gen := NewGenerator(f.store)

	first, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, core.NewPeriod(2024, 3))
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("first ensure returned %d instances, want 1", len(first))
	}

	second, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, core.NewPeriod(2024, 3))
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("second ensure returned %d instances, want 1", len(second))
	}
	if first[0].ID != second[0].ID {
		t.Error("second ensure replaced the existing instance")
	}

	inst := findInstance(first, bill.ID, core.NewPeriod(2024, 3))
	if inst == nil {
		t.Fatal("instance for 2024-03 missing")
	}
	if inst.Amount != bill.Amount || inst.Status != core.StatusPendente {
		t.Errorf("instance = %+v, want pendente with bill amount", inst)
	}
	if got := inst.DueDate; got != core.NewDate(2024, 3, 10) {
		t.Errorf("due date = %v, want 2024-03-10", got.Time)
	}
}

func TestEnsureInstancesForPeriod_DueDateClamping(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBill(t, core.Bill{
		Type:          core.BillRecorrente,
		RecurrenceDay: intp(31),
		StartDate:     core.NewDate(2023, 1, 31),
	})
	gen := NewGenerator(f.store)

	instances, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, core.NewPeriod(2023, 2))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(instances))
	}
	if got := instances[0].DueDate; got != core.NewDate(2023, 2, 28) {
		t.Errorf("due date = %v, want clamped to 2023-02-28", got.Time)
	}
}

func TestEnsureInstancesForPeriod_ParceladaBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bill := f.seedBill(t, core.Bill{
		Description:       "Notebook",
		Type:              core.BillParcelada,
		RecurrenceDay:     intp(5),
		TotalInstallments: intp(3),
		StartDate:         core.NewDate(2024, 1, 1),
	})
	gen := NewGenerator(f.store)

	for month, want := range map[int]int{1: 1, 2: 2, 3: 3} {
		instances, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, core.NewPeriod(2024, month))
		if err != nil {
			t.Fatalf("ensure month %d: %v", month, err)
		}
		inst := findInstance(instances, bill.ID, core.NewPeriod(2024, month))
		if inst == nil {
			t.Fatalf("no instance for 2024-%02d", month)
		}
		if inst.InstallmentNumber == nil || *inst.InstallmentNumber != want {
			t.Errorf("month %d installment = %v, want %d", month, inst.InstallmentNumber, want)
		}
	}

	// One month past the plan: nothing materializes.
	instances, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, core.NewPeriod(2024, 4))
	if err != nil {
		t.Fatalf("ensure april: %v", err)
	}
	if inst := findInstance(instances, bill.ID, core.NewPeriod(2024, 4)); inst != nil {
		t.Errorf("instance generated past the installment range: %+v", inst)
	}
}

func TestEnsureInstancesForPeriod_AvulsaSingleMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bill := f.seedBill(t, core.Bill{
		Description: "IPVA",
		Type:        core.BillAvulsa,
		StartDate:   core.NewDate(2024, 2, 15),
	})
	gen := NewGenerator(f.store)

	instances, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, core.NewPeriod(2024, 2))
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	inst := findInstance(instances, bill.ID, core.NewPeriod(2024, 2))
	if inst == nil {
		t.Fatal("no instance for the start month")
	}
	// Avulsa due date is the start date itself, not a recurrence day.
	if inst.DueDate != core.NewDate(2024, 2, 15) {
		t.Errorf("due date = %v, want 2024-02-15", inst.DueDate.Time)
	}

	for _, p := range []core.Period{core.NewPeriod(2024, 1), core.NewPeriod(2024, 3)} {
		instances, err := gen.EnsureInstancesForPeriod(ctx, f.owner.ID, p)
		if err != nil {
			t.Fatalf("ensure %s: %v", p, err)
		}
		if inst := findInstance(instances, bill.ID, p); inst != nil {
			t.Errorf("avulsa bill materialized outside its month: %s", p)
		}
	}
}

func TestEnsureInstancesForPeriod_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedBill(t, core.Bill{
		Type:      core.BillRecorrente,
		StartDate: core.NewDate(2024, 1, 10),
	})
	gen := NewGenerator(f.store)
	p := core.NewPeriod(2024, 2)

	instances, err := gen.EnsureInstancesForPeriod(ctx, f.other.ID, p)
	if err != nil {
		t.Fatalf("ensure without grant: %v", err)
	}
	if len(instances) != 0 {
		t.Fatal("non-granted user generated instances for a foreign card")
	}

	f.grantOther(t)
	instances, err = gen.EnsureInstancesForPeriod(ctx, f.other.ID, p)
	if err != nil {
		t.Fatalf("ensure with grant: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("granted user sees %d instances, want 1", len(instances))
	}
}

func TestEnsureInstancesForPeriod_InvalidPeriod(t *testing.T) {
	f := newFixture(t)
	gen := NewGenerator(f.store)
	if _, err := gen.EnsureInstancesForPeriod(context.Background(), f.owner.ID, core.NewPeriod(2024, 13)); err == nil {
		t.Fatal("month 13 accepted")
	}
}
