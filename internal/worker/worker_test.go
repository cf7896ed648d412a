package worker

import (
	"context"
	"testing"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/services"
	sheetsmem "contas/internal/sheets/memory"
	"contas/internal/storage/memory"
)

func seedBill(t *testing.T, store *memory.Store) (userID string) {
	t.Helper()
	ctx := context.Background()

	user := &core.User{Email: "ana@example.com", DisplayName: "Ana", PasswordHash: "x"}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	card := &core.Card{OwnerID: user.ID, Name: "Nubank"}
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	bill := &core.Bill{
		CardID:      card.ID,
		Description: "Internet",
		Amount:      core.Money{Cents: 9990},
		Type:        core.BillRecorrente,
		StartDate:   core.NewDate(2024, 1, 10),
		IsActive:    true,
		Version:     1,
	}
	if err := store.CreateBill(ctx, bill); err != nil {
		t.Fatalf("CreateBill: %v", err)
	}
	return user.ID
}

func TestSweepOnceMaterializesCurrentMonth(t *testing.T) {
	store := memory.NewStore()
	userID := seedBill(t, store)

	generator := services.NewGenerator(store)
	w := New(store, generator, services.NewStatementService(store, generator, nil), nil, nil, time.Hour)
	w.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	w.sweepOnce(context.Background())

	instances, err := store.ListInstancesForPeriod(context.Background(), userID, core.NewPeriod(2024, 3))
	if err != nil {
		t.Fatalf("ListInstancesForPeriod: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(instances))
	}
	if instances[0].Amount.Cents != 9990 || instances[0].Status != core.StatusPendente {
		t.Fatalf("unexpected instance: %+v", instances[0])
	}

	// A second sweep is a no-op.
	w.sweepOnce(context.Background())
	instances, err = store.ListInstancesForPeriod(context.Background(), userID, core.NewPeriod(2024, 3))
	if err != nil {
		t.Fatalf("ListInstancesForPeriod: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("after second sweep: got %d instances, want 1", len(instances))
	}
}

func TestExportStatementWritesRows(t *testing.T) {
	store := memory.NewStore()
	userID := seedBill(t, store)

	generator := services.NewGenerator(store)
	writer := sheetsmem.New()
	w := New(store, generator, services.NewStatementService(store, generator, nil), nil, writer, time.Hour)

	msg := &amqp.StatementExportMessage{UserID: userID, Year: 2024, Month: 3}
	if err := w.exportStatement(context.Background(), msg); err != nil {
		t.Fatalf("exportStatement: %v", err)
	}

	statements := writer.Statements()
	if len(statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(statements))
	}
	st := statements[0]
	if st.UserID != userID || st.Period != core.NewPeriod(2024, 3) {
		t.Fatalf("unexpected statement header: %+v", st)
	}
	if len(st.Rows) != 1 || st.Rows[0].Description != "Internet" {
		t.Fatalf("unexpected rows: %+v", st.Rows)
	}
}

func TestExportStatementRejectsBadPeriod(t *testing.T) {
	store := memory.NewStore()
	generator := services.NewGenerator(store)
	w := New(store, generator, services.NewStatementService(store, generator, nil), nil, sheetsmem.New(), time.Hour)

	msg := &amqp.StatementExportMessage{UserID: "u-1", Year: 2024, Month: 13}
	if err := w.exportStatement(context.Background(), msg); err == nil {
		t.Fatal("expected error for month 13")
	}
}
