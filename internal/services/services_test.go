package services

import (
	"context"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/storage/memory"
)

// fixture seeds an in-memory store with an owner, another registered user
// and one card owned by the owner.
type fixture struct {
	store *memory.Store
	owner *core.User
	other *core.User
	card  *core.Card
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()

	owner := &core.User{Email: "ana@example.com", DisplayName: "Ana", PasswordHash: "x"}
	if err := s.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create owner: %v", err)
	}
	other := &core.User{Email: "bea@example.com", DisplayName: "Bea", PasswordHash: "x"}
	if err := s.CreateUser(ctx, other); err != nil {
		t.Fatalf("create other: %v", err)
	}
	card := &core.Card{OwnerID: owner.ID, Name: "Nubank", CreatedAt: time.Now()}
	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("create card: %v", err)
	}

	return &fixture{store: s, owner: owner, other: other, card: card}
}

// seedBill persists a bill on the fixture card with sane defaults.
func (f *fixture) seedBill(t *testing.T, b core.Bill) *core.Bill {
	t.Helper()
	if b.CardID == "" {
		b.CardID = f.card.ID
	}
	if b.Description == "" {
		b.Description = "Internet"
	}
	if b.Amount.Cents == 0 {
		b.Amount = core.Money{Cents: 9990}
	}
	b.IsActive = true
	b.CreatedAt = time.Now()
	if err := f.store.CreateBill(context.Background(), &b); err != nil {
		t.Fatalf("seed bill: %v", err)
	}
	return &b
}

func (f *fixture) grantOther(t *testing.T) {
	t.Helper()
	grant := &core.CardAccess{CardID: f.card.ID, GrantedToID: f.other.ID, GrantedAt: time.Now()}
	if err := f.store.GrantAccess(context.Background(), grant); err != nil {
		t.Fatalf("grant access: %v", err)
	}
}

func intp(n int) *int { return &n }

func findInstance(instances []core.BillInstance, billID string, p core.Period) *core.BillInstance {
	for i := range instances {
		if instances[i].BillID == billID && instances[i].Period == p {
			return &instances[i]
		}
	}
	return nil
}
