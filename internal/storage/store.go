// Package storage defines the persistence contracts for cards, bills,
// instances and payments, plus the transactional and optimistic-concurrency
// primitives all coordination is built on.
package storage

import (
	"context"
	"time"

	"contas/internal/core"
)

// Users persists account records.
type Users interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetUserByID(ctx context.Context, id string) (*core.User, error)
	// ListUserIDs returns every user id; the generation sweep iterates it.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Cards persists card containers and their share grants.
type Cards interface {
	CreateCard(ctx context.Context, c *core.Card) error
	GetCard(ctx context.Context, id string) (*core.Card, error)
	// ListCardsForUser returns cards the user owns plus cards with an
	// active (non-revoked) access grant.
	ListCardsForUser(ctx context.Context, userID string) ([]core.Card, error)
	UpdateCard(ctx context.Context, c *core.Card) error

	GrantAccess(ctx context.Context, a *core.CardAccess) error
	// RevokeAccess marks the active grant for (cardID, userID) revoked.
	// Returns core.ErrNotFound when no active grant exists.
	RevokeAccess(ctx context.Context, cardID, grantedToID string, at time.Time) error
	ListAccess(ctx context.Context, cardID string) ([]core.CardAccess, error)
	// HasActiveAccess reports whether userID holds a non-revoked grant.
	HasActiveAccess(ctx context.Context, cardID, userID string) (bool, error)
}

// Bills persists bill templates. Bills soft-delete via DeletedAt and are
// mutated only through the version-guarded update path.
type Bills interface {
	CreateBill(ctx context.Context, b *core.Bill) error
	// GetBill returns core.ErrNotFound for missing or soft-deleted bills.
	GetBill(ctx context.Context, id string) (*core.Bill, error)
	ListBillsByCard(ctx context.Context, cardID string) ([]core.Bill, error)
	// ListVisibleActiveBills returns active, non-deleted bills on cards the
	// user owns or has an active grant on. The instance generator's input.
	ListVisibleActiveBills(ctx context.Context, userID string) ([]core.Bill, error)
	// UpdateBillVersioned writes the bill only when the stored version
	// equals expectedVersion, then bumps b.Version by one. A mismatch
	// returns core.ErrConflict and writes nothing.
	UpdateBillVersioned(ctx context.Context, b *core.Bill, expectedVersion int64) error
	SoftDeleteBill(ctx context.Context, id string, at time.Time) error
}

// Instances persists materialized monthly occurrences. Unlike bills,
// instances hard-delete. Creation is guarded by the unique
// (billID, period) index; a duplicate returns core.ErrConflict.
type Instances interface {
	CreateInstance(ctx context.Context, i *core.BillInstance) error
	GetInstance(ctx context.Context, id string) (*core.BillInstance, error)
	GetInstanceByBillPeriod(ctx context.Context, billID string, p core.Period) (*core.BillInstance, error)
	// ListInstancesForPeriod returns instances in p whose bill is visible
	// to the user, joined with non-deleted bills only.
	ListInstancesForPeriod(ctx context.Context, userID string, p core.Period) ([]core.BillInstance, error)
	// ListInstancesFrom returns a bill's instances with period >= from,
	// ordered by period ascending.
	ListInstancesFrom(ctx context.Context, billID string, from core.Period) ([]core.BillInstance, error)
	// UpdateInstanceStructural writes amount, due date and installment
	// number. The reconciler's write path; it never touches status fields.
	UpdateInstanceStructural(ctx context.Context, i *core.BillInstance) error
	// UpdateInstanceStatus writes status, paidAt, paidBy and cancelledAt.
	// The state machine's write path; it never touches structural fields.
	UpdateInstanceStatus(ctx context.Context, i *core.BillInstance) error
	// UpdateInstanceOverrides writes the two manual override columns.
	UpdateInstanceOverrides(ctx context.Context, i *core.BillInstance) error
	DeleteInstance(ctx context.Context, id string) error
}

// Payments persists money applied against instances.
type Payments interface {
	CreatePayment(ctx context.Context, p *core.Payment) error
	ListPaymentsByInstance(ctx context.Context, instanceID string) ([]core.Payment, error)
	// SumPaymentsByInstance returns total cents paid against the instance.
	SumPaymentsByInstance(ctx context.Context, instanceID string) (int64, error)
	CountPaymentsByInstance(ctx context.Context, instanceID string) (int, error)
}

// Store is the full persistence surface.
type Store interface {
	Users
	Cards
	Bills
	Instances
	Payments

	// InTx runs fn against a transactional view of the store; every write
	// fn performs commits atomically or not at all. Nested calls reuse the
	// enclosing transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	Close() error
}
