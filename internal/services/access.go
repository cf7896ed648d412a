// Package services implements the bill engine's use cases on top of the
// storage contracts: card sharing, bill lifecycle with reconciliation,
// instance generation and the instance state machine. All read access is
// scoped to cards the caller owns or holds an active grant on; entities
// outside that scope surface as not-found, never as forbidden.
package services

import (
	"context"
	"fmt"

	"contas/internal/core"
	"contas/internal/storage"
)

// canViewCard reports whether userID owns the card or holds an active grant.
func canViewCard(ctx context.Context, st storage.Store, userID string, c *core.Card) (bool, error) {
	if c.OwnerID == userID {
		return true, nil
	}
	ok, err := st.HasActiveAccess(ctx, c.ID, userID)
	if err != nil {
		return false, fmt.Errorf("check card access: %w", err)
	}
	return ok, nil
}

// visibleCard fetches a card the user may read. Invisible cards are
// indistinguishable from missing ones.
func visibleCard(ctx context.Context, st storage.Store, userID, cardID string) (*core.Card, error) {
	c, err := st.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	ok, err := canViewCard(ctx, st, userID, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrNotFound
	}
	return c, nil
}

// ownedCard fetches a card the user owns. A visible but non-owned card is
// forbidden; an invisible one is not found.
func ownedCard(ctx context.Context, st storage.Store, userID, cardID string) (*core.Card, error) {
	c, err := visibleCard(ctx, st, userID, cardID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != userID {
		return nil, core.ErrForbidden
	}
	return c, nil
}

func visibleBill(ctx context.Context, st storage.Store, userID, billID string) (*core.Bill, error) {
	b, err := st.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if _, err := visibleCard(ctx, st, userID, b.CardID); err != nil {
		return nil, err
	}
	return b, nil
}

// ownedBill fetches a bill on a card the user owns. Bill mutations always
// go through this path.
func ownedBill(ctx context.Context, st storage.Store, userID, billID string) (*core.Bill, error) {
	b, err := st.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedCard(ctx, st, userID, b.CardID); err != nil {
		return nil, err
	}
	return b, nil
}

// visibleInstance fetches an instance whose bill's card the user may read,
// along with the owning bill.
func visibleInstance(ctx context.Context, st storage.Store, userID, instanceID string) (*core.BillInstance, *core.Bill, error) {
	i, err := st.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, nil, err
	}
	b, err := visibleBill(ctx, st, userID, i.BillID)
	if err != nil {
		return nil, nil, err
	}
	return i, b, nil
}
