package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"contas/internal/core"
	"contas/internal/storage"
)

// CardService manages card containers and their share grants. Only the
// owner may rename, archive or share a card.
type CardService struct {
	store storage.Store
	now   func() time.Time
}

func NewCardService(store storage.Store) *CardService {
	return &CardService{store: store, now: time.Now}
}

func (s *CardService) CreateCard(ctx context.Context, userID, name string) (*core.Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.Invalid("name", "cannot be empty")
	}
	c := core.Card{
		OwnerID:   userID,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateCard(ctx, &c); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return &c, nil
}

func (s *CardService) GetCard(ctx context.Context, userID, cardID string) (*core.Card, error) {
	return visibleCard(ctx, s.store, userID, cardID)
}

// ListCards returns the user's own cards plus cards shared with them.
func (s *CardService) ListCards(ctx context.Context, userID string) ([]core.Card, error) {
	return s.store.ListCardsForUser(ctx, userID)
}

func (s *CardService) RenameCard(ctx context.Context, userID, cardID, name string) (*core.Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.Invalid("name", "cannot be empty")
	}
	c, err := ownedCard(ctx, s.store, userID, cardID)
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.store.UpdateCard(ctx, c); err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	return c, nil
}

// SetArchived archives or unarchives a card. Archiving soft-hides the card
// from listings; its bills keep their history.
func (s *CardService) SetArchived(ctx context.Context, userID, cardID string, archived bool) (*core.Card, error) {
	c, err := ownedCard(ctx, s.store, userID, cardID)
	if err != nil {
		return nil, err
	}
	c.IsArchived = archived
	if err := s.store.UpdateCard(ctx, c); err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	return c, nil
}

// ShareCard grants another user, looked up by email, access to the card.
// Sharing with the owner or an already-granted user is a conflict.
func (s *CardService) ShareCard(ctx context.Context, userID, cardID, email string) (*core.CardAccess, error) {
	c, err := ownedCard(ctx, s.store, userID, cardID)
	if err != nil {
		return nil, err
	}

	target, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if target.ID == c.OwnerID {
		return nil, core.Invalid("email", "card owner already has access")
	}

	active, err := s.store.HasActiveAccess(ctx, cardID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("check card access: %w", err)
	}
	if active {
		return nil, core.ErrConflict
	}

	grant := core.CardAccess{
		CardID:      cardID,
		GrantedToID: target.ID,
		GrantedAt:   s.now(),
	}
	if err := s.store.GrantAccess(ctx, &grant); err != nil {
		return nil, fmt.Errorf("grant access: %w", err)
	}

	slog.InfoContext(ctx, "Shared card",
		"card_id", cardID,
		"granted_to", target.ID)

	return &grant, nil
}

// RevokeShare revokes the active grant for grantedToID on the card.
func (s *CardService) RevokeShare(ctx context.Context, userID, cardID, grantedToID string) error {
	if _, err := ownedCard(ctx, s.store, userID, cardID); err != nil {
		return err
	}
	if err := s.store.RevokeAccess(ctx, cardID, grantedToID, s.now()); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Revoked card share",
		"card_id", cardID,
		"granted_to", grantedToID)
	return nil
}

// ListShares returns the card's grant history, revoked grants included.
func (s *CardService) ListShares(ctx context.Context, userID, cardID string) ([]core.CardAccess, error) {
	if _, err := ownedCard(ctx, s.store, userID, cardID); err != nil {
		return nil, err
	}
	return s.store.ListAccess(ctx, cardID)
}
