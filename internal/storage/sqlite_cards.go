package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contas/internal/core"
)

func (s *SQLiteStore) CreateCard(ctx context.Context, c *core.Card) error {
	if c.ID == "" {
		c.ID = newRowID()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO cards (id, owner_id, name, is_archived, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.IsArchived, timeToCol(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", mapSQLErr(err))
	}
	return nil
}

func (s *SQLiteStore) GetCard(ctx context.Context, id string) (*core.Card, error) {
	var c core.Card
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, owner_id, name, is_archived, created_at FROM cards WHERE id = ?`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.IsArchived, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", mapSQLErr(err))
	}
	if c.CreatedAt, err = timeFromCol(createdAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) ListCardsForUser(ctx context.Context, userID string) ([]core.Card, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner_id, name, is_archived, created_at FROM cards c
		 WHERE c.owner_id = ?
		    OR EXISTS (
		        SELECT 1 FROM card_access a
		        WHERE a.card_id = c.id AND a.granted_to_id = ? AND a.revoked_at IS NULL)
		 ORDER BY c.created_at`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []core.Card
	for rows.Next() {
		var c core.Card
		var createdAt string
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.IsArchived, &createdAt); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		if c.CreatedAt, err = timeFromCol(createdAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateCard(ctx context.Context, c *core.Card) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE cards SET name = ?, is_archived = ? WHERE id = ?`,
		c.Name, c.IsArchived, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) GrantAccess(ctx context.Context, a *core.CardAccess) error {
	if a.ID == "" {
		a.ID = newRowID()
	}
	active, err := s.HasActiveAccess(ctx, a.CardID, a.GrantedToID)
	if err != nil {
		return err
	}
	if active {
		return fmt.Errorf("grant access: %w", core.ErrConflict)
	}
	_, err = s.q.ExecContext(ctx,
		`INSERT INTO card_access (id, card_id, granted_to_id, granted_at, revoked_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.CardID, a.GrantedToID, timeToCol(a.GrantedAt), timePtrToCol(a.RevokedAt),
	)
	if err != nil {
		return fmt.Errorf("insert card access: %w", mapSQLErr(err))
	}
	return nil
}

func (s *SQLiteStore) RevokeAccess(ctx context.Context, cardID, grantedToID string, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE card_access SET revoked_at = ?
		 WHERE card_id = ? AND granted_to_id = ? AND revoked_at IS NULL`,
		timeToCol(at), cardID, grantedToID,
	)
	if err != nil {
		return fmt.Errorf("revoke card access: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) ListAccess(ctx context.Context, cardID string) ([]core.CardAccess, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, card_id, granted_to_id, granted_at, revoked_at FROM card_access
		 WHERE card_id = ? ORDER BY granted_at`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list card access: %w", err)
	}
	defer rows.Close()

	var out []core.CardAccess
	for rows.Next() {
		var a core.CardAccess
		var grantedAt string
		var revokedAt sql.NullString
		if err := rows.Scan(&a.ID, &a.CardID, &a.GrantedToID, &grantedAt, &revokedAt); err != nil {
			return nil, fmt.Errorf("scan card access: %w", err)
		}
		if a.GrantedAt, err = timeFromCol(grantedAt); err != nil {
			return nil, err
		}
		if a.RevokedAt, err = timePtrFromCol(revokedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) HasActiveAccess(ctx context.Context, cardID, userID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM card_access
		 WHERE card_id = ? AND granted_to_id = ? AND revoked_at IS NULL`,
		cardID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check card access: %w", err)
	}
	return n > 0, nil
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
