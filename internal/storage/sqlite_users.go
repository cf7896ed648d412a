package storage

import (
	"context"
	"fmt"
	"strings"

	"contas/internal/core"
)

func (s *SQLiteStore) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = newRowID()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, strings.ToLower(u.Email), u.DisplayName, u.PasswordHash, timeToCol(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapSQLErr(err))
	}
	return nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.scanUser(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM users WHERE email = ?`,
		strings.ToLower(email))
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return s.scanUser(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) scanUser(ctx context.Context, query string, arg any) (*core.User, error) {
	var u core.User
	var createdAt string
	err := s.q.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", mapSQLErr(err))
	}
	if u.CreatedAt, err = timeFromCol(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
