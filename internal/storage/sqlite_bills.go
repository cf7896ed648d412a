package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"contas/internal/core"
)

const billColumns = `id, card_id, description, category, amount_cents, type,
	recurrence_day, total_installments, start_date, end_date, is_active,
	version, created_at, deleted_at`

func (s *SQLiteStore) CreateBill(ctx context.Context, b *core.Bill) error {
	if b.ID == "" {
		b.ID = newRowID()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CardID, b.Description, b.Category, b.Amount.Cents, string(b.Type),
		intPtrToCol(b.RecurrenceDay), intPtrToCol(b.TotalInstallments),
		dateToCol(b.StartDate), datePtrToCol(b.EndDate), b.IsActive,
		b.Version, timeToCol(b.CreatedAt), timePtrToCol(b.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert bill: %w", mapSQLErr(err))
	}
	return nil
}

func (s *SQLiteStore) GetBill(ctx context.Context, id string) (*core.Bill, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND deleted_at IS NULL`, id)
	b, err := scanBillRow(row)
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", mapSQLErr(err))
	}
	return b, nil
}

func (s *SQLiteStore) ListBillsByCard(ctx context.Context, cardID string) ([]core.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE card_id = ? AND deleted_at IS NULL ORDER BY created_at`, cardID)
}

func (s *SQLiteStore) ListVisibleActiveBills(ctx context.Context, userID string) ([]core.Bill, error) {
	return s.queryBills(ctx,
		`SELECT b.id, b.card_id, b.description, b.category, b.amount_cents, b.type,
		        b.recurrence_day, b.total_installments, b.start_date, b.end_date,
		        b.is_active, b.version, b.created_at, b.deleted_at
		 FROM bills b
		 JOIN cards c ON c.id = b.card_id
		 WHERE b.deleted_at IS NULL AND b.is_active = 1
		   AND (c.owner_id = ?
		        OR EXISTS (
		            SELECT 1 FROM card_access a
		            WHERE a.card_id = c.id AND a.granted_to_id = ? AND a.revoked_at IS NULL))
		 ORDER BY b.id`,
		userID, userID)
}

// UpdateBillVersioned applies the conditional write the whole optimistic
// concurrency story rests on: the UPDATE matches a row only when the stored
// version equals the caller's expectation.
func (s *SQLiteStore) UpdateBillVersioned(ctx context.Context, b *core.Bill, expectedVersion int64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bills SET
		    description = ?, category = ?, amount_cents = ?, type = ?,
		    recurrence_day = ?, total_installments = ?, start_date = ?,
		    end_date = ?, is_active = ?, version = version + 1
		 WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		b.Description, b.Category, b.Amount.Cents, string(b.Type),
		intPtrToCol(b.RecurrenceDay), intPtrToCol(b.TotalInstallments),
		dateToCol(b.StartDate), datePtrToCol(b.EndDate), b.IsActive,
		b.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish a stale version from a missing bill.
		if _, err := s.GetBill(ctx, b.ID); err != nil {
			return err
		}
		return core.ErrConflict
	}
	b.Version = expectedVersion + 1
	return nil
}

func (s *SQLiteStore) SoftDeleteBill(ctx context.Context, id string, at time.Time) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bills SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		timeToCol(at), id,
	)
	if err != nil {
		return fmt.Errorf("soft delete bill: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) queryBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBillRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBillRow(row rowScanner) (*core.Bill, error) {
	var (
		b           core.Bill
		typ         string
		recDay      sql.NullInt64
		totalInst   sql.NullInt64
		startDate   string
		endDate     sql.NullString
		createdAt   string
		deletedAt   sql.NullString
		amountCents int64
	)
	err := row.Scan(&b.ID, &b.CardID, &b.Description, &b.Category, &amountCents, &typ,
		&recDay, &totalInst, &startDate, &endDate, &b.IsActive,
		&b.Version, &createdAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	b.Amount = core.Money{Cents: amountCents}
	b.Type = core.BillType(typ)
	b.RecurrenceDay = intPtrFromCol(recDay)
	b.TotalInstallments = intPtrFromCol(totalInst)
	if b.StartDate, err = dateFromCol(startDate); err != nil {
		return nil, err
	}
	if b.EndDate, err = datePtrFromCol(endDate); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = timeFromCol(createdAt); err != nil {
		return nil, err
	}
	if b.DeletedAt, err = timePtrFromCol(deletedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
