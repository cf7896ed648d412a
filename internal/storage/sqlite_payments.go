package storage

import (
	"context"
	"fmt"

	"contas/internal/core"
)

func (s *SQLiteStore) CreatePayment(ctx context.Context, p *core.Payment) error {
	if p.ID == "" {
		p.ID = newRowID()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO payments (id, instance_id, amount_cents, paid_by_user_id, paid_at, note)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.InstanceID, p.Amount.Cents, p.PaidByUserID, timeToCol(p.PaidAt), p.Note,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", mapSQLErr(err))
	}
	return nil
}

func (s *SQLiteStore) ListPaymentsByInstance(ctx context.Context, instanceID string) ([]core.Payment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, instance_id, amount_cents, paid_by_user_id, paid_at, note
		 FROM payments WHERE instance_id = ? ORDER BY paid_at`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		var amountCents int64
		var paidAt string
		if err := rows.Scan(&p.ID, &p.InstanceID, &amountCents, &p.PaidByUserID, &paidAt, &p.Note); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = core.Money{Cents: amountCents}
		if p.PaidAt, err = timeFromCol(paidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SumPaymentsByInstance(ctx context.Context, instanceID string) (int64, error) {
	var sum int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE instance_id = ?`,
		instanceID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

func (s *SQLiteStore) CountPaymentsByInstance(ctx context.Context, instanceID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE instance_id = ?`,
		instanceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}
