package storage

import (
	"context"
	"database/sql"
	"fmt"

	"contas/internal/core"
)

const instanceColumns = `id, bill_id, reference_year, reference_month,
	amount_cents, due_date, overridden_amount_cents, overridden_due_date,
	installment_number, status, paid_at, paid_by_user_id, cancelled_at,
	created_at`

func (s *SQLiteStore) CreateInstance(ctx context.Context, i *core.BillInstance) error {
	if i.ID == "" {
		i.ID = newRowID()
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO bill_instances (`+instanceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.BillID, i.Period.Year, i.Period.Month,
		i.Amount.Cents, dateToCol(i.DueDate),
		moneyPtrToCol(i.OverriddenAmount), datePtrToCol(i.OverriddenDueDate),
		intPtrToCol(i.InstallmentNumber), string(i.Status),
		timePtrToCol(i.PaidAt), strPtrToCol(i.PaidByUserID), timePtrToCol(i.CancelledAt),
		timeToCol(i.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert instance: %w", mapSQLErr(err))
	}
	return nil
}

func (s *SQLiteStore) GetInstance(ctx context.Context, id string) (*core.BillInstance, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM bill_instances WHERE id = ?`, id)
	i, err := scanInstanceRow(row)
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", mapSQLErr(err))
	}
	return i, nil
}

func (s *SQLiteStore) GetInstanceByBillPeriod(ctx context.Context, billID string, p core.Period) (*core.BillInstance, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM bill_instances
		 WHERE bill_id = ? AND reference_year = ? AND reference_month = ?`,
		billID, p.Year, p.Month)
	i, err := scanInstanceRow(row)
	if err != nil {
		return nil, fmt.Errorf("get instance by period: %w", mapSQLErr(err))
	}
	return i, nil
}

func (s *SQLiteStore) ListInstancesForPeriod(ctx context.Context, userID string, p core.Period) ([]core.BillInstance, error) {
	return s.queryInstances(ctx,
		`SELECT i.id, i.bill_id, i.reference_year, i.reference_month,
		        i.amount_cents, i.due_date, i.overridden_amount_cents,
		        i.overridden_due_date, i.installment_number, i.status,
		        i.paid_at, i.paid_by_user_id, i.cancelled_at, i.created_at
		 FROM bill_instances i
		 JOIN bills b ON b.id = i.bill_id AND b.deleted_at IS NULL
		 JOIN cards c ON c.id = b.card_id
		 WHERE i.reference_year = ? AND i.reference_month = ?
		   AND (c.owner_id = ?
		        OR EXISTS (
		            SELECT 1 FROM card_access a
		            WHERE a.card_id = c.id AND a.granted_to_id = ? AND a.revoked_at IS NULL))
		 ORDER BY i.due_date, i.id`,
		p.Year, p.Month, userID, userID)
}

func (s *SQLiteStore) ListInstancesFrom(ctx context.Context, billID string, from core.Period) ([]core.BillInstance, error) {
	// Periods order lexicographically on (year, month); the absolute month
	// index keeps the comparison a single expression.
	fromIndex := from.Year*12 + from.Month
	return s.queryInstances(ctx,
		`SELECT `+instanceColumns+` FROM bill_instances
		 WHERE bill_id = ? AND (reference_year * 12 + reference_month) >= ?
		 ORDER BY reference_year, reference_month`,
		billID, fromIndex)
}

func (s *SQLiteStore) UpdateInstanceStructural(ctx context.Context, i *core.BillInstance) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bill_instances SET amount_cents = ?, due_date = ?, installment_number = ?
		 WHERE id = ?`,
		i.Amount.Cents, dateToCol(i.DueDate), intPtrToCol(i.InstallmentNumber), i.ID,
	)
	if err != nil {
		return fmt.Errorf("update instance structural: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) UpdateInstanceStatus(ctx context.Context, i *core.BillInstance) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bill_instances SET status = ?, paid_at = ?, paid_by_user_id = ?, cancelled_at = ?
		 WHERE id = ?`,
		string(i.Status), timePtrToCol(i.PaidAt), strPtrToCol(i.PaidByUserID),
		timePtrToCol(i.CancelledAt), i.ID,
	)
	if err != nil {
		return fmt.Errorf("update instance status: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) UpdateInstanceOverrides(ctx context.Context, i *core.BillInstance) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE bill_instances SET overridden_amount_cents = ?, overridden_due_date = ?
		 WHERE id = ?`,
		moneyPtrToCol(i.OverriddenAmount), datePtrToCol(i.OverriddenDueDate), i.ID,
	)
	if err != nil {
		return fmt.Errorf("update instance overrides: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteInstance(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM bill_instances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) queryInstances(ctx context.Context, query string, args ...any) ([]core.BillInstance, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	var out []core.BillInstance
	for rows.Next() {
		i, err := scanInstanceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

func scanInstanceRow(row rowScanner) (*core.BillInstance, error) {
	var (
		i            core.BillInstance
		amountCents  int64
		dueDate      string
		overAmount   sql.NullInt64
		overDue      sql.NullString
		installment  sql.NullInt64
		status       string
		paidAt       sql.NullString
		paidBy       sql.NullString
		cancelledAt  sql.NullString
		createdAt    string
	)
	err := row.Scan(&i.ID, &i.BillID, &i.Period.Year, &i.Period.Month,
		&amountCents, &dueDate, &overAmount, &overDue,
		&installment, &status, &paidAt, &paidBy, &cancelledAt, &createdAt)
	if err != nil {
		return nil, err
	}
	i.Amount = core.Money{Cents: amountCents}
	if i.DueDate, err = dateFromCol(dueDate); err != nil {
		return nil, err
	}
	i.OverriddenAmount = moneyPtrFromCol(overAmount)
	if i.OverriddenDueDate, err = datePtrFromCol(overDue); err != nil {
		return nil, err
	}
	i.InstallmentNumber = intPtrFromCol(installment)
	i.Status = core.InstanceStatus(status)
	if i.PaidAt, err = timePtrFromCol(paidAt); err != nil {
		return nil, err
	}
	i.PaidByUserID = strPtrFromCol(paidBy)
	if i.CancelledAt, err = timePtrFromCol(cancelledAt); err != nil {
		return nil, err
	}
	if i.CreatedAt, err = timeFromCol(createdAt); err != nil {
		return nil, err
	}
	return &i, nil
}
