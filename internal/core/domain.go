package core

import (
	"strings"
	"time"
)

const (
	// Bill types. A recorrente bill repeats monthly until its optional end
	// date, an avulsa bill occurs exactly once, a parcelada bill runs for a
	// fixed count of monthly installments.
	BillRecorrente BillType = "recorrente"
	BillAvulsa     BillType = "avulsa"
	BillParcelada  BillType = "parcelada"

	// Instance statuses.
	StatusPendente  InstanceStatus = "pendente"
	StatusPago      InstanceStatus = "pago"
	StatusCancelado InstanceStatus = "cancelado"
)

type (
	BillType       string
	InstanceStatus string

	Date struct {
		time.Time
	}

	// User is an account holder. PasswordHash is a bcrypt hash, never the
	// raw credential.
	User struct {
		ID           string
		Email        string
		DisplayName  string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Card is a named container of bills owned by exactly one user and
	// optionally shared through CardAccess grants. IsArchived is a display
	// hint: listings and generation still include archived cards, clients
	// filter on the flag.
	Card struct {
		ID         string
		OwnerID    string
		Name       string
		IsArchived bool
		CreatedAt  time.Time
	}

	// CardAccess is one revocable share grant. RevokedAt nil means active.
	CardAccess struct {
		ID          string
		CardID      string
		GrantedToID string
		GrantedAt   time.Time
		RevokedAt   *time.Time
	}

	// Bill is the template a monthly instance is materialized from.
	// TotalInstallments is non-nil exactly when Type is parcelada.
	// Version is a monotonic optimistic-lock counter; DeletedAt soft-deletes.
	Bill struct {
		ID                string
		CardID            string
		Description       string
		Category          string
		Amount            Money
		Type              BillType
		RecurrenceDay     *int // 1-31, recorrente/parcelada only
		TotalInstallments *int
		StartDate         Date
		EndDate           *Date
		IsActive          bool
		Version           int64
		CreatedAt         time.Time
		DeletedAt         *time.Time
	}

	// BillInstance is one concrete occurrence of a bill in a reference
	// period, unique per (BillID, Period). Structural fields (amount, due
	// date, installment number) belong to the reconciler; status fields
	// belong to the state machine. Instances are hard-deleted when a bill
	// edit moves them out of range, unlike bills which soft-delete.
	BillInstance struct {
		ID                string
		BillID            string
		Period            Period
		Amount            Money
		DueDate           Date
		OverriddenAmount  *Money
		OverriddenDueDate *Date
		InstallmentNumber *int
		Status            InstanceStatus
		PaidAt            *time.Time
		PaidByUserID      *string
		CancelledAt       *time.Time
		CreatedAt         time.Time
	}

	// Payment records money applied against an instance. Any payment is a
	// hard block on destructive instance operations.
	Payment struct {
		ID           string
		InstanceID   string
		Amount       Money
		PaidByUserID string
		PaidAt       time.Time
		Note         string
	}
)

func (t BillType) Valid() bool {
	switch t {
	case BillRecorrente, BillAvulsa, BillParcelada:
		return true
	}
	return false
}

func (s InstanceStatus) Valid() bool {
	switch s {
	case StatusPendente, StatusPago, StatusCancelado:
		return true
	}
	return false
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Period returns the calendar month containing the date.
func (d Date) Period() Period {
	return PeriodOf(d.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return Invalid("date", "date cannot be zero")
	}
	return nil
}

// Validate checks the bill definition, including the
// parcelada/totalInstallments pairing.
func (b Bill) Validate() error {
	verr := &ValidationError{}
	if len(strings.TrimSpace(b.Description)) == 0 {
		verr.add("description", "cannot be empty")
	}
	if len(b.Description) > 200 {
		verr.add("description", "too long (max 200 characters)")
	}
	if b.Amount.Cents <= 0 {
		verr.add("amount", "must be positive")
	}
	if !b.Type.Valid() {
		verr.add("type", "must be one of recorrente, avulsa, parcelada")
	}
	if b.RecurrenceDay != nil && (*b.RecurrenceDay < 1 || *b.RecurrenceDay > 31) {
		verr.add("recurrenceDay", "must be between 1 and 31")
	}
	switch b.Type {
	case BillParcelada:
		if b.TotalInstallments == nil {
			verr.add("totalInstallments", "required for parcelada bills")
		} else if *b.TotalInstallments < 1 {
			verr.add("totalInstallments", "must be at least 1")
		}
	case BillRecorrente, BillAvulsa:
		if b.TotalInstallments != nil {
			verr.add("totalInstallments", "only allowed for parcelada bills")
		}
	}
	if b.StartDate.IsZero() {
		verr.add("startDate", "cannot be zero")
	}
	if b.EndDate != nil && !b.StartDate.IsZero() && b.EndDate.Before(b.StartDate.Time) {
		verr.add("endDate", "must not be before startDate")
	}
	return verr.orNil()
}

// CoversPeriod reports whether the bill has an occurrence in p.
func (b Bill) CoversPeriod(p Period) bool {
	start := b.StartDate.Period()
	switch b.Type {
	case BillAvulsa:
		return p.Compare(start) == 0
	case BillParcelada:
		if b.TotalInstallments == nil {
			return false
		}
		diff := DiffMonths(start, p)
		return diff >= 0 && diff < *b.TotalInstallments
	case BillRecorrente:
		if p.Before(start) {
			return false
		}
		if b.EndDate != nil && b.EndDate.Period().Before(p) {
			return false
		}
		return true
	}
	return false
}

// InstallmentFor returns the 1-based installment number of p, or nil for
// non-parcelada bills or periods outside the installment range.
func (b Bill) InstallmentFor(p Period) *int {
	if b.Type != BillParcelada || b.TotalInstallments == nil {
		return nil
	}
	diff := DiffMonths(b.StartDate.Period(), p)
	if diff < 0 || diff >= *b.TotalInstallments {
		return nil
	}
	n := diff + 1
	return &n
}

// DueDateIn computes the due date of the bill's occurrence in p: the start
// date itself for avulsa bills, the clamped recurrence day otherwise.
func (b Bill) DueDateIn(p Period) Date {
	if b.Type == BillAvulsa {
		return b.StartDate
	}
	return DueDateFor(b.RecurrenceDay, p)
}

// Materialize computes the instance the bill prescribes for p. The second
// return is false when the bill has no occurrence in that period.
func (b Bill) Materialize(p Period) (BillInstance, bool) {
	if !b.CoversPeriod(p) {
		return BillInstance{}, false
	}
	return BillInstance{
		BillID:            b.ID,
		Period:            p,
		Amount:            b.Amount,
		DueDate:           b.DueDateIn(p),
		InstallmentNumber: b.InstallmentFor(p),
		Status:            StatusPendente,
	}, true
}

// HasOverride reports whether either manual override is set. An overridden
// instance is exempt from structural recomputation, though not from
// out-of-range deletion.
func (i BillInstance) HasOverride() bool {
	return i.OverriddenAmount != nil || i.OverriddenDueDate != nil
}

// IsFinal reports whether the instance is in a state the reconciler must
// not touch.
func (i BillInstance) IsFinal() bool {
	return i.Status == StatusPago || i.Status == StatusCancelado
}

// EffectiveAmount is the overridden amount when set, the bill-derived
// amount otherwise.
func (i BillInstance) EffectiveAmount() Money {
	if i.OverriddenAmount != nil {
		return *i.OverriddenAmount
	}
	return i.Amount
}

// EffectiveDueDate is the overridden due date when set.
func (i BillInstance) EffectiveDueDate() Date {
	if i.OverriddenDueDate != nil {
		return *i.OverriddenDueDate
	}
	return i.DueDate
}
