package core

// BillPatch is a typed, validated edit to a bill. A nil field leaves the
// bill's value unchanged; the Clear flags distinguish "set to null" from
// "leave alone" for the nullable fields.
type BillPatch struct {
	Description       *string
	Category          *string
	AmountCents       *int64
	Type              *BillType
	RecurrenceDay     *int
	ClearRecurrence   bool
	TotalInstallments *int
	StartDate         *Date
	EndDate           *Date
	ClearEndDate      bool
	IsActive          *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p BillPatch) IsEmpty() bool {
	return p.Description == nil && p.Category == nil && p.AmountCents == nil &&
		p.Type == nil && p.RecurrenceDay == nil && !p.ClearRecurrence &&
		p.TotalInstallments == nil && p.StartDate == nil && p.EndDate == nil &&
		!p.ClearEndDate && p.IsActive == nil
}

// Apply returns a copy of b with the patch applied and re-validated.
// Switching away from parcelada forces TotalInstallments to null so the
// type/installments invariant can never be violated by an edit.
func (p BillPatch) Apply(b Bill) (Bill, error) {
	if p.IsEmpty() {
		return Bill{}, Invalid("patch", "no fields to update")
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.AmountCents != nil {
		b.Amount = Money{Cents: *p.AmountCents}
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.RecurrenceDay != nil {
		day := *p.RecurrenceDay
		b.RecurrenceDay = &day
	}
	if p.ClearRecurrence {
		b.RecurrenceDay = nil
	}
	if p.TotalInstallments != nil {
		n := *p.TotalInstallments
		b.TotalInstallments = &n
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		d := *p.EndDate
		b.EndDate = &d
	}
	if p.ClearEndDate {
		b.EndDate = nil
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
	if b.Type != BillParcelada {
		b.TotalInstallments = nil
	}
	if err := b.Validate(); err != nil {
		return Bill{}, err
	}
	return b, nil
}

// OverridePatch carries manual per-instance overrides. Overrides are only
// accepted on pendente instances and exempt the instance from structural
// recomputation on later bill edits.
type OverridePatch struct {
	AmountCents  *int64
	DueDate      *Date
	ClearAmount  bool
	ClearDueDate bool
}

func (p OverridePatch) IsEmpty() bool {
	return p.AmountCents == nil && p.DueDate == nil && !p.ClearAmount && !p.ClearDueDate
}

func (p OverridePatch) Validate() error {
	verr := &ValidationError{}
	if p.IsEmpty() {
		verr.add("patch", "no fields to update")
	}
	if p.AmountCents != nil && *p.AmountCents <= 0 {
		verr.add("overriddenAmount", "must be positive")
	}
	if p.AmountCents != nil && p.ClearAmount {
		verr.add("overriddenAmount", "cannot set and clear at once")
	}
	if p.DueDate != nil && p.ClearDueDate {
		verr.add("overriddenDueDate", "cannot set and clear at once")
	}
	return verr.orNil()
}

// Apply mutates the instance's override fields in place.
func (p OverridePatch) Apply(i *BillInstance) {
	if p.AmountCents != nil {
		i.OverriddenAmount = &Money{Cents: *p.AmountCents}
	}
	if p.ClearAmount {
		i.OverriddenAmount = nil
	}
	if p.DueDate != nil {
		d := *p.DueDate
		i.OverriddenDueDate = &d
	}
	if p.ClearDueDate {
		i.OverriddenDueDate = nil
	}
}
