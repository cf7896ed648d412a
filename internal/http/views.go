package http

import (
	"time"

	"contas/internal/core"
)

// The view types are the JSON wire shapes. Dates are formatted as
// 2006-01-02 and periods as YYYY-MM; amounts travel as integer cents.

const dateLayout = "2006-01-02"

type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type cardView struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Name       string    `json:"name"`
	IsArchived bool      `json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
}

type accessView struct {
	ID          string    `json:"id"`
	CardID      string    `json:"cardId"`
	GrantedToID string    `json:"grantedToId"`
	GrantedAt   time.Time `json:"grantedAt"`
}

type billView struct {
	ID                string    `json:"id"`
	CardID            string    `json:"cardId"`
	Description       string    `json:"description"`
	Category          string    `json:"category,omitempty"`
	AmountCents       int64     `json:"amountCents"`
	Type              string    `json:"type"`
	RecurrenceDay     *int      `json:"recurrenceDay,omitempty"`
	TotalInstallments *int      `json:"totalInstallments,omitempty"`
	StartDate         string    `json:"startDate"`
	EndDate           *string   `json:"endDate,omitempty"`
	IsActive          bool      `json:"isActive"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
}

type instanceView struct {
	ID                string     `json:"id"`
	BillID            string     `json:"billId"`
	Period            string     `json:"period"`
	AmountCents       int64      `json:"amountCents"`
	DueDate           string     `json:"dueDate"`
	EffectiveCents    int64      `json:"effectiveAmountCents"`
	EffectiveDueDate  string     `json:"effectiveDueDate"`
	OverriddenCents   *int64     `json:"overriddenAmountCents,omitempty"`
	OverriddenDueDate *string    `json:"overriddenDueDate,omitempty"`
	InstallmentNumber *int       `json:"installmentNumber,omitempty"`
	Status            string     `json:"status"`
	PaidAt            *time.Time `json:"paidAt,omitempty"`
	PaidByUserID      *string    `json:"paidByUserId,omitempty"`
	CancelledAt       *time.Time `json:"cancelledAt,omitempty"`
}

type paymentView struct {
	ID           string    `json:"id"`
	InstanceID   string    `json:"instanceId"`
	AmountCents  int64     `json:"amountCents"`
	PaidByUserID string    `json:"paidByUserId"`
	PaidAt       time.Time `json:"paidAt"`
	Note         string    `json:"note,omitempty"`
}

func toUserView(u *core.User) userView {
	return userView{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

func toCardView(c *core.Card) cardView {
	return cardView{ID: c.ID, OwnerID: c.OwnerID, Name: c.Name, IsArchived: c.IsArchived, CreatedAt: c.CreatedAt}
}

func toAccessView(a *core.CardAccess) accessView {
	return accessView{ID: a.ID, CardID: a.CardID, GrantedToID: a.GrantedToID, GrantedAt: a.GrantedAt}
}

func toBillView(b *core.Bill) billView {
	v := billView{
		ID:                b.ID,
		CardID:            b.CardID,
		Description:       b.Description,
		Category:          b.Category,
		AmountCents:       b.Amount.Cents,
		Type:              string(b.Type),
		RecurrenceDay:     b.RecurrenceDay,
		TotalInstallments: b.TotalInstallments,
		StartDate:         b.StartDate.Format(dateLayout),
		IsActive:          b.IsActive,
		Version:           b.Version,
		CreatedAt:         b.CreatedAt,
	}
	if b.EndDate != nil {
		s := b.EndDate.Format(dateLayout)
		v.EndDate = &s
	}
	return v
}

func toInstanceView(i *core.BillInstance) instanceView {
	v := instanceView{
		ID:                i.ID,
		BillID:            i.BillID,
		Period:            i.Period.String(),
		AmountCents:       i.Amount.Cents,
		DueDate:           i.DueDate.Format(dateLayout),
		EffectiveCents:    i.EffectiveAmount().Cents,
		EffectiveDueDate:  i.EffectiveDueDate().Format(dateLayout),
		InstallmentNumber: i.InstallmentNumber,
		Status:            string(i.Status),
		PaidAt:            i.PaidAt,
		PaidByUserID:      i.PaidByUserID,
		CancelledAt:       i.CancelledAt,
	}
	if i.OverriddenAmount != nil {
		c := i.OverriddenAmount.Cents
		v.OverriddenCents = &c
	}
	if i.OverriddenDueDate != nil {
		s := i.OverriddenDueDate.Format(dateLayout)
		v.OverriddenDueDate = &s
	}
	return v
}

func toInstanceViews(instances []core.BillInstance) []instanceView {
	views := make([]instanceView, len(instances))
	for idx := range instances {
		views[idx] = toInstanceView(&instances[idx])
	}
	return views
}

func toPaymentView(p *core.Payment) paymentView {
	return paymentView{
		ID:           p.ID,
		InstanceID:   p.InstanceID,
		AmountCents:  p.Amount.Cents,
		PaidByUserID: p.PaidByUserID,
		PaidAt:       p.PaidAt,
		Note:         p.Note,
	}
}
