package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"contas/internal/core"
)

type createBillRequest struct {
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	AmountCents       int64   `json:"amountCents,omitempty"`
	Amount            *string `json:"amount,omitempty"`
	Type              string  `json:"type"`
	RecurrenceDay     *int    `json:"recurrenceDay,omitempty"`
	TotalInstallments *int    `json:"totalInstallments,omitempty"`
	StartDate         string  `json:"startDate"`
	EndDate           *string `json:"endDate,omitempty"`
}

type updateBillRequest struct {
	Description       *string `json:"description,omitempty"`
	Category          *string `json:"category,omitempty"`
	AmountCents       *int64  `json:"amountCents,omitempty"`
	Amount            *string `json:"amount,omitempty"`
	Type              *string `json:"type,omitempty"`
	RecurrenceDay     *int    `json:"recurrenceDay,omitempty"`
	ClearRecurrence   bool    `json:"clearRecurrenceDay,omitempty"`
	TotalInstallments *int    `json:"totalInstallments,omitempty"`
	StartDate         *string `json:"startDate,omitempty"`
	EndDate           *string `json:"endDate,omitempty"`
	ClearEndDate      bool    `json:"clearEndDate,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
	ExpectedVersion   int64   `json:"expectedVersion"`
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cents, err := amountCentsFrom("amount", req.AmountCents, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b := core.Bill{
		CardID:            chi.URLParam(r, "cardID"),
		Description:       req.Description,
		Category:          req.Category,
		Amount:            core.Money{Cents: cents},
		Type:              core.BillType(req.Type),
		RecurrenceDay:     req.RecurrenceDay,
		TotalInstallments: req.TotalInstallments,
		StartDate:         start,
	}
	if req.EndDate != nil {
		end, err := parseDate("endDate", *req.EndDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		b.EndDate = &end
	}

	created, err := s.bills.CreateBill(r.Context(), userIDFrom(r.Context()), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBillView(created))
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.bills.ListBillsByCard(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "cardID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]billView, len(bills))
	for i := range bills {
		views[i] = toBillView(&bills[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	bill, err := s.bills.GetBill(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "billID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillView(bill))
}

// handleUpdateBill applies a bill edit and the reconciliation it implies.
// The caller must echo the version it read; a stale version is a 409.
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req updateBillRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ExpectedVersion < 1 {
		writeError(w, r, core.Invalid("expectedVersion", "must be the version previously read"))
		return
	}

	patch, err := billPatchFromRequest(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	current := core.PeriodOf(s.now())
	bill, err := s.bills.UpdateBill(r.Context(), userIDFrom(r.Context()),
		chi.URLParam(r, "billID"), patch, req.ExpectedVersion, current)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillView(bill))
}

func billPatchFromRequest(req updateBillRequest) (core.BillPatch, error) {
	patch := core.BillPatch{
		Description:       req.Description,
		Category:          req.Category,
		AmountCents:       req.AmountCents,
		RecurrenceDay:     req.RecurrenceDay,
		ClearRecurrence:   req.ClearRecurrence,
		TotalInstallments: req.TotalInstallments,
		ClearEndDate:      req.ClearEndDate,
		IsActive:          req.IsActive,
	}
	if req.Amount != nil {
		if req.AmountCents != nil {
			return core.BillPatch{}, core.Invalid("amount", "send either cents or a decimal amount, not both")
		}
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			return core.BillPatch{}, core.Invalid("amount", "must be a positive decimal amount")
		}
		patch.AmountCents = &cents
	}
	if req.Type != nil {
		t := core.BillType(*req.Type)
		patch.Type = &t
	}
	if req.StartDate != nil {
		d, err := parseDate("startDate", *req.StartDate)
		if err != nil {
			return core.BillPatch{}, err
		}
		patch.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := parseDate("endDate", *req.EndDate)
		if err != nil {
			return core.BillPatch{}, err
		}
		patch.EndDate = &d
	}
	return patch, nil
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.DeleteBill(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "billID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
