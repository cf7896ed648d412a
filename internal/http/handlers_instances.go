package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"contas/internal/core"
)

type overrideRequest struct {
	AmountCents  *int64  `json:"amountCents,omitempty"`
	Amount       *string `json:"amount,omitempty"`
	DueDate      *string `json:"dueDate,omitempty"`
	ClearAmount  bool    `json:"clearAmount,omitempty"`
	ClearDueDate bool    `json:"clearDueDate,omitempty"`
}

type recordPaymentRequest struct {
	AmountCents int64   `json:"amountCents,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Note        string  `json:"note,omitempty"`
}

// handleListInstances materializes missing instances for the requested
// month and returns the full visible set. Generation is idempotent, so
// repeated reads are safe.
func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	p, err := s.parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	instances, err := s.generator.EnsureInstancesForPeriod(r.Context(), userIDFrom(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceViews(instances))
}

func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instances.GetInstance(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceView(inst))
}

func (s *Server) handlePayInstance(w http.ResponseWriter, r *http.Request) {
	res, err := s.instances.Pay(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceView(&res.Instance))
}

func (s *Server) handleCancelInstance(w http.ResponseWriter, r *http.Request) {
	res, err := s.instances.Cancel(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceView(&res.Instance))
}

func (s *Server) handleUncancelInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := s.instances.Uncancel(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceView(inst))
}

func (s *Server) handleOverrideInstance(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := core.OverridePatch{
		AmountCents:  req.AmountCents,
		ClearAmount:  req.ClearAmount,
		ClearDueDate: req.ClearDueDate,
	}
	if req.Amount != nil {
		if req.AmountCents != nil {
			writeError(w, r, core.Invalid("amount", "send either cents or a decimal amount, not both"))
			return
		}
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, r, core.Invalid("amount", "must be a positive decimal amount"))
			return
		}
		patch.AmountCents = &cents
	}
	if req.DueDate != nil {
		d, err := parseDate("dueDate", *req.DueDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		patch.DueDate = &d
	}

	inst, err := s.instances.Override(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "instanceID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstanceView(inst))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cents, err := amountCentsFrom("amount", req.AmountCents, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payment, err := s.instances.RecordPayment(r.Context(), userIDFrom(r.Context()),
		chi.URLParam(r, "instanceID"), core.Money{Cents: cents}, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentView(payment))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.instances.ListPayments(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "instanceID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]paymentView, len(payments))
	for i := range payments {
		views[i] = toPaymentView(&payments[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary, err := s.dashboard.MonthSummary(r.Context(), userIDFrom(r.Context()), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRequestExport(w http.ResponseWriter, r *http.Request) {
	p, err := s.parsePeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.statements.RequestExport(r.Context(), userIDFrom(r.Context()), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "period": p.String()})
}
