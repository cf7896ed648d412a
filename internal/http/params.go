package http

import (
	"net/http"
	"strconv"
	"time"

	"contas/internal/core"
)

// parsePeriod reads year and month query parameters, defaulting to the
// current month when both are absent.
func (s *Server) parsePeriod(r *http.Request) (core.Period, error) {
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")

	if yearStr == "" && monthStr == "" {
		return core.PeriodOf(s.now()), nil
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return core.Period{}, core.Invalid("year", "must be an integer")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return core.Period{}, core.Invalid("month", "must be an integer")
	}

	p := core.NewPeriod(year, month)
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// amountCentsFrom resolves the two ways a request may carry an amount:
// integer cents, or a decimal string such as "12.34" or "12,34". Sending
// both is rejected.
func amountCentsFrom(field string, cents int64, decimal *string) (int64, error) {
	if decimal == nil {
		return cents, nil
	}
	if cents != 0 {
		return 0, core.Invalid(field, "send either cents or a decimal amount, not both")
	}
	parsed, err := core.ParseDecimalToCents(*decimal)
	if err != nil {
		return 0, core.Invalid(field, "must be a positive decimal amount")
	}
	return parsed, nil
}

// parseDate parses a 2006-01-02 date string from a request body.
func parseDate(field, value string) (core.Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return core.Date{}, core.Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return core.Date{Time: t}, nil
}
