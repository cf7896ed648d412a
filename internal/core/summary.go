package core

// MonthSummary aggregates one reference period's instance set for the
// dashboard. Amounts use effective (override-aware) values.
type MonthSummary struct {
	Period          Period `json:"period"`
	OpenCents       int64  `json:"open_cents"`
	PaidCents       int64  `json:"paid_cents"`
	CancelledCents  int64  `json:"cancelled_cents"`
	OpenCount       int    `json:"open_count"`
	PaidCount       int    `json:"paid_count"`
	CancelledCount  int    `json:"cancelled_count"`
	OverriddenCount int    `json:"overridden_count"`
}

// SummarizeMonth folds a period's instances into dashboard totals.
func SummarizeMonth(p Period, instances []BillInstance) MonthSummary {
	s := MonthSummary{Period: p}
	for _, i := range instances {
		switch i.Status {
		case StatusPago:
			s.PaidCents += i.EffectiveAmount().Cents
			s.PaidCount++
		case StatusCancelado:
			s.CancelledCents += i.EffectiveAmount().Cents
			s.CancelledCount++
		default:
			s.OpenCents += i.EffectiveAmount().Cents
			s.OpenCount++
		}
		if i.HasOverride() {
			s.OverriddenCount++
		}
	}
	return s
}
