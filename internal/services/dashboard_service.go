package services

import (
	"context"

	"contas/internal/core"
)

// DashboardService aggregates a reference period for the monthly overview.
type DashboardService struct {
	generator *Generator
}

func NewDashboardService(generator *Generator) *DashboardService {
	return &DashboardService{generator: generator}
}

// MonthSummary ensures the period's instance set and folds it into totals.
func (s *DashboardService) MonthSummary(ctx context.Context, userID string, p core.Period) (core.MonthSummary, error) {
	instances, err := s.generator.EnsureInstancesForPeriod(ctx, userID, p)
	if err != nil {
		return core.MonthSummary{}, err
	}
	return core.SummarizeMonth(p, instances), nil
}
