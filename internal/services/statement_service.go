package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/sheets"
	"contas/internal/storage"
)

// StatementService builds monthly statements and hands export requests to
// the worker through AMQP.
type StatementService struct {
	store      storage.Store
	generator  *Generator
	amqpClient *amqp.Client
}

func NewStatementService(store storage.Store, generator *Generator, amqpClient *amqp.Client) *StatementService {
	return &StatementService{
		store:      store,
		generator:  generator,
		amqpClient: amqpClient,
	}
}

// RequestExport enqueues an export of the user's statement for p. Requires
// a configured AMQP client; without one the export surface is disabled.
func (s *StatementService) RequestExport(ctx context.Context, userID string, p core.Period) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if s.amqpClient == nil {
		return errors.New("statement export is not configured")
	}
	if err := s.amqpClient.PublishStatementExport(ctx, userID, p); err != nil {
		return fmt.Errorf("publish export request: %w", err)
	}
	slog.InfoContext(ctx, "Requested statement export",
		"user_id", userID,
		"period", p.String())
	return nil
}

// BuildStatement materializes the period and flattens its instance set into
// export rows, joining each instance with its bill for the descriptive
// columns.
func (s *StatementService) BuildStatement(ctx context.Context, userID string, p core.Period) ([]sheets.StatementRow, error) {
	instances, err := s.generator.EnsureInstancesForPeriod(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("ensure instances: %w", err)
	}

	bills := make(map[string]*core.Bill, len(instances))
	rows := make([]sheets.StatementRow, 0, len(instances))
	for _, inst := range instances {
		b, ok := bills[inst.BillID]
		if !ok {
			b, err = s.store.GetBill(ctx, inst.BillID)
			if err != nil {
				return nil, fmt.Errorf("get bill %s: %w", inst.BillID, err)
			}
			bills[inst.BillID] = b
		}
		rows = append(rows, sheets.StatementRow{
			Period:      inst.Period,
			Description: b.Description,
			Category:    b.Category,
			BillType:    b.Type,
			DueDate:     inst.EffectiveDueDate(),
			Amount:      inst.EffectiveAmount(),
			Status:      inst.Status,
			Installment: inst.InstallmentNumber,
		})
	}
	return rows, nil
}
