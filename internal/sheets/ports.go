// Package sheets defines the outbound ports for statement export.
package sheets

import (
	"context"

	"contas/internal/core"
)

// StatementRow is one exported line of a monthly statement.
type StatementRow struct {
	Period      core.Period
	Description string
	Category    string
	BillType    core.BillType
	DueDate     core.Date
	Amount      core.Money
	Status      core.InstanceStatus
	Installment *int
}

// StatementWriter appends a user's monthly statement to an external sheet.
type StatementWriter interface {
	AppendStatement(ctx context.Context, userID string, p core.Period, rows []StatementRow) error
}
