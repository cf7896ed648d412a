package amqp

import (
	"encoding/json"
	"time"

	"contas/internal/core"
)

// Routing keys for the contas event exchange.
const (
	KeyBillUpdated       = "bill.updated"
	KeyInstancePaid      = "instance.paid"
	KeyInstanceCancelled = "instance.cancelled"
	KeyStatementExport   = "statement.export"
)

// BillUpdatedMessage announces a reconciled bill edit. Consumers fetch the
// bill by id; the message carries only the identity and the new version.
type BillUpdatedMessage struct {
	BillID    string    `json:"bill_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// InstanceEventMessage announces a state transition on one instance.
type InstanceEventMessage struct {
	InstanceID  string    `json:"instance_id"`
	BillID      string    `json:"bill_id"`
	Period      string    `json:"period"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

// StatementExportMessage asks the worker to export one user's monthly
// statement to the configured spreadsheet.
type StatementExportMessage struct {
	UserID    string    `json:"user_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *StatementExportMessage) PeriodValue() core.Period {
	return core.NewPeriod(m.Year, m.Month)
}

func StatementExportMessageFromJSON(data []byte) (*StatementExportMessage, error) {
	var msg StatementExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
