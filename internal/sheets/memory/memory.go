// Package memory provides an in-memory statement writer for tests and
// local development without Google credentials.
package memory

import (
	"context"
	"sync"

	"contas/internal/core"
	ports "contas/internal/sheets"
)

// Writer collects appended statements in memory.
type Writer struct {
	mu         sync.Mutex
	statements []Statement
}

// Statement is one recorded AppendStatement call.
type Statement struct {
	UserID string
	Period core.Period
	Rows   []ports.StatementRow
}

var _ ports.StatementWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) AppendStatement(_ context.Context, userID string, p core.Period, rows []ports.StatementRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.statements = append(w.statements, Statement{
		UserID: userID,
		Period: p,
		Rows:   append([]ports.StatementRow(nil), rows...),
	})
	return nil
}

// Statements returns a copy of everything appended so far.
func (w *Writer) Statements() []Statement {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Statement(nil), w.statements...)
}
