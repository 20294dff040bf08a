package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/family-finance-go/internal/port"
)

var exportTracer = otel.Tracer("service/export")

const exportDateLayout = "2006-01-02"

var (
	expenseCSVHeader = []string{"date", "category", "subcategory", "description", "amount", "paymentMethod", "location", "tags"}
	incomeCSVHeader  = []string{"date", "source", "type", "description", "amount", "recurring", "frequency"}
	budgetCSVHeader  = []string{"category", "amount", "spent", "remaining", "period", "rollover"}
)

// ExportService writes a user's records as CSV.
type ExportService struct {
	store port.RecordStore
}

// NewExportService creates the export service.
func NewExportService(store port.RecordStore) *ExportService {
	return &ExportService{store: store}
}

// WriteExpensesCSV writes one row per expense. Tags are joined with "; ".
func (s *ExportService) WriteExpensesCSV(ctx context.Context, userID string, w io.Writer) error {
	ctx, span := exportTracer.Start(ctx, "ExportService.WriteExpensesCSV")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}

	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			e.Date.Format(exportDateLayout),
			e.Category,
			e.Subcategory,
			e.Description,
			formatAmount(e.Amount),
			e.PaymentMethod,
			e.Location,
			strings.Join(e.Tags, "; "),
		})
	}
	return writeCSV(w, expenseCSVHeader, rows)
}

// WriteIncomeCSV writes one row per income record.
func (s *ExportService) WriteIncomeCSV(ctx context.Context, userID string, w io.Writer) error {
	ctx, span := exportTracer.Start(ctx, "ExportService.WriteIncomeCSV")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	income, err := s.store.ListIncome(ctx, userID)
	if err != nil {
		return fmt.Errorf("load income: %w", err)
	}

	rows := make([][]string, 0, len(income))
	for _, in := range income {
		rows = append(rows, []string{
			in.Date.Format(exportDateLayout),
			in.Source,
			in.Type,
			in.Description,
			formatAmount(in.Amount),
			yesNo(in.Recurring),
			in.Frequency,
		})
	}
	return writeCSV(w, incomeCSVHeader, rows)
}

// WriteBudgetsCSV writes one row per budget with the remaining amount.
func (s *ExportService) WriteBudgetsCSV(ctx context.Context, userID string, w io.Writer) error {
	ctx, span := exportTracer.Start(ctx, "ExportService.WriteBudgetsCSV")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}

	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		rows = append(rows, []string{
			b.Category,
			formatAmount(b.Amount),
			formatAmount(b.Spent),
			formatAmount(b.Amount - b.Spent),
			b.Period,
			yesNo(b.Rollover),
		})
	}
	return writeCSV(w, budgetCSVHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
