package expense

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

const (
	FormatCSV  = "csv"
	FormatText = "txt"

	unknownCategory = "Unknown"
)

var reportHeader = []string{"Date", "Vendor", "Category", "Amount", "Notes"}

// Report is a rendered expense export ready to be written to a response.
type Report struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
	Total       money.Amount
}

// ExportExpenses renders the user's expenses, oldest first, followed by a
// total line. format is "csv" (default) or "txt".
func (s *Service) ExportExpenses(ctx context.Context, userID int64, month, format string) (*Report, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatText {
		return nil, internal.NewValidationFieldError("format", "Invalid export request", internal.ErrCodeInvalidFormat)
	}

	expenses, err := s.ListExpenses(ctx, userID, month)
	if err != nil {
		return nil, err
	}

	categories, err := s.categories.GetCategories()
	if err != nil {
		s.logger.Error("failed to get categories for export", "error", err)
		return nil, internal.NewInternalError("Failed to fetch categories", err)
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	sorted := make([]*expenseDatamodel.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].ID < sorted[j].ID
	})

	rows := make([][]string, 0, len(sorted))
	total := money.Zero()
	for _, e := range sorted {
		name, ok := names[e.CategoryID]
		if !ok {
			name = unknownCategory
		}
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		rows = append(rows, []string{e.Date, e.Vendor, name, e.Amount.String(), notes})
		total = total.Plus(e.Amount)
	}
	totalRow := []string{"Total", "", "", total.String(), ""}

	var buf bytes.Buffer
	report := &Report{Rows: len(rows), Total: total}
	switch format {
	case FormatCSV:
		report.ContentType = "text/csv; charset=utf-8"
		err = writeCSV(&buf, rows, totalRow)
	default:
		report.ContentType = "text/plain; charset=utf-8"
		err = writeText(&buf, rows, totalRow)
	}
	if err != nil {
		s.logger.Error("failed to render export", "error", err, "format", format)
		return nil, internal.NewInternalError("Failed to export expenses", err)
	}

	period := month
	if period == "" {
		period = "all"
	}
	report.Filename = fmt.Sprintf("expenses-%d-%s.%s", userID, period, format)
	report.Body = buf.Bytes()

	s.logger.Info("expenses exported", "user_id", userID, "month", month, "format", format, "rows", report.Rows)
	return report, nil
}

func writeCSV(buf *bytes.Buffer, rows [][]string, totalRow []string) error {
	w := csv.NewWriter(buf)
	if err := w.Write(reportHeader); err != nil {
		return err
	}
	if err := w.WriteAll(append(rows, totalRow)); err != nil {
		return err
	}
	return w.Error()
}

func writeText(buf *bytes.Buffer, rows [][]string, totalRow []string) error {
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	for _, row := range append([][]string{reportHeader}, append(rows, totalRow)...) {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row[0], row[1], row[2], row[3], row[4]); err != nil {
			return err
		}
	}
	return w.Flush()
}
