// internal/reporting/export.go
package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"gymdesk/internal/membership"
	"gymdesk/internal/plans"
)

const (
	exportDateLayout = "02/01/2006"
	exportTimeLayout = "15:04"
	utf8BOM          = "\ufeff"
)

var (
	PaymentHeader = []string{"Fecha", "Hora", "Nombre del Socio", "Plan/Tipo", "Monto"}
	VisitHeader   = []string{"Fecha", "Hora", "Nombre", "Método", "Plan/Tipo"}
)

// PaymentRows flattens payments and paid quick visits into export rows, newest first.
func (a *Aggregator) PaymentRows(payments []membership.Payment, quick []membership.QuickVisit) []PaymentRow {
	type entry struct {
		at  time.Time
		row PaymentRow
	}
	entries := make([]entry, 0, len(payments)+len(quick))
	for _, p := range payments {
		entries = append(entries, entry{at: p.At, row: PaymentRow{
			Name:   displayName(p.MemberName, "Sin nombre"),
			Plan:   a.label(p.PlanID),
			Amount: p.Amount,
		}})
	}
	for _, q := range quick {
		if !q.Amount.IsPositive() {
			continue
		}
		entries = append(entries, entry{at: q.At, row: PaymentRow{
			Name:   displayName(q.Name, "Visitante"),
			Plan:   a.label(plans.DayPass),
			Amount: q.Amount,
		}})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })

	rows := make([]PaymentRow, 0, len(entries))
	for _, e := range entries {
		local := e.at.In(a.loc())
		e.row.Date = local.Format(exportDateLayout)
		e.row.Time = local.Format(exportTimeLayout)
		rows = append(rows, e.row)
	}
	return rows
}

// VisitRows flattens every visit, walk-ins included, newest first.
func (a *Aggregator) VisitRows(visits []membership.Visit) []VisitRow {
	sorted := append([]membership.Visit(nil), visits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.After(sorted[j].At) })

	rows := make([]VisitRow, 0, len(sorted))
	for _, v := range sorted {
		local := v.At.In(a.loc())
		plan := ""
		if v.PaymentType != nil {
			plan = a.label(*v.PaymentType)
		}
		rows = append(rows, VisitRow{
			Date:   local.Format(exportDateLayout),
			Time:   local.Format(exportTimeLayout),
			Name:   displayName(v.DisplayName, "Sin nombre"),
			Method: v.Method,
			Plan:   plan,
		})
	}
	return rows
}

// WritePaymentsCSV writes rows with a UTF-8 BOM so spreadsheet tools pick the right encoding.
func WritePaymentsCSV(w io.Writer, rows []PaymentRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Date, r.Time, r.Name, r.Plan, r.Amount.String()})
	}
	return writeCSV(w, PaymentHeader, records)
}

func WriteVisitsCSV(w io.Writer, rows []VisitRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{r.Date, r.Time, r.Name, r.Method, r.Plan})
	}
	return writeCSV(w, VisitHeader, records)
}

func writeCSV(w io.Writer, header []string, records [][]string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
