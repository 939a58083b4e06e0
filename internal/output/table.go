package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/routelens/routelens/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatResponse renders a summary table for recognised response shapes and
// indented JSON for everything else.
func (f *TableFormatter) FormatResponse(raw json.RawMessage) (string, error) {
	summary, ok := Summarize(raw)
	if !ok {
		return (&JSONFormatter{Indent: true}).FormatResponse(raw)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if summary.Title != "" {
		t.SetTitle(summary.Title)
	}
	t.AppendHeader(toRow(summary.Columns))
	for _, row := range summary.Rows {
		t.AppendRow(toRow(row))
	}
	if len(summary.Rows) == 0 {
		t.AppendFooter(table.Row{"(no results)"})
	}

	return t.Render(), nil
}

// FormatQuotas renders quota state as a table.
func (f *TableFormatter) FormatQuotas(states []core.QuotaState, now time.Time) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Quota Windows")
	t.AppendHeader(table.Row{"Scope", "Used", "Last Sent", "Next Slot"})

	rows := quotaRows(states, now)
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Scope,
			fmt.Sprintf("%d/%d", row.InWindow, row.Capacity),
			formatTime(row.Last),
			formatTime(row.NextSlot),
		})
	}
	if len(rows) == 0 {
		t.AppendFooter(table.Row{"(no stored quota state)", "", "", ""})
	}

	return t.Render(), nil
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, value := range values {
		row[i] = value
	}
	return row
}
