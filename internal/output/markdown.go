package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/routelens/routelens/internal/core"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatResponse renders a response summary as Markdown, or a fenced JSON
// block when the shape is not recognised.
func (f *MarkdownFormatter) FormatResponse(raw json.RawMessage) (string, error) {
	summary, ok := Summarize(raw)
	if !ok {
		body, err := (&JSONFormatter{Indent: true}).FormatResponse(raw)
		if err != nil {
			return "", err
		}
		return "```json\n" + body + "\n```\n", nil
	}

	var sb strings.Builder
	if summary.Title != "" {
		sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(summary.Title)))
	}
	writeMarkdownTable(&sb, summary.Columns, summary.Rows)
	return sb.String(), nil
}

// FormatQuotas renders quota state as Markdown.
func (f *MarkdownFormatter) FormatQuotas(states []core.QuotaState, now time.Time) (string, error) {
	rows := quotaRows(states, now)
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, []string{
			row.Scope,
			fmt.Sprintf("%d/%d", row.InWindow, row.Capacity),
			formatTime(row.Last),
			formatTime(row.NextSlot),
		})
	}

	var sb strings.Builder
	sb.WriteString("## Quota windows\n\n")
	writeMarkdownTable(&sb, []string{"Scope", "Used", "Last Sent", "Next Slot"}, cells)
	return sb.String(), nil
}

func writeMarkdownTable(sb *strings.Builder, columns []string, rows [][]string) {
	sb.WriteString("|")
	for _, column := range columns {
		sb.WriteString(" " + escapeMarkdownCell(column) + " |")
	}
	sb.WriteString("\n|")
	for range columns {
		sb.WriteString("---|")
	}
	sb.WriteString("\n")

	for _, row := range rows {
		sb.WriteString("|")
		for _, cell := range row {
			sb.WriteString(" " + escapeMarkdownCell(cell) + " |")
		}
		sb.WriteString("\n")
	}
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	return strings.ReplaceAll(value, "\n", " ")
}
