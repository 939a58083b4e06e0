package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/routelens/routelens/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders API responses and quota state.
type Formatter interface {
	FormatResponse(raw json.RawMessage) (string, error)
	FormatQuotas(states []core.QuotaState, now time.Time) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// quotaRow is the flattened view of a QuotaState shared by the formatters.
type quotaRow struct {
	Scope    string     `json:"scope"`
	Capacity int        `json:"capacity"`
	InWindow int        `json:"in_window"`
	Last     *time.Time `json:"last_sent,omitempty"`
	NextSlot *time.Time `json:"next_slot,omitempty"`
}

func quotaRows(states []core.QuotaState, now time.Time) []quotaRow {
	rows := make([]quotaRow, 0, len(states))
	for _, state := range states {
		row := quotaRow{
			Scope:    state.Scope,
			Capacity: state.Capacity,
			InWindow: state.InWindow(now),
		}
		if n := len(state.Sent); n > 0 {
			last := state.Sent[n-1].UTC()
			row.Last = &last
		}
		if next := state.NextSlot(now); !next.IsZero() {
			next = next.UTC()
			row.NextSlot = &next
		}
		rows = append(rows, row)
	}
	return rows
}

func formatTime(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format(time.RFC3339)
}
