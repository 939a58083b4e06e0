package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/routelens/routelens/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatResponse re-indents a raw API response.
func (f *JSONFormatter) FormatResponse(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if !f.Indent {
		return string(raw), nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatQuotas renders quota state as JSON.
func (f *JSONFormatter) FormatQuotas(states []core.QuotaState, now time.Time) (string, error) {
	var (
		data []byte
		err  error
	)

	rows := quotaRows(states, now)
	if f.Indent {
		data, err = json.MarshalIndent(rows, "", "  ")
	} else {
		data, err = json.Marshal(rows)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
