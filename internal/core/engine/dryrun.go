package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type dryRunRequest struct {
	Method  string          `json:"method"`
	URL     string          `json:"-"`
	Headers http.Header     `json:"headers"`
	Timeout time.Duration   `json:"-"`
	Proxy   string          `json:"proxy,omitempty"`
	Body    json.RawMessage `json:"json,omitempty"`
}

// writeDryRun prints the request that would have been sent. The api_key is
// shown as configured so the preview can be replayed.
func writeDryRun(w io.Writer, req dryRunRequest) error {
	options := struct {
		dryRunRequest
		Timeout string `json:"timeout"`
	}{dryRunRequest: req, Timeout: "none"}
	if req.Timeout > 0 {
		options.Timeout = req.Timeout.String()
	}

	encoded, err := json.MarshalIndent(options, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dry run: %w", err)
	}

	if _, err := fmt.Fprintf(w, "url:\n%s\nParameters:\n%s\n", req.URL, encoded); err != nil {
		return fmt.Errorf("write dry run: %w", err)
	}
	return nil
}
