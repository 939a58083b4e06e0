package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routelens/routelens/internal/core"
	"github.com/routelens/routelens/internal/core/engine"
	errwrap "github.com/routelens/routelens/internal/errors"
)

var (
	requestParams  []string
	requestBody    string
	requestHeaders []string
)

var requestCmd = &cobra.Command{
	Use:   "request <path>",
	Short: "Send a raw request to any API path",
	Long: `Send a raw request to any API path through the rate-limited dispatcher.

Query parameters are sent in the order given. A --body makes the request a
POST with a JSON payload; prefix the value with @ to read it from a file.

Examples:
  routelens request /geocode/search --param text=Heidelberg --param size=2
  routelens request /v2/directions/driving-car/json --body @route.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)

		params, err := parseParamFlags(requestParams)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "invalid --param")
		}
		body, err := readBodyFlag(requestBody)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "invalid --body")
		}
		headers, err := parseHeaderFlags(requestHeaders)
		if err != nil {
			return errwrap.WrapInvalidInput(ctx, err, "invalid --header")
		}

		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}
		cfg, err := currentConfig(ctx)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
		}

		d, err := newDispatcher(ctx, cfg)
		if err != nil {
			return errwrap.FromDispatchError(ctx, err)
		}
		defer d.Close()

		opts := sendOptions()
		if len(headers) > 0 {
			opts = append(opts, engine.WithHeaders(headers))
		}

		raw, err := d.client.Send(ctx, normalizePath(args[0]), params, body, opts...)
		if err != nil {
			return errwrap.FromDispatchError(ctx, err)
		}
		return writeResponse(cmd, format, raw)
	},
}

func init() {
	rootCmd.AddCommand(requestCmd)
	addOutputFlags(requestCmd)
	requestCmd.Flags().StringArrayVarP(&requestParams, "param", "p", nil, "Query parameter as key=value (repeatable)")
	requestCmd.Flags().StringVar(&requestBody, "body", "", "JSON body, or @file to read it from a file")
	requestCmd.Flags().StringArrayVarP(&requestHeaders, "header", "H", nil, "Extra header as 'Name: value' (repeatable)")
}

// parseParamFlags keeps flag order. A key given twice is sent twice.
func parseParamFlags(values []string) (core.Params, error) {
	var params core.Params
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q must be key=value", value)
		}
		params = params.Add(key, val)
	}
	return params, nil
}

// readBodyFlag returns nil for an empty flag.
func readBodyFlag(value string) (json.RawMessage, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	data := []byte(value)
	if path, ok := strings.CutPrefix(value, "@"); ok {
		content, err := os.ReadFile(path) // #nosec G304 -- user-supplied body file
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		data = content
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("body is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func parseHeaderFlags(values []string) (http.Header, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := make(http.Header, len(values))
	for _, value := range values {
		name, val, ok := strings.Cut(value, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("header %q must be 'Name: value'", value)
		}
		headers.Add(name, strings.TrimSpace(val))
	}
	return headers, nil
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
