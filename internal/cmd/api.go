package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	errwrap "github.com/routelens/routelens/internal/errors"
	"github.com/routelens/routelens/internal/ors"
	"github.com/routelens/routelens/internal/output"
)

// apiCall is one routing API operation bound to its flags.
type apiCall func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|markdown")
	cmd.Flags().String("out", "", "Write output to a file (default stdout)")
}

// runAPICall dispatches call through a configured client and renders the
// response. Dispatch failures are returned as error envelopes.
func runAPICall(cmd *cobra.Command, call apiCall) error {
	ctx := commandContext(cmd)

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

	raw, err := call(ctx, ors.New(d.client), callOptions()...)
	if err != nil {
		return errwrap.FromDispatchError(ctx, err)
	}
	return writeResponse(cmd, format, raw)
}

// writeResponse renders raw to the --out target. Dry runs return no body and
// write nothing.
func writeResponse(cmd *cobra.Command, format output.Format, raw json.RawMessage) error {
	if raw == nil {
		return nil
	}

	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatResponse(raw)
	if err != nil {
		return err
	}

	sink, err := openSink(outPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	_, err = fmt.Fprintln(sink.writer, rendered)
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseCoordinates reads repeated lon,lat flags.
func parseCoordinates(values []string) ([]ors.Coordinate, error) {
	coords := make([]ors.Coordinate, 0, len(values))
	for _, value := range values {
		coord, err := ors.ParseCoordinate(value)
		if err != nil {
			return nil, err
		}
		coords = append(coords, coord)
	}
	return coords, nil
}

func parseOptionalCoordinate(value string) (*ors.Coordinate, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	coord, err := ors.ParseCoordinate(value)
	if err != nil {
		return nil, err
	}
	return &coord, nil
}

// parseFloatList reads a comma separated list such as "300,600".
func parseFloatList(value string) ([]float64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ors.ErrInvalidRequest, part)
		}
		values = append(values, f)
	}
	return values, nil
}
