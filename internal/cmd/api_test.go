package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/config"
	"github.com/routelens/routelens/internal/ors"
)

const searchResponse = `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[8.69,49.41]},"properties":{"label":"Heidelberg, Germany"}}]}`

// useConfig swaps the loaded configuration and global flags for one test.
func useConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	prevConfig, prevDryRun := appConfig, dryRun
	appConfig = cfg
	dryRun = false
	t.Cleanup(func() {
		appConfig = prevConfig
		dryRun = prevDryRun
	})
}

func upstreamConfig(url string) *config.Config {
	return &config.Config{
		Client: config.ClientConfig{
			APIKey:           "cli-key",
			BaseURL:          url,
			RetryTimeout:     time.Second,
			QueriesPerMinute: 40,
		},
	}
}

func newTestCommand(args ...string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{Use: "test"}
	addOutputFlags(cmd)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	if err := cmd.Flags().Parse(args); err != nil {
		panic(err)
	}
	return cmd, &out
}

func searchCall(text string) apiCall {
	return func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
		return client.PeliasSearch(ctx, text, ors.PeliasFilter{Size: 1}, opts...)
	}
}

func TestRunAPICall(t *testing.T) {
	var gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	}))
	defer upstream.Close()
	useConfig(t, upstreamConfig(upstream.URL))

	t.Run("table", func(t *testing.T) {
		cmd, out := newTestCommand()
		require.NoError(t, runAPICall(cmd, searchCall("Heidelberg")))
		require.Equal(t, "text=Heidelberg&size=1&api_key=cli-key", gotQuery)
		require.Contains(t, out.String(), "Heidelberg, Germany")
		require.Contains(t, out.String(), "1 feature(s)")
	})

	t.Run("json", func(t *testing.T) {
		cmd, out := newTestCommand("--output-format", "json")
		require.NoError(t, runAPICall(cmd, searchCall("Heidelberg")))

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		require.Equal(t, "FeatureCollection", decoded["type"])
	})

	t.Run("out file", func(t *testing.T) {
		path := t.TempDir() + "/result.md"
		cmd, out := newTestCommand("--output-format", "md", "--out", path)
		require.NoError(t, runAPICall(cmd, searchCall("Heidelberg")))
		require.Empty(t, out.String())
		require.FileExists(t, path)
	})

	t.Run("invalid request", func(t *testing.T) {
		cmd, _ := newTestCommand()
		err := runAPICall(cmd, searchCall("  "))
		envelope, ok := err.(*errors.ErrorEnvelope)
		require.True(t, ok, "expected envelope, got %T", err)
		require.Equal(t, "INVALID_INPUT", envelope.Code)
		require.Equal(t, foundry.ExitFailure, ExitCodeFor(err))
	})

	t.Run("dry run", func(t *testing.T) {
		gotQuery = ""
		dryRun = true
		defer func() { dryRun = false }()

		cmd, out := newTestCommand()
		require.NoError(t, runAPICall(cmd, searchCall("Mannheim")))
		require.Empty(t, gotQuery)
		require.Empty(t, out.String())
	})
}

func TestRunAPICallQuotaExceeded(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
	}))
	defer upstream.Close()
	useConfig(t, upstreamConfig(upstream.URL))

	cmd, _ := newTestCommand()
	err := runAPICall(cmd, searchCall("Heidelberg"))
	envelope, ok := err.(*errors.ErrorEnvelope)
	require.True(t, ok, "expected envelope, got %T", err)
	require.Equal(t, "RATE_LIMITED", envelope.Code)
	require.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(err))
}

func TestParseHelpers(t *testing.T) {
	coords, err := parseCoordinates([]string{"8.34234,48.23424", " 8.34423 , 48.26424 "})
	require.NoError(t, err)
	require.Equal(t, []ors.Coordinate{{8.34234, 48.23424}, {8.34423, 48.26424}}, coords)

	_, err = parseCoordinates([]string{"48.2"})
	require.ErrorIs(t, err, ors.ErrInvalidRequest)

	point, err := parseOptionalCoordinate("")
	require.NoError(t, err)
	require.Nil(t, point)

	values, err := parseFloatList("300, 600,900")
	require.NoError(t, err)
	require.Equal(t, []float64{300, 600, 900}, values)

	_, err = parseFloatList("300,ten")
	require.ErrorIs(t, err, ors.ErrInvalidRequest)
}

func TestExitCodeFor(t *testing.T) {
	require.Equal(t, foundry.ExitFailure, ExitCodeFor(context.Canceled))
	require.Equal(t, foundry.ExitConfigInvalid, ExitCodeFor(errors.NewErrorEnvelope("CONFIG_INVALID", "bad")))
	require.Equal(t, foundry.ExitExternalServiceUnavailable, ExitCodeFor(errors.NewErrorEnvelope("TIMEOUT", "slow")))
}
