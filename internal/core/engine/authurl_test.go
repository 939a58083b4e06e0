package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/core"
)

func TestBuildAuthURLSortsMapParamsAndAppendsKey(t *testing.T) {
	params := core.ParamsFromMap(map[string]any{"b": 2, "a": 1})

	got, err := BuildAuthURL("/directions", params, "KEY", DefaultBaseURL)
	require.NoError(t, err)
	require.Equal(t, "/directions?a=1&b=2&api_key=KEY", got)
}

func TestBuildAuthURLKeepsExplicitOrder(t *testing.T) {
	params := core.Params{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}}

	got, err := BuildAuthURL("/p", params, "KEY", DefaultBaseURL)
	require.NoError(t, err)
	require.Equal(t, "/p?z=1&a=2&api_key=KEY", got)
}

func TestBuildAuthURLDoesNotMutateParams(t *testing.T) {
	params := core.Params{{Key: "a", Value: "1"}}

	_, err := BuildAuthURL("/p", params, "KEY", DefaultBaseURL)
	require.NoError(t, err)
	require.Len(t, params, 1)
}

func TestBuildAuthURLWithoutKey(t *testing.T) {
	t.Run("default host is rejected", func(t *testing.T) {
		_, err := BuildAuthURL("/p", nil, "", DefaultBaseURL)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
	})

	t.Run("custom host proceeds", func(t *testing.T) {
		params := core.Params{{Key: "token", Value: "abc"}}

		got, err := BuildAuthURL("/p", params, "", "http://localhost:8080/ors")
		require.NoError(t, err)
		require.Equal(t, "/p?token=abc", got)
	})
}

func TestEncodeParams(t *testing.T) {
	tests := []struct {
		name     string
		params   core.Params
		expected string
	}{
		{"empty", nil, ""},
		{"coordinates", core.Params{{Key: "start", Value: "8.681495,49.41461"}}, "start=8.681495%2C49.41461"},
		{"spaces", core.Params{{Key: "text", Value: "Heidelberg Hbf"}}, "text=Heidelberg+Hbf"},
		{"unreserved", core.Params{{Key: "q", Value: "a-b_c.d~e"}}, "q=a-b_c.d~e"},
		{"pipes", core.Params{{Key: "layers", Value: []string{"venue", "address"}}}, "layers=venue%2Caddress"},
		{"numbers", core.Params{{Key: "size", Value: 10}, {Key: "lat", Value: 49.5}}, "size=10&lat=49.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, EncodeParams(tt.params))
		})
	}
}

func TestUnquoteUnreserved(t *testing.T) {
	require.Equal(t, "A%2F~z", unquoteUnreserved("%41%2F%7ez"))
	require.Equal(t, "100%", unquoteUnreserved("100%"))
	require.Equal(t, "%zz", unquoteUnreserved("%zz"))
	require.Equal(t, "plain", unquoteUnreserved("plain"))
}

func TestRedactKey(t *testing.T) {
	got := redactKey("https://api.openrouteservice.org/p?a=1&api_key=SECRET")
	require.Equal(t, "https://api.openrouteservice.org/p?a=1&api_key=REDACTED", got)
}
