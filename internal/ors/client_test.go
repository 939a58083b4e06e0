package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/core"
	"github.com/routelens/routelens/internal/core/engine"
)

type sentCall struct {
	path   string
	params core.Params
	body   any
	opts   int
}

type recordingSender struct {
	calls []sentCall
}

func (r *recordingSender) Send(_ context.Context, path string, params core.Params, body any, opts ...engine.SendOption) (json.RawMessage, error) {
	r.calls = append(r.calls, sentCall{path: path, params: params, body: body, opts: len(opts)})
	return json.RawMessage(`{}`), nil
}

func (r *recordingSender) last(t *testing.T) sentCall {
	t.Helper()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

var heidelberg = Coordinate{8.681495, 49.41461}

func TestDirections(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	req := DirectionsRequest{
		Profile:     "cycling-regular",
		Format:      "geojson",
		Coordinates: []Coordinate{{8.34234, 48.23424}, {8.34423, 48.26424}},
	}
	_, err := client.Directions(context.Background(), req)
	require.NoError(t, err)

	call := sender.last(t)
	require.Equal(t, "/v2/directions/cycling-regular/geojson", call.path)
	require.Empty(t, call.params)

	encoded, err := json.Marshal(call.body)
	require.NoError(t, err)
	require.JSONEq(t, `{"coordinates":[[8.34234,48.23424],[8.34423,48.26424]]}`, string(encoded))
}

func TestDirectionsDefaults(t *testing.T) {
	req := DirectionsRequest{Coordinates: []Coordinate{heidelberg, {8.69, 49.42}}}
	require.NoError(t, req.Validate())
	require.Equal(t, "/v2/directions/driving-car/json", req.Path())
}

func TestDirectionsValidation(t *testing.T) {
	tests := []struct {
		name string
		req  DirectionsRequest
	}{
		{"one coordinate", DirectionsRequest{Coordinates: []Coordinate{heidelberg}}},
		{"bad profile", DirectionsRequest{Profile: "rocket", Coordinates: []Coordinate{heidelberg, heidelberg}}},
		{"bad format", DirectionsRequest{Format: "xml", Coordinates: []Coordinate{heidelberg, heidelberg}}},
		{"out of range", DirectionsRequest{Coordinates: []Coordinate{heidelberg, {200, 10}}}},
		{"radiuses mismatch", DirectionsRequest{Coordinates: []Coordinate{heidelberg, heidelberg}, Radiuses: []float64{1}}},
	}

	sender := &recordingSender{}
	client := New(sender)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Directions(context.Background(), tt.req)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	require.Empty(t, sender.calls)
}

func TestDistanceMatrix(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	req := MatrixRequest{
		Profile:   "foot-walking",
		Locations: []Coordinate{heidelberg, {8.69, 49.42}, {8.70, 49.43}},
		Sources:   []int{0},
		Metrics:   []string{"distance", "duration"},
	}
	_, err := client.DistanceMatrix(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "/v2/matrix/foot-walking", sender.last(t).path)

	req.Destinations = []int{3}
	_, err = client.DistanceMatrix(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestIsochrones(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.Isochrones(context.Background(), IsochronesRequest{
		Locations: []Coordinate{heidelberg},
		Range:     []float64{300, 600},
		RangeType: "time",
	})
	require.NoError(t, err)
	require.Equal(t, "/v2/isochrones/driving-car/geojson", sender.last(t).path)

	_, err = client.Isochrones(context.Background(), IsochronesRequest{Locations: []Coordinate{heidelberg}})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGeocode(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.Geocode(context.Background(), GeocodeRequest{
		Query:        "Heidelberg",
		BoundaryType: "rect",
		Rect:         []float64{8.6, 49.3, 8.8, 49.5},
		Limit:        5,
	})
	require.NoError(t, err)

	call := sender.last(t)
	require.Equal(t, "/geocoding", call.path)
	require.Equal(t, "query=Heidelberg&boundary_type=rect&rect=8.6%2C49.3%2C8.8%2C49.5&limit=5", engine.EncodeParams(call.params))

	_, err = client.Geocode(context.Background(), GeocodeRequest{Query: " "})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestReverseGeocode(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.ReverseGeocode(context.Background(), ReverseGeocodeRequest{Location: heidelberg})
	require.NoError(t, err)
	require.Equal(t, "location=8.681495%2C49.41461", engine.EncodeParams(sender.last(t).params))
}

func TestPeliasSearch(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	focus := heidelberg
	_, err := client.PeliasSearch(context.Background(), "Hauptstraße", PeliasFilter{
		FocusPoint: &focus,
		Country:    "DE",
		Layers:     []string{"address", "venue"},
		Size:       3,
	})
	require.NoError(t, err)

	call := sender.last(t)
	require.Equal(t, "/geocode/search", call.path)

	text, ok := call.params.Get("text")
	require.True(t, ok)
	require.Equal(t, "Hauptstraße", text)

	layers, ok := call.params.Get("layers")
	require.True(t, ok)
	require.Equal(t, "address,venue", core.FormatValue(layers))

	lat, ok := call.params.Get("focus.point.lat")
	require.True(t, ok)
	require.Equal(t, 49.41461, lat)
}

func TestPeliasRectNeedsBothCorners(t *testing.T) {
	client := New(&recordingSender{})

	corner := heidelberg
	_, err := client.PeliasSearch(context.Background(), "x", PeliasFilter{RectMin: &corner})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPeliasStructured(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.PeliasStructured(context.Background(), StructuredAddress{
		Address:  "Berliner Straße 45",
		Locality: "Heidelberg",
		Country:  "Germany",
	}, PeliasFilter{})
	require.NoError(t, err)

	call := sender.last(t)
	require.Equal(t, "/geocode/search/structured", call.path)
	require.Equal(t, "address=Berliner+Stra%C3%9Fe+45&locality=Heidelberg&country=Germany", engine.EncodeParams(call.params))

	_, err = client.PeliasStructured(context.Background(), StructuredAddress{}, PeliasFilter{})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPeliasReverseAndAutocomplete(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.PeliasReverse(context.Background(), heidelberg, PeliasFilter{CircleRadius: 1, Size: 2})
	require.NoError(t, err)
	require.Equal(t, "/geocode/reverse", sender.last(t).path)
	require.Equal(t,
		"point.lon=8.681495&point.lat=49.41461&boundary.circle.radius=1&size=2",
		engine.EncodeParams(sender.last(t).params))

	_, err = client.PeliasAutocomplete(context.Background(), "Heidel", PeliasFilter{})
	require.NoError(t, err)
	require.Equal(t, "/geocode/autocomplete", sender.last(t).path)
}

func TestPlaces(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.Places(context.Background(), PlacesRequest{
		Request:  "pois",
		Geometry: PlacesGeometry{BBox: []Coordinate{{8.67, 49.40}, {8.69, 49.42}}},
		Limit:    10,
	})
	require.NoError(t, err)
	require.Equal(t, "/pois", sender.last(t).path)

	_, err = client.Places(context.Background(), PlacesRequest{Request: "list"})
	require.NoError(t, err)

	_, err = client.Places(context.Background(), PlacesRequest{Request: "pois"})
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestWithExtraParamsOverridesForOneCall(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	extra := core.Params{{Key: "size", Value: 10}, {Key: "debug", Value: true}}
	_, err := client.PeliasSearch(context.Background(), "Heidelberg", PeliasFilter{Size: 1}, WithExtraParams(extra))
	require.NoError(t, err)
	require.Equal(t, "text=Heidelberg&size=10&debug=true", engine.EncodeParams(sender.last(t).params))

	_, err = client.PeliasSearch(context.Background(), "Heidelberg", PeliasFilter{Size: 1})
	require.NoError(t, err)
	require.Equal(t, "text=Heidelberg&size=1", engine.EncodeParams(sender.last(t).params))
}

func TestWithSendOptionsForwardsToDispatcher(t *testing.T) {
	sender := &recordingSender{}
	client := New(sender)

	_, err := client.PeliasSearch(context.Background(), "x", PeliasFilter{}, WithSendOptions(engine.WithDryRun()))
	require.NoError(t, err)
	require.Equal(t, 1, sender.last(t).opts)
}

func TestEndpointsThroughDispatcher(t *testing.T) {
	var gotPath, gotQuery, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer server.Close()

	dispatcher, err := engine.New(engine.Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	client := New(dispatcher)

	body, err := client.Isochrones(context.Background(), IsochronesRequest{
		Locations: []Coordinate{heidelberg},
		Range:     []float64{300},
	}, WithExtraParams(core.Params{{Key: "trace", Value: "1"}}))
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(body))
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/v2/isochrones/driving-car/geojson", gotPath)
	require.Equal(t, "trace=1&api_key=k", gotQuery)

	var out bytes.Buffer
	dryRunner, err := engine.New(engine.Config{APIKey: "k", BaseURL: server.URL, DryRunOutput: &out})
	require.NoError(t, err)
	body, err = New(dryRunner).Geocode(context.Background(), GeocodeRequest{Query: "Berlin"}, WithSendOptions(engine.WithDryRun()))
	require.NoError(t, err)
	require.Nil(t, body)
	require.Contains(t, out.String(), "/geocoding?query=Berlin&api_key=k")
}

func TestParseCoordinate(t *testing.T) {
	coord, err := ParseCoordinate("8.681495, 49.41461")
	require.NoError(t, err)
	require.Equal(t, heidelberg, coord)
	require.Equal(t, "8.681495,49.41461", coord.String())

	for _, input := range []string{"", "8.6", "x,1", "1,y", "1,95"} {
		_, err := ParseCoordinate(input)
		require.ErrorIs(t, err, ErrInvalidRequest, input)
	}
}
