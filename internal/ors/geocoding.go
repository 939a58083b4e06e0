package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/routelens/routelens/internal/core"
)

const geocodingPath = "/geocoding"

// GeocodeRequest queries the legacy geocoding endpoint.
type GeocodeRequest struct {
	Query        string
	Language     string
	BoundaryType string
	Rect         []float64
	Circle       []float64
	Limit        int
}

// Params renders the request as query parameters.
func (r GeocodeRequest) Params() (core.Params, error) {
	if strings.TrimSpace(r.Query) == "" {
		return nil, fmt.Errorf("%w: geocode query is empty", ErrInvalidRequest)
	}

	params := core.Params{{Key: "query", Value: r.Query}}
	if r.Language != "" {
		params = params.Add("lang", r.Language)
	}
	switch r.BoundaryType {
	case "":
	case "rect":
		if len(r.Rect) != 4 {
			return nil, fmt.Errorf("%w: rect boundary needs minx,miny,maxx,maxy", ErrInvalidRequest)
		}
		params = params.Add("boundary_type", "rect").Add("rect", joinFloats(r.Rect))
	case "circle":
		if len(r.Circle) != 3 {
			return nil, fmt.Errorf("%w: circle boundary needs lon,lat,radius", ErrInvalidRequest)
		}
		params = params.Add("boundary_type", "circle").Add("circle", joinFloats(r.Circle))
	default:
		return nil, fmt.Errorf("%w: unknown boundary type %q", ErrInvalidRequest, r.BoundaryType)
	}
	if r.Limit > 0 {
		params = params.Add("limit", r.Limit)
	}
	return params, nil
}

// Geocode resolves a free-text address.
func (c *Client) Geocode(ctx context.Context, req GeocodeRequest, opts ...CallOption) (json.RawMessage, error) {
	params, err := req.Params()
	if err != nil {
		return nil, err
	}
	return c.call(ctx, geocodingPath, params, nil, opts)
}

// ReverseGeocodeRequest queries the legacy endpoint for a location.
type ReverseGeocodeRequest struct {
	Location Coordinate
	Language string
	Limit    int
}

// Params renders the request as query parameters.
func (r ReverseGeocodeRequest) Params() (core.Params, error) {
	if err := r.Location.Validate(); err != nil {
		return nil, err
	}

	params := core.Params{{Key: "location", Value: r.Location.String()}}
	if r.Language != "" {
		params = params.Add("lang", r.Language)
	}
	if r.Limit > 0 {
		params = params.Add("limit", r.Limit)
	}
	return params, nil
}

// ReverseGeocode resolves a location to addresses.
func (c *Client) ReverseGeocode(ctx context.Context, req ReverseGeocodeRequest, opts ...CallOption) (json.RawMessage, error) {
	params, err := req.Params()
	if err != nil {
		return nil, err
	}
	return c.call(ctx, geocodingPath, params, nil, opts)
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}
