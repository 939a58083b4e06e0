package ors

import (
	"context"
	"encoding/json"
	"fmt"
)

// PlacesRequest is the body of a points-of-interest call.
type PlacesRequest struct {
	Request  string         `json:"request"`
	Geometry PlacesGeometry `json:"geometry"`
	Filters  map[string]any `json:"filters,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	SortBy   string         `json:"sortby,omitempty"`
}

// PlacesGeometry bounds a places search by box or GeoJSON with a buffer.
type PlacesGeometry struct {
	BBox    []Coordinate    `json:"bbox,omitempty"`
	GeoJSON json.RawMessage `json:"geojson,omitempty"`
	Buffer  int             `json:"buffer,omitempty"`
}

// Validate checks the request before it is sent.
func (r PlacesRequest) Validate() error {
	switch r.Request {
	case "pois", "stats", "list":
	default:
		return fmt.Errorf("%w: places request must be pois, stats or list", ErrInvalidRequest)
	}
	if r.Request == "list" {
		return nil
	}
	if len(r.Geometry.BBox) == 0 && len(r.Geometry.GeoJSON) == 0 {
		return fmt.Errorf("%w: places need a bbox or geojson geometry", ErrInvalidRequest)
	}
	if len(r.Geometry.BBox) > 0 && len(r.Geometry.BBox) != 2 {
		return fmt.Errorf("%w: bbox needs two corners", ErrInvalidRequest)
	}
	for _, corner := range r.Geometry.BBox {
		if err := corner.Validate(); err != nil {
			return err
		}
	}
	if len(r.Geometry.GeoJSON) > 0 && !json.Valid(r.Geometry.GeoJSON) {
		return fmt.Errorf("%w: geojson geometry is not valid JSON", ErrInvalidRequest)
	}
	switch r.SortBy {
	case "", "category", "distance":
	default:
		return fmt.Errorf("%w: unknown sort %q", ErrInvalidRequest, r.SortBy)
	}
	return nil
}

// Places searches points of interest.
func (c *Client) Places(ctx context.Context, req PlacesRequest, opts ...CallOption) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.call(ctx, "/pois", nil, req, opts)
}
