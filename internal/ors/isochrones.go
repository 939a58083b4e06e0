package ors

import (
	"context"
	"encoding/json"
	"fmt"
)

// IsochronesRequest is the body of an isochrones call.
type IsochronesRequest struct {
	Profile string `json:"-"`

	Locations    []Coordinate `json:"locations"`
	Range        []float64    `json:"range"`
	RangeType    string       `json:"range_type,omitempty"`
	Interval     float64      `json:"interval,omitempty"`
	Units        string       `json:"units,omitempty"`
	LocationType string       `json:"location_type,omitempty"`
	Smoothing    *float64     `json:"smoothing,omitempty"`
	Attributes   []string     `json:"attributes,omitempty"`
	Intersection bool         `json:"intersections,omitempty"`
}

// Validate checks the request before it is sent.
func (r IsochronesRequest) Validate() error {
	if err := validateProfile(orDefault(r.Profile, "driving-car")); err != nil {
		return err
	}
	if err := validateCoordinates("isochrones", r.Locations, 1); err != nil {
		return err
	}
	if len(r.Range) == 0 {
		return fmt.Errorf("%w: isochrones need at least one range value", ErrInvalidRequest)
	}
	switch r.RangeType {
	case "", "time", "distance":
	default:
		return fmt.Errorf("%w: unknown range type %q", ErrInvalidRequest, r.RangeType)
	}
	switch r.LocationType {
	case "", "start", "destination":
	default:
		return fmt.Errorf("%w: unknown location type %q", ErrInvalidRequest, r.LocationType)
	}
	if r.Smoothing != nil && (*r.Smoothing < 0 || *r.Smoothing > 100) {
		return fmt.Errorf("%w: smoothing must be within 0..100", ErrInvalidRequest)
	}
	return nil
}

// Isochrones computes reachability polygons around locations.
func (c *Client) Isochrones(ctx context.Context, req IsochronesRequest, opts ...CallOption) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/v2/isochrones/%s/geojson", orDefault(req.Profile, "driving-car"))
	return c.call(ctx, path, nil, req, opts)
}
