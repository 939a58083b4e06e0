package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
)

// MatrixRequest is the body of a distance matrix call.
type MatrixRequest struct {
	Profile string `json:"-"`

	Locations    []Coordinate `json:"locations"`
	Sources      []int        `json:"sources,omitempty"`
	Destinations []int        `json:"destinations,omitempty"`
	Metrics      []string     `json:"metrics,omitempty"`
	Resolve      bool         `json:"resolve_locations,omitempty"`
	Units        string       `json:"units,omitempty"`
}

var matrixMetrics = map[string]bool{"distance": true, "duration": true}

// Validate checks the request before it is sent.
func (r MatrixRequest) Validate() error {
	if err := validateProfile(orDefault(r.Profile, "driving-car")); err != nil {
		return err
	}
	if err := validateCoordinates("matrix", r.Locations, 2); err != nil {
		return err
	}
	for _, idx := range append(append([]int(nil), r.Sources...), r.Destinations...) {
		if idx < 0 || idx >= len(r.Locations) {
			return fmt.Errorf("%w: location index %d out of range", ErrInvalidRequest, idx)
		}
	}
	for _, metric := range r.Metrics {
		if !matrixMetrics[metric] {
			return fmt.Errorf("%w: unknown matrix metric %q", ErrInvalidRequest, metric)
		}
	}
	return nil
}

// DistanceMatrix computes durations or distances between many locations.
func (c *Client) DistanceMatrix(ctx context.Context, req MatrixRequest, opts ...CallOption) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.call(ctx, path.Join("/v2/matrix", orDefault(req.Profile, "driving-car")), nil, req, opts)
}
