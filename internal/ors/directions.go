package ors

import (
	"context"
	"encoding/json"
	"fmt"
)

// DirectionsRequest is the body of a directions call. Profile and Format
// select the path.
type DirectionsRequest struct {
	Profile string `json:"-"`
	Format  string `json:"-"`

	Coordinates       []Coordinate   `json:"coordinates"`
	Preference        string         `json:"preference,omitempty"`
	Units             string         `json:"units,omitempty"`
	Language          string         `json:"language,omitempty"`
	Geometry          *bool          `json:"geometry,omitempty"`
	GeometrySimplify  bool           `json:"geometry_simplify,omitempty"`
	Instructions      *bool          `json:"instructions,omitempty"`
	InstructionFormat string         `json:"instructions_format,omitempty"`
	Elevation         bool           `json:"elevation,omitempty"`
	ContinueStraight  bool           `json:"continue_straight,omitempty"`
	Radiuses          []float64      `json:"radiuses,omitempty"`
	Bearings          [][2]float64   `json:"bearings,omitempty"`
	ExtraInfo         []string       `json:"extra_info,omitempty"`
	Attributes        []string       `json:"attributes,omitempty"`
	Maneuvers         bool           `json:"maneuvers,omitempty"`
	Suppress          bool           `json:"suppress_warnings,omitempty"`
	Options           map[string]any `json:"options,omitempty"`
}

var directionFormats = map[string]bool{"json": true, "geojson": true, "gpx": true}

// Validate checks the request before it is sent.
func (r DirectionsRequest) Validate() error {
	if err := validateProfile(orDefault(r.Profile, "driving-car")); err != nil {
		return err
	}
	if format := orDefault(r.Format, "json"); !directionFormats[format] {
		return fmt.Errorf("%w: unknown directions format %q", ErrInvalidRequest, format)
	}
	if err := validateCoordinates("directions", r.Coordinates, 2); err != nil {
		return err
	}
	if len(r.Radiuses) > 0 && len(r.Radiuses) != len(r.Coordinates) {
		return fmt.Errorf("%w: radiuses must match coordinates", ErrInvalidRequest)
	}
	if len(r.Bearings) > 0 && len(r.Bearings) > len(r.Coordinates) {
		return fmt.Errorf("%w: more bearings than coordinates", ErrInvalidRequest)
	}
	return nil
}

// Path is /v2/directions/{profile}/{format}.
func (r DirectionsRequest) Path() string {
	return fmt.Sprintf("/v2/directions/%s/%s", orDefault(r.Profile, "driving-car"), orDefault(r.Format, "json"))
}

// Directions computes a route between two or more coordinates.
func (c *Client) Directions(ctx context.Context, req DirectionsRequest, opts ...CallOption) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.call(ctx, req.Path(), nil, req, opts)
}
