// Package ors formats openrouteservice API calls on top of the dispatcher.
package ors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/routelens/routelens/internal/core"
	"github.com/routelens/routelens/internal/core/engine"
)

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// Sender is the dispatcher surface the endpoints need. *engine.Client
// implements it.
type Sender interface {
	Send(ctx context.Context, path string, params core.Params, body any, opts ...engine.SendOption) (json.RawMessage, error)
}

// Client exposes one method per API endpoint.
type Client struct {
	sender Sender
}

// New wraps a dispatcher.
func New(sender Sender) *Client {
	return &Client{sender: sender}
}

// CallOption adjusts a single endpoint call.
type CallOption func(*callOptions)

type callOptions struct {
	extra core.Params
	send  []engine.SendOption
}

// WithExtraParams injects or overrides query parameters for one call. Keys
// already set by the endpoint are replaced in place; new keys are appended.
func WithExtraParams(params core.Params) CallOption {
	return func(o *callOptions) {
		o.extra = append(o.extra, params...)
	}
}

// WithSendOptions forwards dispatcher options such as engine.WithDryRun.
func WithSendOptions(opts ...engine.SendOption) CallOption {
	return func(o *callOptions) {
		o.send = append(o.send, opts...)
	}
}

func (c *Client) call(ctx context.Context, path string, params core.Params, body any, opts []CallOption) (json.RawMessage, error) {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if len(o.extra) > 0 {
		params = params.Merge(o.extra)
	}
	return c.sender.Send(ctx, path, params, body, o.send...)
}

// Coordinate is a [longitude, latitude] pair.
type Coordinate [2]float64

// Lon returns the longitude.
func (c Coordinate) Lon() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinate) Lat() float64 { return c[1] }

// String renders "lon,lat" as the API expects in query strings.
func (c Coordinate) String() string {
	return formatFloat(c[0]) + "," + formatFloat(c[1])
}

// Validate checks WGS84 bounds.
func (c Coordinate) Validate() error {
	if c[0] < -180 || c[0] > 180 || c[1] < -90 || c[1] > 90 {
		return fmt.Errorf("%w: coordinate %s out of range", ErrInvalidRequest, c)
	}
	return nil
}

// ParseCoordinate reads a "lon,lat" pair.
func ParseCoordinate(s string) (Coordinate, error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	lonStr, latStr = strings.TrimSpace(lonStr), strings.TrimSpace(latStr)
	if !ok || lonStr == "" || latStr == "" {
		return Coordinate{}, fmt.Errorf("%w: coordinate %q must be lon,lat", ErrInvalidRequest, s)
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q: %v", ErrInvalidRequest, lonStr, err)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q: %v", ErrInvalidRequest, latStr, err)
	}

	coord := Coordinate{lon, lat}
	return coord, coord.Validate()
}

// Profiles lists the routing profiles the API accepts.
var Profiles = []string{
	"driving-car",
	"driving-hgv",
	"foot-walking",
	"foot-hiking",
	"cycling-regular",
	"cycling-road",
	"cycling-mountain",
	"cycling-electric",
	"wheelchair",
}

func validateProfile(profile string) error {
	for _, p := range Profiles {
		if p == profile {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown profile %q", ErrInvalidRequest, profile)
}

func validateCoordinates(field string, coords []Coordinate, min int) error {
	if len(coords) < min {
		return fmt.Errorf("%w: %s needs at least %d coordinates", ErrInvalidRequest, field, min)
	}
	for _, coord := range coords {
		if err := coord.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
