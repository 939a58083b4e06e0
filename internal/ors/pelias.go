package ors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/routelens/routelens/internal/core"
)

// Pelias geocoder paths.
const (
	peliasSearchPath       = "/geocode/search"
	peliasStructuredPath   = "/geocode/search/structured"
	peliasReversePath      = "/geocode/reverse"
	peliasAutocompletePath = "/geocode/autocomplete"
)

// PeliasFilter narrows geocoder results. Zero values are omitted.
type PeliasFilter struct {
	FocusPoint   *Coordinate
	RectMin      *Coordinate
	RectMax      *Coordinate
	CircleCenter *Coordinate
	CircleRadius float64
	Country      string
	Sources      []string
	Layers       []string
	Size         int
}

func (f PeliasFilter) apply(params core.Params) (core.Params, error) {
	if f.FocusPoint != nil {
		if err := f.FocusPoint.Validate(); err != nil {
			return nil, err
		}
		params = params.Add("focus.point.lon", f.FocusPoint.Lon()).Add("focus.point.lat", f.FocusPoint.Lat())
	}
	if (f.RectMin == nil) != (f.RectMax == nil) {
		return nil, fmt.Errorf("%w: rect boundary needs both corners", ErrInvalidRequest)
	}
	if f.RectMin != nil {
		params = params.
			Add("boundary.rect.min_lon", f.RectMin.Lon()).
			Add("boundary.rect.min_lat", f.RectMin.Lat()).
			Add("boundary.rect.max_lon", f.RectMax.Lon()).
			Add("boundary.rect.max_lat", f.RectMax.Lat())
	}
	if f.CircleCenter != nil {
		params = params.
			Add("boundary.circle.lon", f.CircleCenter.Lon()).
			Add("boundary.circle.lat", f.CircleCenter.Lat())
		if f.CircleRadius > 0 {
			params = params.Add("boundary.circle.radius", f.CircleRadius)
		}
	}
	if f.Country != "" {
		params = params.Add("boundary.country", f.Country)
	}
	if len(f.Sources) > 0 {
		params = params.Add("sources", f.Sources)
	}
	if len(f.Layers) > 0 {
		params = params.Add("layers", f.Layers)
	}
	if f.Size > 0 {
		params = params.Add("size", f.Size)
	}
	return params, nil
}

// PeliasSearch runs a free-text forward geocode.
func (c *Client) PeliasSearch(ctx context.Context, text string, filter PeliasFilter, opts ...CallOption) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: search text is empty", ErrInvalidRequest)
	}
	params, err := filter.apply(core.Params{{Key: "text", Value: text}})
	if err != nil {
		return nil, err
	}
	return c.call(ctx, peliasSearchPath, params, nil, opts)
}

// PeliasAutocomplete returns suggestions for partial input.
func (c *Client) PeliasAutocomplete(ctx context.Context, text string, filter PeliasFilter, opts ...CallOption) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: autocomplete text is empty", ErrInvalidRequest)
	}
	params, err := filter.apply(core.Params{{Key: "text", Value: text}})
	if err != nil {
		return nil, err
	}
	return c.call(ctx, peliasAutocompletePath, params, nil, opts)
}

// StructuredAddress is the input of a structured search. At least one field
// must be set.
type StructuredAddress struct {
	Address       string
	Neighbourhood string
	Borough       string
	Locality      string
	County        string
	Region        string
	PostalCode    string
	Country       string
}

func (a StructuredAddress) params() core.Params {
	var params core.Params
	for _, field := range []struct {
		key   string
		value string
	}{
		{"address", a.Address},
		{"neighbourhood", a.Neighbourhood},
		{"borough", a.Borough},
		{"locality", a.Locality},
		{"county", a.County},
		{"region", a.Region},
		{"postalcode", a.PostalCode},
		{"country", a.Country},
	} {
		if field.value != "" {
			params = params.Add(field.key, field.value)
		}
	}
	return params
}

// PeliasStructured geocodes an address split into components.
func (c *Client) PeliasStructured(ctx context.Context, address StructuredAddress, filter PeliasFilter, opts ...CallOption) (json.RawMessage, error) {
	params := address.params()
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: structured search needs at least one address field", ErrInvalidRequest)
	}
	params, err := filter.apply(params)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, peliasStructuredPath, params, nil, opts)
}

// PeliasReverse finds places near a point. Only the circle radius, country,
// sources, layers and size filters apply.
func (c *Client) PeliasReverse(ctx context.Context, point Coordinate, filter PeliasFilter, opts ...CallOption) (json.RawMessage, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	params := core.Params{
		{Key: "point.lon", Value: point.Lon()},
		{Key: "point.lat", Value: point.Lat()},
	}
	if filter.CircleRadius > 0 {
		params = params.Add("boundary.circle.radius", filter.CircleRadius)
	}
	reverseFilter := PeliasFilter{
		Country: filter.Country,
		Sources: filter.Sources,
		Layers:  filter.Layers,
		Size:    filter.Size,
	}
	params, err := reverseFilter.apply(params)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, peliasReversePath, params, nil, opts)
}
