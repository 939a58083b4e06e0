package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routelens/routelens/internal/ors"
)

var (
	geocodeLanguage string
	geocodeBoundary string
	geocodeRect     string
	geocodeCircle   string
	geocodeLimit    int
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <query>",
	Short: "Resolve an address with the legacy geocoding endpoint",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := ors.GeocodeRequest{
			Query:        strings.Join(args, " "),
			Language:     geocodeLanguage,
			BoundaryType: geocodeBoundary,
			Limit:        geocodeLimit,
		}
		var err error
		if req.Rect, err = parseFloatList(geocodeRect); err != nil {
			return err
		}
		if req.Circle, err = parseFloatList(geocodeCircle); err != nil {
			return err
		}

		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.Geocode(ctx, req, opts...)
		})
	},
}

var (
	reverseLanguage string
	reverseLimit    int
)

var reverseGeocodeCmd = &cobra.Command{
	Use:   "reverse-geocode <lon,lat>",
	Short: "Resolve a location with the legacy geocoding endpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, err := ors.ParseCoordinate(args[0])
		if err != nil {
			return err
		}
		req := ors.ReverseGeocodeRequest{
			Location: location,
			Language: reverseLanguage,
			Limit:    reverseLimit,
		}

		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.ReverseGeocode(ctx, req, opts...)
		})
	},
}

// peliasFlags are shared by the geocoder subcommands.
type peliasFlags struct {
	focus   string
	rectMin string
	rectMax string
	circle  string
	radius  float64
	country string
	sources []string
	layers  []string
	size    int
}

func (f *peliasFlags) register(cmd *cobra.Command, reverse bool) {
	if !reverse {
		cmd.Flags().StringVar(&f.focus, "focus", "", "Prefer results near lon,lat")
		cmd.Flags().StringVar(&f.rectMin, "rect-min", "", "Bounding rectangle min corner lon,lat")
		cmd.Flags().StringVar(&f.rectMax, "rect-max", "", "Bounding rectangle max corner lon,lat")
		cmd.Flags().StringVar(&f.circle, "circle", "", "Bounding circle center lon,lat")
	}
	cmd.Flags().Float64Var(&f.radius, "radius", 0, "Bounding circle radius in kilometers")
	cmd.Flags().StringVar(&f.country, "country", "", "Restrict to an ISO-3166 country code")
	cmd.Flags().StringSliceVar(&f.sources, "sources", nil, "Data sources: osm,oa,wof,gn")
	cmd.Flags().StringSliceVar(&f.layers, "layers", nil, "Place layers, e.g. venue,address,locality")
	cmd.Flags().IntVar(&f.size, "size", 0, "Maximum number of results")
}

func (f *peliasFlags) filter() (ors.PeliasFilter, error) {
	filter := ors.PeliasFilter{
		CircleRadius: f.radius,
		Country:      f.country,
		Sources:      f.sources,
		Layers:       f.layers,
		Size:         f.size,
	}

	var err error
	if filter.FocusPoint, err = parseOptionalCoordinate(f.focus); err != nil {
		return filter, err
	}
	if filter.RectMin, err = parseOptionalCoordinate(f.rectMin); err != nil {
		return filter, err
	}
	if filter.RectMax, err = parseOptionalCoordinate(f.rectMax); err != nil {
		return filter, err
	}
	if filter.CircleCenter, err = parseOptionalCoordinate(f.circle); err != nil {
		return filter, err
	}
	return filter, nil
}

var peliasCmd = &cobra.Command{
	Use:   "pelias",
	Short: "Query the Pelias geocoder",
}

var peliasSearchFlags, peliasAutocompleteFlags, peliasStructuredFlags, peliasReverseFlags peliasFlags

var peliasSearchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Free-text forward geocoding",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := peliasSearchFlags.filter()
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.PeliasSearch(ctx, text, filter, opts...)
		})
	},
}

var peliasAutocompleteCmd = &cobra.Command{
	Use:   "autocomplete <text>",
	Short: "Suggest places while typing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := peliasAutocompleteFlags.filter()
		if err != nil {
			return err
		}
		text := strings.Join(args, " ")
		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.PeliasAutocomplete(ctx, text, filter, opts...)
		})
	},
}

var structuredAddress ors.StructuredAddress

var peliasStructuredCmd = &cobra.Command{
	Use:     "structured",
	Short:   "Geocode an address split into components",
	Example: `  routelens pelias structured --address "Berliner Str. 45" --locality Heidelberg --country DE`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := peliasStructuredFlags.filter()
		if err != nil {
			return err
		}
		address := structuredAddress
		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.PeliasStructured(ctx, address, filter, opts...)
		})
	},
}

var peliasReverseCmd = &cobra.Command{
	Use:   "reverse <lon,lat>",
	Short: "Find places near a point",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		point, err := ors.ParseCoordinate(args[0])
		if err != nil {
			return err
		}
		filter, err := peliasReverseFlags.filter()
		if err != nil {
			return err
		}
		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.PeliasReverse(ctx, point, filter, opts...)
		})
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	addOutputFlags(geocodeCmd)
	geocodeCmd.Flags().StringVar(&geocodeLanguage, "lang", "", "Result language")
	geocodeCmd.Flags().StringVar(&geocodeBoundary, "boundary", "", "Boundary type: rect|circle")
	geocodeCmd.Flags().StringVar(&geocodeRect, "rect", "", "Rectangle as minx,miny,maxx,maxy")
	geocodeCmd.Flags().StringVar(&geocodeCircle, "circle", "", "Circle as lon,lat,radius")
	geocodeCmd.Flags().IntVar(&geocodeLimit, "limit", 0, "Maximum number of results")

	rootCmd.AddCommand(reverseGeocodeCmd)
	addOutputFlags(reverseGeocodeCmd)
	reverseGeocodeCmd.Flags().StringVar(&reverseLanguage, "lang", "", "Result language")
	reverseGeocodeCmd.Flags().IntVar(&reverseLimit, "limit", 0, "Maximum number of results")

	for cmd, flags := range map[*cobra.Command]*peliasFlags{
		peliasSearchCmd:       &peliasSearchFlags,
		peliasAutocompleteCmd: &peliasAutocompleteFlags,
		peliasStructuredCmd:   &peliasStructuredFlags,
	} {
		addOutputFlags(cmd)
		flags.register(cmd, false)
		peliasCmd.AddCommand(cmd)
	}
	addOutputFlags(peliasReverseCmd)
	peliasReverseFlags.register(peliasReverseCmd, true)
	peliasCmd.AddCommand(peliasReverseCmd)

	structured := peliasStructuredCmd.Flags()
	structured.StringVar(&structuredAddress.Address, "address", "", "Street and house number")
	structured.StringVar(&structuredAddress.Neighbourhood, "neighbourhood", "", "Neighbourhood")
	structured.StringVar(&structuredAddress.Borough, "borough", "", "Borough")
	structured.StringVar(&structuredAddress.Locality, "locality", "", "City or town")
	structured.StringVar(&structuredAddress.County, "county", "", "County")
	structured.StringVar(&structuredAddress.Region, "region", "", "State or region")
	structured.StringVar(&structuredAddress.PostalCode, "postalcode", "", "Postal code")
	structured.StringVar(&structuredAddress.Country, "address-country", "", "Country as written in the address")

	rootCmd.AddCommand(peliasCmd)
}
