package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/routelens/routelens/internal/ors"
)

var (
	directionsProfile      string
	directionsFormat       string
	directionsCoords       []string
	directionsPreference   string
	directionsUnits        string
	directionsLanguage     string
	directionsElevation    bool
	directionsInstructions bool
	directionsExtraInfo    []string
)

var directionsCmd = &cobra.Command{
	Use:   "directions",
	Short: "Compute a route between coordinates",
	Example: `  routelens directions --coord 8.34234,48.23424 --coord 8.34423,48.26424
  routelens directions --profile cycling-regular --format geojson --coord 8.68,49.41 --coord 8.69,49.42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		coords, err := parseCoordinates(directionsCoords)
		if err != nil {
			return err
		}

		req := ors.DirectionsRequest{
			Profile:     directionsProfile,
			Format:      directionsFormat,
			Coordinates: coords,
			Preference:  directionsPreference,
			Units:       directionsUnits,
			Language:    directionsLanguage,
			Elevation:   directionsElevation,
			ExtraInfo:   directionsExtraInfo,
		}
		if cmd.Flags().Changed("instructions") {
			req.Instructions = &directionsInstructions
		}

		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.Directions(ctx, req, opts...)
		})
	},
}

var (
	isochronesProfile   string
	isochronesLocations []string
	isochronesRange     string
	isochronesRangeType string
	isochronesInterval  float64
	isochronesUnits     string
	isochronesSmoothing float64
)

var isochronesCmd = &cobra.Command{
	Use:     "isochrones",
	Short:   "Compute reachability polygons around locations",
	Example: `  routelens isochrones --location 8.34234,48.23424 --range 300,600`,
	RunE: func(cmd *cobra.Command, args []string) error {
		locations, err := parseCoordinates(isochronesLocations)
		if err != nil {
			return err
		}
		ranges, err := parseFloatList(isochronesRange)
		if err != nil {
			return err
		}

		req := ors.IsochronesRequest{
			Profile:   isochronesProfile,
			Locations: locations,
			Range:     ranges,
			RangeType: isochronesRangeType,
			Interval:  isochronesInterval,
			Units:     isochronesUnits,
		}
		if cmd.Flags().Changed("smoothing") {
			req.Smoothing = &isochronesSmoothing
		}

		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.Isochrones(ctx, req, opts...)
		})
	},
}

var (
	matrixProfile      string
	matrixLocations    []string
	matrixSources      []int
	matrixDestinations []int
	matrixMetrics      []string
	matrixUnits        string
)

var matrixCmd = &cobra.Command{
	Use:     "matrix",
	Short:   "Compute durations or distances between many locations",
	Example: `  routelens matrix --location 8.34,48.23 --location 8.34,48.26 --location 8.35,48.24 --metrics duration,distance`,
	RunE: func(cmd *cobra.Command, args []string) error {
		locations, err := parseCoordinates(matrixLocations)
		if err != nil {
			return err
		}

		req := ors.MatrixRequest{
			Profile:      matrixProfile,
			Locations:    locations,
			Sources:      matrixSources,
			Destinations: matrixDestinations,
			Metrics:      matrixMetrics,
			Units:        matrixUnits,
		}

		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.DistanceMatrix(ctx, req, opts...)
		})
	},
}

var (
	placesRequest string
	placesBBox    []string
	placesGeoJSON string
	placesBuffer  int
	placesFilters string
	placesLimit   int
	placesSortBy  string
)

var placesCmd = &cobra.Command{
	Use:     "places",
	Short:   "Search points of interest",
	Example: `  routelens places --bbox 8.8034,53.0756 --bbox 8.7834,53.0456 --filters '{"category_group_ids":[620]}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bbox, err := parseCoordinates(placesBBox)
		if err != nil {
			return err
		}

		req := ors.PlacesRequest{
			Request: placesRequest,
			Geometry: ors.PlacesGeometry{
				BBox:   bbox,
				Buffer: placesBuffer,
			},
			Limit:  placesLimit,
			SortBy: placesSortBy,
		}
		if geo := strings.TrimSpace(placesGeoJSON); geo != "" {
			req.Geometry.GeoJSON = json.RawMessage(geo)
		}
		if filters := strings.TrimSpace(placesFilters); filters != "" {
			if err := json.Unmarshal([]byte(filters), &req.Filters); err != nil {
				return fmt.Errorf("%w: --filters must be a JSON object: %v", ors.ErrInvalidRequest, err)
			}
		}

		return runAPICall(cmd, func(ctx context.Context, client *ors.Client, opts ...ors.CallOption) (json.RawMessage, error) {
			return client.Places(ctx, req, opts...)
		})
	},
}

func init() {
	profileUsage := "Routing profile: " + strings.Join(ors.Profiles, "|")

	rootCmd.AddCommand(directionsCmd)
	addOutputFlags(directionsCmd)
	directionsCmd.Flags().StringVar(&directionsProfile, "profile", "driving-car", profileUsage)
	directionsCmd.Flags().StringVar(&directionsFormat, "format", "json", "Response format: json|geojson")
	directionsCmd.Flags().StringArrayVarP(&directionsCoords, "coord", "c", nil, "Waypoint as lon,lat (repeat for each waypoint, at least two)")
	directionsCmd.Flags().StringVar(&directionsPreference, "preference", "", "Route preference: fastest|shortest|recommended")
	directionsCmd.Flags().StringVar(&directionsUnits, "units", "", "Distance units: m|km|mi")
	directionsCmd.Flags().StringVar(&directionsLanguage, "language", "", "Instruction language")
	directionsCmd.Flags().BoolVar(&directionsElevation, "elevation", false, "Include elevation in geometry")
	directionsCmd.Flags().BoolVar(&directionsInstructions, "instructions", true, "Include turn-by-turn instructions")
	directionsCmd.Flags().StringSliceVar(&directionsExtraInfo, "extra-info", nil, "Extra info blocks, e.g. steepness,surface")

	rootCmd.AddCommand(isochronesCmd)
	addOutputFlags(isochronesCmd)
	isochronesCmd.Flags().StringVar(&isochronesProfile, "profile", "driving-car", profileUsage)
	isochronesCmd.Flags().StringArrayVarP(&isochronesLocations, "location", "l", nil, "Center as lon,lat (repeatable)")
	isochronesCmd.Flags().StringVar(&isochronesRange, "range", "", "Comma separated range values in seconds or meters")
	isochronesCmd.Flags().StringVar(&isochronesRangeType, "range-type", "", "Range type: time|distance")
	isochronesCmd.Flags().Float64Var(&isochronesInterval, "interval", 0, "Interval between isochrones")
	isochronesCmd.Flags().StringVar(&isochronesUnits, "units", "", "Distance units: m|km|mi")
	isochronesCmd.Flags().Float64Var(&isochronesSmoothing, "smoothing", 0, "Polygon smoothing factor 0..100")

	rootCmd.AddCommand(matrixCmd)
	addOutputFlags(matrixCmd)
	matrixCmd.Flags().StringVar(&matrixProfile, "profile", "driving-car", profileUsage)
	matrixCmd.Flags().StringArrayVarP(&matrixLocations, "location", "l", nil, "Location as lon,lat (repeatable)")
	matrixCmd.Flags().IntSliceVar(&matrixSources, "sources", nil, "Indices of source locations")
	matrixCmd.Flags().IntSliceVar(&matrixDestinations, "destinations", nil, "Indices of destination locations")
	matrixCmd.Flags().StringSliceVar(&matrixMetrics, "metrics", nil, "Metrics: duration,distance")
	matrixCmd.Flags().StringVar(&matrixUnits, "units", "", "Distance units: m|km|mi")

	rootCmd.AddCommand(placesCmd)
	addOutputFlags(placesCmd)
	placesCmd.Flags().StringVar(&placesRequest, "request", "pois", "Request type: pois|stats|list")
	placesCmd.Flags().StringArrayVar(&placesBBox, "bbox", nil, "Bounding box corner as lon,lat (give two)")
	placesCmd.Flags().StringVar(&placesGeoJSON, "geojson", "", "GeoJSON geometry to search around")
	placesCmd.Flags().IntVar(&placesBuffer, "buffer", 0, "Buffer around the geometry in meters")
	placesCmd.Flags().StringVar(&placesFilters, "filters", "", "Filters as a JSON object")
	placesCmd.Flags().IntVar(&placesLimit, "limit", 0, "Maximum number of results")
	placesCmd.Flags().StringVar(&placesSortBy, "sortby", "", "Sort order: category|distance")
}
