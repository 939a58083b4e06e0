package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Summary is a compact tabular view of an API response.
type Summary struct {
	Title   string
	Columns []string
	Rows    [][]string
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type routeSummary struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type directionsJSON struct {
	Routes []struct {
		Summary routeSummary `json:"summary"`
	} `json:"routes"`
}

type matrixJSON struct {
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// Summarize recognises GeoJSON feature collections, directions routes and
// matrices. It reports false for any other payload.
func Summarize(raw json.RawMessage) (*Summary, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}

	switch {
	case hasKey(probe, "features"):
		var fc featureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return nil, false
		}
		return summarizeFeatures(fc), true
	case hasKey(probe, "routes"):
		var dj directionsJSON
		if err := json.Unmarshal(raw, &dj); err != nil {
			return nil, false
		}
		return summarizeRoutes(dj), true
	case hasKey(probe, "durations"), hasKey(probe, "distances"):
		var mj matrixJSON
		if err := json.Unmarshal(raw, &mj); err != nil {
			return nil, false
		}
		return summarizeMatrix(mj), true
	default:
		return nil, false
	}
}

func hasKey(values map[string]json.RawMessage, key string) bool {
	_, ok := values[key]
	return ok
}

func summarizeFeatures(fc featureCollection) *Summary {
	summary := &Summary{
		Title:   fmt.Sprintf("%d feature(s)", len(fc.Features)),
		Columns: []string{"#", "Label", "Geometry", "Detail"},
	}

	for i, f := range fc.Features {
		summary.Rows = append(summary.Rows, []string{
			strconv.Itoa(i + 1),
			featureLabel(f),
			f.Geometry.Type,
			featureDetail(f),
		})
	}
	return summary
}

func featureLabel(f feature) string {
	for _, key := range []string{"label", "name", "osm_tags"} {
		if value, ok := f.Properties[key]; ok {
			var text string
			if err := json.Unmarshal(value, &text); err == nil && text != "" {
				return text
			}
			if key == "osm_tags" {
				var tags map[string]string
				if err := json.Unmarshal(value, &tags); err == nil && tags["name"] != "" {
					return tags["name"]
				}
			}
		}
	}
	return "-"
}

func featureDetail(f feature) string {
	if raw, ok := f.Properties["summary"]; ok {
		var rs routeSummary
		if err := json.Unmarshal(raw, &rs); err == nil {
			return formatRoute(rs)
		}
	}
	if raw, ok := f.Properties["value"]; ok {
		return "value=" + strings.TrimSpace(string(raw))
	}
	if f.Geometry.Type == "Point" {
		var point []float64
		if err := json.Unmarshal(f.Geometry.Coordinates, &point); err == nil && len(point) >= 2 {
			return strconv.FormatFloat(point[0], 'f', -1, 64) + "," + strconv.FormatFloat(point[1], 'f', -1, 64)
		}
	}
	return "-"
}

func summarizeRoutes(dj directionsJSON) *Summary {
	summary := &Summary{
		Title:   fmt.Sprintf("%d route(s)", len(dj.Routes)),
		Columns: []string{"#", "Distance", "Duration"},
	}
	for i, route := range dj.Routes {
		summary.Rows = append(summary.Rows, []string{
			strconv.Itoa(i + 1),
			formatDistance(route.Summary.Distance),
			formatDuration(route.Summary.Duration),
		})
	}
	return summary
}

func summarizeMatrix(mj matrixJSON) *Summary {
	values := mj.Durations
	title := "Durations (s)"
	if len(values) == 0 {
		values = mj.Distances
		title = "Distances"
	}

	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}

	summary := &Summary{Title: title, Columns: []string{"Source"}}
	for j := range width {
		summary.Columns = append(summary.Columns, "D"+strconv.Itoa(j))
	}
	for i, row := range values {
		cells := []string{"S" + strconv.Itoa(i)}
		for j := range width {
			cell := "-"
			if j < len(row) && row[j] != nil {
				cell = strconv.FormatFloat(*row[j], 'f', -1, 64)
			}
			cells = append(cells, cell)
		}
		summary.Rows = append(summary.Rows, cells)
	}
	return summary
}

func formatRoute(rs routeSummary) string {
	return formatDistance(rs.Distance) + ", " + formatDuration(rs.Duration)
}

func formatDistance(meters float64) string {
	if meters >= 1000 {
		return strconv.FormatFloat(meters/1000, 'f', 1, 64) + " km"
	}
	return strconv.FormatFloat(meters, 'f', 0, 64) + " m"
}

func formatDuration(seconds float64) string {
	if seconds >= 60 {
		return strconv.FormatFloat(seconds/60, 'f', 1, 64) + " min"
	}
	return strconv.FormatFloat(seconds, 'f', 0, 64) + " s"
}
