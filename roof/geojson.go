package roof

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// GeometryType is the GeoJSON geometry type tag.
type GeometryType string

const (
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
)

// Geometry is a GeoJSON geometry object with coordinates left encoded so
// callers can decode them against the concrete type implied by Type.
type Geometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a GeoJSON feature carrying one roof edge or facet.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
	ID         string                 `json:"id,omitempty"`
}

// FeatureCollection is a GeoJSON FeatureCollection of roof features.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

func newFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: make([]*Feature, 0)}
}

func lineStringGeometry(line orb.LineString) *Geometry {
	coords := make([][2]float64, len(line))
	for i, p := range line {
		coords[i] = [2]float64{p[0], p[1]}
	}
	raw, _ := json.Marshal(coords)
	return &Geometry{Type: GeometryLineString, Coordinates: raw}
}

func polygonGeometry(ring orb.Ring) *Geometry {
	closed := EnsureClosed(ring)
	coords := make([][2]float64, len(closed))
	for i, p := range closed {
		coords[i] = [2]float64{p[0], p[1]}
	}
	raw, _ := json.Marshal([][][2]float64{coords})
	return &Geometry{Type: GeometryPolygon, Coordinates: raw}
}

// linearFeatureToGeoJSON converts a single edge to a GeoJSON Feature,
// carrying its kind/source/confidence/length as properties.
func linearFeatureToGeoJSON(f LinearFeature) *Feature {
	return &Feature{
		Type:     "Feature",
		Geometry: lineStringGeometry(f.Geometry),
		ID:       f.ID,
		Properties: map[string]interface{}{
			"kind":       string(f.Kind),
			"source":     string(f.Source),
			"confidence": f.Confidence,
			"length_ft":  f.LengthFt,
		},
	}
}

func facetToGeoJSON(f Facet) *Feature {
	return &Feature{
		Type:     "Feature",
		Geometry: polygonGeometry(f.Polygon),
		ID:       f.ID,
		Properties: map[string]interface{}{
			"area":            f.Area,
			"plan_area":       f.PlanArea,
			"requires_review": f.RequiresReview,
		},
	}
}

// MeasurementBundleToGeoJSON renders a MeasurementBundle as a GeoJSON
// FeatureCollection: one polygon feature per facet, one line feature per
// edge, and a footprint polygon feature tagged "role": "footprint".
func MeasurementBundleToGeoJSON(bundle MeasurementBundle) *FeatureCollection {
	fc := newFeatureCollection()

	footprint := &Feature{
		Type:       "Feature",
		Geometry:   polygonGeometry(bundle.Footprint),
		Properties: map[string]interface{}{"role": "footprint"},
	}
	fc.Features = append(fc.Features, footprint)

	for _, f := range bundle.Facets {
		fc.Features = append(fc.Features, facetToGeoJSON(f))
	}
	for _, group := range [][]LinearFeature{
		bundle.Edges.Ridges, bundle.Edges.Hips, bundle.Edges.Valleys,
		bundle.Edges.Eaves, bundle.Edges.Rakes,
	} {
		for _, f := range group {
			fc.Features = append(fc.Features, linearFeatureToGeoJSON(f))
		}
	}
	return fc
}

// DecodeRingGeoJSON decodes a GeoJSON Polygon geometry's outer ring.
func DecodeRingGeoJSON(geom *Geometry) (orb.Ring, error) {
	if geom == nil {
		return nil, fmt.Errorf("decode ring geojson: nil geometry")
	}
	if geom.Type != GeometryPolygon {
		return nil, fmt.Errorf("decode ring geojson: expected Polygon, got %s", geom.Type)
	}
	var rings [][][2]float64
	if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
		return nil, fmt.Errorf("decode ring geojson: %w", err)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("decode ring geojson: no rings present")
	}
	return ringFromCoords(rings[0]), nil
}

// DecodeLineStringGeoJSON decodes a GeoJSON LineString geometry.
func DecodeLineStringGeoJSON(geom *Geometry) (orb.LineString, error) {
	if geom == nil {
		return nil, fmt.Errorf("decode linestring geojson: nil geometry")
	}
	if geom.Type != GeometryLineString {
		return nil, fmt.Errorf("decode linestring geojson: expected LineString, got %s", geom.Type)
	}
	var coords [][2]float64
	if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("decode linestring geojson: %w", err)
	}
	line := make(orb.LineString, len(coords))
	for i, c := range coords {
		line[i] = orb.Point{c[0], c[1]}
	}
	return line, nil
}
