// Package roof implements the computational-geometry core of a
// roof-measurement pipeline: footprint selection, ridge calibration from a
// prioritized evidence cascade, and measurement/overlay quality scoring.
//
// The package is pure apart from one I/O seam (SelectFootprint's tile
// query). All other operations take owned inputs and return owned outputs;
// nothing here keeps process-wide state.
package roof

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// Point is a (lng, lat) pair in decimal degrees, aliasing orb's point type
// so geometry here interoperates with orb's WKT/GeoJSON codecs for free.
type Point = orb.Point

// Ring is a closed sequence of Points; by convention the last Point equals
// the first.
type Ring = orb.Ring

// FeatureKind is a closed enumeration of roof edge categories.
type FeatureKind string

const (
	KindRidge  FeatureKind = "ridge"
	KindHip    FeatureKind = "hip"
	KindValley FeatureKind = "valley"
	KindEave   FeatureKind = "eave"
	KindRake   FeatureKind = "rake"
)

// ValidKind reports whether k is one of the closed FeatureKind values.
func ValidKind(k FeatureKind) bool {
	switch k {
	case KindRidge, KindHip, KindValley, KindEave, KindRake:
		return true
	}
	return false
}

// FeatureSourceKind is a closed enumeration of ridge-evidence sources.
type FeatureSourceKind string

const (
	SourceManual       FeatureSourceKind = "manual"
	SourceDSM          FeatureSourceKind = "dsm"
	SourceSolarSegment FeatureSourceKind = "solar_segment"
	SourceAIVision     FeatureSourceKind = "ai_vision"
	SourceSkeleton     FeatureSourceKind = "skeleton"
)

// ValidSource reports whether s is one of the closed FeatureSourceKind values.
func ValidSource(s FeatureSourceKind) bool {
	switch s {
	case SourceManual, SourceDSM, SourceSolarSegment, SourceAIVision, SourceSkeleton:
		return true
	}
	return false
}

// LinearFeature is a single roof edge: a polyline with a kind, a source,
// and a confidence. LengthFt must equal the geodesic-approx length of
// Geometry to within 1% (enforced by callers that construct features via
// NewLinearFeature).
type LinearFeature struct {
	ID         string            `json:"id"`
	Geometry   orb.LineString    `json:"geometry"`
	Kind       FeatureKind       `json:"kind"`
	LengthFt   float64           `json:"length_ft"`
	Source     FeatureSourceKind `json:"source"`
	Confidence float64           `json:"confidence"`
}

// NewLinearFeature builds a LinearFeature, computing LengthFt from geometry
// and generating an id when one is not supplied.
func NewLinearFeature(id string, geom orb.LineString, kind FeatureKind, source FeatureSourceKind, confidence float64) LinearFeature {
	if id == "" {
		id = uuid.NewString()
	}
	return LinearFeature{
		ID:         id,
		Geometry:   geom,
		Kind:       kind,
		LengthFt:   PolylineLengthFt(geom),
		Source:     source,
		Confidence: confidence,
	}
}

// UserTrace is a user-drawn polyline of the same kind space as LinearFeature.
type UserTrace struct {
	Kind     FeatureKind    `json:"kind"`
	Polyline orb.LineString `json:"polyline"`
	LengthFt float64        `json:"length_ft"`
}

// NewUserTrace builds a UserTrace, computing LengthFt from the polyline.
func NewUserTrace(kind FeatureKind, polyline orb.LineString) UserTrace {
	return UserTrace{
		Kind:     kind,
		Polyline: polyline,
		LengthFt: PolylineLengthFt(polyline),
	}
}

// FootprintCandidate is a building footprint polygon retrieved from the
// tile service, along with ranking signals.
type FootprintCandidate struct {
	Ring         Ring    `json:"ring"`
	DistanceM    float64 `json:"distance_m"`
	ContainsPoint bool   `json:"contains_point"`
	AreaM2       float64 `json:"area_m2"`
	BuildingID   string  `json:"building_id,omitempty"`
}

// RidgeCalibrationMethod is a closed enumeration of calibrator outcomes.
type RidgeCalibrationMethod string

const (
	MethodManualOverride   RidgeCalibrationMethod = "manual_override"
	MethodDSMPeaks         RidgeCalibrationMethod = "dsm_peaks"
	MethodSolarSegments    RidgeCalibrationMethod = "solar_segments"
	MethodAIVision         RidgeCalibrationMethod = "ai_vision"
	MethodSkeletonGeometric RidgeCalibrationMethod = "skeleton_geometric"
	MethodNone             RidgeCalibrationMethod = "none"
)

// RidgeCalibrationResult is the output of CalibrateRidges.
//
// Invariant: Method == MethodNone iff RidgeLines is empty iff
// QualityScore == 0. Otherwise every entry in RidgeLines shares Source.
type RidgeCalibrationResult struct {
	RidgeLines      []LinearFeature        `json:"ridge_lines"`
	PrimaryDirection orb.Point             `json:"primary_direction"`
	Method          RidgeCalibrationMethod `json:"method"`
	QualityScore    float64                `json:"quality_score"`
}

// Facet is a single planar roof surface.
type Facet struct {
	ID             string   `json:"id"`
	Polygon        orb.Ring `json:"polygon"`
	Area           float64  `json:"area"`
	PlanArea       float64  `json:"plan_area"`
	RequiresReview bool     `json:"requires_review,omitempty"`
}

// EdgeSet groups linear features by roof-edge category.
type EdgeSet struct {
	Ridges  []LinearFeature `json:"ridges"`
	Hips    []LinearFeature `json:"hips"`
	Valleys []LinearFeature `json:"valleys"`
	Eaves   []LinearFeature `json:"eaves"`
	Rakes   []LinearFeature `json:"rakes"`
}

// Totals carries the measurement's reported aggregate figures.
type Totals struct {
	TotalSqft float64 `json:"total_sqft"`
}

// MeasurementBundle is the complete assembled measurement handed to the
// Validator. Footprint and Facets are owned snapshots; the caller must not
// mutate them after the call.
type MeasurementBundle struct {
	Footprint         Ring     `json:"footprint"`
	Facets            []Facet  `json:"facets"`
	Edges             EdgeSet  `json:"edges"`
	Totals            Totals   `json:"totals"`
	ReferenceAreaSqft *float64 `json:"reference_area_sqft,omitempty"`
}

// QualityReport is the Validator's output.
type QualityReport struct {
	AreaMatch            bool     `json:"area_match"`
	AreaErrorPercent     float64  `json:"area_error_percent"`
	PerimeterMatch       bool     `json:"perimeter_match"`
	PerimeterErrorPercent float64 `json:"perimeter_error_percent"`
	ConnectivityValid    bool     `json:"connectivity_valid"`
	ClosureValid         bool     `json:"closure_valid"`
	TopologyValid        bool     `json:"topology_valid"`
	Issues               []string `json:"issues"`
	Warnings             []string `json:"warnings"`
	OverallScore         float64  `json:"overall_score"`
	ManualReviewRecommended bool  `json:"manual_review_recommended"`
	CriticalIssues       []string `json:"critical_issues"`
}

// DeviationRecord is a per-feature comparison between an AI feature and its
// best-matching user trace.
type DeviationRecord struct {
	Kind            FeatureKind `json:"kind"`
	FeatureID       string      `json:"feature_id"`
	DeviationFt     float64     `json:"deviation_ft"`
	MaxDeviationFt  float64     `json:"max_deviation_ft"`
	AlignmentScore  float64     `json:"alignment_score"`
	NeedsCorrection bool        `json:"needs_correction"`
	Matched         bool        `json:"matched"`
}

// CountDelta records a missing/extra feature-count mismatch for one kind.
type CountDelta struct {
	Kind  FeatureKind `json:"kind"`
	Delta int         `json:"delta"`
}

// Correction proposes replacement geometry for one AI feature.
type Correction struct {
	FeatureID    string         `json:"feature_id"`
	NewGeometry  orb.LineString `json:"new_geometry"`
}

// EvaluationReport is the Overlay Evaluator's output.
type EvaluationReport struct {
	OverallScore    float64           `json:"overall_score"`
	Deviations      []DeviationRecord `json:"deviations"`
	Missing         []CountDelta      `json:"missing"`
	Extra           []CountDelta      `json:"extra"`
	Recommendations []string          `json:"recommendations"`
	Corrections     []Correction      `json:"corrections"`
}

// RingVertexCount returns the number of vertices in ring, counting the
// closing vertex once (i.e. a closed 4-point square ring reports 4, not 5).
func RingVertexCount(ring Ring) int {
	n := len(ring)
	if n >= 2 && ring[0] == ring[n-1] {
		return n - 1
	}
	return n
}

func (k FeatureKind) String() string  { return string(k) }
func (s FeatureSourceKind) String() string { return string(s) }

// validateKindSource reports an error when k is not a valid FeatureKind or
// a non-empty s is not a valid FeatureSourceKind. No constructor calls it
// (NewLinearFeature does not validate its kind or source); it is used only
// in tests.
func validateKindSource(k FeatureKind, s FeatureSourceKind) error {
	if !ValidKind(k) {
		return fmt.Errorf("invalid feature kind %q", k)
	}
	if s != "" && !ValidSource(s) {
		return fmt.Errorf("invalid feature source %q", s)
	}
	return nil
}
