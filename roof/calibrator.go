package roof

import (
	"math"

	"github.com/paulmach/orb"
)

// AIVisionHint is an AI-vision-derived ridge candidate. Confidence of 0
// means "not given" and defaults to 0.75 per spec §4.3.
type AIVisionHint struct {
	Geometry   orb.LineString
	Confidence float64
}

// EvidenceBundle holds every ridge-evidence source the calibrator
// considers, tried in strict priority order (spec §4.3).
type EvidenceBundle struct {
	ManualTraces  []orb.LineString
	DSM           *ElevationGrid
	SolarSegments []SolarSegment
	AIVision      []AIVisionHint
	Skeleton      bool
}

const (
	confManualOverride = 0.99
	confSolarSegments   = 0.85
	confSkeletonDefault = 0.70
	confAIVisionDefault = 0.75

	qualityManualOverride = 0.99
	qualityDSMPeaks       = 0.92
	qualitySolarSegments  = 0.85
	qualitySkeleton       = 0.70
)

// ridgeCandidate is a pre-clip ridge segment with its per-ridge confidence.
type ridgeCandidate struct {
	segment    orb.LineString
	confidence float64
}

// CalibrateRidges derives ridge geometry from the prioritized evidence
// cascade: manual traces, then DSM, then solar segments, then AI vision,
// then the straight-skeleton fallback. The first source yielding >= 1
// clipped ridge wins; later sources are ignored. Cannot fail: absent
// usable evidence yields method "none" and no ridges.
func CalibrateRidges(footprint Ring, evidence EvidenceBundle) RidgeCalibrationResult {
	type source struct {
		method     RidgeCalibrationMethod
		sourceKind FeatureSourceKind
		candidates []ridgeCandidate
		quality    func([]LinearFeature) float64
	}

	sources := []source{
		{
			method:     MethodManualOverride,
			sourceKind: SourceManual,
			candidates: toCandidates(evidence.ManualTraces, confManualOverride),
			quality:    constQuality(qualityManualOverride),
		},
		{
			method:     MethodDSMPeaks,
			sourceKind: SourceDSM,
			candidates: dsmCandidates(evidence.DSM),
			quality:    constQuality(qualityDSMPeaks),
		},
		{
			method:     MethodSolarSegments,
			sourceKind: SourceSolarSegment,
			candidates: toCandidates(InferSolarRidges(footprint, evidence.SolarSegments), confSolarSegments),
			quality:    constQuality(qualitySolarSegments),
		},
		{
			method:     MethodAIVision,
			sourceKind: SourceAIVision,
			candidates: aiCandidates(evidence.AIVision),
			quality:    meanConfidenceQuality,
		},
		{
			method:     MethodSkeletonGeometric,
			sourceKind: SourceSkeleton,
			candidates: skeletonCandidates(footprint, evidence.Skeleton),
			quality:    constQuality(qualitySkeleton),
		},
	}

	for _, s := range sources {
		ridges := clipCandidates(footprint, s.candidates, s.sourceKind)
		if len(ridges) == 0 {
			continue
		}
		return RidgeCalibrationResult{
			RidgeLines:       ridges,
			PrimaryDirection: primaryDirection(ridges),
			Method:           s.method,
			QualityScore:     s.quality(ridges),
		}
	}

	return RidgeCalibrationResult{
		RidgeLines:       nil,
		PrimaryDirection: orb.Point{1, 0},
		Method:           MethodNone,
		QualityScore:     0,
	}
}

func toCandidates(lines []orb.LineString, confidence float64) []ridgeCandidate {
	out := make([]ridgeCandidate, 0, len(lines))
	for _, l := range lines {
		out = append(out, ridgeCandidate{segment: l, confidence: confidence})
	}
	return out
}

func dsmCandidates(grid *ElevationGrid) []ridgeCandidate {
	if grid == nil {
		return nil
	}
	ridges := DetectDSMRidges(grid)
	out := make([]ridgeCandidate, 0, len(ridges))
	for _, r := range ridges {
		out = append(out, ridgeCandidate{segment: r.Segment, confidence: r.Confidence})
	}
	return out
}

func aiCandidates(hints []AIVisionHint) []ridgeCandidate {
	out := make([]ridgeCandidate, 0, len(hints))
	for _, h := range hints {
		conf := h.Confidence
		if conf <= 0 {
			conf = confAIVisionDefault
		}
		out = append(out, ridgeCandidate{segment: h.Geometry, confidence: conf})
	}
	return out
}

func skeletonCandidates(footprint Ring, enabled bool) []ridgeCandidate {
	if !enabled {
		return nil
	}
	seg := SkeletonRidge(footprint)
	if len(seg) < 2 {
		return nil
	}
	return []ridgeCandidate{{segment: seg, confidence: confSkeletonDefault}}
}

// clipCandidates clips each candidate to footprint (spec §4.3 "Clipping to
// footprint") and wraps survivors as LinearFeatures.
func clipCandidates(footprint Ring, candidates []ridgeCandidate, source FeatureSourceKind) []LinearFeature {
	var out []LinearFeature
	for _, c := range candidates {
		if len(c.segment) < 2 {
			continue
		}
		start, end, ok := clipSegmentToRing(c.segment[0], c.segment[len(c.segment)-1], footprint)
		if !ok {
			continue
		}
		geom := orb.LineString{start, end}
		out = append(out, NewLinearFeature("", geom, KindRidge, source, c.confidence))
	}
	return out
}

func constQuality(q float64) func([]LinearFeature) float64 {
	return func([]LinearFeature) float64 { return q }
}

func meanConfidenceQuality(features []LinearFeature) float64 {
	if len(features) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range features {
		sum += f.Confidence
	}
	return sum / float64(len(features))
}

// primaryDirection returns the unit vector from the first ridge's start to
// its end; degenerate (near-zero length) segments default to (1,0).
func primaryDirection(ridges []LinearFeature) orb.Point {
	if len(ridges) == 0 {
		return orb.Point{1, 0}
	}
	geom := ridges[0].Geometry
	if len(geom) < 2 {
		return orb.Point{1, 0}
	}
	start, end := geom[0], geom[len(geom)-1]
	dx, dy := end[0]-start[0], end[1]-start[1]
	length := math.Hypot(dx, dy)
	if length < 1e-7 {
		return orb.Point{1, 0}
	}
	return orb.Point{dx / length, dy / length}
}
