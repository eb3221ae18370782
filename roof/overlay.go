package roof

import (
	"fmt"
	"math"
)

const (
	// evaluatorFeetPerDegree is the overlay evaluator's own equator-approx
	// scale factor (1 degree of latitude/longitude at the equator), used for
	// deviation distances in feet. It deliberately does not apply
	// metersPerDegLng's latitude-cosine correction the way geometry.go does:
	// the evaluator is a coarser, display-oriented pass, and the discrepancy
	// between the two scales is expected at latitudes far from the equator
	// (spec §9 design note, documented as deliberate).
	evaluatorFeetPerDegree = 364000.0

	overlaySampleCount = 11

	// unmatchedAlignmentScore is the alignment score recorded when an AI
	// feature has no candidate user trace of the same kind.
	unmatchedAlignmentScore = 0.5

	correctionDeviationThresholdFt = 2.0
	correctionAlignmentThreshold   = 0.85
	alignmentDeviationDivisorFt    = 10.0

	// maxDeviationHeuristicFactor scales the mean deviation into a reported
	// "max" deviation. This is an estimate, not a true per-sample maximum
	// (spec §9 open question (a)) — preserved as documented heuristic.
	maxDeviationHeuristicFactor = 1.5
)

// deviationDegreesToFt converts a deviation expressed in degrees to feet
// using the evaluator's own equator-approximate scale factor.
func deviationDegreesToFt(deg float64) float64 {
	return deg * evaluatorFeetPerDegree
}

// EvaluateOverlay compares AI-produced features against user traces of the
// same kind, per spec §4.5: for each AI feature it finds the closest
// same-kind user trace by sampling the AI polyline at overlaySampleCount
// arc-length stations and averaging each sample's distance to the trace.
// Per kind, more traces than AI features is recorded as "missing" and more
// AI features than traces (with at least one trace) as "extra".
func EvaluateOverlay(aiFeatures []LinearFeature, traces []UserTrace) EvaluationReport {
	report := EvaluationReport{}

	byKind := make(map[FeatureKind][]LinearFeature)
	for _, f := range aiFeatures {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}
	tracesByKind := make(map[FeatureKind][]UserTrace)
	for _, t := range traces {
		tracesByKind[t.Kind] = append(tracesByKind[t.Kind], t)
	}

	kinds := map[FeatureKind]bool{}
	for k := range byKind {
		kinds[k] = true
	}
	for k := range tracesByKind {
		kinds[k] = true
	}

	var allDeviations []DeviationRecord
	for kind := range kinds {
		features := byKind[kind]
		kindTraces := tracesByKind[kind]

		for _, f := range features {
			bestIdx := -1
			bestDev := math.Inf(1)
			for i, tr := range kindTraces {
				if len(tr.Polyline) < 2 {
					continue
				}
				dev := meanDeviationFt(f.Geometry, tr.Polyline)
				if dev < bestDev {
					bestDev = dev
					bestIdx = i
				}
			}

			rec := DeviationRecord{Kind: kind, FeatureID: f.ID}
			if bestIdx >= 0 {
				rec.Matched = true
				rec.DeviationFt = bestDev
				rec.MaxDeviationFt = bestDev * maxDeviationHeuristicFactor
				rec.AlignmentScore = alignmentScore(rec.DeviationFt)
				rec.NeedsCorrection = rec.DeviationFt > correctionDeviationThresholdFt || rec.AlignmentScore < correctionAlignmentThreshold
				if rec.NeedsCorrection {
					report.Corrections = append(report.Corrections, Correction{
						FeatureID:   f.ID,
						NewGeometry: kindTraces[bestIdx].Polyline,
					})
				}
			} else {
				rec.Matched = false
				rec.DeviationFt = 0
				rec.MaxDeviationFt = 0
				rec.AlignmentScore = unmatchedAlignmentScore
				rec.NeedsCorrection = false
			}
			allDeviations = append(allDeviations, rec)
		}

		if len(kindTraces) > len(features) {
			report.Missing = append(report.Missing, CountDelta{Kind: kind, Delta: len(kindTraces) - len(features)})
		} else if len(features) > len(kindTraces) && len(kindTraces) >= 1 {
			report.Extra = append(report.Extra, CountDelta{Kind: kind, Delta: len(features) - len(kindTraces)})
		}
	}

	report.Deviations = allDeviations
	report.OverallScore = overallOverlayScore(allDeviations)
	report.Recommendations = buildRecommendations(allDeviations, report.Missing, report.Extra)

	return report
}

// meanDeviationFt resamples the AI polyline at overlaySampleCount
// equispaced arc-length parameters t_i = i/10 and averages the minimum
// point-to-segment distance from each sample to the user polyline,
// converting degrees to feet with the evaluator's own scale constant.
func meanDeviationFt(ai, trace []Point) float64 {
	if len(ai) < 2 || len(trace) < 2 {
		return math.Inf(1)
	}
	total := 0.0
	for i := 0; i < overlaySampleCount; i++ {
		t := float64(i) / float64(overlaySampleCount-1)
		p := InterpolateAlongPolyline(ai, t)
		total += nearestDistanceToPolyline(p, trace)
	}
	return deviationDegreesToFt(total / overlaySampleCount)
}

func nearestDistanceToPolyline(p Point, line []Point) float64 {
	best := math.Inf(1)
	for i := 0; i+1 < len(line); i++ {
		d := PointToSegmentDistance(p, line[i], line[i+1])
		if d < best {
			best = d
		}
	}
	return best
}

// alignmentScore implements spec §4.5's alignment formula:
// max(0, 1 - deviation_ft / 10).
func alignmentScore(deviationFt float64) float64 {
	score := 1.0 - deviationFt/alignmentDeviationDivisorFt
	if score < 0 {
		return 0
	}
	return score
}

// overallOverlayScore implements spec §4.5 step 4: 50*(correct/total) +
// 50*(mean alignment), rounded to the nearest integer; 50 when no AI
// features were evaluated.
func overallOverlayScore(deviations []DeviationRecord) float64 {
	total := len(deviations)
	if total == 0 {
		return 50
	}
	correct := 0
	sumAlignment := 0.0
	for _, d := range deviations {
		if !d.NeedsCorrection {
			correct++
		}
		sumAlignment += d.AlignmentScore
	}
	meanAlignment := sumAlignment / float64(total)
	score := 50*(float64(correct)/float64(total)) + 50*meanAlignment
	return math.Round(score)
}

func buildRecommendations(deviations []DeviationRecord, missing, extra []CountDelta) []string {
	var out []string
	for _, d := range deviations {
		if d.NeedsCorrection {
			out = append(out, fmt.Sprintf("%s feature %s deviates %.1fft from the traced geometry, auto-correction proposed", d.Kind, d.FeatureID, d.DeviationFt))
		}
		if !d.Matched {
			out = append(out, fmt.Sprintf("%s feature %s has no matching user trace", d.Kind, d.FeatureID))
		}
	}
	for _, m := range missing {
		out = append(out, fmt.Sprintf("%d %s trace(s) have no corresponding AI feature", m.Delta, m.Kind))
	}
	for _, e := range extra {
		out = append(out, fmt.Sprintf("%d extra %s AI feature(s) beyond the traced count", e.Delta, e.Kind))
	}
	return out
}

// ApplyCorrections replaces the geometry of every feature named in
// corrections, returning a new slice; features is left unmodified. Length
// is recomputed using the evaluator's own feet-per-degree constant (spec
// §4.5's apply_corrections contract), source becomes manual, confidence
// becomes 0.95.
func ApplyCorrections(features []LinearFeature, corrections []Correction) []LinearFeature {
	byID := make(map[string]Correction, len(corrections))
	for _, c := range corrections {
		byID[c.FeatureID] = c
	}
	out := make([]LinearFeature, len(features))
	for i, f := range features {
		if c, ok := byID[f.ID]; ok {
			f.Geometry = c.NewGeometry
			f.LengthFt = evaluatorPolylineLengthFt(c.NewGeometry)
			f.Source = SourceManual
			f.Confidence = 0.95
		}
		out[i] = f
	}
	return out
}

// evaluatorPolylineLengthFt sums segment lengths in degrees and converts to
// feet with the evaluator's own 364000 ft-per-degree constant, per spec
// §4.5's apply_corrections contract ("length recomputed ... x 364000
// ft-per-degree"), distinct from PolylineLengthFt's latitude-aware scale.
func evaluatorPolylineLengthFt(line []Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(line); i++ {
		total += math.Hypot(line[i+1][0]-line[i][0], line[i+1][1]-line[i][1])
	}
	return total * evaluatorFeetPerDegree
}
