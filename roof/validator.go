package roof

import (
	"fmt"
	"math"
	"strings"
)

const (
	areaIssueThreshold    = 0.03
	areaWarnThreshold     = 0.01
	areaRefWarnThreshold  = 0.05
	areaPenalty           = 0.20

	perimeterIssueThreshold = 0.05
	perimeterWarnThreshold  = 0.01
	perimeterPenalty        = 0.15

	connectivityTolerance      = 5e-5
	connectivityIssueThreshold = 2
	connectivityPenalty        = 0.15

	closureTolerance = 1e-5
	closurePenalty   = 0.10

	topologyNearTolerance = 5e-5
	topologyWarnRatio     = 1.5
	topologyIssueRatio    = 2.0
	hipWarnRatio          = 4.0
	perimeterTopologyWarn = 0.20
	topologyPenalty       = 0.25

	reviewPenaltyPerFacet = 0.05
	reviewPenaltyCap      = 4
)

// criticalTriggers are the substrings that make an issue message critical,
// per spec §4.4.
var criticalTriggers = []string{"exceeds", "not closed", "disconnected", "outside footprint", "crossing"}

func isCritical(msg string) bool {
	lower := strings.ToLower(msg)
	for _, trigger := range criticalTriggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// ValidateMeasurements runs every independent check of spec §4.4 against
// bundle and combines them into a QualityReport. Never fails: malformed
// inputs are reported as issues inside the report.
func ValidateMeasurements(bundle MeasurementBundle) QualityReport {
	report := QualityReport{}
	score := 1.0

	// --- Area consistency ---
	facetAreaSum := 0.0
	for _, f := range bundle.Facets {
		facetAreaSum += f.Area
	}
	if bundle.Totals.TotalSqft == 0 {
		report.AreaMatch = false
		report.AreaErrorPercent = 100
		report.Issues = append(report.Issues, "total_sqft is zero, area consistency check failed")
		score -= areaPenalty
	} else {
		errFrac := math.Abs(facetAreaSum-bundle.Totals.TotalSqft) / bundle.Totals.TotalSqft
		report.AreaErrorPercent = errFrac * 100
		report.AreaMatch = errFrac <= areaIssueThreshold
		if errFrac > areaIssueThreshold {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"facet area sum differs from reported total by %.1f%% (threshold 3%%)", report.AreaErrorPercent))
			score -= areaPenalty
		} else if errFrac > areaWarnThreshold {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"facet area sum differs from reported total by %.1f%% (threshold 1%%)", report.AreaErrorPercent))
		}
	}

	if bundle.ReferenceAreaSqft != nil && *bundle.ReferenceAreaSqft != 0 {
		refErr := math.Abs(bundle.Totals.TotalSqft-*bundle.ReferenceAreaSqft) / *bundle.ReferenceAreaSqft
		if refErr > areaRefWarnThreshold {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"reported area differs from reference area by %.1f%% (threshold 5%%)", refErr*100))
		}
	}

	// --- Perimeter consistency ---
	footprintPerimeterFt := PerimeterFt(bundle.Footprint)
	edgeLenFt := sumLengthFt(bundle.Edges.Eaves) + sumLengthFt(bundle.Edges.Rakes)
	if footprintPerimeterFt == 0 {
		report.PerimeterMatch = false
		report.PerimeterErrorPercent = 100
		report.Issues = append(report.Issues, "footprint perimeter is zero, perimeter consistency check failed")
		score -= perimeterPenalty
	} else {
		errFrac := math.Abs(edgeLenFt-footprintPerimeterFt) / footprintPerimeterFt
		report.PerimeterErrorPercent = errFrac * 100
		report.PerimeterMatch = errFrac <= perimeterIssueThreshold
		if errFrac > perimeterIssueThreshold {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"eave+rake length differs from footprint perimeter by %.1f%% (threshold 5%%)", report.PerimeterErrorPercent))
			score -= perimeterPenalty
		} else if errFrac > perimeterWarnThreshold {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"eave+rake length differs from footprint perimeter by %.1f%% (threshold 1%%)", report.PerimeterErrorPercent))
		}
	}

	// --- Segment connectivity ---
	disconnected := countDisconnectedEndpoints(bundle.Edges)
	report.ConnectivityValid = disconnected <= connectivityIssueThreshold
	if disconnected > connectivityIssueThreshold {
		report.Issues = append(report.Issues, fmt.Sprintf(
			"%d interior edge endpoints are disconnected from the ridge/hip/valley/eave/rake network", disconnected))
		score -= connectivityPenalty
	} else if disconnected > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%d interior edge endpoints are disconnected from the ridge/hip/valley/eave/rake network", disconnected))
	}

	// --- Facet closure ---
	tooFew, notClosed := checkFacetClosure(bundle.Facets)
	report.ClosureValid = tooFew == 0
	if tooFew > 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%d facets are not closed: fewer than 3 vertices", tooFew))
		score -= closurePenalty
	}
	if notClosed > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d facets are not closed", notClosed))
	}

	// --- Topology ---
	topologyOK, topoIssues, topoWarnings := checkTopology(bundle)
	report.TopologyValid = topologyOK
	report.Issues = append(report.Issues, topoIssues...)
	report.Warnings = append(report.Warnings, topoWarnings...)
	if !topologyOK {
		score -= topologyPenalty
	}

	// --- Review flags ---
	reviewCount := 0
	for _, f := range bundle.Facets {
		if f.RequiresReview {
			reviewCount++
		}
	}
	if reviewCount > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d facets flagged for manual review", reviewCount))
		capped := reviewCount
		if capped > reviewPenaltyCap {
			capped = reviewPenaltyCap
		}
		score -= reviewPenaltyPerFacet * float64(capped)
	}

	for _, issue := range report.Issues {
		if isCritical(issue) {
			report.CriticalIssues = append(report.CriticalIssues, issue)
		}
	}

	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	report.OverallScore = score

	report.ManualReviewRecommended = len(report.CriticalIssues) > 0 || score < 0.7 || reviewCount > 2

	return report
}

func sumLengthFt(features []LinearFeature) float64 {
	total := 0.0
	for _, f := range features {
		total += f.LengthFt
	}
	return total
}

// interiorEndpoints returns the start/end points of every ridge, hip, and
// valley feature.
func interiorEndpoints(edges EdgeSet) []Point {
	var pts []Point
	for _, group := range [][]LinearFeature{edges.Ridges, edges.Hips, edges.Valleys} {
		for _, f := range group {
			if len(f.Geometry) < 2 {
				continue
			}
			pts = append(pts, f.Geometry[0], f.Geometry[len(f.Geometry)-1])
		}
	}
	return pts
}

func exteriorEndpoints(edges EdgeSet) []Point {
	var pts []Point
	for _, group := range [][]LinearFeature{edges.Eaves, edges.Rakes} {
		for _, f := range group {
			if len(f.Geometry) < 2 {
				continue
			}
			pts = append(pts, f.Geometry[0], f.Geometry[len(f.Geometry)-1])
		}
	}
	return pts
}

// countDisconnectedEndpoints implements spec §4.4's segment connectivity
// check: every interior endpoint must be near another interior endpoint
// (not itself) or an eave/rake endpoint.
func countDisconnectedEndpoints(edges EdgeSet) int {
	interior := interiorEndpoints(edges)
	exterior := exteriorEndpoints(edges)

	disconnected := 0
	for i, p := range interior {
		found := false
		for j, q := range interior {
			if i == j {
				continue
			}
			if pointsNear(p, q, connectivityTolerance) {
				found = true
				break
			}
		}
		if !found {
			for _, q := range exterior {
				if pointsNear(p, q, connectivityTolerance) {
					found = true
					break
				}
			}
		}
		if !found {
			disconnected++
		}
	}
	return disconnected
}

func pointsNear(a, b Point, tolerance float64) bool {
	return math.Hypot(a[0]-b[0], a[1]-b[1]) <= tolerance
}

// checkFacetClosure returns the count of facets with fewer than 3 vertices
// and the count of facets whose ring is not closed within tolerance.
func checkFacetClosure(facets []Facet) (tooFew, notClosed int) {
	for _, f := range facets {
		if len(f.Polygon) < 3 {
			tooFew++
			continue
		}
		if !pointsNear(f.Polygon[0], f.Polygon[len(f.Polygon)-1], closureTolerance) {
			notClosed++
		}
	}
	return
}

// checkTopology implements the five topology sub-checks of spec §4.4.
func checkTopology(bundle MeasurementBundle) (ok bool, issues, warnings []string) {
	ok = true

	// (a) every interior edge endpoint lies inside-or-near footprint.
	for _, p := range interiorEndpoints(bundle.Edges) {
		if !PointNearPolygon(p, bundle.Footprint, topologyNearTolerance) {
			issues = append(issues, "an interior edge endpoint lies outside footprint")
			ok = false
			break
		}
	}

	// (b) no proper interior-interior intersection among hips.
	hips := bundle.Edges.Hips
	for i := 0; i < len(hips); i++ {
		if len(hips[i].Geometry) < 2 {
			continue
		}
		a1, a2 := hips[i].Geometry[0], hips[i].Geometry[len(hips[i].Geometry)-1]
		for j := i + 1; j < len(hips); j++ {
			if len(hips[j].Geometry) < 2 {
				continue
			}
			b1, b2 := hips[j].Geometry[0], hips[j].Geometry[len(hips[j].Geometry)-1]
			if _, crosses := ProperSegmentIntersection(a1, a2, b1, b2); crosses {
				issues = append(issues, "two hip segments are crossing")
				ok = false
			}
		}
	}

	// (c) total ridge length vs 2x/1.5x max footprint-bounds dimension.
	minX, minY, maxX, maxY := BoundsOf(bundle.Footprint)
	phi := meanLatitude(bundle.Footprint)
	widthFt := (maxX - minX) * metersPerDegLng(phi) * metersToFeet
	heightFt := (maxY - minY) * metersPerDegLat * metersToFeet
	maxDim := widthFt
	if heightFt > maxDim {
		maxDim = heightFt
	}

	ridgeTotal := sumLengthFt(bundle.Edges.Ridges)
	if maxDim > 0 {
		if ridgeTotal > topologyIssueRatio*maxDim {
			issues = append(issues, "total ridge length exceeds 2x the footprint's max bounds dimension")
			ok = false
		} else if ridgeTotal > topologyWarnRatio*maxDim {
			warnings = append(warnings, "total ridge length exceeds 1.5x the footprint's max bounds dimension")
		}

		// (d) hip total warn if > 4x max dimension.
		hipTotal := sumLengthFt(bundle.Edges.Hips)
		if hipTotal > hipWarnRatio*maxDim {
			warnings = append(warnings, "total hip length exceeds 4x the footprint's max bounds dimension")
		}
	}

	// (e) warn if |eave+rake - perimeter| / perimeter > 20%.
	footprintPerimeterFt := PerimeterFt(bundle.Footprint)
	if footprintPerimeterFt > 0 {
		edgeLenFt := sumLengthFt(bundle.Edges.Eaves) + sumLengthFt(bundle.Edges.Rakes)
		if math.Abs(edgeLenFt-footprintPerimeterFt)/footprintPerimeterFt > perimeterTopologyWarn {
			warnings = append(warnings, "eave+rake length differs from footprint perimeter by more than 20%")
		}
	}

	return ok, issues, warnings
}
