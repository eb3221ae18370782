package roof

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	solarOpposingCenterDeg = 180.0
	solarOpposingToleranceDeg = 30.0
	solarPairExtentDeg     = 1e-3
	solarSingleExtentDeg   = 5e-4
)

// SolarSegment is a solar-panel-derived roof facet with its downslope
// azimuth and center point.
type SolarSegment struct {
	AzimuthDegrees float64
	Center         Point
}

// azimuthDirection returns the unit direction vector for a compass azimuth
// in degrees (0 = north/+y, 90 = east/+x).
func azimuthDirection(azimuthDeg float64) (dx, dy float64) {
	rad := azimuthDeg * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}

// angularDifference returns the unsigned difference between two azimuths in
// degrees, in [0, 180].
func angularDifference(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

// isOpposingPair reports whether a and b differ by 180 +/- 30 degrees.
func isOpposingPair(a, b float64) bool {
	diff := angularDifference(a, b)
	return math.Abs(diff-solarOpposingCenterDeg) <= solarOpposingToleranceDeg
}

// extendSegment returns the segment through center along direction (dx,dy),
// extended by +/- extentDeg in each direction.
func extendSegment(center Point, dx, dy, extentDeg float64) orb.LineString {
	norm := math.Hypot(dx, dy)
	if norm < 1e-12 {
		dx, dy, norm = 1, 0, 1
	}
	ux, uy := dx/norm, dy/norm
	return orb.LineString{
		{center[0] - ux*extentDeg, center[1] - uy*extentDeg},
		{center[0] + ux*extentDeg, center[1] + uy*extentDeg},
	}
}

// InferSolarRidges implements the solar-segment ridge inference of spec
// §4.3: for every opposing pair (azimuths 180+/-30 apart), place a ridge
// through the pair's midpoint, perpendicular to the line joining the
// segment centers. If no opposing pair exists, fall back to a single
// ridge through the footprint centroid, perpendicular to the mean azimuth.
func InferSolarRidges(footprint Ring, segments []SolarSegment) []orb.LineString {
	if len(segments) == 0 {
		return nil
	}

	var candidates []orb.LineString
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			if !isOpposingPair(segments[i].AzimuthDegrees, segments[j].AzimuthDegrees) {
				continue
			}
			mid := Point{
				(segments[i].Center[0] + segments[j].Center[0]) / 2,
				(segments[i].Center[1] + segments[j].Center[1]) / 2,
			}
			lineDx := segments[j].Center[0] - segments[i].Center[0]
			lineDy := segments[j].Center[1] - segments[i].Center[1]
			// Perpendicular to the line joining the two centers.
			perpDx, perpDy := -lineDy, lineDx
			candidates = append(candidates, extendSegment(mid, perpDx, perpDy, solarPairExtentDeg))
		}
	}

	if len(candidates) > 0 {
		return candidates
	}

	sumSin, sumCos := 0.0, 0.0
	for _, s := range segments {
		rad := s.AzimuthDegrees * math.Pi / 180
		sumSin += math.Sin(rad)
		sumCos += math.Cos(rad)
	}
	meanAzimuth := math.Atan2(sumSin, sumCos) * 180 / math.Pi
	if meanAzimuth < 0 {
		meanAzimuth += 360
	}

	centroid := Centroid(footprint)
	dx, dy := azimuthDirection(meanAzimuth + 90)
	return []orb.LineString{extendSegment(centroid, dx, dy, solarSingleExtentDeg)}
}
