package roof

import "math"

// Numeric constants are part of the contract: changing them changes
// observable behavior (spec §4.1 "Numeric note").
const (
	metersPerDegLat = 111320.0
	metersToFeet    = 3.28084

	// defaultNearToleranceDeg is PointNearPolygon's default tolerance,
	// approximately 5 meters at the equator.
	defaultNearToleranceDeg = 5e-5

	// segmentIntersectEps is the cross-product magnitude below which two
	// segments are treated as parallel/non-intersecting.
	segmentIntersectEps = 1e-7

	// properIntersectParamEps bounds the interior-parameter window for a
	// "proper" (strict interior) segment crossing.
	properIntersectParamEps = 1e-3
	// properIntersectCrossEps is the minimum cross-product magnitude for a
	// proper crossing (distinguishes from near-collinear touches).
	properIntersectCrossEps = 1e-12
)

// metersPerDegLng returns the meters-per-degree-longitude scale factor at
// latitude phi (degrees).
func metersPerDegLng(phiDeg float64) float64 {
	return metersPerDegLat * math.Cos(phiDeg*math.Pi/180)
}

// meanLatitude returns the arithmetic mean latitude of ring's points,
// excluding nothing (a duplicated closing point is weighted twice, matching
// the shoelace sum's own treatment of the closing vertex).
func meanLatitude(ring Ring) float64 {
	if len(ring) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range ring {
		sum += p[1]
	}
	return sum / float64(len(ring))
}

// scaleToMeters converts a (lng,lat) point to local equirectangular meters
// around reference latitude phi.
func scaleToMeters(p Point, phiDeg float64) (x, y float64) {
	return p[0] * metersPerDegLng(phiDeg), p[1] * metersPerDegLat
}

// PolygonAreaM2 computes the shoelace area of ring in square meters using
// equirectangular scaling at the ring's mean latitude. Rings with fewer
// than 3 points return 0.
func PolygonAreaM2(ring Ring) float64 {
	if len(ring) < 3 {
		return 0
	}
	phi := meanLatitude(ring)
	sum := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		x1, y1 := scaleToMeters(ring[i], phi)
		x2, y2 := scaleToMeters(ring[(i+1)%n], phi)
		sum += x1*y2 - x2*y1
	}
	return math.Abs(sum) / 2
}

// PerimeterFt computes the perimeter of the closed ring in feet, summing
// equirectangular segment lengths at the ring's mean latitude.
func PerimeterFt(ring Ring) float64 {
	closed := EnsureClosed(ring)
	if len(closed) < 2 {
		return 0
	}
	phi := meanLatitude(closed)
	total := 0.0
	for i := 0; i < len(closed)-1; i++ {
		x1, y1 := scaleToMeters(closed[i], phi)
		x2, y2 := scaleToMeters(closed[i+1], phi)
		total += math.Hypot(x2-x1, y2-y1)
	}
	return total * metersToFeet
}

// segmentLengthFt returns a single segment's geodesic-approx length in
// feet, scaling at the segment's own endpoint-mean latitude.
func segmentLengthFt(a, b Point) float64 {
	phi := (a[1] + b[1]) / 2
	x1, y1 := scaleToMeters(a, phi)
	x2, y2 := scaleToMeters(b, phi)
	return math.Hypot(x2-x1, y2-y1) * metersToFeet
}

// PolylineLengthFt sums per-segment geodesic-approx lengths (each segment
// scaled at its own endpoint mean latitude, per spec §4.1) and converts to
// feet.
func PolylineLengthFt(line []Point) float64 {
	total := 0.0
	for i := 0; i+1 < len(line); i++ {
		total += segmentLengthFt(line[i], line[i+1])
	}
	return total
}

// PointInPolygon reports whether p lies inside ring using a horizontal-ray
// crossing test. Points exactly on an edge are implementation-defined.
func PointInPolygon(p Point, ring Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > p[1]) != (yj > p[1]) {
			xIntersect := xj + (p[1]-yj)/(yi-yj)*(xi-xj)
			if p[0] < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointToSegmentDistance returns the Euclidean distance from p to the
// segment [a,b], clamping the projection parameter to [0,1].
func PointToSegmentDistance(p, a, b Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-20 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	projX := a[0] + t*dx
	projY := a[1] + t*dy
	return math.Hypot(p[0]-projX, p[1]-projY)
}

// PointNearPolygon reports whether p is inside ring, or within tolerance
// (in degrees) of any edge.
func PointNearPolygon(p Point, ring Ring, tolerance float64) bool {
	if PointInPolygon(p, ring) {
		return true
	}
	closed := EnsureClosed(ring)
	for i := 0; i+1 < len(closed); i++ {
		if PointToSegmentDistance(p, closed[i], closed[i+1]) <= tolerance {
			return true
		}
	}
	return false
}

// PointNearPolygonDefault calls PointNearPolygon with the default ~5m
// tolerance (5e-5 degrees).
func PointNearPolygonDefault(p Point, ring Ring) bool {
	return PointNearPolygon(p, ring, defaultNearToleranceDeg)
}

// SegmentIntersection returns the intersection of segments [p1,p2] and
// [p3,p4] when both intersection parameters lie in [0,1]. ok is false when
// the segments are parallel (cross-product magnitude below threshold) or
// when the intersection falls outside either segment.
func SegmentIntersection(p1, p2, p3, p4 Point) (pt Point, ok bool) {
	d1x, d1y := p2[0]-p1[0], p2[1]-p1[1]
	d2x, d2y := p4[0]-p3[0], p4[1]-p3[1]
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < segmentIntersectEps {
		return Point{}, false
	}
	t := ((p3[0]-p1[0])*d2y - (p3[1]-p1[1])*d2x) / denom
	u := ((p3[0]-p1[0])*d1y - (p3[1]-p1[1])*d1x) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return Point{p1[0] + t*d1x, p1[1] + t*d1y}, true
}

// ProperSegmentIntersection reports a strict interior crossing of [p1,p2]
// and [p3,p4]: both parameters in (eps, 1-eps) and cross-product magnitude
// above threshold. Shared endpoints do not count.
func ProperSegmentIntersection(p1, p2, p3, p4 Point) (pt Point, ok bool) {
	d1x, d1y := p2[0]-p1[0], p2[1]-p1[1]
	d2x, d2y := p4[0]-p3[0], p4[1]-p3[1]
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) <= properIntersectCrossEps {
		return Point{}, false
	}
	t := ((p3[0]-p1[0])*d2y - (p3[1]-p1[1])*d2x) / denom
	u := ((p3[0]-p1[0])*d1y - (p3[1]-p1[1])*d1x) / denom
	eps := properIntersectParamEps
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return Point{}, false
	}
	return Point{p1[0] + t*d1x, p1[1] + t*d1y}, true
}

// InterpolateAlongPolyline returns the point at arc-length parameter t
// (t in [0,1]) along line. t<=0 returns the first vertex, t>=1 the last;
// otherwise the enclosing segment is located by accumulated length and the
// result is a linear interpolation within it.
func InterpolateAlongPolyline(line []Point, t float64) Point {
	if len(line) == 0 {
		return Point{}
	}
	if len(line) == 1 || t <= 0 {
		return line[0]
	}
	if t >= 1 {
		return line[len(line)-1]
	}

	segLens := make([]float64, len(line)-1)
	total := 0.0
	for i := range segLens {
		segLens[i] = math.Hypot(line[i+1][0]-line[i][0], line[i+1][1]-line[i][1])
		total += segLens[i]
	}
	if total == 0 {
		return line[0]
	}

	target := t * total
	acc := 0.0
	for i, segLen := range segLens {
		if acc+segLen >= target || i == len(segLens)-1 {
			if segLen == 0 {
				return line[i]
			}
			localT := (target - acc) / segLen
			if localT < 0 {
				localT = 0
			} else if localT > 1 {
				localT = 1
			}
			return Point{
				line[i][0] + localT*(line[i+1][0]-line[i][0]),
				line[i][1] + localT*(line[i+1][1]-line[i][1]),
			}
		}
		acc += segLen
	}
	return line[len(line)-1]
}

// EnsureClosed returns ring with its first point appended if the ring is
// non-empty and its last point differs from its first. Idempotent.
func EnsureClosed(ring Ring) Ring {
	if len(ring) == 0 {
		return ring
	}
	if ring[0] == ring[len(ring)-1] {
		out := make(Ring, len(ring))
		copy(out, ring)
		return out
	}
	out := make(Ring, len(ring)+1)
	copy(out, ring)
	out[len(ring)] = ring[0]
	return out
}

// BoundsOf returns the axis-aligned bounding box of ring.
func BoundsOf(ring Ring) (minX, minY, maxX, maxY float64) {
	if len(ring) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = ring[0][0], ring[0][1]
	maxX, maxY = ring[0][0], ring[0][1]
	for _, p := range ring[1:] {
		if p[0] < minX {
			minX = p[0]
		}
		if p[0] > maxX {
			maxX = p[0]
		}
		if p[1] < minY {
			minY = p[1]
		}
		if p[1] > maxY {
			maxY = p[1]
		}
	}
	return
}

// Centroid returns the arithmetic mean of ring's vertices (not the
// area-weighted centroid), matching mesh.Centroid's definition — adequate
// for the perpendicular-bisector placements used by the ridge calibrator.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(points))
	return Point{sx / n, sy / n}
}

// clipSegmentToRing intersects segment [a,b] against every edge of ring. If
// two or more intersection points exist, the returned segment spans the
// first and last (sorted by distance from a); if fewer than two
// intersections exist, the segment is kept unchanged when both endpoints
// lie inside ring, otherwise clipping fails.
func clipSegmentToRing(a, b Point, ring Ring) (Point, Point, bool) {
	closed := EnsureClosed(ring)
	var hits []Point
	for i := 0; i+1 < len(closed); i++ {
		if pt, ok := SegmentIntersection(a, b, closed[i], closed[i+1]); ok {
			hits = append(hits, pt)
		}
	}
	if len(hits) >= 2 {
		sortByDistanceFrom(hits, a)
		return hits[0], hits[len(hits)-1], true
	}
	if PointInPolygon(a, ring) && PointInPolygon(b, ring) {
		return a, b, true
	}
	return Point{}, Point{}, false
}

func sortByDistanceFrom(pts []Point, from Point) {
	dist := func(p Point) float64 {
		return math.Hypot(p[0]-from[0], p[1]-from[1])
	}
	for i := 1; i < len(pts); i++ {
		j := i
		for j > 0 && dist(pts[j-1]) > dist(pts[j]) {
			pts[j-1], pts[j] = pts[j], pts[j-1]
			j--
		}
	}
}
