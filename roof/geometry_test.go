package roof

import (
	"math"
	"testing"
)

func TestPolygonAreaM2Square(t *testing.T) {
	// Roughly 100m x 100m square near the equator.
	side := 100.0 / metersPerDegLat
	ring := Ring{{0, 0}, {side, 0}, {side, side}, {0, side}, {0, 0}}
	area := PolygonAreaM2(ring)
	if math.Abs(area-10000) > 50 {
		t.Fatalf("expected area ~10000 m^2, got %v", area)
	}
}

func TestPolygonAreaM2DegenerateRing(t *testing.T) {
	if got := PolygonAreaM2(Ring{{0, 0}, {1, 0}}); got != 0 {
		t.Fatalf("expected 0 for a 2-point ring, got %v", got)
	}
}

func TestPerimeterFtSquare(t *testing.T) {
	side := 10.0 / metersPerDegLat
	ring := Ring{{0, 0}, {side, 0}, {side, side}, {0, side}}
	perimeterFt := PerimeterFt(ring)
	expected := 40 * metersToFeet
	if math.Abs(perimeterFt-expected) > 1 {
		t.Fatalf("expected perimeter ~%v ft, got %v", expected, perimeterFt)
	}
}

func TestPointInPolygon(t *testing.T) {
	square := Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"center", Point{5, 5}, true},
		{"outside", Point{20, 20}, false},
		{"just inside corner", Point{1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, square); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestPointToSegmentDistance(t *testing.T) {
	a, b := Point{0, 0}, Point{10, 0}
	if d := PointToSegmentDistance(Point{5, 5}, a, b); math.Abs(d-5) > 1e-9 {
		t.Errorf("expected distance 5, got %v", d)
	}
	if d := PointToSegmentDistance(Point{-5, 0}, a, b); math.Abs(d-5) > 1e-9 {
		t.Errorf("expected clamped distance 5, got %v", d)
	}
}

func TestSegmentIntersectionCrossing(t *testing.T) {
	pt, ok := SegmentIntersection(Point{0, 0}, Point{10, 10}, Point{0, 10}, Point{10, 0})
	if !ok {
		t.Fatal("expected intersection")
	}
	if math.Abs(pt[0]-5) > 1e-9 || math.Abs(pt[1]-5) > 1e-9 {
		t.Errorf("expected (5,5), got %v", pt)
	}
}

func TestSegmentIntersectionParallel(t *testing.T) {
	_, ok := SegmentIntersection(Point{0, 0}, Point{10, 0}, Point{0, 1}, Point{10, 1})
	if ok {
		t.Error("expected no intersection for parallel segments")
	}
}

func TestProperSegmentIntersectionExcludesSharedEndpoint(t *testing.T) {
	_, ok := ProperSegmentIntersection(Point{0, 0}, Point{10, 0}, Point{10, 0}, Point{10, 10})
	if ok {
		t.Error("expected shared-endpoint touch to not count as a proper crossing")
	}
}

func TestInterpolateAlongPolylineEndpoints(t *testing.T) {
	line := []Point{{0, 0}, {10, 0}}
	if got := InterpolateAlongPolyline(line, 0); got != (Point{0, 0}) {
		t.Errorf("t=0: got %v", got)
	}
	if got := InterpolateAlongPolyline(line, 1); got != (Point{10, 0}) {
		t.Errorf("t=1: got %v", got)
	}
	mid := InterpolateAlongPolyline(line, 0.5)
	if math.Abs(mid[0]-5) > 1e-9 {
		t.Errorf("t=0.5: got %v", mid)
	}
}

func TestEnsureClosedIdempotent(t *testing.T) {
	open := Ring{{0, 0}, {1, 0}, {1, 1}}
	closed := EnsureClosed(open)
	if closed[0] != closed[len(closed)-1] {
		t.Fatal("expected closed ring")
	}
	reclosed := EnsureClosed(closed)
	if len(reclosed) != len(closed) {
		t.Fatalf("expected idempotent close, got length %d want %d", len(reclosed), len(closed))
	}
}

func TestBoundsOf(t *testing.T) {
	ring := Ring{{-1, -2}, {3, 4}, {0, -5}}
	minX, minY, maxX, maxY := BoundsOf(ring)
	if minX != -1 || minY != -5 || maxX != 3 || maxY != 4 {
		t.Errorf("got bounds (%v,%v,%v,%v)", minX, minY, maxX, maxY)
	}
}
