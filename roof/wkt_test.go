package roof

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestParseLineStringWKT(t *testing.T) {
	line, err := ParseLineStringWKT("LINESTRING(-122.1 37.4, -122.2 37.5)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(line) != 2 {
		t.Fatalf("expected 2 points, got %d", len(line))
	}
	if line[0][0] != -122.1 || line[0][1] != 37.4 {
		t.Errorf("unexpected first point: %v", line[0])
	}
}

func TestParseLineStringWKTLooseWhitespace(t *testing.T) {
	line, err := ParseLineStringWKT("LINESTRING ( -122.1   37.4 ,  -122.2 37.5 )")
	if err != nil {
		t.Fatalf("unexpected error on loose whitespace: %v", err)
	}
	if len(line) != 2 {
		t.Fatalf("expected 2 points, got %d", len(line))
	}
}

func TestParseLineStringWKTRejectsNonLineString(t *testing.T) {
	if _, err := ParseLineStringWKT("POINT(1 2)"); err == nil {
		t.Error("expected error for non-LINESTRING input")
	}
}

func TestParseLineStringWKTRejectsTooFewPoints(t *testing.T) {
	if _, err := ParseLineStringWKT("LINESTRING(1 2)"); err == nil {
		t.Error("expected error for single-point LINESTRING")
	}
}

func TestEmitLineStringWKTRoundTrip(t *testing.T) {
	line := orb.LineString{{-122.1, 37.4}, {-122.2, 37.5}}
	out := EmitLineStringWKT(line)
	parsed, err := ParseLineStringWKT(out)
	if err != nil {
		t.Fatalf("unexpected error parsing emitted WKT: %v", err)
	}
	if len(parsed) != len(line) {
		t.Fatalf("round trip length mismatch: got %d, want %d", len(parsed), len(line))
	}
	for i := range line {
		if parsed[i] != line[i] {
			t.Errorf("round trip mismatch at %d: got %v, want %v", i, parsed[i], line[i])
		}
	}
}
