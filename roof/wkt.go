package roof

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ParseLineStringWKT parses a WKT "LINESTRING(lng lat, lng lat, ...)" string
// into an orb.LineString. It tolerates arbitrary whitespace between
// coordinates and the comma separator, per spec §6.
func ParseLineStringWKT(s string) (orb.LineString, error) {
	geom, err := wkt.Unmarshal(s)
	if err == nil {
		if ls, ok := geom.(orb.LineString); ok {
			if len(ls) < 2 {
				return nil, fmt.Errorf("parse wkt: need at least 2 points, got %d", len(ls))
			}
			return ls, nil
		}
		return nil, fmt.Errorf("parse wkt: expected LINESTRING, got %T", geom)
	}
	// Fall back to a hand-rolled parser: the upstream decoder is strict
	// about some whitespace placements the spec requires tolerating.
	return parseLineStringLoose(s)
}

func parseLineStringLoose(s string) (orb.LineString, error) {
	trimmed := strings.TrimSpace(s)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "LINESTRING") {
		return nil, fmt.Errorf("parse wkt: not a LINESTRING: %q", s)
	}
	open := strings.Index(trimmed, "(")
	close := strings.LastIndex(trimmed, ")")
	if open < 0 || close < 0 || close < open {
		return nil, fmt.Errorf("parse wkt: malformed LINESTRING: %q", s)
	}
	body := trimmed[open+1 : close]
	parts := strings.Split(body, ",")
	line := make(orb.LineString, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) != 2 {
			return nil, fmt.Errorf("parse wkt: malformed coordinate %q", part)
		}
		lng, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse wkt: bad lng %q: %w", fields[0], err)
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parse wkt: bad lat %q: %w", fields[1], err)
		}
		line = append(line, orb.Point{lng, lat})
	}
	if len(line) < 2 {
		return nil, fmt.Errorf("parse wkt: need at least 2 points, got %d", len(line))
	}
	return line, nil
}

// EmitLineStringWKT renders line as "LINESTRING(lng lat, lng lat, ...)"
// using a single space between lng/lat and ", " between vertices, per
// spec §6.
func EmitLineStringWKT(line orb.LineString) string {
	var b strings.Builder
	b.WriteString("LINESTRING(")
	for i, p := range line {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(p[0], 'g', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(p[1], 'g', -1, 64))
	}
	b.WriteString(")")
	return b.String()
}
