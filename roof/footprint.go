package roof

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/paulmach/orb"
)

const (
	defaultRadiusM      = 30.0
	defaultTilesetID    = "mapbox.mapbox-streets-v8"
	retryRadiusM        = 100.0
	tileQueryLimit      = 50
	maxTileRespBytes    = 10 << 20
	defaultFetchTimeout = 15 * time.Second
)

// FailureReason is a closed enumeration of Footprint Selector failure modes.
type FailureReason string

const (
	FailureAPIError           FailureReason = "api_error"
	FailureNoBuildingsFound   FailureReason = "no_buildings_found"
	FailureNoPolygonBuildings FailureReason = "no_polygon_buildings"
	FailureFetchError         FailureReason = "fetch_error"
)

// FootprintFailure is the structured failure variant of FootprintResult.
type FootprintFailure struct {
	ErrorMessage   string
	FallbackReason FailureReason
}

func (f *FootprintFailure) Error() string {
	if f.ErrorMessage != "" {
		return fmt.Sprintf("%s: %s", f.FallbackReason, f.ErrorMessage)
	}
	return string(f.FallbackReason)
}

// SelectedFootprint is a chosen building footprint.
type SelectedFootprint struct {
	Coordinates orb.Ring
	Confidence  float64
	BuildingID  string
	AreaM2      float64
}

// FootprintOptions configures SelectFootprint. Per spec §5, the tile query
// itself is a single synchronous attempt — the only retry in this
// component is the explicit radius-100 escalation (spec §4.2 step 4), not
// a transport-level backoff loop.
type FootprintOptions struct {
	RadiusM   float64
	TilesetID string
	// HTTPClient overrides the default HTTP client; used by tests to inject
	// a fake transport, mirroring mesh/http_client.go's WithHTTPClient.
	HTTPClient *http.Client
}

// DefaultFootprintOptions returns the spec-default options.
func DefaultFootprintOptions() FootprintOptions {
	return FootprintOptions{
		RadiusM:   defaultRadiusM,
		TilesetID: defaultTilesetID,
	}
}

func (o FootprintOptions) withDefaults() FootprintOptions {
	if o.RadiusM <= 0 {
		o.RadiusM = defaultRadiusM
	}
	if o.TilesetID == "" {
		o.TilesetID = defaultTilesetID
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	return o
}

// tileQueryFeature mirrors the subset of the Mapbox tilequery GeoJSON
// response this package reads, grounded on mesh/geojson.go's Geometry
// shape (raw coordinates decoded lazily by caller).
type tileQueryFeature struct {
	Geometry   tileQueryGeometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

type tileQueryGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

type tileQueryFeatureCollection struct {
	Features []tileQueryFeature `json:"features"`
}

// SelectFootprint queries the tile service for building footprints near
// (lng,lat) and ranks candidates per spec §4.2. It never panics; all
// failures are returned as *FootprintFailure.
func SelectFootprint(ctx context.Context, lng, lat float64, token string, opts FootprintOptions) (*SelectedFootprint, *FootprintFailure) {
	opts = opts.withDefaults()

	candidates, failure := fetchCandidates(ctx, lng, lat, token, opts)
	if failure != nil {
		return nil, failure
	}

	if len(candidates) == 0 {
		if opts.RadiusM < retryRadiusM {
			retryOpts := opts
			retryOpts.RadiusM = retryRadiusM
			candidates, failure = fetchCandidates(ctx, lng, lat, token, retryOpts)
			if failure != nil {
				return nil, failure
			}
		}
		if len(candidates) == 0 {
			return nil, &FootprintFailure{FallbackReason: FailureNoBuildingsFound}
		}
	}

	best := rankCandidates(candidates)
	confidence := computeConfidence(best)

	return &SelectedFootprint{
		Coordinates: best.Ring,
		Confidence:  confidence,
		BuildingID:  best.BuildingID,
		AreaM2:      best.AreaM2,
	}, nil
}

// fetchCandidates performs the tile query and extracts FootprintCandidates.
// Returns FailureNoPolygonBuildings if the response had features but none
// were polygonal with >= 4 outer-ring points.
func fetchCandidates(ctx context.Context, lng, lat float64, token string, opts FootprintOptions) ([]FootprintCandidate, *FootprintFailure) {
	body, status, err := doTileQuery(ctx, opts.HTTPClient, lng, lat, opts.RadiusM, opts.TilesetID, token)
	if err != nil {
		return nil, &FootprintFailure{ErrorMessage: err.Error(), FallbackReason: FailureFetchError}
	}
	if status < 200 || status >= 300 {
		return nil, &FootprintFailure{ErrorMessage: fmt.Sprintf("status %d", status), FallbackReason: FailureAPIError}
	}

	var fc tileQueryFeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, &FootprintFailure{ErrorMessage: err.Error(), FallbackReason: FailureFetchError}
	}

	if len(fc.Features) == 0 {
		return nil, nil
	}

	target := orb.Point{lng, lat}
	var candidates []FootprintCandidate
	for _, feat := range fc.Features {
		rings := extractRings(feat.Geometry)
		for _, ring := range rings {
			if RingVertexCount(ring) < 4 {
				continue
			}
			ring = EnsureClosed(ring)
			cand := FootprintCandidate{
				Ring:          ring,
				DistanceM:     propertyFloat(feat.Properties, "tilequery", "distance"),
				ContainsPoint: PointInPolygon(target, ring),
				AreaM2:        PolygonAreaM2(ring),
			}
			if id := propertyAny(feat.Properties, "id"); id != nil {
				cand.BuildingID = fmt.Sprintf("%v", id)
			}
			candidates = append(candidates, cand)
		}
	}

	if len(candidates) == 0 && len(fc.Features) > 0 {
		return nil, &FootprintFailure{FallbackReason: FailureNoPolygonBuildings}
	}

	return candidates, nil
}

// propertyFloat reads a nested numeric property, e.g.
// properties.tilequery.distance. Returns 0 if absent or non-numeric.
func propertyFloat(props map[string]interface{}, path ...string) float64 {
	v := propertyAny(props, path...)
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func propertyAny(props map[string]interface{}, path ...string) interface{} {
	var cur interface{} = props
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = m[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// extractRings pulls the outer ring of a Polygon, or the outer ring of every
// member polygon of a MultiPolygon; inner rings (holes) are not returned.
func extractRings(geom tileQueryGeometry) []orb.Ring {
	switch geom.Type {
	case "Polygon":
		var coords [][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil || len(coords) == 0 {
			return nil
		}
		return []orb.Ring{ringFromCoords(coords[0])}
	case "MultiPolygon":
		var coords [][][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &coords); err != nil {
			return nil
		}
		var rings []orb.Ring
		for _, poly := range coords {
			if len(poly) == 0 {
				continue
			}
			rings = append(rings, ringFromCoords(poly[0]))
		}
		return rings
	default:
		return nil
	}
}

func ringFromCoords(coords [][2]float64) orb.Ring {
	ring := make(orb.Ring, len(coords))
	for i, c := range coords {
		ring[i] = orb.Point{c[0], c[1]}
	}
	return ring
}

// doTileQuery issues a single synchronous tile-query GET. Per spec §5 the
// fetch is not retried at the transport level; a cancelled or timed-out
// context surfaces as a FailureFetchError to the caller.
func doTileQuery(ctx context.Context, client *http.Client, lng, lat, radiusM float64, tileset, token string) ([]byte, int, error) {
	url := fmt.Sprintf(
		"https://api.mapbox.com/v4/%s/tilequery/%g,%g.json?radius=%g&layers=building&limit=%d&geometry=polygon&access_token=%s",
		tileset, lng, lat, radiusM, tileQueryLimit, token,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating tilequery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tilequery GET: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTileRespBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading tilequery response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// rankCandidates orders candidates per spec §4.2 step 5 and returns the
// best one. Input order is the tie-break for otherwise-equal keys.
func rankCandidates(candidates []FootprintCandidate) FootprintCandidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if candidateLess(c, best) {
			best = c
		}
	}
	return best
}

// candidateLess reports whether a ranks strictly ahead of b.
func candidateLess(a, b FootprintCandidate) bool {
	if a.ContainsPoint != b.ContainsPoint {
		return a.ContainsPoint
	}
	// Distances within 5m are treated as equal for this key.
	if math.Abs(a.DistanceM-b.DistanceM) > 5 {
		return a.DistanceM < b.DistanceM
	}
	aResidential := a.AreaM2 >= 100 && a.AreaM2 <= 500
	bResidential := b.AreaM2 >= 100 && b.AreaM2 <= 500
	if aResidential != bResidential {
		return aResidential
	}
	return false
}

// computeConfidence applies the confidence-penalty schedule of spec §4.2
// step 6, clamped to [0.5, 0.98].
func computeConfidence(c FootprintCandidate) float64 {
	confidence := 0.92
	if !c.ContainsPoint {
		confidence -= 0.10
	}
	if c.DistanceM > 10 {
		confidence -= 0.05
	}
	if c.DistanceM > 20 {
		confidence -= 0.10
	}
	if c.AreaM2 < 50 {
		confidence -= 0.15
	}
	if c.AreaM2 > 2000 {
		confidence -= 0.05
	}
	if confidence < 0.5 {
		confidence = 0.5
	}
	if confidence > 0.98 {
		confidence = 0.98
	}
	return confidence
}

// PickBestFootprint implements the selection helper of spec §4.2: prefer
// the candidate whose area is closer to targetAreaSqft; otherwise prefer
// the higher-vertex-count ring; otherwise keep existing.
func PickBestFootprint(candidate FootprintCandidate, existing orb.Ring, targetAreaSqft *float64) (coords orb.Ring, source string, confidence float64) {
	if targetAreaSqft != nil && *targetAreaSqft > 0 {
		candAreaSqft := candidate.AreaM2 * metersToFeet * metersToFeet
		existingAreaSqft := PolygonAreaM2(existing) * metersToFeet * metersToFeet
		if math.Abs(candAreaSqft-*targetAreaSqft) < math.Abs(existingAreaSqft-*targetAreaSqft) {
			return candidate.Ring, "candidate", computeConfidence(candidate)
		}
		return existing, "existing", 1.0
	}

	if RingVertexCount(candidate.Ring) > RingVertexCount(existing) {
		return candidate.Ring, "candidate", computeConfidence(candidate)
	}
	return existing, "existing", 1.0
}
