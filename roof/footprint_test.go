package roof

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirectTransport rewrites every outbound request's scheme/host to point
// at a test server, mirroring the teacher's pattern of injecting a fake
// transport via FootprintOptions.HTTPClient (mesh/http_client_test.go uses
// srv.Client() directly since its fetch function takes a base URL
// parameter; this package's tile-query URL is a fixed Mapbox host, so the
// transport itself is redirected instead).
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClientFor(srv *httptest.Server) *http.Client {
	target, _ := url.Parse(srv.URL)
	return &http.Client{Transport: redirectTransport{target: target}}
}

const buildingFC = `{"type":"FeatureCollection","features":[{
	"type":"Feature",
	"geometry":{"type":"Polygon","coordinates":[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]},
	"properties":{"id":"bld-1","tilequery":{"distance":5}}
}]}`

func TestSelectFootprintSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(buildingFC))
	}))
	defer srv.Close()

	opts := FootprintOptions{HTTPClient: testClientFor(srv)}
	result, failure := SelectFootprint(context.Background(), 0.0005, 0.0005, "tok", opts)

	require.Nil(t, failure)
	require.NotNil(t, result)
	assert.Equal(t, "bld-1", result.BuildingID)
	assert.True(t, result.Confidence >= 0.5 && result.Confidence <= 0.98)
}

func TestSelectFootprintAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, failure := SelectFootprint(context.Background(), 0, 0, "tok", FootprintOptions{HTTPClient: testClientFor(srv)})

	require.NotNil(t, failure)
	assert.Equal(t, FailureAPIError, failure.FallbackReason)
}

func TestSelectFootprintNoBuildingsRetriesRadius(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("radius"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	_, failure := SelectFootprint(context.Background(), 0, 0, "tok", FootprintOptions{HTTPClient: testClientFor(srv)})

	require.NotNil(t, failure)
	assert.Equal(t, FailureNoBuildingsFound, failure.FallbackReason)
	require.Len(t, requests, 2, "expected the initial query plus one radius-100 retry")
	assert.Equal(t, "100", requests[1])
}

func TestSelectFootprintNoPolygonBuildings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}]}`))
	}))
	defer srv.Close()

	_, failure := SelectFootprint(context.Background(), 0, 0, "tok", FootprintOptions{HTTPClient: testClientFor(srv)})

	require.NotNil(t, failure)
	assert.Equal(t, FailureNoPolygonBuildings, failure.FallbackReason)
}

func TestSelectFootprintFetchError(t *testing.T) {
	opts := FootprintOptions{HTTPClient: &http.Client{Transport: failingTransport{}}}

	_, failure := SelectFootprint(context.Background(), 0, 0, "tok", opts)

	require.NotNil(t, failure)
	assert.Equal(t, FailureFetchError, failure.FallbackReason)
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, assertError{}
}

type assertError struct{}

func (assertError) Error() string { return "simulated transport failure" }

func TestRankCandidatesPrefersContainingThenCloserThenResidential(t *testing.T) {
	candidates := []FootprintCandidate{
		{ContainsPoint: false, DistanceM: 2, AreaM2: 300},
		{ContainsPoint: true, DistanceM: 50, AreaM2: 9000},
		{ContainsPoint: true, DistanceM: 8, AreaM2: 300},
	}
	best := rankCandidates(candidates)
	assert.True(t, best.ContainsPoint)
	assert.Equal(t, 8.0, best.DistanceM)
}

func TestComputeConfidenceWorstAndBestCandidates(t *testing.T) {
	worst := FootprintCandidate{ContainsPoint: false, DistanceM: 100, AreaM2: 10}
	best := FootprintCandidate{ContainsPoint: true, DistanceM: 1, AreaM2: 250}

	assert.InDelta(t, 0.52, computeConfidence(worst), 1e-9)
	assert.InDelta(t, 0.92, computeConfidence(best), 1e-9)
}

func TestPickBestFootprintByTargetArea(t *testing.T) {
	existing := Ring{{0, 0}, {0.001, 0}, {0.001, 0.001}, {0, 0.001}, {0, 0}}
	candidate := FootprintCandidate{
		Ring:   Ring{{0, 0}, {0.002, 0}, {0.002, 0.002}, {0, 0.002}, {0, 0}},
		AreaM2: PolygonAreaM2(Ring{{0, 0}, {0.002, 0}, {0.002, 0.002}, {0, 0.002}, {0, 0}}),
	}
	targetSqft := candidate.AreaM2 * metersToFeet * metersToFeet

	coords, source, _ := PickBestFootprint(candidate, existing, &targetSqft)

	assert.Equal(t, "candidate", source)
	assert.Equal(t, candidate.Ring, coords)
}

func TestPickBestFootprintByVertexCountWithoutTarget(t *testing.T) {
	existing := Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	candidate := FootprintCandidate{Ring: Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}

	coords, source, _ := PickBestFootprint(candidate, existing, nil)

	assert.Equal(t, "candidate", source)
	assert.Equal(t, candidate.Ring, coords)
}
