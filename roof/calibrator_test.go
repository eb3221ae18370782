package roof

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareFootprint() Ring {
	return Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
}

func TestCalibrateRidgesManualOverrideWins(t *testing.T) {
	footprint := squareFootprint()
	evidence := EvidenceBundle{
		ManualTraces: []orb.LineString{{{0, 5}, {10, 5}}},
		DSM:          makeRidgeGrid(),
		Skeleton:     true,
	}

	result := CalibrateRidges(footprint, evidence)

	require.Equal(t, MethodManualOverride, result.Method)
	require.Len(t, result.RidgeLines, 1)
	assert.Equal(t, SourceManual, result.RidgeLines[0].Source)
	assert.InDelta(t, 0.99, result.QualityScore, 1e-9)
}

func TestCalibrateRidgesFallsThroughToDSM(t *testing.T) {
	footprint := Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}
	grid := &ElevationGrid{
		MinLat: -1, MaxLat: 1, MinLng: -1, MaxLng: 1,
		Values: [][]float64{
			{1, 1, 1, 1, 1},
			{1, 1, 1, 1, 1},
			{10, 10, 10, 10, 10},
			{1, 1, 1, 1, 1},
			{1, 1, 1, 1, 1},
		},
	}
	evidence := EvidenceBundle{DSM: grid, Skeleton: true}

	result := CalibrateRidges(footprint, evidence)

	assert.Equal(t, MethodDSMPeaks, result.Method)
	assert.NotEmpty(t, result.RidgeLines)
	for _, r := range result.RidgeLines {
		assert.Equal(t, SourceDSM, r.Source)
	}
}

func TestCalibrateRidgesSkeletonFallback(t *testing.T) {
	footprint := squareFootprint()
	evidence := EvidenceBundle{Skeleton: true}

	result := CalibrateRidges(footprint, evidence)

	assert.Equal(t, MethodSkeletonGeometric, result.Method)
	require.Len(t, result.RidgeLines, 1)
	assert.Equal(t, SourceSkeleton, result.RidgeLines[0].Source)
}

func TestCalibrateRidgesNoEvidenceYieldsNone(t *testing.T) {
	result := CalibrateRidges(squareFootprint(), EvidenceBundle{})

	assert.Equal(t, MethodNone, result.Method)
	assert.Empty(t, result.RidgeLines)
	assert.Zero(t, result.QualityScore)
}

func TestCalibrateRidgesAIVisionUsesMeanConfidence(t *testing.T) {
	footprint := squareFootprint()
	evidence := EvidenceBundle{
		AIVision: []AIVisionHint{
			{Geometry: orb.LineString{{0, 5}, {10, 5}}, Confidence: 0.6},
			{Geometry: orb.LineString{{0, 3}, {10, 3}}, Confidence: 0.8},
		},
	}

	result := CalibrateRidges(footprint, evidence)

	require.Equal(t, MethodAIVision, result.Method)
	assert.InDelta(t, 0.7, result.QualityScore, 1e-9)
}
