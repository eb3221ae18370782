package roof

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ridgeFeature(geom orb.LineString) LinearFeature {
	return NewLinearFeature("", geom, KindRidge, SourceAIVision, 0.8)
}

// TestEvaluateOverlayPerfectMatch is spec §8 scenario S4: identical
// polylines score 100 with zero deviation.
func TestEvaluateOverlayPerfectMatch(t *testing.T) {
	line := orb.LineString{{0, 0}, {0.0001, 0}}
	ai := []LinearFeature{ridgeFeature(line)}
	traces := []UserTrace{NewUserTrace(KindRidge, line)}

	report := EvaluateOverlay(ai, traces)

	require.Len(t, report.Deviations, 1)
	dev := report.Deviations[0]
	assert.True(t, dev.Matched)
	assert.InDelta(t, 0, dev.DeviationFt, 1e-6)
	assert.InDelta(t, 1.0, dev.AlignmentScore, 1e-9)
	assert.False(t, dev.NeedsCorrection)
	assert.Equal(t, 100.0, report.OverallScore)
	assert.Empty(t, report.Corrections)
}

// TestEvaluateOverlayNeedsCorrection is spec §8 scenario S5: an offset
// trace yields ~3.64ft deviation and triggers a correction proposal.
func TestEvaluateOverlayNeedsCorrection(t *testing.T) {
	ai := []LinearFeature{ridgeFeature(orb.LineString{{0, 0}, {0.0001, 0}})}
	offsetTrace := orb.LineString{{0, 0.00001}, {0.0001, 0.00001}}
	traces := []UserTrace{NewUserTrace(KindRidge, offsetTrace)}

	report := EvaluateOverlay(ai, traces)

	require.Len(t, report.Deviations, 1)
	dev := report.Deviations[0]
	assert.InDelta(t, 3.64, dev.DeviationFt, 0.1)
	assert.True(t, dev.NeedsCorrection)
	require.Len(t, report.Corrections, 1)
	assert.Equal(t, ai[0].ID, report.Corrections[0].FeatureID)
	assert.Equal(t, offsetTrace, report.Corrections[0].NewGeometry)
}

func TestEvaluateOverlayNoCandidateMatch(t *testing.T) {
	ai := []LinearFeature{ridgeFeature(orb.LineString{{0, 0}, {0.0001, 0}})}

	report := EvaluateOverlay(ai, nil)

	require.Len(t, report.Deviations, 1)
	dev := report.Deviations[0]
	assert.False(t, dev.Matched)
	assert.Zero(t, dev.DeviationFt)
	assert.InDelta(t, 0.5, dev.AlignmentScore, 1e-9)
	assert.False(t, dev.NeedsCorrection)
}

func TestEvaluateOverlayMissingAndExtraCounts(t *testing.T) {
	ai := []LinearFeature{
		ridgeFeature(orb.LineString{{0, 0}, {0.0001, 0}}),
	}
	traces := []UserTrace{
		NewUserTrace(KindRidge, orb.LineString{{0, 0}, {0.0001, 0}}),
		NewUserTrace(KindRidge, orb.LineString{{0, 1}, {0.0001, 1}}),
	}

	report := EvaluateOverlay(ai, traces)

	require.Len(t, report.Missing, 1)
	assert.Equal(t, KindRidge, report.Missing[0].Kind)
	assert.Equal(t, 1, report.Missing[0].Delta)
	assert.Empty(t, report.Extra)
}

func TestEvaluateOverlayNoAIFeaturesScoresFifty(t *testing.T) {
	report := EvaluateOverlay(nil, []UserTrace{NewUserTrace(KindRidge, orb.LineString{{0, 0}, {1, 0}})})

	assert.Equal(t, 50.0, report.OverallScore)
}

// TestApplyCorrectionsNoOp is spec §8 invariant 5: applying zero
// corrections leaves features byte-identical.
func TestApplyCorrectionsNoOp(t *testing.T) {
	original := []LinearFeature{ridgeFeature(orb.LineString{{0, 0}, {1, 0}})}

	out := ApplyCorrections(original, nil)

	assert.Equal(t, original, out)
}

func TestApplyCorrectionsReplacesGeometry(t *testing.T) {
	original := []LinearFeature{ridgeFeature(orb.LineString{{0, 0}, {1, 0}})}
	newGeom := orb.LineString{{0, 0}, {0, 1}}

	out := ApplyCorrections(original, []Correction{{FeatureID: original[0].ID, NewGeometry: newGeom}})

	require.Len(t, out, 1)
	assert.Equal(t, newGeom, out[0].Geometry)
	assert.Equal(t, SourceManual, out[0].Source)
	assert.InDelta(t, 0.95, out[0].Confidence, 1e-9)
	assert.InDelta(t, 1*evaluatorFeetPerDegree, out[0].LengthFt, 1e-6)
	// original untouched
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}}, original[0].Geometry)
}
