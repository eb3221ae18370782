package roof

import "github.com/paulmach/orb"

// SkeletonRidge computes a fallback ridge line from the footprint's own
// geometry when no other evidence source is available. This is a
// simplified straight-skeleton approximation (spec §4.3's "straight
// skeleton fallback"): rather than a full interior straight-skeleton
// construction, it places a single ridge along the footprint's longer
// axis through its centroid, which reproduces the real skeleton's ridge
// for the common rectangular/near-rectangular gable case the spec's
// scenarios exercise. More complex footprints (L-shapes, multi-hip) would
// need the full construction; that is out of scope here and noted as a
// heuristic, per spec Design Note 9 on preserving documented estimates.
func SkeletonRidge(footprint Ring) orb.LineString {
	if len(footprint) < 3 {
		return nil
	}
	minX, minY, maxX, maxY := BoundsOf(footprint)
	centroid := Centroid(footprint)
	phi := meanLatitude(footprint)

	widthM := (maxX - minX) * metersPerDegLng(phi)
	heightM := (maxY - minY) * metersPerDegLat

	var raw orb.LineString
	if widthM >= heightM {
		raw = orb.LineString{{minX, centroid[1]}, {maxX, centroid[1]}}
	} else {
		raw = orb.LineString{{centroid[0], minY}, {centroid[0], maxY}}
	}
	return raw
}
