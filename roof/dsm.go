package roof

import "github.com/paulmach/orb"

// ElevationGrid is a 2D DSM elevation raster with geographic bounds.
// Values is row-major: Values[y][x], y=0 at MaxLat (north), growing south.
type ElevationGrid struct {
	Values  [][]float64
	MinLat  float64
	MaxLat  float64
	MinLng  float64
	MaxLng  float64
}

func (g *ElevationGrid) height() int { return len(g.Values) }
func (g *ElevationGrid) width() int {
	if len(g.Values) == 0 {
		return 0
	}
	return len(g.Values[0])
}

// ElevationProfile records the scan-line values a DSM ridge was derived
// from.
type ElevationProfile struct {
	Start    float64
	End      float64
	MaxAlong float64
}

// dsmRidge is a ridge candidate produced by DetectDSMRidges, before
// clipping to a footprint.
type dsmRidge struct {
	Segment    orb.LineString
	Profile    ElevationProfile
	Confidence float64
}

// DetectDSMRidges scans grid for horizontal and vertical ridge rows/columns
// per spec §4.3's DSM ridge detection rule.
func DetectDSMRidges(grid *ElevationGrid) []dsmRidge {
	if grid == nil {
		return nil
	}
	height, width := grid.height(), grid.width()
	if height < 3 || width < 3 {
		return nil
	}

	var ridges []dsmRidge

	for y := 1; y < height-1; y++ {
		peakCount := 0
		for x := 0; x < width; x++ {
			v := grid.Values[y][x]
			if v > grid.Values[y-1][x] && v > grid.Values[y+1][x] {
				peakCount++
			}
		}
		if float64(peakCount) > 0.6*float64(width) {
			lat := grid.MaxLat - (float64(y)/float64(height))*(grid.MaxLat-grid.MinLat)
			seg := orb.LineString{
				{grid.MinLng, lat},
				{grid.MaxLng, lat},
			}
			maxAlong := grid.Values[y][0]
			for _, v := range grid.Values[y] {
				if v > maxAlong {
					maxAlong = v
				}
			}
			ridges = append(ridges, dsmRidge{
				Segment: seg,
				Profile: ElevationProfile{
					Start:    grid.Values[y][0],
					End:      grid.Values[y][width-1],
					MaxAlong: maxAlong,
				},
				Confidence: dsmConfidence(peakCount, width),
			})
		}
	}

	for x := 1; x < width-1; x++ {
		peakCount := 0
		for y := 0; y < height; y++ {
			v := grid.Values[y][x]
			if v > grid.Values[y][x-1] && v > grid.Values[y][x+1] {
				peakCount++
			}
		}
		if float64(peakCount) > 0.6*float64(height) {
			lng := grid.MinLng + (float64(x)/float64(width))*(grid.MaxLng-grid.MinLng)
			seg := orb.LineString{
				{lng, grid.MinLat},
				{lng, grid.MaxLat},
			}
			maxAlong := grid.Values[0][x]
			start := grid.Values[0][x]
			end := grid.Values[height-1][x]
			for y := 0; y < height; y++ {
				if grid.Values[y][x] > maxAlong {
					maxAlong = grid.Values[y][x]
				}
			}
			ridges = append(ridges, dsmRidge{
				Segment: seg,
				Profile: ElevationProfile{
					Start:    start,
					End:      end,
					MaxAlong: maxAlong,
				},
				Confidence: dsmConfidence(peakCount, height),
			})
		}
	}

	return ridges
}

// dsmConfidence maps a peak-count ratio into the spec's 0.90-0.92 per-ridge
// confidence band.
func dsmConfidence(peakCount, span int) float64 {
	ratio := float64(peakCount) / float64(span)
	extra := ratio - 0.6
	if extra < 0 {
		extra = 0
	}
	if extra > 0.4 {
		extra = 0.4
	}
	return 0.90 + 0.02*(extra/0.4)
}
