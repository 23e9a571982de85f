package detect

import (
	"fmt"
	"math"
	"sort"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// Peak represents a detected point-source candidate.
type Peak struct {
	// Lon, Lat are the sky coordinates of the peak pixel in degrees,
	// in the coordinate system of the image.
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`

	// X, Y are the 0-based pixel indices of the peak.
	X int `json:"x"`
	Y int `json:"y"`

	// Value is the image value at the peak, in the image unit.
	Value float64 `json:"value"`

	// Significance is (Value - mean) / stddev with sigma-clipped
	// background statistics.
	Significance float64 `json:"significance"`
}

// PeaksResult contains all peaks detected in a sky image.
type PeaksResult struct {
	// Peaks is the list of detected peaks, sorted by value (brightest first).
	Peaks []Peak `json:"peaks"`

	// Count is the number of peaks detected.
	Count int `json:"count"`

	// Threshold is the significance cut that was applied.
	Threshold float64 `json:"threshold"`

	// Background and Noise are the clipped mean and standard deviation
	// used for the significance scores.
	Background float64 `json:"background"`
	Noise      float64 `json:"noise"`
}

// FindPeaks detects local maxima above a significance threshold.
//
// Parameters:
//   - img: Sky image to search.
//   - threshold: Minimum significance, in clipped standard deviations above
//     the clipped mean. Typical: 3-5.
//   - minSeparation: Minimum angular separation between peaks in degrees.
//     Of two candidates closer than this, only the brighter is kept.
//     Use 0 to keep all local maxima.
//
// Returns the peaks sorted by value, brightest first.
func FindPeaks(img *cube.SkyImage, threshold, minSeparation float64) (*PeaksResult, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %g", threshold)
	}
	if minSeparation < 0 {
		return nil, fmt.Errorf("minimum separation must not be negative, got %g", minSeparation)
	}

	mean, std := clippedStats(img.Data, 3, 5)
	if std == 0 {
		// Flat image, nothing to detect.
		return &PeaksResult{Peaks: []Peak{}, Threshold: threshold, Background: mean}, nil
	}
	cut := mean + threshold*std

	nx, ny := img.Geom.NpixLon, img.Geom.NpixLat
	peaks := make([]Peak, 0)

	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			v := img.At(ix, iy)
			if v < cut || !isLocalMax(img, ix, iy, v) {
				continue
			}
			lon, lat := img.Geom.WCS.PixToWorld(float64(ix), float64(iy))
			peaks = append(peaks, Peak{
				Lon:          lon,
				Lat:          lat,
				X:            ix,
				Y:            iy,
				Value:        v,
				Significance: (v - mean) / std,
			})
		}
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Value > peaks[j].Value
	})

	if minSeparation > 0 {
		peaks = filterClosePeaks(peaks, minSeparation)
	}

	return &PeaksResult{
		Peaks:      peaks,
		Count:      len(peaks),
		Threshold:  threshold,
		Background: mean,
		Noise:      std,
	}, nil
}

// isLocalMax reports whether the pixel is a strict maximum over its
// 8-connected neighbors. Ties go to the pixel with the smaller index so a
// plateau yields exactly one peak.
func isLocalMax(img *cube.SkyImage, ix, iy int, v float64) bool {
	nx, ny := img.Geom.NpixLon, img.Geom.NpixLat
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			jx, jy := ix+dx, iy+dy
			if jx < 0 || jx >= nx || jy < 0 || jy >= ny {
				continue
			}
			n := img.At(jx, jy)
			if n > v {
				return false
			}
			if n == v && (jy < iy || (jy == iy && jx < ix)) {
				return false
			}
		}
	}
	return true
}

// filterClosePeaks drops peaks closer than minSeparation degrees to a
// brighter peak. The input must already be sorted brightest first.
func filterClosePeaks(peaks []Peak, minSeparation float64) []Peak {
	kept := make([]Peak, 0, len(peaks))
	for _, p := range peaks {
		tooClose := false
		for _, k := range kept {
			if wcs.AngularSeparation(p.Lon, p.Lat, k.Lon, k.Lat) < minSeparation {
				tooClose = true
				break
			}
		}
		if !tooClose {
			kept = append(kept, p)
		}
	}
	return kept
}

// clippedStats computes the mean and standard deviation of data after
// iteratively rejecting values more than nsigma deviations from the mean.
func clippedStats(data []float64, nsigma float64, maxIter int) (mean, std float64) {
	use := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			use = append(use, v)
		}
	}
	if len(use) == 0 {
		return 0, 0
	}

	for iter := 0; iter <= maxIter; iter++ {
		mean, std = meanStd(use)
		if iter == maxIter || std == 0 {
			break
		}
		lo, hi := mean-nsigma*std, mean+nsigma*std
		next := use[:0]
		clipped := false
		for _, v := range use {
			if v < lo || v > hi {
				clipped = true
				continue
			}
			next = append(next, v)
		}
		if !clipped || len(next) == 0 {
			break
		}
		use = next
	}
	return mean, std
}

func meanStd(data []float64) (mean, std float64) {
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	for _, v := range data {
		d := v - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(data)))
	return mean, std
}
