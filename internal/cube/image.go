package cube

import (
	"fmt"
	"io"
	"math"

	"github.com/orionlab/cube-tools-mcp/internal/render"
	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// SkyImage is a 2D array of values over sky position, usually obtained by
// slicing or integrating a SkyCube.
type SkyImage struct {
	Name string
	Unit string
	Geom *wcs.Geom // Axis is nil
	Data []float64 // FITS order, lon fastest
}

// NewImage creates a SkyImage from a geometry and a flat data slice.
func NewImage(name, unit string, geom *wcs.Geom, data []float64) (*SkyImage, error) {
	if geom.Axis != nil {
		return nil, fmt.Errorf("image geometry must not carry an energy axis")
	}
	if len(data) != geom.NpixLon*geom.NpixLat {
		return nil, fmt.Errorf("data length %d does not match geometry shape %v", len(data), geom.Shape())
	}
	return &SkyImage{Name: name, Unit: unit, Geom: geom, Data: data}, nil
}

// At returns the value at pixel (ix, iy).
func (m *SkyImage) At(ix, iy int) float64 {
	return m.Data[ix+m.Geom.NpixLon*iy]
}

// Set stores a value at pixel (ix, iy).
func (m *SkyImage) Set(ix, iy int, v float64) {
	m.Data[ix+m.Geom.NpixLon*iy] = v
}

// ValueAt returns the value at a sky position.
func (m *SkyImage) ValueAt(lon, lat float64) (float64, error) {
	ix, iy, ok := m.Geom.CoordToIdx(lon, lat)
	if !ok {
		return 0, fmt.Errorf("position (%g, %g) outside map", lon, lat)
	}
	return m.At(ix, iy), nil
}

// String returns a one-line summary of the image.
func (m *SkyImage) String() string {
	return fmt.Sprintf("SkyImage %q shape=(%d, %d) unit=%s",
		m.Name, m.Geom.NpixLat, m.Geom.NpixLon, m.Unit)
}

// ImageStats summarizes the value distribution of a sky image.
type ImageStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Sum  float64 `json:"sum"`
	NPix int     `json:"npix"`
}

// Stats computes min, max, mean and sum over all pixels.
func (m *SkyImage) Stats() ImageStats {
	st := ImageStats{Min: math.Inf(1), Max: math.Inf(-1), NPix: len(m.Data)}
	for _, v := range m.Data {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		st.Sum += v
	}
	if st.NPix > 0 {
		st.Mean = st.Sum / float64(st.NPix)
	}
	return st
}

// Smooth returns a copy of the image convolved with a gaussian kernel of
// the given sigma in pixels. Edges use replicated border values.
func (m *SkyImage) Smooth(sigmaPix float64) *SkyImage {
	if sigmaPix <= 0 {
		out := make([]float64, len(m.Data))
		copy(out, m.Data)
		return &SkyImage{Name: m.Name, Unit: m.Unit, Geom: m.Geom, Data: out}
	}

	half := int(math.Ceil(3 * sigmaPix))
	kernel := make([]float64, 2*half+1)
	var ksum float64
	for i := range kernel {
		d := float64(i - half)
		kernel[i] = math.Exp(-d * d / (2 * sigmaPix * sigmaPix))
		ksum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= ksum
	}

	nx, ny := m.Geom.NpixLon, m.Geom.NpixLat
	clampIdx := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}
		return v
	}

	// Separable convolution: horizontal pass then vertical pass.
	tmp := make([]float64, len(m.Data))
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += kernel[k+half] * m.At(clampIdx(ix+k, nx-1), iy)
			}
			tmp[ix+nx*iy] = sum
		}
	}
	out := make([]float64, len(m.Data))
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += kernel[k+half] * tmp[ix+nx*clampIdx(iy+k, ny-1)]
			}
			out[ix+nx*iy] = sum
		}
	}

	return &SkyImage{Name: m.Name, Unit: m.Unit, Geom: m.Geom, Data: out}
}

// Render produces a base64-encoded PNG of the image with the given options.
func (m *SkyImage) Render(opts render.Options) (*render.Result, error) {
	return render.Render(m.Data, m.Geom.NpixLon, m.Geom.NpixLat, opts)
}

// Show writes a PNG rendering of the image with default options. This is
// the display entry point for integrated sky images.
func (m *SkyImage) Show(w io.Writer) error {
	return render.WritePNG(w, m.Data, m.Geom.NpixLon, m.Geom.NpixLat, render.Options{})
}
