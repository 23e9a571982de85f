package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Options controls how a data grid is rendered.
type Options struct {
	// Colormap selects the color ramp: "gamma" (default), "heat", "gray".
	Colormap string

	// Stretch selects the intensity mapping: "linear" (default), "sqrt",
	// "log".
	Stretch string

	// Scale resizes the output by this factor. Values <= 0 or == 1 keep
	// the native pixel size.
	Scale float64

	// Smooth applies a gaussian blur with this radius in output pixels.
	Smooth float64
}

// Result contains a rendered map encoded as base64 PNG.
type Result struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
	Colormap    string  `json:"colormap"`
	Stretch     string  `json:"stretch"`
	DataMin     float64 `json:"data_min"`
	DataMax     float64 `json:"data_max"`
}

// Image renders a data grid to an in-memory image.
//
// The grid is in FITS order with row 0 at the bottom; the output follows
// the usual image convention with row 0 at the top.
func Image(data []float64, nx, ny int, opts Options) (image.Image, error) {
	img, _, _, err := renderRGBA(data, nx, ny, opts)
	return img, err
}

// Render renders a data grid and returns it base64-encoded.
func Render(data []float64, nx, ny int, opts Options) (*Result, error) {
	img, lo, hi, err := renderRGBA(data, nx, ny, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode map image: %w", err)
	}

	b := img.Bounds()
	return &Result{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Colormap:    normColormap(opts.Colormap),
		Stretch:     normStretch(opts.Stretch),
		DataMin:     lo,
		DataMax:     hi,
	}, nil
}

// WritePNG renders a data grid and writes the PNG to w.
func WritePNG(w io.Writer, data []float64, nx, ny int, opts Options) error {
	img, _, _, err := renderRGBA(data, nx, ny, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode map image: %w", err)
	}
	return nil
}

// renderRGBA performs the actual normalize / stretch / colormap pipeline
// and returns the image together with the data range that was mapped.
func renderRGBA(data []float64, nx, ny int, opts Options) (image.Image, float64, float64, error) {
	if nx < 1 || ny < 1 || len(data) != nx*ny {
		return nil, 0, 0, fmt.Errorf("data length %d does not match grid %dx%d", len(data), nx, ny)
	}

	cmap, err := lookupColormap(opts.Colormap)
	if err != nil {
		return nil, 0, 0, err
	}
	stretch, err := lookupStretch(opts.Stretch)
	if err != nil {
		return nil, 0, 0, err
	}

	lo, hi := dataRange(data)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, nx, ny))
	for iy := 0; iy < ny; iy++ {
		row := ny - 1 - iy // flip: FITS row 0 is the bottom of the map
		for ix := 0; ix < nx; ix++ {
			v := data[ix+nx*iy]
			t := 0.0
			if !math.IsNaN(v) {
				t = stretch((v - lo) / span)
			}
			r, g, b := cmap.at(t).RGB255()
			off := out.PixOffset(ix, row)
			out.Pix[off+0] = r
			out.Pix[off+1] = g
			out.Pix[off+2] = b
			out.Pix[off+3] = 255
		}
	}

	var img image.Image = out
	if opts.Scale > 0 && opts.Scale != 1 {
		w := int(float64(nx) * opts.Scale)
		h := int(float64(ny) * opts.Scale)
		if w < 1 || h < 1 {
			return nil, 0, 0, fmt.Errorf("scale %g collapses the image", opts.Scale)
		}
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	if opts.Smooth > 0 {
		img = blur.Gaussian(img, opts.Smooth)
	}

	return img, lo, hi, nil
}

// dataRange returns the finite min and max of the data.
func dataRange(data []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

func normColormap(name string) string {
	if name == "" {
		return "gamma"
	}
	return name
}

func normStretch(name string) string {
	if name == "" {
		return "linear"
	}
	return name
}

// lookupStretch returns the intensity mapping function for [0, 1] inputs.
func lookupStretch(name string) (func(float64) float64, error) {
	clamp01 := func(t float64) float64 {
		if t < 0 {
			return 0
		}
		if t > 1 {
			return 1
		}
		return t
	}

	switch name {
	case "", "linear":
		return clamp01, nil
	case "sqrt":
		return func(t float64) float64 { return math.Sqrt(clamp01(t)) }, nil
	case "log":
		// Compresses a factor-1000 dynamic range into the ramp, the usual
		// choice for flux maps with bright point sources.
		return func(t float64) float64 {
			return math.Log1p(999*clamp01(t)) / math.Log(1000)
		}, nil
	default:
		return nil, fmt.Errorf("unknown stretch: %s", name)
	}
}
