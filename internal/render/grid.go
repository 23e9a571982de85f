package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// GridResult contains a rendered map with a coordinate graticule.
type GridResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ImageBase64 string  `json:"image_base64"`
	MimeType    string  `json:"mime_type"`
	SpacingDeg  float64 `json:"spacing_deg"`
}

// GridOverlay renders a data grid and draws a sky-coordinate graticule on
// top of it: meridians and parallels at multiples of spacingDeg, labeled in
// the map's coordinate system (l/b for Galactic, ra/dec for equatorial).
func GridOverlay(data []float64, geom *wcs.Geom, spacingDeg float64, showLabels bool, opts Options) (*GridResult, error) {
	if spacingDeg <= 0 {
		return nil, fmt.Errorf("invalid graticule spacing: %g", spacingDeg)
	}
	if geom.NpixLon*geom.NpixLat != len(data) {
		return nil, fmt.Errorf("data length %d does not match geometry shape %v", len(data), geom.Shape())
	}

	// Graticule coordinates are drawn at native resolution; force scale 1.
	base := opts
	base.Scale = 0
	img, _, _, err := renderRGBA(data, geom.NpixLon, geom.NpixLat, base)
	if err != nil {
		return nil, err
	}

	nx, ny := geom.NpixLon, geom.NpixLat
	rgba := image.NewRGBA(image.Rect(0, 0, nx, ny))
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)

	lineColor := color.RGBA{255, 255, 255, 160}
	lonName, latName := axisLabels(geom.WCS)

	// Meridians are vertical lines under the CAR projection.
	for _, lon := range graticuleValues(geom, spacingDeg, true) {
		px, _ := geom.WCS.WorldToPix(lon, geom.WCS.CRVal2)
		x := int(math.Round(px))
		if x < 0 || x >= nx {
			continue
		}
		for y := 0; y < ny; y++ {
			rgba.SetRGBA(x, y, lineColor)
		}
		if showLabels {
			label := fmt.Sprintf("%s=%g", lonName, lon)
			drawLabel(rgba, x+2, 12, label)
		}
	}

	// Parallels are horizontal lines.
	for _, lat := range graticuleValues(geom, spacingDeg, false) {
		_, py := geom.WCS.WorldToPix(geom.WCS.CRVal1, lat)
		y := ny - 1 - int(math.Round(py)) // map rows are flipped for display
		if y < 0 || y >= ny {
			continue
		}
		for x := 0; x < nx; x++ {
			rgba.SetRGBA(x, y, lineColor)
		}
		if showLabels {
			label := fmt.Sprintf("%s=%g", latName, lat)
			drawLabel(rgba, 2, y-2, label)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("failed to encode graticule image: %w", err)
	}

	return &GridResult{
		Width:       nx,
		Height:      ny,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		SpacingDeg:  spacingDeg,
	}, nil
}

// graticuleValues lists the multiples of spacing that fall inside the map
// along one axis.
func graticuleValues(geom *wcs.Geom, spacing float64, lonAxis bool) []float64 {
	var vals []float64
	if lonAxis {
		widthLon, _ := geom.Width()
		centerLon, _ := geom.CenterCoord()
		half := widthLon / 2
		start := spacing * math.Ceil((centerLon-half)/spacing)
		for v := start; v <= centerLon+half; v += spacing {
			lon := v
			for lon < 0 {
				lon += 360
			}
			for lon >= 360 {
				lon -= 360
			}
			vals = append(vals, lon)
		}
		return vals
	}

	_, widthLat := geom.Width()
	_, centerLat := geom.CenterCoord()
	half := widthLat / 2
	start := spacing * math.Ceil((centerLat-half)/spacing)
	for v := start; v <= centerLat+half; v += spacing {
		vals = append(vals, v)
	}
	return vals
}

// axisLabels returns the short coordinate names used in graticule labels.
func axisLabels(w *wcs.WCS) (lonName, latName string) {
	if w.IsGalactic() {
		return "l", "b"
	}
	return "ra", "dec"
}

// drawLabel draws a small text label with the fixed 7x13 font. Labels that
// would start outside the image are skipped.
func drawLabel(dst *image.RGBA, x, y int, text string) {
	if x < 0 || y < 0 || x >= dst.Bounds().Dx() || y >= dst.Bounds().Dy() {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
