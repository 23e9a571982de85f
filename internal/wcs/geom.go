package wcs

import (
	"fmt"
	"math"
)

// Geom couples a WCS projection with the map pixelization and an optional
// energy axis. A Geom with a nil Axis describes a 2D sky image; with an
// Axis it describes the geometry of a 3D sky cube.
type Geom struct {
	WCS     *WCS
	NpixLon int
	NpixLat int
	Axis    *EnergyAxis // nil for image geometries
}

// NewGeom wraps an existing WCS and pixelization in a Geom.
func NewGeom(w *WCS, npixLon, npixLat int, axis *EnergyAxis) (*Geom, error) {
	if npixLon < 1 || npixLat < 1 {
		return nil, fmt.Errorf("invalid pixelization: %dx%d", npixLon, npixLat)
	}
	return &Geom{WCS: w, NpixLon: npixLon, NpixLat: npixLat, Axis: axis}, nil
}

// CreateGeom builds a geometry centered on (lonRef, latRef) with the given
// pixel count and scale. The reference pixel is placed at the map center.
//
// Parameters:
//   - npixLon, npixLat: Map size in pixels.
//   - binsz: Pixel scale in deg.
//   - coordsys: "GAL" or "CEL".
//   - lonRef, latRef: Sky position of the map center in deg.
//   - axis: Optional energy axis (nil for an image geometry).
func CreateGeom(npixLon, npixLat int, binsz float64, coordsys string, lonRef, latRef float64, axis *EnergyAxis) (*Geom, error) {
	if binsz <= 0 {
		return nil, fmt.Errorf("invalid pixel scale: %g", binsz)
	}
	crpix1 := 1 + (float64(npixLon)-1)/2
	crpix2 := 1 + (float64(npixLat)-1)/2

	w, err := New(lonRef, latRef, coordsys, "CAR", binsz, crpix1, crpix2)
	if err != nil {
		return nil, err
	}
	return NewGeom(w, npixLon, npixLat, axis)
}

// NDim returns 2 for image geometries and 3 for cube geometries.
func (g *Geom) NDim() int {
	if g.Axis == nil {
		return 2
	}
	return 3
}

// Shape returns the array shape in (energy, lat, lon) order. Image
// geometries return (lat, lon).
func (g *Geom) Shape() []int {
	if g.Axis == nil {
		return []int{g.NpixLat, g.NpixLon}
	}
	return []int{g.Axis.NBins(), g.NpixLat, g.NpixLon}
}

// Width returns the map extent in deg along longitude and latitude.
func (g *Geom) Width() (lon, lat float64) {
	return math.Abs(g.WCS.CDelt1) * float64(g.NpixLon), g.WCS.CDelt2 * float64(g.NpixLat)
}

// PixelArea returns the nominal pixel area in deg^2, ignoring projection
// distortion.
func (g *Geom) PixelArea() float64 {
	return math.Abs(g.WCS.CDelt1) * g.WCS.CDelt2
}

// IsAllSky reports whether the map spans the full 360 deg of longitude.
func (g *Geom) IsAllSky() bool {
	w, _ := g.Width()
	return math.Abs(w-360) < 1e-6
}

// CenterPix returns the pixel coordinate of the map center.
func (g *Geom) CenterPix() (px, py float64) {
	return (float64(g.NpixLon) - 1) / 2, (float64(g.NpixLat) - 1) / 2
}

// CenterCoord returns the sky coordinate of the map center in deg.
func (g *Geom) CenterCoord() (lon, lat float64) {
	px, py := g.CenterPix()
	return g.WCS.PixToWorld(px, py)
}

// Contains reports whether the sky position falls inside the map.
func (g *Geom) Contains(lon, lat float64) bool {
	_, _, ok := g.CoordToIdx(lon, lat)
	return ok
}

// CoordToIdx converts a sky position to the enclosing pixel index. ok is
// false when the position falls outside the map.
func (g *Geom) CoordToIdx(lon, lat float64) (ix, iy int, ok bool) {
	px, py := g.WCS.WorldToPix(lon, lat)
	ix = int(math.Floor(px + 0.5))
	iy = int(math.Floor(py + 0.5))
	if ix < 0 || ix >= g.NpixLon || iy < 0 || iy >= g.NpixLat {
		return -1, -1, false
	}
	return ix, iy, true
}

// SolidAngle returns the solid angle of pixel (ix, iy) in steradians.
//
// The value is approximated as the product of the angular separations of
// the pixel corners, the same approximation the original cube analysis
// tooling uses.
func (g *Geom) SolidAngle(ix, iy int) float64 {
	xlo, ylo := float64(ix)-0.5, float64(iy)-0.5
	xhi, yhi := float64(ix)+0.5, float64(iy)+0.5

	lon00, lat00 := g.WCS.PixToWorld(xlo, ylo)
	lon10, lat10 := g.WCS.PixToWorld(xhi, ylo)
	lon01, lat01 := g.WCS.PixToWorld(xlo, yhi)

	dx := AngularSeparation(lon00, lat00, lon10, lat10)
	dy := AngularSeparation(lon00, lat00, lon01, lat01)

	const degToRad = math.Pi / 180
	return dx * degToRad * dy * degToRad
}

// ToImage returns a copy of the geometry with the energy axis dropped.
func (g *Geom) ToImage() *Geom {
	w := *g.WCS
	return &Geom{WCS: &w, NpixLon: g.NpixLon, NpixLat: g.NpixLat}
}

// ToCube returns a copy of the geometry with the given energy axis attached.
func (g *Geom) ToCube(axis *EnergyAxis) *Geom {
	w := *g.WCS
	return &Geom{WCS: &w, NpixLon: g.NpixLon, NpixLat: g.NpixLat, Axis: axis}
}

// Pad returns a geometry grown by pad pixels on each spatial edge.
func (g *Geom) Pad(pad int) (*Geom, error) {
	if pad < 0 {
		return nil, fmt.Errorf("invalid pad width: %d", pad)
	}
	w := *g.WCS
	w.CRPix1 += float64(pad)
	w.CRPix2 += float64(pad)
	return &Geom{WCS: &w, NpixLon: g.NpixLon + 2*pad, NpixLat: g.NpixLat + 2*pad, Axis: g.Axis}, nil
}

// Crop returns a geometry shrunk by crop pixels on each spatial edge.
func (g *Geom) Crop(crop int) (*Geom, error) {
	if 2*crop >= g.NpixLon || 2*crop >= g.NpixLat {
		return nil, fmt.Errorf("crop width %d exceeds map size %dx%d", crop, g.NpixLon, g.NpixLat)
	}
	w := *g.WCS
	w.CRPix1 -= float64(crop)
	w.CRPix2 -= float64(crop)
	return &Geom{WCS: &w, NpixLon: g.NpixLon - 2*crop, NpixLat: g.NpixLat - 2*crop, Axis: g.Axis}, nil
}

// Downsample returns a geometry rebinned by the given factor. The map size
// must be divisible by the factor in both spatial dimensions.
func (g *Geom) Downsample(factor int) (*Geom, error) {
	if factor < 1 {
		return nil, fmt.Errorf("invalid downsample factor: %d", factor)
	}
	if g.NpixLon%factor != 0 || g.NpixLat%factor != 0 {
		return nil, fmt.Errorf("map shape %dx%d is not divisible by %d in all axes; pad the map prior to downsampling",
			g.NpixLon, g.NpixLat, factor)
	}
	w := *g.WCS
	f := float64(factor)
	w.CDelt1 *= f
	w.CDelt2 *= f
	w.CRPix1 = (w.CRPix1-0.5)/f + 0.5
	w.CRPix2 = (w.CRPix2-0.5)/f + 0.5
	return &Geom{WCS: &w, NpixLon: g.NpixLon / factor, NpixLat: g.NpixLat / factor, Axis: g.Axis}, nil
}

// Upsample returns a geometry refined by the given factor.
func (g *Geom) Upsample(factor int) (*Geom, error) {
	if factor < 1 {
		return nil, fmt.Errorf("invalid upsample factor: %d", factor)
	}
	w := *g.WCS
	f := float64(factor)
	w.CDelt1 /= f
	w.CDelt2 /= f
	w.CRPix1 = (w.CRPix1-0.5)*f + 0.5
	w.CRPix2 = (w.CRPix2-0.5)*f + 0.5
	return &Geom{WCS: &w, NpixLon: g.NpixLon * factor, NpixLat: g.NpixLat * factor, Axis: g.Axis}, nil
}
