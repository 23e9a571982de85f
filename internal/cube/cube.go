package cube

import (
	"fmt"
	"math"
	"strings"

	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// SkyCube is a 3D array of flux values over sky position and energy.
type SkyCube struct {
	// Name identifies the cube, typically derived from the source file.
	Name string

	// Unit is the flux unit of the data, e.g. "1 / (cm2 MeV s sr)".
	Unit string

	// Geom is the cube geometry. Geom.Axis is always non-nil.
	Geom *wcs.Geom

	// Data holds the flux values in FITS order (lon fastest, then lat,
	// then energy).
	Data []float64
}

// New creates a SkyCube from a geometry and a flat data slice.
//
// The geometry must carry an energy axis and the data length must match the
// geometry shape.
func New(name, unit string, geom *wcs.Geom, data []float64) (*SkyCube, error) {
	if geom.Axis == nil {
		return nil, fmt.Errorf("cube geometry requires an energy axis")
	}
	want := geom.Axis.NBins() * geom.NpixLat * geom.NpixLon
	if len(data) != want {
		return nil, fmt.Errorf("data length %d does not match geometry shape %v", len(data), geom.Shape())
	}
	return &SkyCube{Name: name, Unit: unit, Geom: geom, Data: data}, nil
}

// NewEmpty creates a zero-filled SkyCube for the given geometry.
func NewEmpty(name, unit string, geom *wcs.Geom) (*SkyCube, error) {
	if geom.Axis == nil {
		return nil, fmt.Errorf("cube geometry requires an energy axis")
	}
	data := make([]float64, geom.Axis.NBins()*geom.NpixLat*geom.NpixLon)
	return &SkyCube{Name: name, Unit: unit, Geom: geom, Data: data}, nil
}

// At returns the flux value at the given array indices.
func (c *SkyCube) At(iE, iLat, iLon int) float64 {
	return c.Data[c.index(iE, iLat, iLon)]
}

// Set stores a flux value at the given array indices.
func (c *SkyCube) Set(iE, iLat, iLon int, v float64) {
	c.Data[c.index(iE, iLat, iLon)] = v
}

func (c *SkyCube) index(iE, iLat, iLon int) int {
	return iLon + c.Geom.NpixLon*(iLat+c.Geom.NpixLat*iE)
}

// String returns a multi-line summary of the cube: name, shape, unit and
// axis metadata.
func (c *SkyCube) String() string {
	var b strings.Builder
	shape := c.Geom.Shape()
	axis := c.Geom.Axis

	fmt.Fprintf(&b, "SkyCube %q\n", c.Name)
	fmt.Fprintf(&b, "shape  : (%d, %d, %d)\n", shape[0], shape[1], shape[2])
	fmt.Fprintf(&b, "unit   : %s\n", c.Unit)
	fmt.Fprintf(&b, "wcs    : %s / %s\n", c.Geom.WCS.CType1, c.Geom.WCS.CType2)
	fmt.Fprintf(&b, "energy : %d bins, %.3e .. %.3e %s",
		axis.NBins(), axis.EMin(), axis.EMax(), axis.Unit)
	return b.String()
}

// FluxAt returns the flux at a sky position and energy.
//
// The spatial lookup uses the pixel containing the position; the spectral
// value is interpolated in log-log space between the adjacent energy nodes.
// An error is returned when the position falls outside the map or the
// energy outside the axis bounds.
func (c *SkyCube) FluxAt(lon, lat, energy float64) (float64, error) {
	ix, iy, ok := c.Geom.CoordToIdx(lon, lat)
	if !ok {
		return 0, fmt.Errorf("position (%g, %g) outside map", lon, lat)
	}
	if !c.Geom.Axis.Contains(energy) {
		return 0, fmt.Errorf("energy %g %s outside axis bounds [%g, %g]",
			energy, c.Geom.Axis.Unit, c.Geom.Axis.EMin(), c.Geom.Axis.EMax())
	}
	return c.fluxAtPixel(ix, iy, energy), nil
}

// fluxAtPixel interpolates the spectrum of pixel (ix, iy) at the given
// energy, assuming power-law behavior between bin centers. Outside the
// first or last center the nearest node pair is extrapolated.
func (c *SkyCube) fluxAtPixel(ix, iy int, energy float64) float64 {
	axis := c.Geom.Axis
	n := axis.NBins()
	if n == 1 {
		return c.At(0, iy, ix)
	}

	pix := axis.CoordToPix(energy)
	i0 := int(math.Floor(pix))
	if i0 < 0 {
		i0 = 0
	}
	if i0 > n-2 {
		i0 = n - 2
	}
	i1 := i0 + 1

	e0, e1 := axis.Center(i0), axis.Center(i1)
	f0, f1 := c.At(i0, iy, ix), c.At(i1, iy, ix)
	return interpPowerLaw(energy, e0, e1, f0, f1)
}

// interpPowerLaw evaluates the power law through (e0, f0) and (e1, f1) at
// energy e. Non-positive node values force a linear interpolation since the
// power-law form is undefined there.
func interpPowerLaw(e, e0, e1, f0, f1 float64) float64 {
	if f0 <= 0 || f1 <= 0 {
		t := (e - e0) / (e1 - e0)
		return f0 + t*(f1-f0)
	}
	gamma := math.Log(f1/f0) / math.Log(e1/e0)
	return f0 * math.Pow(e/e0, gamma)
}

// Plane returns the sky image of a single energy plane.
func (c *SkyCube) Plane(iE int) (*SkyImage, error) {
	axis := c.Geom.Axis
	if iE < 0 || iE >= axis.NBins() {
		return nil, fmt.Errorf("energy plane %d out of range [0, %d)", iE, axis.NBins())
	}

	geom := c.Geom.ToImage()
	data := make([]float64, geom.NpixLon*geom.NpixLat)
	for iy := 0; iy < geom.NpixLat; iy++ {
		for ix := 0; ix < geom.NpixLon; ix++ {
			data[ix+geom.NpixLon*iy] = c.At(iE, iy, ix)
		}
	}

	name := fmt.Sprintf("%s [plane %d, %.3e %s]", c.Name, iE, axis.Center(iE), axis.Unit)
	return &SkyImage{Name: name, Unit: c.Unit, Geom: geom, Data: data}, nil
}

// SkyImageAt returns the sky image of the energy plane containing the given
// energy.
func (c *SkyCube) SkyImageAt(energy float64) (*SkyImage, error) {
	iE := c.Geom.Axis.CoordToIdx(energy)
	if iE < 0 {
		return nil, fmt.Errorf("energy %g %s outside axis bounds", energy, c.Geom.Axis.Unit)
	}
	return c.Plane(iE)
}
