package cube

import (
	"fmt"
	"math"
	"strings"
)

// SkyImageIntegral integrates the cube over the energy range [emin, emax]
// and returns the result as a sky image.
//
// The integration assumes power-law spectra between energy nodes (bin
// centers) and evaluates each segment analytically; this is the log-log
// trapezoidal rule customary for gamma-ray fluxes. The requested range is
// clipped to the cube's energy axis. The resulting image unit is the cube
// unit with the energy dimension removed, e.g. "1 / (cm2 MeV s sr)"
// integrates to "1 / (cm2 s sr)".
func (c *SkyCube) SkyImageIntegral(emin, emax float64) (*SkyImage, error) {
	if emin <= 0 || emax <= emin {
		return nil, fmt.Errorf("invalid energy range: [%g, %g]", emin, emax)
	}

	axis := c.Geom.Axis
	lo := math.Max(emin, axis.EMin())
	hi := math.Min(emax, axis.EMax())
	if lo >= hi {
		return nil, fmt.Errorf("energy range [%g, %g] does not overlap axis bounds [%g, %g]",
			emin, emax, axis.EMin(), axis.EMax())
	}

	// Integration nodes: the clipped bounds plus every bin center strictly
	// inside them.
	nodes := []float64{lo}
	for i := 0; i < axis.NBins(); i++ {
		if e := axis.Center(i); e > lo && e < hi {
			nodes = append(nodes, e)
		}
	}
	nodes = append(nodes, hi)

	geom := c.Geom.ToImage()
	data := make([]float64, geom.NpixLon*geom.NpixLat)

	flux := make([]float64, len(nodes))
	for iy := 0; iy < geom.NpixLat; iy++ {
		for ix := 0; ix < geom.NpixLon; ix++ {
			for k, e := range nodes {
				flux[k] = c.fluxAtPixel(ix, iy, e)
			}
			data[ix+geom.NpixLon*iy] = trapzLogLog(nodes, flux)
		}
	}

	name := fmt.Sprintf("%s [%.3e .. %.3e %s]", c.Name, lo, hi, axis.Unit)
	return &SkyImage{
		Name: name,
		Unit: integralUnit(c.Unit, axis.Unit),
		Geom: geom,
		Data: data,
	}, nil
}

// trapzLogLog integrates tabulated values over x assuming power-law
// behavior between adjacent nodes. Segments with non-positive values are
// integrated with the ordinary trapezoidal rule.
func trapzLogLog(x, y []float64) float64 {
	var total float64
	for i := 0; i < len(x)-1; i++ {
		a, b := x[i], x[i+1]
		fa, fb := y[i], y[i+1]

		if fa <= 0 || fb <= 0 {
			total += 0.5 * (fa + fb) * (b - a)
			continue
		}

		gamma := math.Log(fb/fa) / math.Log(b/a)
		if math.Abs(gamma+1) < 1e-10 {
			// The gamma = -1 case integrates to a logarithm.
			total += fa * a * math.Log(b/a)
			continue
		}
		total += fa * a / (gamma + 1) * (math.Pow(b/a, gamma+1) - 1)
	}
	return total
}

// integralUnit derives the unit of an energy-integrated quantity by
// removing the differential energy factor from the cube unit. Unknown unit
// strings are returned with an explicit multiplication appended so the
// result is never silently wrong.
func integralUnit(unit, energyUnit string) string {
	switch {
	case strings.Contains(unit, " "+energyUnit+" "):
		return strings.Replace(unit, " "+energyUnit+" ", " ", 1)
	case strings.Contains(unit, "("+energyUnit+" "):
		return strings.Replace(unit, "("+energyUnit+" ", "(", 1)
	case strings.Contains(unit, " "+energyUnit+")"):
		return strings.Replace(unit, " "+energyUnit+")", ")", 1)
	case unit == "":
		return energyUnit
	default:
		return unit + " * " + energyUnit
	}
}
