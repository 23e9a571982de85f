package wcs

import (
	"fmt"
	"math"
)

// EnergyAxis is a binned energy axis with logarithmic interpolation.
//
// The axis is defined by its bin edges in ascending order. Bin centers are
// geometric means of the adjacent edges, the natural choice for power-law
// spectra.
type EnergyAxis struct {
	Edges []float64 // Bin edges, ascending, len = NBins()+1
	Unit  string    // Energy unit, e.g. "MeV"
}

// NewEnergyAxisLog creates an axis with nbins logarithmically spaced bins
// between emin and emax.
func NewEnergyAxisLog(emin, emax float64, nbins int, unit string) (*EnergyAxis, error) {
	if emin <= 0 || emax <= emin {
		return nil, fmt.Errorf("invalid energy bounds: [%g, %g]", emin, emax)
	}
	if nbins < 1 {
		return nil, fmt.Errorf("invalid bin count: %d", nbins)
	}

	edges := make([]float64, nbins+1)
	step := (math.Log(emax) - math.Log(emin)) / float64(nbins)
	for i := range edges {
		edges[i] = math.Exp(math.Log(emin) + float64(i)*step)
	}
	// Pin the endpoints to avoid rounding drift.
	edges[0] = emin
	edges[nbins] = emax

	return &EnergyAxis{Edges: edges, Unit: unit}, nil
}

// NewEnergyAxisFromEdges creates an axis from explicit bin edges.
func NewEnergyAxisFromEdges(edges []float64, unit string) (*EnergyAxis, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("need at least 2 edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] || edges[i-1] <= 0 {
			return nil, fmt.Errorf("edges must be positive and ascending at index %d", i)
		}
	}
	out := make([]float64, len(edges))
	copy(out, edges)
	return &EnergyAxis{Edges: out, Unit: unit}, nil
}

// NewEnergyAxisFromNodes creates an axis whose bin centers coincide with the
// given node energies. Interior edges are geometric midpoints of adjacent
// nodes; the outer edges are extrapolated in log space. This matches how
// Fermi template files record an ENERGIES table of plane energies.
func NewEnergyAxisFromNodes(nodes []float64, unit string) (*EnergyAxis, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("need at least 2 energy nodes, got %d", len(nodes))
	}

	edges := make([]float64, len(nodes)+1)
	for i := 1; i < len(nodes); i++ {
		if nodes[i] <= nodes[i-1] || nodes[i-1] <= 0 {
			return nil, fmt.Errorf("nodes must be positive and ascending at index %d", i)
		}
		edges[i] = math.Sqrt(nodes[i-1] * nodes[i])
	}
	edges[0] = nodes[0] * nodes[0] / edges[1]
	edges[len(nodes)] = nodes[len(nodes)-1] * nodes[len(nodes)-1] / edges[len(nodes)-1]

	return &EnergyAxis{Edges: edges, Unit: unit}, nil
}

// NBins returns the number of bins.
func (a *EnergyAxis) NBins() int { return len(a.Edges) - 1 }

// Center returns the geometric center of bin i.
func (a *EnergyAxis) Center(i int) float64 {
	return math.Sqrt(a.Edges[i] * a.Edges[i+1])
}

// Centers returns the geometric centers of all bins.
func (a *EnergyAxis) Centers() []float64 {
	c := make([]float64, a.NBins())
	for i := range c {
		c[i] = a.Center(i)
	}
	return c
}

// Width returns the linear width of bin i.
func (a *EnergyAxis) Width(i int) float64 {
	return a.Edges[i+1] - a.Edges[i]
}

// EMin returns the lower bound of the axis.
func (a *EnergyAxis) EMin() float64 { return a.Edges[0] }

// EMax returns the upper bound of the axis.
func (a *EnergyAxis) EMax() float64 { return a.Edges[len(a.Edges)-1] }

// Contains reports whether the energy falls within the axis bounds.
func (a *EnergyAxis) Contains(energy float64) bool {
	return energy >= a.EMin() && energy <= a.EMax()
}

// CoordToPix converts an energy to a continuous pixel coordinate.
//
// Pixel -0.5 corresponds to the first edge and NBins()-0.5 to the last, so
// integer pixel values land on bin centers in log space. Energies outside
// the axis extrapolate linearly in log space off the nearest bin.
func (a *EnergyAxis) CoordToPix(energy float64) float64 {
	le := math.Log(energy)
	i := a.findBin(energy)
	lo := math.Log(a.Edges[i])
	hi := math.Log(a.Edges[i+1])
	return float64(i) - 0.5 + (le-lo)/(hi-lo)
}

// PixToCoord converts a continuous pixel coordinate back to an energy.
func (a *EnergyAxis) PixToCoord(pix float64) float64 {
	i := int(math.Floor(pix + 0.5))
	if i < 0 {
		i = 0
	}
	if i > a.NBins()-1 {
		i = a.NBins() - 1
	}
	lo := math.Log(a.Edges[i])
	hi := math.Log(a.Edges[i+1])
	return math.Exp(lo + (pix-(float64(i)-0.5))*(hi-lo))
}

// CoordToIdx returns the index of the bin containing the energy, or -1 if
// the energy lies outside the axis.
func (a *EnergyAxis) CoordToIdx(energy float64) int {
	if !a.Contains(energy) {
		return -1
	}
	return a.findBin(energy)
}

// findBin locates the bin whose edge interval brackets the energy, clipping
// to the first or last bin for out-of-range values.
func (a *EnergyAxis) findBin(energy float64) int {
	n := a.NBins()
	if energy < a.Edges[1] {
		return 0
	}
	if energy >= a.Edges[n-1] {
		return n - 1
	}
	lo, hi := 1, n-1
	for lo < hi {
		mid := (lo + hi) / 2
		if energy < a.Edges[mid+1] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
