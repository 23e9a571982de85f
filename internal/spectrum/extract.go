package spectrum

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// DefaultLoThresholdPercent is the on-peak percentage used for the low
// energy threshold when the extraction does not set one.
const DefaultLoThresholdPercent = 10.0

// Extraction holds the inputs of a spectrum extraction.
type Extraction struct {
	// Cube is the sky cube to extract from.
	Cube *cube.SkyCube

	// Region is the on region.
	Region CircleRegion

	// CenterLon, CenterLat define the pointing center the background
	// regions are reflected around, in degrees.
	CenterLon float64
	CenterLat float64

	// MinOffRegions is the smallest acceptable number of background
	// regions inside the map. Defaults to 1.
	MinOffRegions int

	// LoThresholdPercent sets the low energy threshold at the first bin
	// where the on value reaches this percentage of its peak. Defaults
	// to DefaultLoThresholdPercent.
	LoThresholdPercent float64

	// EReco optionally rebins the result onto these reconstructed energy
	// bin edges. Every edge must coincide with an edge of the cube axis.
	EReco []float64

	// Containment is the fraction of the source enclosed by the on
	// region. Values below 1 scale the excess up to the full source;
	// 0 means no correction.
	Containment float64
}

// Bin is one energy bin of an extracted spectrum.
type Bin struct {
	EMin   float64 `yaml:"e_min" json:"e_min"`
	EMax   float64 `yaml:"e_max" json:"e_max"`
	ERef   float64 `yaml:"e_ref" json:"e_ref"`
	On     float64 `yaml:"on" json:"on"`
	Off    float64 `yaml:"off" json:"off"`
	Excess float64 `yaml:"excess" json:"excess"`
}

// Spectrum is the result of an extraction.
type Spectrum struct {
	Name       string  `yaml:"name" json:"name"`
	Unit       string  `yaml:"unit" json:"unit"`
	EnergyUnit string  `yaml:"energy_unit" json:"energy_unit"`
	Alpha      float64 `yaml:"alpha" json:"alpha"`
	NOff       int     `yaml:"n_off_regions" json:"n_off_regions"`

	// Containment is the correction the excess was divided by.
	Containment float64 `yaml:"containment" json:"containment"`

	// LoThreshold and HiThreshold bracket the safe energy range.
	LoThreshold float64 `yaml:"lo_threshold" json:"lo_threshold"`
	HiThreshold float64 `yaml:"hi_threshold" json:"hi_threshold"`

	Bins []Bin `yaml:"bins" json:"bins"`
}

// Extract runs the extraction.
//
// Per energy bin the on and off regions are integrated with solid-angle
// weights, so the per-bin values carry the cube unit times steradian. The
// off sum is scaled to the on area through alpha before the excess is
// formed.
func (e *Extraction) Extract() (*Spectrum, error) {
	if e.Cube == nil {
		return nil, fmt.Errorf("extraction needs a cube")
	}
	if e.Region.Radius <= 0 {
		return nil, fmt.Errorf("on region radius must be positive, got %g", e.Region.Radius)
	}

	minOff := e.MinOffRegions
	if minOff <= 0 {
		minOff = 1
	}

	off, err := ReflectedRegions(e.Region, e.CenterLon, e.CenterLat, 0)
	if err != nil {
		return nil, err
	}
	off = insideMap(off, e.Cube.Geom)
	if len(off) < minOff {
		return nil, fmt.Errorf("only %d background regions fit in the map, need %d", len(off), minOff)
	}

	geom := e.Cube.Geom
	axis := geom.Axis
	nbins := axis.NBins()

	onSum := make([]float64, nbins)
	offSum := make([]float64, nbins)
	areaOn := regionArea(geom, e.Region)
	if areaOn == 0 {
		return nil, fmt.Errorf("on region does not cover any map pixel")
	}
	var areaOff float64
	for _, r := range off {
		areaOff += regionArea(geom, r)
	}

	for i := 0; i < nbins; i++ {
		onSum[i] = regionSum(e.Cube, e.Region, i)
		for _, r := range off {
			offSum[i] += regionSum(e.Cube, r, i)
		}
	}
	alpha := areaOn / areaOff

	containment := e.Containment
	if containment == 0 {
		containment = 1
	}
	if containment <= 0 || containment > 1 {
		return nil, fmt.Errorf("containment fraction must be in (0, 1], got %g", e.Containment)
	}

	binAxis := axis
	if e.EReco != nil {
		binAxis, onSum, offSum, err = regroup(axis, e.EReco, onSum, offSum)
		if err != nil {
			return nil, err
		}
	}

	nOut := binAxis.NBins()
	spec := &Spectrum{
		Name:        e.Cube.Name,
		Unit:        e.Cube.Unit + " sr",
		EnergyUnit:  binAxis.Unit,
		Alpha:       alpha,
		NOff:        len(off),
		Containment: containment,
		HiThreshold: binAxis.EMax(),
		Bins:        make([]Bin, nOut),
	}
	for i := 0; i < nOut; i++ {
		spec.Bins[i] = Bin{
			EMin:   binAxis.Edges[i],
			EMax:   binAxis.Edges[i+1],
			ERef:   binAxis.Center(i),
			On:     onSum[i],
			Off:    offSum[i],
			Excess: (onSum[i] - alpha*offSum[i]) / containment,
		}
	}
	spec.LoThreshold = loThreshold(binAxis, onSum, e.loPercent())
	return spec, nil
}

// Run executes the extraction and writes the spectrum to spectrum.yaml in
// outdir.
func (e *Extraction) Run(outdir string) (*Spectrum, error) {
	spec, err := e.Extract()
	if err != nil {
		return nil, err
	}
	if err := spec.Write(filepath.Join(outdir, "spectrum.yaml")); err != nil {
		return nil, err
	}
	return spec, nil
}

// regroup rebins the per-bin sums onto coarser reconstructed energy edges.
// The merged on and off values are width-weighted means, keeping them
// differential like the native bins.
func regroup(axis *wcs.EnergyAxis, eReco []float64, on, off []float64) (*wcs.EnergyAxis, []float64, []float64, error) {
	out, err := wcs.NewEnergyAxisFromEdges(eReco, axis.Unit)
	if err != nil {
		return nil, nil, nil, err
	}

	idx := make([]int, len(eReco))
	for k, edge := range eReco {
		j := matchEdge(axis.Edges, edge)
		if j < 0 {
			return nil, nil, nil, fmt.Errorf("reco edge %g %s does not coincide with a cube axis edge", edge, axis.Unit)
		}
		if k > 0 && j <= idx[k-1] {
			return nil, nil, nil, fmt.Errorf("reco edges collapse onto axis edge %d", j)
		}
		idx[k] = j
	}

	onOut := make([]float64, out.NBins())
	offOut := make([]float64, out.NBins())
	for k := 0; k < out.NBins(); k++ {
		var wsum float64
		for j := idx[k]; j < idx[k+1]; j++ {
			w := axis.Width(j)
			onOut[k] += on[j] * w
			offOut[k] += off[j] * w
			wsum += w
		}
		onOut[k] /= wsum
		offOut[k] /= wsum
	}
	return out, onOut, offOut, nil
}

// matchEdge returns the index of the axis edge equal to e within relative
// tolerance, or -1.
func matchEdge(edges []float64, e float64) int {
	for j, v := range edges {
		if math.Abs(v-e) <= 1e-6*e {
			return j
		}
	}
	return -1
}

func (e *Extraction) loPercent() float64 {
	if e.LoThresholdPercent > 0 {
		return e.LoThresholdPercent
	}
	return DefaultLoThresholdPercent
}

// regionSum integrates one energy plane over a region with solid-angle
// weights. Pixels whose center falls inside the region contribute.
func regionSum(c *cube.SkyCube, r CircleRegion, iE int) float64 {
	geom := c.Geom
	var sum float64
	for iy := 0; iy < geom.NpixLat; iy++ {
		for ix := 0; ix < geom.NpixLon; ix++ {
			lon, lat := geom.WCS.PixToWorld(float64(ix), float64(iy))
			if !r.Contains(lon, lat) {
				continue
			}
			sum += c.At(iE, iy, ix) * geom.SolidAngle(ix, iy)
		}
	}
	return sum
}

// regionArea returns the solid angle in steradian of the map pixels whose
// center falls inside the region.
func regionArea(geom *wcs.Geom, r CircleRegion) float64 {
	var area float64
	for iy := 0; iy < geom.NpixLat; iy++ {
		for ix := 0; ix < geom.NpixLon; ix++ {
			lon, lat := geom.WCS.PixToWorld(float64(ix), float64(iy))
			if r.Contains(lon, lat) {
				area += geom.SolidAngle(ix, iy)
			}
		}
	}
	return area
}

// insideMap keeps the regions whose center lies inside the map footprint.
func insideMap(regions []CircleRegion, geom *wcs.Geom) []CircleRegion {
	kept := regions[:0]
	for _, r := range regions {
		if geom.Contains(r.Lon, r.Lat) {
			kept = append(kept, r)
		}
	}
	return kept
}

// loThreshold returns the lower edge of the first bin where the on value
// reaches percent of the peak. Falls back to the axis minimum when the on
// spectrum is empty.
func loThreshold(axis *wcs.EnergyAxis, on []float64, percent float64) float64 {
	var peak float64
	for _, v := range on {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return axis.EMin()
	}
	cut := peak * percent / 100
	for i, v := range on {
		if v >= cut {
			return axis.Edges[i]
		}
	}
	return axis.EMin()
}

// WriteTo serializes the spectrum as YAML.
func (s *Spectrum) WriteTo(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode spectrum: %w", err)
	}
	return nil
}

// Write stores the spectrum as a YAML file, creating parent directories
// as needed.
func (s *Spectrum) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create spectrum file: %w", err)
	}
	defer f.Close()
	return s.WriteTo(f)
}

// ReadSpectrum loads a spectrum written by Write.
func ReadSpectrum(path string) (*Spectrum, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spectrum file: %w", err)
	}
	var s Spectrum
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse spectrum file: %w", err)
	}
	return &s, nil
}
