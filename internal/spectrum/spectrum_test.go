package spectrum

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// uniformCube builds a cube with one uniform value per energy plane.
func uniformCube(t *testing.T, planeValues []float64) *cube.SkyCube {
	t.Helper()
	axis, err := wcs.NewEnergyAxisLog(100, 1e5, len(planeValues), "MeV")
	if err != nil {
		t.Fatalf("NewEnergyAxisLog failed: %v", err)
	}
	geom, err := wcs.CreateGeom(100, 100, 0.1, "GAL", 0, 0, axis)
	if err != nil {
		t.Fatalf("CreateGeom failed: %v", err)
	}
	data := make([]float64, 100*100*len(planeValues))
	for iE, v := range planeValues {
		for j := 0; j < 100*100; j++ {
			data[iE*100*100+j] = v
		}
	}
	c, err := cube.New("test", "1 / (cm2 MeV s sr)", geom, data)
	if err != nil {
		t.Fatalf("cube.New failed: %v", err)
	}
	return c
}

func TestCircleRegion_Contains(t *testing.T) {
	r := CircleRegion{Lon: 10, Lat: 0, Radius: 1}
	if !r.Contains(10.5, 0) {
		t.Error("point inside the radius should be contained")
	}
	if r.Contains(12, 0) {
		t.Error("point outside the radius should not be contained")
	}
	// Wrap across lon = 0.
	r = CircleRegion{Lon: 0.2, Lat: 0, Radius: 1}
	if !r.Contains(359.8, 0) {
		t.Error("containment should wrap in longitude")
	}
}

func TestReflectedRegions(t *testing.T) {
	on := CircleRegion{Lon: 2, Lat: 0, Radius: 0.3}
	regions, err := ReflectedRegions(on, 0, 0, 0)
	if err != nil {
		t.Fatalf("ReflectedRegions failed: %v", err)
	}
	if len(regions) < 10 {
		t.Fatalf("expected a full ring of regions, got %d", len(regions))
	}

	offset := wcs.AngularSeparation(0, 0, on.Lon, on.Lat)
	for i, r := range regions {
		if r.Radius != on.Radius {
			t.Errorf("region %d radius: got %g, want %g", i, r.Radius, on.Radius)
		}
		d := wcs.AngularSeparation(0, 0, r.Lon, r.Lat)
		if math.Abs(d-offset) > 1e-6 {
			t.Errorf("region %d offset: got %g, want %g", i, d, offset)
		}
		sep := wcs.AngularSeparation(on.Lon, on.Lat, r.Lon, r.Lat)
		if sep < 2*on.Radius-1e-6 {
			t.Errorf("region %d overlaps the on region, separation %g", i, sep)
		}
	}
}

func TestReflectedRegions_CenterInside(t *testing.T) {
	on := CircleRegion{Lon: 0.1, Lat: 0, Radius: 0.5}
	if _, err := ReflectedRegions(on, 0, 0, 0); err == nil {
		t.Error("reflection should fail when the on region contains the center")
	}
}

func TestExtraction_UniformBackground(t *testing.T) {
	c := uniformCube(t, []float64{1, 2, 3})
	ext := &Extraction{
		Cube:   c,
		Region: CircleRegion{Lon: 2, Lat: 0, Radius: 0.3},
	}
	spec, err := ext.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(spec.Bins) != 3 {
		t.Fatalf("bins: got %d, want 3", len(spec.Bins))
	}
	if spec.NOff < 1 || spec.Alpha <= 0 || spec.Alpha >= 1 {
		t.Fatalf("implausible background: n_off=%d alpha=%g", spec.NOff, spec.Alpha)
	}

	// A uniform map has zero excess in every bin: the off regions see the
	// same surface brightness as the on region.
	for i, b := range spec.Bins {
		if b.On <= 0 {
			t.Errorf("bin %d: on sum should be positive, got %g", i, b.On)
		}
		if math.Abs(b.Excess) > 1e-9*b.On {
			t.Errorf("bin %d: excess %g not consistent with zero (on=%g)", i, b.Excess, b.On)
		}
	}

	if spec.Unit != "1 / (cm2 MeV s sr) sr" {
		t.Errorf("unit: got %q", spec.Unit)
	}
	if spec.HiThreshold != 1e5 {
		t.Errorf("hi threshold: got %g, want 1e5", spec.HiThreshold)
	}
}

func TestExtraction_PointSource(t *testing.T) {
	c := uniformCube(t, []float64{1, 1})
	// Put a bright pixel at the on region center in both planes.
	ix, iy, ok := c.Geom.CoordToIdx(2, 0)
	if !ok {
		t.Fatal("on center is not inside the map")
	}
	c.Set(0, iy, ix, 1001)
	c.Set(1, iy, ix, 1001)
	omega := c.Geom.SolidAngle(ix, iy)

	ext := &Extraction{
		Cube:   c,
		Region: CircleRegion{Lon: 2, Lat: 0, Radius: 0.3},
	}
	spec, err := ext.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for i, b := range spec.Bins {
		want := 1000 * omega
		if math.Abs(b.Excess-want) > 1e-6*want {
			t.Errorf("bin %d: excess %g, want %g", i, b.Excess, want)
		}
	}
}

func TestExtraction_LoThreshold(t *testing.T) {
	// The first plane is far below 10% of the peak, so the safe range
	// starts at the second bin edge.
	c := uniformCube(t, []float64{0.01, 1, 1})
	ext := &Extraction{
		Cube:   c,
		Region: CircleRegion{Lon: 2, Lat: 0, Radius: 0.3},
	}
	spec, err := ext.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if want := c.Geom.Axis.Edges[1]; spec.LoThreshold != want {
		t.Errorf("lo threshold: got %g, want %g", spec.LoThreshold, want)
	}
}

func TestExtraction_ERecoRebinning(t *testing.T) {
	c := uniformCube(t, []float64{1, 2, 3, 4})
	axis := c.Geom.Axis
	region := CircleRegion{Lon: 2, Lat: 0, Radius: 0.3}

	native, err := (&Extraction{Cube: c, Region: region}).Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	eReco := []float64{axis.Edges[0], axis.Edges[2], axis.Edges[4]}
	spec, err := (&Extraction{Cube: c, Region: region, EReco: eReco}).Extract()
	if err != nil {
		t.Fatalf("Extract with reco edges failed: %v", err)
	}

	if len(spec.Bins) != 2 {
		t.Fatalf("bins: got %d, want 2", len(spec.Bins))
	}
	if spec.Bins[0].EMin != axis.Edges[0] || spec.Bins[1].EMax != axis.Edges[4] {
		t.Errorf("reco bounds: got [%g, %g]", spec.Bins[0].EMin, spec.Bins[1].EMax)
	}

	// Merged bins carry the width-weighted mean of the native values.
	for k := 0; k < 2; k++ {
		b0, b1 := native.Bins[2*k], native.Bins[2*k+1]
		w0, w1 := b0.EMax-b0.EMin, b1.EMax-b1.EMin
		want := (b0.On*w0 + b1.On*w1) / (w0 + w1)
		if math.Abs(spec.Bins[k].On-want) > 1e-9*want {
			t.Errorf("reco bin %d: on %g, want %g", k, spec.Bins[k].On, want)
		}
	}
}

func TestExtraction_ERecoMisaligned(t *testing.T) {
	c := uniformCube(t, []float64{1, 2, 3})
	ext := &Extraction{
		Cube:   c,
		Region: CircleRegion{Lon: 2, Lat: 0, Radius: 0.3},
		EReco:  []float64{150, 1e5},
	}
	if _, err := ext.Extract(); err == nil {
		t.Error("reco edges off the cube axis should fail")
	}
}

func TestExtraction_Containment(t *testing.T) {
	c := uniformCube(t, []float64{1, 1})
	ix, iy, ok := c.Geom.CoordToIdx(2, 0)
	if !ok {
		t.Fatal("on center is not inside the map")
	}
	c.Set(0, iy, ix, 1001)
	c.Set(1, iy, ix, 1001)
	region := CircleRegion{Lon: 2, Lat: 0, Radius: 0.3}

	full, err := (&Extraction{Cube: c, Region: region}).Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if full.Containment != 1 {
		t.Errorf("default containment: got %g, want 1", full.Containment)
	}

	half, err := (&Extraction{Cube: c, Region: region, Containment: 0.5}).Extract()
	if err != nil {
		t.Fatalf("Extract with containment failed: %v", err)
	}
	if half.Containment != 0.5 {
		t.Errorf("containment: got %g, want 0.5", half.Containment)
	}
	for i := range full.Bins {
		want := 2 * full.Bins[i].Excess
		if math.Abs(half.Bins[i].Excess-want) > 1e-9*math.Abs(want) {
			t.Errorf("bin %d: excess %g, want %g", i, half.Bins[i].Excess, want)
		}
	}

	bad := &Extraction{Cube: c, Region: region, Containment: 1.5}
	if _, err := bad.Extract(); err == nil {
		t.Error("containment above 1 should fail")
	}
}

func TestExtraction_Run(t *testing.T) {
	c := uniformCube(t, []float64{1, 2})
	ext := &Extraction{
		Cube:   c,
		Region: CircleRegion{Lon: 2, Lat: 0, Radius: 0.3},
	}

	dir := t.TempDir()
	spec, err := ext.Run(dir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := ReadSpectrum(filepath.Join(dir, "spectrum.yaml"))
	if err != nil {
		t.Fatalf("Run did not write a readable spectrum: %v", err)
	}
	if got.NOff != spec.NOff || len(got.Bins) != len(spec.Bins) {
		t.Errorf("written spectrum mismatch: %+v vs %+v", got, spec)
	}
}

func TestExtraction_Validation(t *testing.T) {
	if _, err := (&Extraction{}).Extract(); err == nil {
		t.Error("extraction without a cube should fail")
	}
	c := uniformCube(t, []float64{1})
	ext := &Extraction{Cube: c, Region: CircleRegion{Lon: 2, Lat: 0}}
	if _, err := ext.Extract(); err == nil {
		t.Error("extraction with zero radius should fail")
	}
}

func TestSpectrum_WriteRead(t *testing.T) {
	c := uniformCube(t, []float64{1, 2})
	ext := &Extraction{
		Cube:   c,
		Region: CircleRegion{Lon: 2, Lat: 0, Radius: 0.3},
	}
	spec, err := ext.Extract()
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "spectrum.yaml")
	if err := spec.Write(path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := ReadSpectrum(path)
	if err != nil {
		t.Fatalf("ReadSpectrum failed: %v", err)
	}
	if got.Name != spec.Name || got.NOff != spec.NOff || len(got.Bins) != len(spec.Bins) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, spec)
	}
	if got.Bins[0].On != spec.Bins[0].On {
		t.Errorf("bin values drifted: %g vs %g", got.Bins[0].On, spec.Bins[0].On)
	}
}
