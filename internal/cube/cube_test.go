package cube

import (
	"math"
	"strings"
	"testing"

	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// powerLawCube builds a cube whose every pixel carries the spectrum
// f(E) = norm * (E / 1000)^index over nbins log bins in [emin, emax] MeV.
func powerLawCube(t *testing.T, nlon, nlat, nbins int, norm, index float64) *SkyCube {
	t.Helper()

	axis, err := wcs.NewEnergyAxisLog(100, 100000, nbins, "MeV")
	if err != nil {
		t.Fatalf("NewEnergyAxisLog failed: %v", err)
	}
	geom, err := wcs.CreateGeom(nlon, nlat, 0.5, "GAL", 0, 0, axis)
	if err != nil {
		t.Fatalf("CreateGeom failed: %v", err)
	}
	c, err := NewEmpty("test", "1 / (cm2 MeV s sr)", geom)
	if err != nil {
		t.Fatalf("NewEmpty failed: %v", err)
	}

	for iE := 0; iE < nbins; iE++ {
		f := norm * math.Pow(axis.Center(iE)/1000, index)
		for iy := 0; iy < nlat; iy++ {
			for ix := 0; ix < nlon; ix++ {
				c.Set(iE, iy, ix, f)
			}
		}
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	axis, _ := wcs.NewEnergyAxisLog(100, 1000, 2, "MeV")
	geom, _ := wcs.CreateGeom(4, 4, 1, "GAL", 0, 0, axis)

	if _, err := New("c", "", geom, make([]float64, 5)); err == nil {
		t.Error("New should fail for mismatched data length")
	}

	img := geom.ToImage()
	if _, err := New("c", "", img, make([]float64, 16)); err == nil {
		t.Error("New should fail for a geometry without an energy axis")
	}
}

func TestSkyCube_Indexing(t *testing.T) {
	c := powerLawCube(t, 6, 4, 3, 1, 0)
	c.Set(2, 3, 5, 42)

	if got := c.At(2, 3, 5); got != 42 {
		t.Errorf("At: got %g, want 42", got)
	}
	// FITS order: lon fastest.
	if got := c.Data[5+6*(3+4*2)]; got != 42 {
		t.Errorf("flat layout: got %g, want 42", got)
	}
}

func TestSkyCube_String(t *testing.T) {
	c := powerLawCube(t, 360, 180, 30, 1e-6, -2.1)
	s := c.String()

	for _, want := range []string{
		`SkyCube "test"`,
		"shape  : (30, 180, 360)",
		"unit   : 1 / (cm2 MeV s sr)",
		"GLON-CAR / GLAT-CAR",
		"30 bins",
		"MeV",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}

func TestSkyCube_FluxAt(t *testing.T) {
	c := powerLawCube(t, 10, 10, 20, 2e-6, -2)

	// On a pure power law, log-log interpolation is exact at any energy.
	for _, e := range []float64{150, 1000, 5000, 80000} {
		got, err := c.FluxAt(0, 0, e)
		if err != nil {
			t.Fatalf("FluxAt(%g) failed: %v", e, err)
		}
		want := 2e-6 * math.Pow(e/1000, -2)
		if math.Abs(got-want)/want > 1e-9 {
			t.Errorf("FluxAt(%g): got %g, want %g", e, got, want)
		}
	}
}

func TestSkyCube_FluxAt_Errors(t *testing.T) {
	c := powerLawCube(t, 10, 10, 5, 1, -2)

	if _, err := c.FluxAt(90, 0, 1000); err == nil {
		t.Error("FluxAt should fail outside the map")
	}
	if _, err := c.FluxAt(0, 0, 10); err == nil {
		t.Error("FluxAt should fail below the energy axis")
	}
	if _, err := c.FluxAt(0, 0, 1e7); err == nil {
		t.Error("FluxAt should fail above the energy axis")
	}
}

func TestSkyCube_Plane(t *testing.T) {
	c := powerLawCube(t, 8, 6, 4, 1e-5, -1.5)

	img, err := c.Plane(2)
	if err != nil {
		t.Fatalf("Plane failed: %v", err)
	}
	if img.Geom.NDim() != 2 {
		t.Errorf("plane geometry NDim: got %d, want 2", img.Geom.NDim())
	}
	want := c.At(2, 0, 0)
	if got := img.At(0, 0); got != want {
		t.Errorf("plane value: got %g, want %g", got, want)
	}

	if _, err := c.Plane(4); err == nil {
		t.Error("Plane should fail for an out-of-range index")
	}
}

func TestSkyCube_SkyImageAt(t *testing.T) {
	c := powerLawCube(t, 8, 6, 4, 1e-5, -1.5)

	img, err := c.SkyImageAt(500)
	if err != nil {
		t.Fatalf("SkyImageAt failed: %v", err)
	}
	iE := c.Geom.Axis.CoordToIdx(500)
	if want := c.At(iE, 3, 3); img.At(3, 3) != want {
		t.Errorf("plane value: got %g, want %g", img.At(3, 3), want)
	}

	if _, err := c.SkyImageAt(1); err == nil {
		t.Error("SkyImageAt should fail outside the axis")
	}
}

func TestSkyImageIntegral_PowerLaw(t *testing.T) {
	// For f(E) = N (E/1000)^-2 the integral over [a, b] is
	// N * 1000^2 * (1/a - 1/b).
	norm := 3e-6
	c := powerLawCube(t, 4, 4, 40, norm, -2)

	tests := []struct {
		name       string
		emin, emax float64
	}{
		{"interior range", 500, 20000},
		{"full axis", 100, 100000},
		{"clipped below", 10, 1000},
		{"clipped above", 10000, 1e7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := c.SkyImageIntegral(tt.emin, tt.emax)
			if err != nil {
				t.Fatalf("SkyImageIntegral failed: %v", err)
			}

			a := math.Max(tt.emin, 100)
			b := math.Min(tt.emax, 100000)
			want := norm * 1000 * 1000 * (1/a - 1/b)
			got := img.At(2, 2)
			if math.Abs(got-want)/want > 1e-6 {
				t.Errorf("integral: got %g, want %g", got, want)
			}
		})
	}
}

func TestSkyImageIntegral_Unit(t *testing.T) {
	c := powerLawCube(t, 4, 4, 10, 1e-6, -2)

	img, err := c.SkyImageIntegral(200, 2000)
	if err != nil {
		t.Fatalf("SkyImageIntegral failed: %v", err)
	}
	if img.Unit != "1 / (cm2 s sr)" {
		t.Errorf("integral unit: got %q, want %q", img.Unit, "1 / (cm2 s sr)")
	}
}

func TestSkyImageIntegral_Errors(t *testing.T) {
	c := powerLawCube(t, 4, 4, 10, 1e-6, -2)

	if _, err := c.SkyImageIntegral(2000, 200); err == nil {
		t.Error("should fail for inverted bounds")
	}
	if _, err := c.SkyImageIntegral(0, 200); err == nil {
		t.Error("should fail for non-positive emin")
	}
	if _, err := c.SkyImageIntegral(1e7, 1e8); err == nil {
		t.Error("should fail for a range outside the axis")
	}
}

func TestIntegralUnit(t *testing.T) {
	tests := []struct {
		name string
		unit string
		want string
	}{
		{"fermi diffuse", "1 / (cm2 MeV s sr)", "1 / (cm2 s sr)"},
		{"leading factor", "(MeV s)-1", "(s)-1"},
		{"empty", "", "MeV"},
		{"no energy factor", "1 / (cm2 s sr)", "1 / (cm2 s sr) * MeV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := integralUnit(tt.unit, "MeV"); got != tt.want {
				t.Errorf("integralUnit(%q): got %q, want %q", tt.unit, got, tt.want)
			}
		})
	}
}

func TestTrapzLogLog_GammaMinusOne(t *testing.T) {
	// f(E) = 1/E integrates to log(b/a).
	x := []float64{10, 100}
	y := []float64{0.1, 0.01}
	got := trapzLogLog(x, y)
	want := math.Log(10.0)
	if math.Abs(got-want)/want > 1e-9 {
		t.Errorf("trapzLogLog: got %g, want %g", got, want)
	}
}

func TestTrapzLogLog_NonPositiveFallsBack(t *testing.T) {
	// A zero value forces the ordinary trapezoid: 0.5*(0+4)*(2-1) = 2.
	x := []float64{1, 2}
	y := []float64{0, 4}
	if got := trapzLogLog(x, y); got != 2 {
		t.Errorf("linear fallback: got %g, want 2", got)
	}
}
