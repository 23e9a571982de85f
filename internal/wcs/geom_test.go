package wcs

import (
	"math"
	"testing"
)

func testGeom(t *testing.T, npixLon, npixLat int, binsz float64) *Geom {
	t.Helper()
	g, err := CreateGeom(npixLon, npixLat, binsz, "GAL", 0, 0, nil)
	if err != nil {
		t.Fatalf("CreateGeom failed: %v", err)
	}
	return g
}

func TestCreateGeom_Center(t *testing.T) {
	g := testGeom(t, 100, 50, 0.1)

	lon, lat := g.CenterCoord()
	if math.Abs(lon) > 1e-9 && math.Abs(lon-360) > 1e-9 {
		t.Errorf("center lon: got %g, want 0", lon)
	}
	if math.Abs(lat) > 1e-9 {
		t.Errorf("center lat: got %g, want 0", lat)
	}

	wl, wb := g.Width()
	if math.Abs(wl-10) > 1e-9 || math.Abs(wb-5) > 1e-9 {
		t.Errorf("width: got (%g,%g), want (10,5)", wl, wb)
	}
}

func TestGeom_Shape(t *testing.T) {
	axis, _ := NewEnergyAxisLog(100, 10000, 5, "MeV")
	g, _ := CreateGeom(360, 180, 1.0, "GAL", 0, 0, axis)

	shape := g.Shape()
	if len(shape) != 3 || shape[0] != 5 || shape[1] != 180 || shape[2] != 360 {
		t.Errorf("shape: got %v, want [5 180 360]", shape)
	}
	if g.NDim() != 3 {
		t.Errorf("NDim: got %d, want 3", g.NDim())
	}

	img := g.ToImage()
	if img.NDim() != 2 {
		t.Errorf("image NDim: got %d, want 2", img.NDim())
	}
	if got := img.ToCube(axis).NDim(); got != 3 {
		t.Errorf("cube NDim: got %d, want 3", got)
	}
}

func TestGeom_IsAllSky(t *testing.T) {
	all, _ := CreateGeom(360, 180, 1.0, "GAL", 0, 0, nil)
	if !all.IsAllSky() {
		t.Error("360x180 at 1 deg should be all-sky")
	}
	if testGeom(t, 100, 50, 0.1).IsAllSky() {
		t.Error("10x5 deg map should not be all-sky")
	}
}

func TestGeom_Contains(t *testing.T) {
	g := testGeom(t, 100, 50, 0.1) // 10x5 deg centered on (0,0)

	tests := []struct {
		name     string
		lon, lat float64
		want     bool
	}{
		{"center", 0, 0, true},
		{"west of meridian", 359, 0, true},
		{"east of meridian", 1, 0, true},
		{"north edge inside", 0, 2.4, true},
		{"outside lat", 0, 3.0, false},
		{"outside lon", 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Contains(tt.lon, tt.lat); got != tt.want {
				t.Errorf("Contains(%g,%g): got %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestGeom_SolidAngle(t *testing.T) {
	g, _ := CreateGeom(360, 180, 1.0, "GAL", 0, 0, nil)

	// Sum of all pixel solid angles approximates the full sphere (4 pi).
	var sum float64
	for iy := 0; iy < g.NpixLat; iy++ {
		for ix := 0; ix < g.NpixLon; ix++ {
			sum += g.SolidAngle(ix, iy)
		}
	}
	if math.Abs(sum-4*math.Pi)/(4*math.Pi) > 0.01 {
		t.Errorf("solid angle sum: got %g, want ~%g", sum, 4*math.Pi)
	}

	// Pixels shrink toward the poles under the corner approximation.
	equator := g.SolidAngle(0, 90)
	pole := g.SolidAngle(0, 0)
	if pole >= equator {
		t.Errorf("polar pixel (%g) should be smaller than equatorial (%g)", pole, equator)
	}
}

func TestGeom_DownsampleUpsample(t *testing.T) {
	g := testGeom(t, 100, 50, 0.1)

	down, err := g.Downsample(2)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}
	if down.NpixLon != 50 || down.NpixLat != 25 {
		t.Errorf("downsampled size: got %dx%d, want 50x25", down.NpixLon, down.NpixLat)
	}

	// The sky footprint is unchanged.
	w0l, w0b := g.Width()
	w1l, w1b := down.Width()
	if math.Abs(w0l-w1l) > 1e-9 || math.Abs(w0b-w1b) > 1e-9 {
		t.Errorf("width changed: got (%g,%g), want (%g,%g)", w1l, w1b, w0l, w0b)
	}

	// And so is the center coordinate.
	lon0, lat0 := g.CenterCoord()
	lon1, lat1 := down.CenterCoord()
	if math.Abs(lon0-lon1) > 1e-9 || math.Abs(lat0-lat1) > 1e-9 {
		t.Errorf("center moved: got (%g,%g), want (%g,%g)", lon1, lat1, lon0, lat0)
	}

	up, err := down.Upsample(2)
	if err != nil {
		t.Fatalf("Upsample failed: %v", err)
	}
	if up.NpixLon != 100 || up.NpixLat != 50 {
		t.Errorf("upsampled size: got %dx%d, want 100x50", up.NpixLon, up.NpixLat)
	}
	if math.Abs(up.WCS.CRPix1-g.WCS.CRPix1) > 1e-9 {
		t.Errorf("CRPix1 not restored: got %g, want %g", up.WCS.CRPix1, g.WCS.CRPix1)
	}
}

func TestGeom_Downsample_NotDivisible(t *testing.T) {
	g := testGeom(t, 100, 50, 0.1)
	if _, err := g.Downsample(3); err == nil {
		t.Error("Downsample should fail when the shape is not divisible")
	}
}

func TestGeom_PadCrop(t *testing.T) {
	g := testGeom(t, 100, 50, 0.1)

	padded, err := g.Pad(10)
	if err != nil {
		t.Fatalf("Pad failed: %v", err)
	}
	if padded.NpixLon != 120 || padded.NpixLat != 70 {
		t.Fatalf("padded size: got %dx%d, want 120x70", padded.NpixLon, padded.NpixLat)
	}

	cropped, err := padded.Crop(10)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.NpixLon != g.NpixLon || cropped.NpixLat != g.NpixLat {
		t.Errorf("crop did not undo pad: got %dx%d", cropped.NpixLon, cropped.NpixLat)
	}
	if math.Abs(cropped.WCS.CRPix1-g.WCS.CRPix1) > 1e-9 {
		t.Errorf("CRPix1 not restored: got %g, want %g", cropped.WCS.CRPix1, g.WCS.CRPix1)
	}

	if _, err := g.Crop(25); err == nil {
		t.Error("Crop should fail when nothing would remain")
	}

	if _, err := g.Pad(-1); err == nil {
		t.Error("Pad should fail for a negative width")
	}
}
