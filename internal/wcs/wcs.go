package wcs

import (
	"fmt"
	"math"
	"strings"
)

// Coordinate system identifiers, matching the values used in FITS headers.
const (
	CoordSysGalactic   = "GAL"
	CoordSysEquatorial = "CEL"
)

// WCS holds the parameters of a CAR (plate carrée) projection.
//
// Fields mirror the corresponding FITS header keywords. CRPix values are
// 1-based per the FITS convention; all methods accept and return 0-based
// pixel coordinates.
type WCS struct {
	CType1 string  // Longitude axis type, e.g. "GLON-CAR"
	CType2 string  // Latitude axis type, e.g. "GLAT-CAR"
	CRVal1 float64 // Reference longitude in deg
	CRVal2 float64 // Reference latitude in deg
	CRPix1 float64 // Reference pixel on the longitude axis (1-based)
	CRPix2 float64 // Reference pixel on the latitude axis (1-based)
	CDelt1 float64 // Longitude pixel scale in deg (negative by convention)
	CDelt2 float64 // Latitude pixel scale in deg
}

// New creates a WCS for the given reference point and pixel scale.
//
// Parameters:
//   - lonRef, latRef: Sky coordinate of the reference point in deg.
//   - coordsys: "GAL" or "CEL".
//   - proj: Projection code; only "CAR" is supported.
//   - cdelt: Pixel scale in deg. The longitude scale is stored negated so
//     longitude increases to the left, the standard astronomical convention.
//   - crpix1, crpix2: Reference pixel (1-based).
//
// Returns an error for an unrecognized coordinate system or projection.
func New(lonRef, latRef float64, coordsys, proj string, cdelt, crpix1, crpix2 float64) (*WCS, error) {
	if proj != "CAR" {
		return nil, fmt.Errorf("unsupported projection: %s", proj)
	}

	w := &WCS{
		CRVal1: lonRef,
		CRVal2: latRef,
		CRPix1: crpix1,
		CRPix2: crpix2,
		CDelt1: -cdelt,
		CDelt2: cdelt,
	}

	switch coordsys {
	case CoordSysEquatorial:
		w.CType1 = "RA---" + proj
		w.CType2 = "DEC--" + proj
	case CoordSysGalactic:
		w.CType1 = "GLON-" + proj
		w.CType2 = "GLAT-" + proj
	default:
		return nil, fmt.Errorf("unrecognized coordinate system: %s", coordsys)
	}

	return w, nil
}

// CoordSys returns the coordinate system of the projection, either Galactic
// ("GAL") or equatorial ("CEL").
func (w *WCS) CoordSys() (string, error) {
	switch {
	case strings.HasPrefix(w.CType1, "RA"):
		return CoordSysEquatorial, nil
	case strings.HasPrefix(w.CType1, "GLON"):
		return CoordSysGalactic, nil
	default:
		return "", fmt.Errorf("unrecognized WCS coordinate system: %s", w.CType1)
	}
}

// IsGalactic reports whether the projection uses Galactic coordinates.
func (w *WCS) IsGalactic() bool {
	sys, err := w.CoordSys()
	return err == nil && sys == CoordSysGalactic
}

// Projection returns the projection code encoded in CTYPE1 (e.g. "CAR").
func (w *WCS) Projection() string {
	if len(w.CType1) < 6 {
		return ""
	}
	return w.CType1[5:]
}

// PixToWorld converts a 0-based pixel coordinate to a sky coordinate in deg.
// The returned longitude is normalized to [0, 360).
func (w *WCS) PixToWorld(px, py float64) (lon, lat float64) {
	lon = w.CRVal1 + w.CDelt1*(px-(w.CRPix1-1))
	lat = w.CRVal2 + w.CDelt2*(py-(w.CRPix2-1))
	return normalizeLon(lon), lat
}

// WorldToPix converts a sky coordinate in deg to a 0-based pixel coordinate.
// Longitude wraparound is resolved toward the reference point, so positions
// on either side of the meridian map to the nearest pixel offset.
func (w *WCS) WorldToPix(lon, lat float64) (px, py float64) {
	dlon := wrapDelta(lon - w.CRVal1)
	px = dlon/w.CDelt1 + (w.CRPix1 - 1)
	py = (lat-w.CRVal2)/w.CDelt2 + (w.CRPix2 - 1)
	return px, py
}

// AngularSeparation computes the great-circle separation in deg between two
// sky positions given in deg.
func AngularSeparation(lon1, lat1, lon2, lat2 float64) float64 {
	l1 := lon1 * math.Pi / 180
	b1 := lat1 * math.Pi / 180
	l2 := lon2 * math.Pi / 180
	b2 := lat2 * math.Pi / 180

	// Vincenty formula, stable at small and antipodal separations.
	dl := l2 - l1
	num := math.Hypot(
		math.Cos(b2)*math.Sin(dl),
		math.Cos(b1)*math.Sin(b2)-math.Sin(b1)*math.Cos(b2)*math.Cos(dl),
	)
	den := math.Sin(b1)*math.Sin(b2) + math.Cos(b1)*math.Cos(b2)*math.Cos(dl)
	return math.Atan2(num, den) * 180 / math.Pi
}

// normalizeLon maps a longitude in deg to [0, 360).
func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// wrapDelta maps a longitude difference in deg to (-180, 180].
func wrapDelta(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}
