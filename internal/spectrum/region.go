package spectrum

import (
	"fmt"
	"math"

	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// CircleRegion is a circular sky region.
type CircleRegion struct {
	// Lon, Lat are the region center in degrees.
	Lon float64 `yaml:"lon" json:"lon"`
	Lat float64 `yaml:"lat" json:"lat"`

	// Radius is the region radius in degrees.
	Radius float64 `yaml:"radius" json:"radius"`
}

// Contains reports whether a sky position falls inside the region.
func (r CircleRegion) Contains(lon, lat float64) bool {
	return wcs.AngularSeparation(lon, lat, r.Lon, r.Lat) <= r.Radius
}

// ReflectedRegions places background regions by rotating the on region
// around a pointing center. Every returned region has the same radius and
// the same offset from the center as the on region, and none overlaps it.
//
// Parameters:
//   - on: The on region to reflect.
//   - centerLon, centerLat: Pointing center in degrees.
//   - minDistance: Extra angular gap in degrees kept between the on region
//     and the nearest reflected region, measured as rotation angle. Use 0
//     for touching placement.
//
// Returns an error when the on region contains the pointing center, since
// no rotation can then move it off itself.
func ReflectedRegions(on CircleRegion, centerLon, centerLat, minDistance float64) ([]CircleRegion, error) {
	offset := wcs.AngularSeparation(centerLon, centerLat, on.Lon, on.Lat)
	if offset <= on.Radius {
		return nil, fmt.Errorf("on region (radius %g deg) contains the pointing center (offset %g deg)", on.Radius, offset)
	}

	// Opening angle of the region as seen from the pointing center.
	ratio := deg2rad(on.Radius) / math.Sin(deg2rad(offset))
	if ratio >= 1 {
		return nil, fmt.Errorf("on region too close to the pointing center to reflect (offset %g deg, radius %g deg)", offset, on.Radius)
	}
	opening := 2 * math.Asin(ratio)
	exclusion := opening + deg2rad(minDistance)

	bearing0 := bearing(centerLon, centerLat, on.Lon, on.Lat)

	regions := make([]CircleRegion, 0)
	for a := exclusion; a <= 2*math.Pi-exclusion; a += opening {
		lon, lat := destination(centerLon, centerLat, bearing0+a, offset)
		regions = append(regions, CircleRegion{Lon: lon, Lat: lat, Radius: on.Radius})
	}
	return regions, nil
}

// bearing returns the initial bearing in radians from (lon1, lat1) towards
// (lon2, lat2) on the sphere.
func bearing(lon1, lat1, lon2, lat2 float64) float64 {
	p1, p2 := deg2rad(lat1), deg2rad(lat2)
	dl := deg2rad(lon2 - lon1)
	y := math.Sin(dl) * math.Cos(p2)
	x := math.Cos(p1)*math.Sin(p2) - math.Sin(p1)*math.Cos(p2)*math.Cos(dl)
	return math.Atan2(y, x)
}

// destination returns the point reached from (lon, lat) after traveling
// dist degrees along the given initial bearing in radians.
func destination(lon, lat, brng, dist float64) (dlon, dlat float64) {
	p1 := deg2rad(lat)
	d := deg2rad(dist)

	p2 := math.Asin(math.Sin(p1)*math.Cos(d) + math.Cos(p1)*math.Sin(d)*math.Cos(brng))
	l2 := deg2rad(lon) + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(p1),
		math.Cos(d)-math.Sin(p1)*math.Sin(p2),
	)
	return rad2deg(l2), rad2deg(p2)
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
