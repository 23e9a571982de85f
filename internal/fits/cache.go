package fits

import (
	"fmt"
	"os"
	"sync"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
)

// CubeCache provides thread-safe caching of loaded cubes to avoid redundant
// disk reads and FITS parsing.
//
// Cubes are keyed by their file path. Once a cube is loaded, subsequent
// Load() calls for the same path return the cached copy; the format argument
// of the first successful load wins.
//
// Cached cubes remain in memory until explicitly removed via Evict() or
// Clear(). Diffuse model cubes are large, so long-running processes should
// evict cubes they are done with.
type CubeCache struct {
	mu    sync.RWMutex
	cubes map[string]*cube.SkyCube
}

// NewCubeCache creates a new empty cube cache, ready for concurrent use.
func NewCubeCache() *CubeCache {
	return &CubeCache{
		cubes: make(map[string]*cube.SkyCube),
	}
}

// Load retrieves a cube from the cache or reads it from disk if not cached.
//
// The cube is cached using the exact path string provided. Different paths
// to the same file result in separate cache entries.
func (c *CubeCache) Load(path, format string) (*cube.SkyCube, error) {
	c.mu.RLock()
	if sc, ok := c.cubes[path]; ok {
		c.mu.RUnlock()
		return sc, nil
	}
	c.mu.RUnlock()

	sc, err := ReadCube(path, format)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cubes[path] = sc
	c.mu.Unlock()

	return sc, nil
}

// Clear removes all cubes from the cache.
func (c *CubeCache) Clear() {
	c.mu.Lock()
	c.cubes = make(map[string]*cube.SkyCube)
	c.mu.Unlock()
}

// Evict removes a specific cube from the cache by its path. If the path is
// not in the cache, this method does nothing.
func (c *CubeCache) Evict(path string) {
	c.mu.Lock()
	delete(c.cubes, path)
	c.mu.Unlock()
}

// CubeInfo contains metadata about a loaded cube file.
type CubeInfo struct {
	// Name is the cube name from the OBJECT keyword or the file name.
	Name string `json:"name"`

	// Unit is the flux unit of the cube values.
	Unit string `json:"unit"`

	// Shape is (energy bins, lat pixels, lon pixels).
	Shape []int `json:"shape"`

	// CoordSys is "GAL" or "CEL", Projection the WCS projection code.
	CoordSys   string `json:"coordsys"`
	Projection string `json:"projection"`

	// CenterLon, CenterLat are the map center in degrees.
	CenterLon float64 `json:"center_lon"`
	CenterLat float64 `json:"center_lat"`

	// WidthLon, WidthLat are the map extent in degrees.
	WidthLon float64 `json:"width_lon"`
	WidthLat float64 `json:"width_lat"`

	// EMin, EMax bracket the energy axis, in EnergyUnit.
	EMin       float64 `json:"e_min"`
	EMax       float64 `json:"e_max"`
	EnergyUnit string  `json:"energy_unit"`

	// FileSizeBytes is the size of the cube file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadCubeInfo loads a cube through the cache and returns its metadata.
func LoadCubeInfo(cache *CubeCache, path, format string) (*CubeInfo, error) {
	sc, err := cache.Load(path, format)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat cube file: %w", err)
	}

	geom := sc.Geom
	coordsys, err := geom.WCS.CoordSys()
	if err != nil {
		return nil, err
	}
	centerLon, centerLat := geom.CenterCoord()
	widthLon, widthLat := geom.Width()

	return &CubeInfo{
		Name:          sc.Name,
		Unit:          sc.Unit,
		Shape:         geom.Shape(),
		CoordSys:      coordsys,
		Projection:    geom.WCS.Projection(),
		CenterLon:     centerLon,
		CenterLat:     centerLat,
		WidthLon:      widthLon,
		WidthLat:      widthLat,
		EMin:          geom.Axis.EMin(),
		EMax:          geom.Axis.EMax(),
		EnergyUnit:    geom.Axis.Unit,
		FileSizeBytes: stat.Size(),
	}, nil
}
