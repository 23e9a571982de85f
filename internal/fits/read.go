package fits

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/astrogo/fitsio"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
	"github.com/orionlab/cube-tools-mcp/internal/wcs"
)

// Serialization format conventions accepted by ReadCube.
const (
	FormatAuto            = ""
	FormatFermiBackground = "fermi-background"
	FormatFGSTCcube       = "fgst-ccube"
	FormatGADF            = "gadf"
)

// DefaultFluxUnit is assumed when a cube file carries no BUNIT keyword.
const DefaultFluxUnit = "1 / (cm2 MeV s sr)"

// ReadCube reads a sky cube from a FITS file.
//
// Parameters:
//   - path: File to read.
//   - format: One of "fermi-background", "fgst-ccube", "gadf", or "" to
//     discover the convention from the file itself.
//
// Returns an error when the file is not a 3D image cube, when the requested
// bands HDU is missing, or when the header does not describe a supported
// CAR projection.
func ReadCube(path, format string) (*cube.SkyCube, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cube file: %w", err)
	}
	defer r.Close()

	f, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse FITS file: %w", err)
	}
	defer f.Close()

	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("primary HDU is not an image")
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) != 3 {
		return nil, fmt.Errorf("expected a 3D cube, got %d axes", len(axes))
	}
	nx, ny, ne := axes[0], axes[1], axes[2]

	w, err := wcsFromHeader(hdr)
	if err != nil {
		return nil, err
	}

	if format == FormatAuto {
		format = discoverFormat(f)
	}

	axis, err := readEnergyAxis(f, hdr, format, ne)
	if err != nil {
		return nil, err
	}
	if axis.NBins() != ne {
		return nil, fmt.Errorf("energy axis has %d bins but cube has %d planes", axis.NBins(), ne)
	}

	data, err := readImageData(img, hdr.Bitpix(), nx*ny*ne)
	if err != nil {
		return nil, err
	}

	geom, err := wcs.NewGeom(w, nx, ny, axis)
	if err != nil {
		return nil, err
	}

	unit := DefaultFluxUnit
	if card := hdr.Get("BUNIT"); card != nil {
		if s, ok := card.Value.(string); ok && s != "" {
			unit = s
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if card := hdr.Get("OBJECT"); card != nil {
		if s, ok := card.Value.(string); ok && s != "" {
			name = s
		}
	}

	return cube.New(name, unit, geom, data)
}

// discoverFormat inspects the HDU names to identify the serialization
// convention, defaulting to the header-axis convention.
func discoverFormat(f *fitsio.File) string {
	for _, hdu := range f.HDUs() {
		switch strings.ToUpper(hdu.Name()) {
		case "ENERGIES":
			return FormatFermiBackground
		case "EBOUNDS":
			return FormatFGSTCcube
		}
	}
	return FormatGADF
}

// readEnergyAxis builds the cube energy axis for the given convention.
func readEnergyAxis(f *fitsio.File, hdr *fitsio.Header, format string, ne int) (*wcs.EnergyAxis, error) {
	switch format {
	case FormatFermiBackground:
		tbl, err := findTable(f, "ENERGIES")
		if err != nil {
			return nil, err
		}
		nodes, err := readEnergiesTable(tbl)
		if err != nil {
			return nil, err
		}
		return wcs.NewEnergyAxisFromNodes(nodes, "MeV")

	case FormatFGSTCcube:
		tbl, err := findTable(f, "EBOUNDS")
		if err != nil {
			return nil, err
		}
		edges, err := readEboundsTable(tbl)
		if err != nil {
			return nil, err
		}
		// EBOUNDS energies are keV per the FGST convention; convert so
		// every cube carries MeV.
		for i := range edges {
			edges[i] /= 1000
		}
		return wcs.NewEnergyAxisFromEdges(edges, "MeV")

	case FormatGADF:
		return energyAxisFromHeader(hdr, ne)

	default:
		return nil, fmt.Errorf("unknown cube format: %s", format)
	}
}

// findTable locates a binary table HDU by name.
func findTable(f *fitsio.File, name string) (*fitsio.Table, error) {
	for _, hdu := range f.HDUs() {
		if !strings.EqualFold(hdu.Name(), name) {
			continue
		}
		tbl, ok := hdu.(*fitsio.Table)
		if !ok {
			return nil, fmt.Errorf("HDU %s is not a table", name)
		}
		return tbl, nil
	}
	return nil, fmt.Errorf("no %s table in file", name)
}

// readEnergiesTable reads the per-plane energies from an ENERGIES table.
func readEnergiesTable(tbl *fitsio.Table) ([]float64, error) {
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("failed to read ENERGIES table: %w", err)
	}
	defer rows.Close()

	var nodes []float64
	for rows.Next() {
		rec := struct {
			Energy float64 `fits:"Energy"`
		}{}
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("failed to scan ENERGIES row: %w", err)
		}
		nodes = append(nodes, rec.Energy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ENERGIES table: %w", err)
	}
	return nodes, nil
}

// readEboundsTable reads the bin edges from an EBOUNDS table. Adjacent bins
// are required to be contiguous.
func readEboundsTable(tbl *fitsio.Table) ([]float64, error) {
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("failed to read EBOUNDS table: %w", err)
	}
	defer rows.Close()

	var edges []float64
	for rows.Next() {
		rec := struct {
			EMin float64 `fits:"E_MIN"`
			EMax float64 `fits:"E_MAX"`
		}{}
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("failed to scan EBOUNDS row: %w", err)
		}
		if len(edges) == 0 {
			edges = append(edges, rec.EMin)
		} else if rel := (rec.EMin - edges[len(edges)-1]) / rec.EMin; rel > 1e-6 || rel < -1e-6 {
			return nil, fmt.Errorf("EBOUNDS bins are not contiguous at %g", rec.EMin)
		}
		edges = append(edges, rec.EMax)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate EBOUNDS table: %w", err)
	}
	return edges, nil
}

// energyAxisFromHeader reconstructs the energy axis from a third WCS axis.
// The nodes are spaced logarithmically with the constant ratio
// (CDELT3+CRVAL3)/CRVAL3, so node_i = CRVAL3 * ratio^i.
func energyAxisFromHeader(hdr *fitsio.Header, ne int) (*wcs.EnergyAxis, error) {
	ctype3 := headerString(hdr, "CTYPE3")
	if !strings.EqualFold(ctype3, "Energy") {
		return nil, fmt.Errorf("CTYPE3 is %q, not an energy axis", ctype3)
	}
	crval3, ok := headerFloat(hdr, "CRVAL3")
	if !ok {
		return nil, fmt.Errorf("missing CRVAL3 for header energy axis")
	}
	cdelt3, ok := headerFloat(hdr, "CDELT3")
	if !ok {
		return nil, fmt.Errorf("missing CDELT3 for header energy axis")
	}
	if crval3 <= 0 || cdelt3 <= 0 {
		return nil, fmt.Errorf("header energy axis needs positive CRVAL3 and CDELT3, got %g and %g",
			crval3, cdelt3)
	}

	unit := headerString(hdr, "CUNIT3")
	if unit == "" {
		unit = "MeV"
	}

	ratio := (cdelt3 + crval3) / crval3
	nodes := make([]float64, ne)
	nodes[0] = crval3
	for i := 1; i < ne; i++ {
		nodes[i] = nodes[i-1] * ratio
	}
	return wcs.NewEnergyAxisFromNodes(nodes, unit)
}

// wcsFromHeader parses the spatial WCS keywords of a cube header.
func wcsFromHeader(hdr *fitsio.Header) (*wcs.WCS, error) {
	w := &wcs.WCS{
		CType1: headerString(hdr, "CTYPE1"),
		CType2: headerString(hdr, "CTYPE2"),
		CRPix1: 1,
		CRPix2: 1,
	}
	if _, err := w.CoordSys(); err != nil {
		return nil, err
	}
	if w.Projection() != "CAR" {
		return nil, fmt.Errorf("unsupported projection: %q", w.Projection())
	}

	var ok bool
	if w.CRVal1, ok = headerFloat(hdr, "CRVAL1"); !ok {
		return nil, fmt.Errorf("missing CRVAL1")
	}
	if w.CRVal2, ok = headerFloat(hdr, "CRVAL2"); !ok {
		return nil, fmt.Errorf("missing CRVAL2")
	}
	if w.CDelt1, ok = headerFloat(hdr, "CDELT1"); !ok {
		return nil, fmt.Errorf("missing CDELT1")
	}
	if w.CDelt2, ok = headerFloat(hdr, "CDELT2"); !ok {
		return nil, fmt.Errorf("missing CDELT2")
	}
	if v, ok := headerFloat(hdr, "CRPIX1"); ok {
		w.CRPix1 = v
	}
	if v, ok := headerFloat(hdr, "CRPIX2"); ok {
		w.CRPix2 = v
	}
	return w, nil
}

// readImageData reads the primary image into float64, converting from the
// on-disk pixel type.
func readImageData(img fitsio.Image, bitpix, n int) ([]float64, error) {
	switch bitpix {
	case -64:
		data := make([]float64, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("failed to read cube data: %w", err)
		}
		return data, nil
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("failed to read cube data: %w", err)
		}
		data := make([]float64, n)
		for i, v := range raw {
			data[i] = float64(v)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported pixel type BITPIX=%d", bitpix)
	}
}

func headerString(hdr *fitsio.Header, name string) string {
	card := hdr.Get(name)
	if card == nil {
		return ""
	}
	s, _ := card.Value.(string)
	return s
}

func headerFloat(hdr *fitsio.Header, name string) (float64, bool) {
	card := hdr.Get(name)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
