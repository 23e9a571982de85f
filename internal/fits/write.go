package fits

import (
	"fmt"
	"io"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
)

// WriteCube writes a sky cube to path in the fermi-background convention:
// a 64-bit float primary image followed by an ENERGIES table with the node
// energy of each plane. Cubes written this way round-trip through ReadCube
// regardless of the energy bin spacing.
func WriteCube(path string, c *cube.SkyCube) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cube file: %w", err)
	}
	defer w.Close()
	return writeCube(w, c)
}

func writeCube(w io.Writer, c *cube.SkyCube) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("failed to create FITS file: %w", err)
	}
	defer f.Close()

	geom := c.Geom
	axis := geom.Axis

	img := fitsio.NewImage(-64, []int{geom.NpixLon, geom.NpixLat, axis.NBins()})
	defer img.Close()

	err = img.Header().Append(
		fitsio.Card{Name: "OBJECT", Value: c.Name, Comment: "cube name"},
		fitsio.Card{Name: "BUNIT", Value: c.Unit, Comment: "flux unit"},
		fitsio.Card{Name: "CTYPE1", Value: geom.WCS.CType1},
		fitsio.Card{Name: "CRVAL1", Value: geom.WCS.CRVal1, Comment: "deg"},
		fitsio.Card{Name: "CRPIX1", Value: geom.WCS.CRPix1},
		fitsio.Card{Name: "CDELT1", Value: geom.WCS.CDelt1, Comment: "deg/pixel"},
		fitsio.Card{Name: "CTYPE2", Value: geom.WCS.CType2},
		fitsio.Card{Name: "CRVAL2", Value: geom.WCS.CRVal2, Comment: "deg"},
		fitsio.Card{Name: "CRPIX2", Value: geom.WCS.CRPix2},
		fitsio.Card{Name: "CDELT2", Value: geom.WCS.CDelt2, Comment: "deg/pixel"},
	)
	if err != nil {
		return fmt.Errorf("failed to build cube header: %w", err)
	}

	if err := img.Write(&c.Data); err != nil {
		return fmt.Errorf("failed to write cube data: %w", err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("failed to write primary HDU: %w", err)
	}

	tbl, err := fitsio.NewTable("ENERGIES", []fitsio.Column{
		{Name: "Energy", Format: "D", Unit: axis.Unit},
	}, fitsio.BINARY_TBL)
	if err != nil {
		return fmt.Errorf("failed to create ENERGIES table: %w", err)
	}
	defer tbl.Close()

	for i := 0; i < axis.NBins(); i++ {
		rec := struct {
			Energy float64 `fits:"Energy"`
		}{Energy: axis.Center(i)}
		if err := tbl.Write(&rec); err != nil {
			return fmt.Errorf("failed to write ENERGIES row: %w", err)
		}
	}
	if err := f.Write(tbl); err != nil {
		return fmt.Errorf("failed to write ENERGIES HDU: %w", err)
	}

	return nil
}
