package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/orionlab/cube-tools-mcp/internal/fits"
)

func infoCmd() *cobra.Command {
	var (
		format      string
		printFormat string
	)

	cmd := &cobra.Command{
		Use:   "info <cube.fits>",
		Short: "Print geometry, energy axis and units of a cube file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := fits.NewCubeCache()
			info, err := fits.LoadCubeInfo(cache, args[0], format)
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), info, printFormat)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "cube file layout (fermi-background, fgst-ccube, gadf); discovered when empty")
	cmd.Flags().StringVar(&printFormat, "print", "pretty", "output format (pretty, json)")
	return cmd
}

func printInfo(w io.Writer, info *fits.CubeInfo, format string) error {
	switch format {
	case "pretty":
		fmt.Fprintf(w, "name       : %s\n", info.Name)
		fmt.Fprintf(w, "unit       : %s\n", info.Unit)
		fmt.Fprintf(w, "shape      : (%d, %d, %d)\n", info.Shape[0], info.Shape[1], info.Shape[2])
		fmt.Fprintf(w, "coordsys   : %s / %s\n", info.CoordSys, info.Projection)
		fmt.Fprintf(w, "center     : (%.3f, %.3f) deg\n", info.CenterLon, info.CenterLat)
		fmt.Fprintf(w, "width      : %.3f x %.3f deg\n", info.WidthLon, info.WidthLat)
		fmt.Fprintf(w, "energy     : %.3e .. %.3e %s\n", info.EMin, info.EMax, info.EnergyUnit)
		fmt.Fprintf(w, "file size  : %d bytes\n", info.FileSizeBytes)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
