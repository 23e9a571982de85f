package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/orionlab/cube-tools-mcp/internal/spectrum"
)

func spectrumCmd() *cobra.Command {
	var (
		format    string
		output    string
		lon       float64
		lat       float64
		radius      float64
		centerLon   float64
		centerLat   float64
		minOff      int
		loPercent   float64
		containment float64
		printFmt    string
	)

	cmd := &cobra.Command{
		Use:   "spectrum <cube.fits>",
		Short: "Extract a region spectrum with reflected background regions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCube(args[0], format)
			if err != nil {
				return err
			}

			cLon, cLat := centerLon, centerLat
			if !cmd.Flags().Changed("center-lon") && !cmd.Flags().Changed("center-lat") {
				cLon, cLat = c.Geom.CenterCoord()
			}

			ext := spectrum.Extraction{
				Cube:               c,
				Region:             spectrum.CircleRegion{Lon: lon, Lat: lat, Radius: radius},
				CenterLon:          cLon,
				CenterLat:          cLat,
				MinOffRegions:      minOff,
				LoThresholdPercent: loPercent,
				Containment:        containment,
			}
			spec, err := ext.Extract()
			if err != nil {
				return err
			}

			if output != "" {
				if err := spec.Write(output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bins)\n", output, len(spec.Bins))
				return nil
			}
			return printSpectrum(cmd.OutOrStdout(), spec, printFmt)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "cube file layout (fermi-background, fgst-ccube, gadf); discovered when empty")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the spectrum to this YAML file instead of stdout")
	cmd.Flags().Float64Var(&lon, "lon", 0, "region center longitude in degrees")
	cmd.Flags().Float64Var(&lat, "lat", 0, "region center latitude in degrees")
	cmd.Flags().Float64Var(&radius, "radius", 0, "region radius in degrees")
	cmd.Flags().Float64Var(&centerLon, "center-lon", 0, "reflection center longitude; defaults to the map center")
	cmd.Flags().Float64Var(&centerLat, "center-lat", 0, "reflection center latitude; defaults to the map center")
	cmd.Flags().IntVar(&minOff, "min-off", 1, "minimum number of background regions")
	cmd.Flags().Float64Var(&loPercent, "lo-threshold", spectrum.DefaultLoThresholdPercent, "safe-range threshold as a percent of the peak bin")
	cmd.Flags().Float64Var(&containment, "containment", 1, "on-region containment fraction the excess is divided by")
	cmd.Flags().StringVar(&printFmt, "print", "pretty", "output format (pretty, json)")
	cmd.MarkFlagRequired("lon")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("radius")
	return cmd
}

func printSpectrum(w io.Writer, spec *spectrum.Spectrum, format string) error {
	switch format {
	case "pretty":
		fmt.Fprintf(w, "spectrum %q  unit=%s\n", spec.Name, spec.Unit)
		fmt.Fprintf(w, "alpha=%.4f  n_off=%d  safe range: %.3e .. %.3e %s\n",
			spec.Alpha, spec.NOff, spec.LoThreshold, spec.HiThreshold, spec.EnergyUnit)
		fmt.Fprintf(w, "%12s %12s %12s %12s %12s\n", "e_min", "e_max", "on", "off", "excess")
		for _, b := range spec.Bins {
			fmt.Fprintf(w, "%12.4e %12.4e %12.4e %12.4e %12.4e\n",
				b.EMin, b.EMax, b.On, b.Off, b.Excess)
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
