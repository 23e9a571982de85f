package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orionlab/cube-tools-mcp/internal/spectrum"
)

func extractCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run a spectrum extraction described by a YAML config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := spectrum.LoadConfig(configPath)
			if err != nil {
				return err
			}

			c, err := loadCube(cfg.Cube, cfg.Format)
			if err != nil {
				return err
			}

			cLon, cLat := cfg.Center.Lon, cfg.Center.Lat
			if cLon == 0 && cLat == 0 {
				cLon, cLat = c.Geom.CenterCoord()
			}

			ext := spectrum.Extraction{
				Cube:               c,
				Region:             cfg.Region,
				CenterLon:          cLon,
				CenterLat:          cLat,
				MinOffRegions:      cfg.MinOffRegions,
				LoThresholdPercent: cfg.LoThresholdPercent,
				EReco:              cfg.EReco,
				Containment:        cfg.Containment,
			}
			spec, err := ext.Extract()
			if err != nil {
				return err
			}

			if err := spec.Write(cfg.Output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bins, %d off regions)\n",
				cfg.Output, len(spec.Bins), spec.NOff)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "extraction config file (required)")
	cmd.MarkFlagRequired("config")
	return cmd
}
