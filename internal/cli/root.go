// Package cli implements the cubectl command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
	"github.com/orionlab/cube-tools-mcp/internal/fits"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cubectl",
		Short:        "cubectl inspects and analyzes gamma-ray sky cubes",
		SilenceUsage: true,
	}

	cmd.AddCommand(infoCmd())
	cmd.AddCommand(renderCmd())
	cmd.AddCommand(spectrumCmd())
	cmd.AddCommand(extractCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cubectl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cubectl %s\n", Version)
		},
	}
}

// loadCube reads a cube file, with "" for format discovery.
func loadCube(path, format string) (*cube.SkyCube, error) {
	c, err := fits.ReadCube(path, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load cube %s: %w", path, err)
	}
	return c, nil
}
