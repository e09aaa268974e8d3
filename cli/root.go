// Package cli is the vetref command line: the HTTP service plus offline
// access to the compatibility checker and the bedside calculators.
package cli

import (
	"fmt"
	"os"

	"github.com/giygas/vetref-api/registry"
	"github.com/spf13/cobra"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the persistent flags shared by every subcommand
type options struct {
	dataFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "vetref",
		Short:        "Veterinary ICU reference: Y-site compatibility and bedside calculators",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.dataFile, "data", "", "registry YAML file (defaults to REGISTRY_FILE, then the embedded registry)")

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(checkCmd(opts))
	cmd.AddCommand(drugsCmd(opts))
	cmd.AddCommand(transfusionCmd())
	cmd.AddCommand(criCmd(opts))
	return cmd
}

// dataPath picks the --data flag over REGISTRY_FILE
func (o *options) dataPath() string {
	if o.dataFile != "" {
		return o.dataFile
	}
	return os.Getenv("REGISTRY_FILE")
}

// loadRegistry reads the registry once for the offline commands
func (o *options) loadRegistry() (*registry.Registry, error) {
	loader := registry.NewFileLoader(o.dataPath())
	reg, _, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", loader.Describe(), err)
	}
	return reg, nil
}
