package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Simplici0/meshquote/internal/logging"
)

type rootOptions struct {
	logLevel string
	json     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quotectl",
		Short: "Estimate and price 3D prints from binary STL files",
		Long: `quotectl parses binary STL meshes, estimates print time, filament use and
power draw, and prices the result in TND.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	cmd.AddCommand(newInfoCmd(opts), newEstimateCmd(opts), newPriceCmd(opts))
	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) (*log.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), o.logLevel)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
