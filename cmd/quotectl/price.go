package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/meshquote/internal/pricing"
)

type priceOptions struct {
	minutes  float64
	grams    float64
	material string
	quality  string
}

func newPriceCmd(opts *rootOptions) *cobra.Command {
	p := &priceOptions{}

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a print from its time and filament use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}

			req, fallbacks := pricing.NewRequest(p.minutes, p.grams, p.material, p.quality)
			for _, f := range fallbacks {
				logger.Warn("unknown key, using default", "kind", f.Kind, "key", f.Key, "default", f.Default)
			}
			result := pricing.Calculate(req)

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printPrice(cmd, req, result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&p.minutes, "minutes", 0, "Print time in minutes")
	cmd.Flags().Float64Var(&p.grams, "grams", 0, "Filament use in grams")
	cmd.Flags().StringVar(&p.material, "material", string(pricing.PLA), "Material (pla, abs, petg, tpu, pa)")
	cmd.Flags().StringVar(&p.quality, "quality", "standard", "Quality preset (draft, standard, high, engineering)")

	return cmd
}

func printPrice(cmd *cobra.Command, req pricing.Request, result pricing.Result) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Material: %s\n", req.Material)
	fmt.Fprintf(w, "Quality: %s (x%.2f)\n", req.Quality, result.Breakdown.QualityFactor)
	fmt.Fprintf(w, "  Material cost: %.3f\n", result.Breakdown.MaterialCost)
	fmt.Fprintf(w, "  Machine time:  %.3f\n", result.Breakdown.MachineTimeCost)
	fmt.Fprintf(w, "  Setup fee:     %.3f\n", result.Breakdown.SetupFee)
	fmt.Fprintf(w, "Price: %.3f %s\n", result.Price, result.Currency)
}
