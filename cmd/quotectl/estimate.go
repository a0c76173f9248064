package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/mesh"
	"github.com/Simplici0/meshquote/internal/pipeline"
	"github.com/Simplici0/meshquote/internal/pricing"
	"github.com/Simplici0/meshquote/internal/watcher"
)

const watchDebounce = 200 * time.Millisecond

type estimateOptions struct {
	cfg          estimate.PrintConfig
	quality      string
	material     string
	maxTriangles int
	timeout      time.Duration
	watch        bool
}

type estimateReport struct {
	File     string                 `json:"file"`
	Mesh     mesh.Summary           `json:"mesh"`
	Config   estimate.PrintConfig   `json:"config"`
	Estimate estimate.PrintEstimate `json:"estimate"`
	Price    pricing.Result         `json:"price"`
}

func newEstimateCmd(opts *rootOptions) *cobra.Command {
	e := &estimateOptions{cfg: estimate.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "Estimate print time, filament and price for an STL file",
		Long: `Estimate parses the file, derives layer count, print time, filament weight and
power use for the given settings, and prices the result. With --watch the file
is re-estimated whenever it changes; a newer change abandons an older run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := opts.logger(cmd)
			if err != nil {
				return err
			}

			var ok bool
			if e.cfg.QualityPreset, ok = estimate.ParseQualityPreset(e.quality); !ok {
				logger.Warn("unknown quality preset, using default", "key", e.quality, "default", e.cfg.QualityPreset)
			}
			if m, ok := pricing.ParseMaterial(e.material); !ok {
				logger.Warn("unknown material, using default", "key", e.material, "default", m)
			}
			if err := e.cfg.Validate(); err != nil {
				return err
			}

			p := pipeline.Pipeline{
				Limits:  mesh.Limits{MaxTriangles: e.maxTriangles},
				Timeout: e.timeout,
			}
			file := args[0]
			out := cmd.OutOrStdout()

			if !e.watch {
				report, err := e.run(cmd.Context(), p, file)
				if err != nil {
					return err
				}
				return printReport(out, opts.json, report)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := pipeline.NewRunner(func(res pipeline.Result) {
				if res.Err != nil {
					logger.Error("estimate failed", "file", file, "version", res.Version, "err", res.Err)
					return
				}
				report := e.report(file, res.Outcome)
				if err := printReport(out, opts.json, report); err != nil {
					logger.Error("write report", "err", err)
				}
			})
			defer runner.Stop()

			submit := func(path string) {
				v := runner.Submit(ctx, func(ctx context.Context) (pipeline.Outcome, error) {
					data, err := os.ReadFile(path)
					if err != nil {
						return pipeline.Outcome{}, fmt.Errorf("read %s: %w", path, err)
					}
					return p.Run(ctx, data, e.cfg)
				})
				logger.Debug("estimate submitted", "file", path, "version", v)
			}

			fw, err := watcher.New(watchDebounce, logger)
			if err != nil {
				return err
			}
			if err := fw.Add(file, submit); err != nil {
				return err
			}

			submit(file)
			logger.Info("watching for changes", "file", file)
			return fw.Run(ctx)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&e.cfg.LayerHeight, "layer-height", e.cfg.LayerHeight, "Layer height in mm")
	f.Float64Var(&e.cfg.InfillPercent, "infill", e.cfg.InfillPercent, "Infill percentage (0-100)")
	f.Float64Var(&e.cfg.WallThickness, "wall", e.cfg.WallThickness, "Wall thickness in mm")
	f.BoolVar(&e.cfg.SupportsEnabled, "supports", e.cfg.SupportsEnabled, "Add support material")
	f.StringVar(&e.quality, "quality", string(e.cfg.QualityPreset), "Quality preset (draft, standard, high, engineering)")
	f.StringVar(&e.material, "material", string(pricing.PLA), "Material used for pricing (pla, abs, petg, tpu, pa)")
	f.IntVar(&e.maxTriangles, "max-triangles", 0, "Reject meshes with more triangles (0 = unlimited)")
	f.DurationVar(&e.timeout, "timeout", 0, "Abandon an estimate after this long (0 = no limit)")
	f.BoolVarP(&e.watch, "watch", "w", false, "Re-estimate whenever the file changes")

	return cmd
}

func (e *estimateOptions) run(ctx context.Context, p pipeline.Pipeline, file string) (estimateReport, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return estimateReport{}, fmt.Errorf("read %s: %w", file, err)
	}

	out, err := p.Run(ctx, data, e.cfg)
	if err != nil {
		return estimateReport{}, err
	}
	return e.report(file, out), nil
}

func (e *estimateOptions) report(file string, out pipeline.Outcome) estimateReport {
	req, _ := pricing.NewRequest(float64(out.Estimate.PrintTimeMinutes), out.Estimate.MaterialUsageGrams, e.material, string(e.cfg.QualityPreset))
	return estimateReport{
		File:     file,
		Mesh:     out.Mesh.Summary(),
		Config:   e.cfg,
		Estimate: out.Estimate,
		Price:    pricing.Calculate(req),
	}
}

func printReport(w io.Writer, asJSON bool, r estimateReport) error {
	if asJSON {
		return writeJSON(w, r)
	}

	fmt.Fprintf(w, "File: %s\n", r.File)
	fmt.Fprintf(w, "  Triangles: %d\n", r.Mesh.TriangleCount)
	fmt.Fprintf(w, "  Size: %.2f x %.2f x %.2f mm\n", r.Mesh.Dimensions.X, r.Mesh.Dimensions.Y, r.Mesh.Dimensions.Z)
	fmt.Fprintf(w, "  Layers: %d at %.2f mm (%s)\n", r.Estimate.LayerCount, r.Config.LayerHeight, r.Config.QualityPreset)
	fmt.Fprintf(w, "  Print time: %d min\n", r.Estimate.PrintTimeMinutes)
	fmt.Fprintf(w, "  Filament: %.1f g\n", r.Estimate.MaterialUsageGrams)
	fmt.Fprintf(w, "  Energy: %.2f kWh\n", r.Estimate.EstimatedPowerConsumptionKWh)
	fmt.Fprintf(w, "  Price: %.3f %s\n", r.Price.Price, r.Price.Currency)
	return nil
}
