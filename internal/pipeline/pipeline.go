// Package pipeline runs parse and estimate as one bounded unit of work.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/mesh"
)

// Pipeline parses a mesh buffer and estimates it under a processing budget.
// The zero value applies no triangle limit and no timeout.
type Pipeline struct {
	Limits  mesh.Limits
	Timeout time.Duration
}

// Outcome is the result of one successful run.
type Outcome struct {
	Mesh     *mesh.Mesh
	Estimate estimate.PrintEstimate
}

// Run validates cfg, parses data and estimates the print. Errors from the
// parser and estimator are returned unwrapped so callers can match them with
// errors.As; cancellation and timeout surface as ctx.Err().
func (p Pipeline) Run(ctx context.Context, data []byte, cfg estimate.PrintConfig) (Outcome, error) {
	if err := cfg.Validate(); err != nil {
		return Outcome{}, err
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	m, err := mesh.ParseContext(ctx, data, p.Limits)
	if err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	est, err := estimate.Estimate(m, cfg)
	if err != nil {
		return Outcome{}, fmt.Errorf("estimate print: %w", err)
	}

	return Outcome{Mesh: m, Estimate: est}, nil
}
