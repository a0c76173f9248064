package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/meshquote/internal/estimate"
)

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) deliver(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *collector) all() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

func outcomeWithLayers(n int) Outcome {
	return Outcome{Estimate: estimate.PrintEstimate{LayerCount: n}}
}

func TestRunnerDropsCanceledRun(t *testing.T) {
	var c collector
	r := NewRunner(c.deliver)

	started := make(chan struct{})
	first := r.Submit(context.Background(), func(ctx context.Context) (Outcome, error) {
		close(started)
		<-ctx.Done()
		return Outcome{}, ctx.Err()
	})
	<-started

	second := r.Submit(context.Background(), func(ctx context.Context) (Outcome, error) {
		return outcomeWithLayers(2), nil
	})
	r.Wait()

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)

	got := c.all()
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0].Version)
	assert.Equal(t, 2, got[0].Outcome.Estimate.LayerCount)
	assert.NoError(t, got[0].Err)
}

func TestRunnerDropsSlowStaleResult(t *testing.T) {
	var c collector
	r := NewRunner(c.deliver)

	release := make(chan struct{})
	r.Submit(context.Background(), func(ctx context.Context) (Outcome, error) {
		// ignores cancellation and finishes after the newer run
		<-release
		return outcomeWithLayers(1), nil
	})

	done := make(chan struct{})
	second := r.Submit(context.Background(), func(ctx context.Context) (Outcome, error) {
		defer close(done)
		return outcomeWithLayers(2), nil
	})
	<-done
	close(release)
	r.Wait()

	got := c.all()
	require.Len(t, got, 1)
	assert.Equal(t, second, got[0].Version)
	assert.Equal(t, 2, got[0].Outcome.Estimate.LayerCount)
}

func TestRunnerDeliversErrors(t *testing.T) {
	var c collector
	r := NewRunner(c.deliver)
	boom := errors.New("boom")

	r.Submit(context.Background(), func(ctx context.Context) (Outcome, error) {
		return Outcome{}, boom
	})
	r.Wait()

	got := c.all()
	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, boom)
}

func TestRunnerStopDiscardsInFlight(t *testing.T) {
	var c collector
	r := NewRunner(c.deliver)

	started := make(chan struct{})
	r.Submit(context.Background(), func(ctx context.Context) (Outcome, error) {
		close(started)
		<-ctx.Done()
		return Outcome{}, ctx.Err()
	})
	<-started
	r.Stop()

	assert.Empty(t, c.all())
	assert.Equal(t, uint64(2), r.Version())
}
