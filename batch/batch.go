// Package batch runs many Environments concurrently for a fixed number of
// steps per episode and collects their results, grounded on the teacher's
// own concurrency idioms: channerics.Merge fan-in
// (reinforcement.alphaMonteCarloVanillaTrain's worker/estimator split),
// errgroup for cancellation-propagating worker coordination
// (server/fastview.client.Sync), and a weighted semaphore as a counting
// concurrency limiter (the same pattern the example pack's skaffold build
// runner uses for bounded parallel tagging).
package batch

import (
	"context"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/metta-ai/mettagrid"
	"github.com/metta-ai/mettagrid/atomicfloat"
)

// EpisodeResult is one Environment's outcome after running its configured
// number of steps.
type EpisodeResult struct {
	EnvIndex     int
	AgentRewards []float64
}

// Runner steps a fixed set of Environments concurrently, bounded to at
// most Concurrency simultaneously-running episodes.
type Runner struct {
	Concurrency int
}

// NewRunner constructs a Runner capped at concurrency simultaneous
// episodes; concurrency <= 0 is treated as 1.
func NewRunner(concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{Concurrency: concurrency}
}

// RunEpisodes steps every env in envs for stepsPerEpisode ticks, fans the
// per-env results into a single stream the way reinforcement's episode
// workers fan into one estimator channel, and returns each env's result in
// env order alongside the atomic running total reward across all agents
// of all envs. Returns early with an error if ctx is cancelled.
func (r *Runner) RunEpisodes(ctx context.Context, envs []*mettagrid.Environment, stepsPerEpisode int) ([]EpisodeResult, float64, error) {
	sem := semaphore.NewWeighted(int64(r.Concurrency))
	group, groupCtx := errgroup.WithContext(ctx)

	workers := make([]<-chan EpisodeResult, len(envs))
	for i, env := range envs {
		i, env := i, env
		out := make(chan EpisodeResult, 1)
		workers[i] = out

		if err := sem.Acquire(groupCtx, 1); err != nil {
			return nil, 0, err
		}
		group.Go(func() error {
			defer sem.Release(1)
			defer close(out)

			for s := 0; s < stepsPerEpisode; s++ {
				select {
				case <-groupCtx.Done():
					return groupCtx.Err()
				default:
				}
				env.Step()
			}

			rewards := append([]float64(nil), env.GetEpisodeRewards()...)
			select {
			case out <- EpisodeResult{EnvIndex: i, AgentRewards: rewards}:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
			return nil
		})
	}

	total := atomicfloat.New(0)
	results := make([]EpisodeResult, len(envs))
	merged := channerics.Merge(groupCtx.Done(), workers...)
	for res := range merged {
		results[res.EnvIndex] = res
		sum := 0.0
		for _, v := range res.AgentRewards {
			sum += v
		}
		total.Add(sum)
	}

	if err := group.Wait(); err != nil {
		return nil, total.Read(), err
	}
	return results, total.Read(), nil
}
