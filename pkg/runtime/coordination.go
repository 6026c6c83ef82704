package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// RaceOptions configures Race.
type RaceOptions struct {
	RunOptions
	// TimeoutMs, if non-zero, fails the race if no agent finishes in time.
	TimeoutMs int
}

// Race starts a run for each agent concurrently and returns the first
// successful RunResult, decorated with WinningAgent/ParticipantAgents.
// Losing runs are cooperatively cancelled (spec §4.8).
func Race(ctx context.Context, agents []*Agent, input string, opts *RaceOptions) (*RunResult, error) {
	if len(agents) == 0 {
		return nil, &ConfigError{Message: "race: no agents supplied"}
	}
	if opts == nil {
		opts = &RaceOptions{}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if opts.TimeoutMs > 0 {
		var timeoutCancel context.CancelFunc
		raceCtx, timeoutCancel = context.WithTimeout(raceCtx, time.Duration(opts.TimeoutMs)*time.Millisecond)
		defer timeoutCancel()
	}

	participants := make([]string, len(agents))
	for i, a := range agents {
		participants[i] = a.Name
	}

	type outcome struct {
		result *RunResult
		err    error
	}
	results := make(chan outcome, len(agents))

	for _, a := range agents {
		a := a
		go func() {
			runOpts := opts.RunOptions
			r, err := Run(raceCtx, a, input, &runOpts)
			results <- outcome{result: r, err: err}
		}()
	}

	var failures []string
	for i := 0; i < len(agents); i++ {
		o := <-results
		if o.err == nil {
			cancel()
			o.result.WinningAgent = agentByResult(agents, o.result)
			o.result.ParticipantAgents = participants
			return o.result, nil
		}
		failures = append(failures, o.err.Error())
	}
	return nil, fmt.Errorf("race: all agents failed: %s", strings.Join(failures, "; "))
}

func agentByResult(agents []*Agent, result *RunResult) *Agent {
	if result == nil || result.State == nil {
		return nil
	}
	for _, a := range agents {
		if a.Name == result.State.CurrentAgent.Name {
			return a
		}
	}
	return nil
}

// ParallelOptions configures Parallel.
type ParallelOptions struct {
	RunOptions
	// FailFast, when true, causes Parallel to return the first failing
	// agent's error (cancelling the other runs) instead of partitioning
	// successes/failures.
	FailFast bool
	// Aggregator, if set, combines all successful results into one value.
	Aggregator func(results []*RunResult) interface{}
}

// ParallelResult is Parallel's return value (spec §4.8).
type ParallelResult struct {
	Results []*RunResult
	// ResultAgents names the agent that produced Results[i], at the same
	// index - Results only carries the successful runs, so this is not
	// simply the input agents slice once any run has failed.
	ResultAgents  []string
	Aggregated    interface{}
	FailedAgents  map[string]error
	TotalDuration time.Duration
}

// Parallel starts one run per agent (or per agent/input pair, if inputs has
// one entry per agent) and waits for all to settle.
func Parallel(ctx context.Context, agents []*Agent, inputs []string, opts *ParallelOptions) (*ParallelResult, error) {
	if len(agents) == 0 {
		return nil, &ConfigError{Message: "parallel: no agents supplied"}
	}
	if len(inputs) > 1 && len(inputs) != len(agents) {
		return nil, &ConfigError{Message: "parallel: inputs length must match agents length"}
	}
	if opts == nil {
		opts = &ParallelOptions{}
	}

	start := time.Now()
	results := make([]*RunResult, len(agents))
	errs := make([]error, len(agents))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range agents {
		i, a := i, a
		input := ""
		if len(inputs) == 1 {
			input = inputs[0]
		} else if len(inputs) > i {
			input = inputs[i]
		}
		g.Go(func() error {
			runOpts := opts.RunOptions
			r, err := Run(gctx, a, input, &runOpts)
			results[i] = r
			errs[i] = err
			if opts.FailFast && err != nil {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel: %w", err)
	}

	failed := make(map[string]error)
	var successes []*RunResult
	var successAgents []string
	for i, a := range agents {
		if errs[i] != nil {
			failed[a.Name] = errs[i]
			continue
		}
		successes = append(successes, results[i])
		successAgents = append(successAgents, a.Name)
	}

	pr := &ParallelResult{
		Results:       successes,
		ResultAgents:  successAgents,
		TotalDuration: time.Since(start),
	}
	if len(failed) > 0 {
		pr.FailedAgents = failed
	}
	if opts.Aggregator != nil {
		pr.Aggregated = opts.Aggregator(successes)
	}
	return pr, nil
}

// Judge runs workers in parallel, builds a prompt embedding each worker's
// labeled output, and runs judge against that prompt. The returned
// RunResult carries WorkerResults (spec §4.8).
func Judge(ctx context.Context, workers []*Agent, judge *Agent, input string, opts *RunOptions) (*RunResult, error) {
	pr, err := Parallel(ctx, workers, []string{input}, &ParallelOptions{RunOptions: derefRunOptions(opts)})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Evaluate the following candidate outputs and pick the best.\n\n")
	for i, r := range pr.Results {
		name := "worker"
		if i < len(pr.ResultAgents) {
			name = pr.ResultAgents[i]
		}
		fmt.Fprintf(&b, "=== %s ===\n%v\n\n", name, r.FinalOutput)
	}

	result, err := Run(ctx, judge, b.String(), opts)
	if err != nil {
		return nil, err
	}
	result.WorkerResults = pr.Results
	return result, nil
}

func derefRunOptions(opts *RunOptions) RunOptions {
	if opts == nil {
		return RunOptions{}
	}
	return *opts
}
