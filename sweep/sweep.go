// Package sweep implements the register sweep driver used to brute-force
// the embedded teleporter puzzle: a prepared, patched, flashed base
// snapshot is cloned once per candidate register value and run
// independently in parallel.
package sweep

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"synacorvm/vm"
)

// Patch is one (address, value) override applied to the base snapshot
// before it is flashed. The actual addresses that carry a given guest
// program's verification routine are a property of that program's compiled
// layout, not of this tool, so they are supplied by the caller (typically
// loaded from config.Sweep) rather than hardcoded here.
type Patch struct {
	Addr  vm.Address
	Value vm.Word
}

// RejectSubstring is the output marker that flags a failed candidate; a
// candidate is reported only when the run's output does *not* contain it.
const RejectSubstring = "Miscalibration detected!"

// PreparedBase holds a clone that has had its verification routine patched
// and flashed, and the teleporter command enqueued and drained, ready to be
// cloned once per candidate.
type PreparedBase struct {
	state *vm.State
}

// Prepare clones current, disables live output, applies patches, flashes so
// the patches persist in ROM, then enqueues "use teleporter\n" and runs it
// to the next suspension, draining whatever output that produces. cancel is
// re-armed first so a Ctrl-C from an earlier command doesn't make this run
// return before it has done anything.
func Prepare(current *vm.State, patches []Patch, targetRegister int, cancel *vm.CancelFlag) (*PreparedBase, error) {
	base := current.Clone()
	base.LiveOutput = false

	for _, p := range patches {
		base.Set(p.Addr, p.Value)
	}
	base.Flash()

	base.EnqueueInput("use teleporter\n")
	cancel.Reset()
	if err := base.RunToSuspension(cancel); err != nil {
		return nil, err
	}
	base.DrainOutput()

	return &PreparedBase{state: base}, nil
}

// Result is one candidate's outcome.
type Result struct {
	Candidate vm.Word
	Output    string
	Pass      bool
}

// Run fans out over every candidate 1..32767, setting register
// targetRegister to the candidate on an independent clone of the prepared
// base and classifying the run's output. workers bounds concurrency;
// workers <= 0 falls back to a single worker, giving the same result set as
// the parallel path. cancel is re-armed once up front, so a Ctrl-C from a
// previous command doesn't abort the sweep before it starts; a Ctrl-C
// during the sweep itself still stops it, since nothing re-arms the flag
// again until this call returns. Candidates whose run is cut short by that
// cancellation are not reported.
func Run(ctx context.Context, base *PreparedBase, targetRegister int, workers int, cancel *vm.CancelFlag) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	cancel.Reset()

	const numCandidates = 32767
	results := make([]Result, numCandidates)

	g, _ := errgroup.WithContext(ctx)
	sem := make(chan struct{}, workers)

	for c := 1; c <= numCandidates; c++ {
		candidate := vm.Word(c)
		idx := c - 1

		if !cancel.ShouldContinue() {
			break
		}

		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()

			clone := base.state.Clone()
			clone.SetRegister(targetRegister, candidate)

			if err := clone.RunToSuspension(cancel); err != nil {
				return err
			}
			if !cancel.ShouldContinue() {
				return nil // interrupted: no verdict for this candidate
			}
			out := string(clone.Output)
			results[idx] = Result{
				Candidate: candidate,
				Output:    out,
				Pass:      !strings.Contains(out, RejectSubstring),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var passing []Result
	for _, r := range results {
		if r.Pass {
			passing = append(passing, r)
		}
	}
	return passing, nil
}
