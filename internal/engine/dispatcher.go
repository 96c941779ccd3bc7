package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dispatcher runs a batch of tasks concurrently and gathers their outcomes.
type Dispatcher struct {
	exec           Executor
	maxConcurrency int

	// OnOutcome, when set, observes every outcome as it completes. Calls are
	// serialized.
	OnOutcome func(Outcome)
	mu        sync.Mutex
}

// NewDispatcher bounds concurrency to maxConcurrency; 0 launches every task at
// once.
func NewDispatcher(exec Executor, maxConcurrency int) (*Dispatcher, error) {
	if exec == nil {
		return nil, errors.New("executor is nil")
	}
	if maxConcurrency < 0 {
		return nil, errors.New("max concurrency must be >= 0")
	}
	return &Dispatcher{exec: exec, maxConcurrency: maxConcurrency}, nil
}

// Dispatch returns one outcome per task, in submission order. It returns only
// after every task has finished and cleaned up. Tasks not started before ctx
// is canceled yield canceled outcomes.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))

	// A plain Group: one worker failing must not cancel its siblings.
	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			var o Outcome
			if ctx.Err() != nil {
				o = canceledOutcome(t)
			} else {
				o = d.exec.Run(ctx, t)
			}
			outcomes[i] = o
			d.observe(o)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) observe(o Outcome) {
	if d.OnOutcome == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.OnOutcome(o)
}
