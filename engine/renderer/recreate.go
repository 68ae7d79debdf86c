package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/DurnezG/ruby-go/common"
	"github.com/pkg/errors"
)

// recreate rebuilds the swapchain, applying any pending present mode, and then lets every pass rebuild.
// Resize requests that arrived before the rebuild are satisfied by it and are cleared.
func (r *renderer) recreate() error {
	r.mu.Lock()
	mode := r.pendingMode
	r.pendingMode = nil
	r.mu.Unlock()
	if mode != nil {
		r.swapchain.SetPresentMode(*mode)
	}

	if err := r.swapchain.Recreate(); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	r.resizePending.Store(false)
	r.recreations.Add(1)
	r.generation.Store(r.swapchain.Generation())

	return r.recreatePasses()
}

// recreatePasses calls Recreate on every pass. With a worker pool the calls run concurrently and a WaitGroup acts as
// the barrier, since the pool's own Wait only returns once workers idle out. The first error in pass order wins.
func (r *renderer) recreatePasses() error {
	if len(r.passes) == 0 {
		return nil
	}

	errs := make([]error, len(r.passes))
	if r.workers == nil || len(r.passes) == 1 {
		for i, p := range r.passes {
			errs[i] = p.Recreate(r.swapchain)
		}
	} else {
		var wg sync.WaitGroup
		for i, p := range r.passes {
			wg.Add(1)
			r.workers.SubmitTask(worker.Task{
				ID:      i,
				Payload: p,
				Do: func() (any, error) {
					defer wg.Done()
					errs[i] = p.Recreate(r.swapchain)
					return nil, errs[i]
				},
			})
		}
		wg.Wait()
	}

	for i, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "recreate pass %d", i)
		}
	}
	common.Logger().Debug("passes recreated", "passes", len(r.passes), "generation", r.swapchain.Generation())
	return nil
}
