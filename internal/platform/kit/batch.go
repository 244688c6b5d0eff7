package kit

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"reconflow/internal/core/ports"
	"reconflow/internal/platform/resilience"
)

// BatchFunc procesa un elemento. ok=false descarta el resultado sin error
// (por ejemplo, credencial incorrecta).
type BatchFunc[I, O any] func(ctx context.Context, item I) (out O, ok bool, err error)

// Batch ejecuta fn sobre items en un pool ants de workers goroutines, dentro
// de un job. Actualiza el threshold compartido para el monitor y deja de
// lanzar elementos cuando se pide stop o ctx termina. Los errores por
// elemento se registran en debug y no abortan el batch.
func Batch[I, O any](ctx context.Context, jc *ports.JobContext, workers int, items []I, fn BatchFunc[I, O]) ([]O, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	name := jc.PluginName()
	state := jc.State
	if state != nil {
		state.BeginThreshold(name, len(items))
		defer state.EndThreshold()
	}

	var (
		mu      sync.Mutex
		results []O
		wg      sync.WaitGroup
	)

	for i, item := range items {
		if ctx.Err() != nil || (state != nil && state.ThresholdStopped()) {
			if state != nil {
				state.StepThreshold(len(items) - i)
			}
			break
		}

		item := item
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if state != nil {
				defer state.StepThreshold(1)
			}
			out, ok, err := fn(ctx, item)
			if err != nil {
				if jc.Logger != nil {
					jc.Logger.Debug("batch item failed", "plugin", name, "error", err)
				}
				return
			}
			if ok {
				mu.Lock()
				results = append(results, out)
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			if state != nil {
				state.StepThreshold(len(items) - i)
			}
			break
		}
	}
	wg.Wait()

	return results, nil
}

// GuardedBatch es Batch con un circuit breaker: tras maxFailures errores
// consecutivos (p.ej. el servicio dejó de aceptar conexiones) pide parar el
// batch y descarta los elementos que aún no empezaron.
func GuardedBatch[I, O any](ctx context.Context, jc *ports.JobContext, workers, maxFailures int, items []I, fn BatchFunc[I, O]) ([]O, error) {
	breaker := resilience.NewCircuitBreaker(maxFailures, 0)

	return Batch(ctx, jc, workers, items, func(ctx context.Context, item I) (O, bool, error) {
		var zero O
		if !breaker.Allow() {
			return zero, false, resilience.ErrCircuitOpen
		}
		out, ok, err := fn(ctx, item)
		if err != nil {
			if breaker.RecordFailure() && jc.State != nil && !jc.State.ThresholdStopped() {
				if jc.Logger != nil {
					jc.Logger.Debug("batch stopped", "plugin", jc.PluginName(), "failures", breaker.Stats().Consecutive)
				}
				jc.State.StopThreshold()
			}
			return zero, false, err
		}
		breaker.RecordSuccess()
		return out, ok, nil
	})
}
