// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"reconflow/internal/platform/errors"
	"reconflow/internal/platform/logx"
)

// ErrPoolClosed se devuelve al enviar tareas a un pool cerrado.
var ErrPoolClosed = errors.New("worker pool closed")

// Task representa una tarea a ejecutar en el worker pool.
type Task[R any] struct {
	Name string
	Run  func(ctx context.Context) (R, error)
}

// TaskResult representa el resultado de una tarea.
type TaskResult[R any] struct {
	Name     string
	Value    R
	Err      error
	Duration time.Duration
}

// Handle permite esperar una tarea enviada.
type Handle[R any] struct {
	done   chan struct{}
	result TaskResult[R]
}

// Done se cierra cuando la tarea termina.
func (h *Handle[R]) Done() <-chan struct{} { return h.done }

// Wait bloquea hasta que la tarea termina y devuelve su resultado.
func (h *Handle[R]) Wait() TaskResult[R] {
	<-h.done
	return h.result
}

type queued[R any] struct {
	task   Task[R]
	handle *Handle[R]
}

// Pool ejecuta tareas con como máximo Workers en paralelo. Submit nunca
// bloquea: el exceso queda en cola. Una tarea enviada nunca se cancela.
type Pool[R any] struct {
	workers int
	logger  logx.Logger
	ctx     context.Context

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []queued[R]
	pending []*Handle[R] // enviados desde el último Join
	closed  bool

	running atomic.Int32
	wg      sync.WaitGroup
}

// Config configura el worker pool.
type Config struct {
	Workers int
	Logger  logx.Logger
}

// New crea un pool y arranca sus workers. ctx se pasa a cada tarea.
func New[R any](ctx context.Context, cfg Config) *Pool[R] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p := &Pool[R]{
		workers: cfg.Workers,
		logger:  cfg.Logger.With("component", "worker-pool"),
		ctx:     ctx,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// worker es el goroutine que procesa tareas.
func (p *Pool[R]) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			p.logger.Debug("worker stopped", "worker_id", id)
			return
		}
		q := p.queue[0]
		p.queue[0] = queued[R]{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.execute(id, q)
	}
}

// execute ejecuta una tarea individual. Un panic se convierte en error.
func (p *Pool[R]) execute(workerID int, q queued[R]) {
	p.running.Add(1)
	start := time.Now()

	res := TaskResult[R]{Name: q.task.Name}
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.Err = errors.FromPanic(r)
			}
		}()
		res.Value, res.Err = q.task.Run(p.ctx)
	}()
	res.Duration = time.Since(start)
	p.running.Add(-1)

	p.logger.Debug("task completed",
		"worker_id", workerID,
		"task", q.task.Name,
		"duration_ms", res.Duration.Milliseconds(),
		"error", res.Err != nil,
	)

	q.handle.result = res
	close(q.handle.done)
}

// Submit encola una tarea y devuelve su handle.
func (p *Pool[R]) Submit(task Task[R]) *Handle[R] {
	h := &Handle[R]{done: make(chan struct{})}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		h.result = TaskResult[R]{Name: task.Name, Err: ErrPoolClosed}
		close(h.done)
		return h
	}
	p.queue = append(p.queue, queued[R]{task: task, handle: h})
	p.pending = append(p.pending, h)
	p.mu.Unlock()

	p.cond.Signal()
	return h
}

// Join espera todas las tareas enviadas desde el último Join y devuelve sus
// resultados en orden de envío. Es una barrera completa: un fallo no cancela
// a las demás.
func (p *Pool[R]) Join() []TaskResult[R] {
	p.mu.Lock()
	handles := p.pending
	p.pending = nil
	p.mu.Unlock()

	results := make([]TaskResult[R], 0, len(handles))
	for _, h := range handles {
		results = append(results, h.Wait())
	}
	return results
}

// Close espera la cola pendiente y detiene los workers.
func (p *Pool[R]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cond.Broadcast()
	p.wg.Wait()
}

// Stats retorna estadísticas del worker pool.
func (p *Pool[R]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Workers: p.workers,
		Queued:  len(p.queue),
		Running: int(p.running.Load()),
	}
}

// Stats contiene estadísticas del worker pool.
type Stats struct {
	Workers int
	Queued  int
	Running int
}
