package runstate

import (
	"context"
	"sync"
)

// PauseGate es una señal binaria abierta/cerrada. Abierta (por defecto)
// significa que el monitor de progreso puede escribir en la terminal.
type PauseGate struct {
	mu   sync.Mutex
	open chan struct{}
}

// NewPauseGate crea una puerta abierta.
func NewPauseGate() *PauseGate {
	ch := make(chan struct{})
	close(ch)
	return &PauseGate{open: ch}
}

// Open reabre la puerta y despierta a quien espera en Wait.
func (g *PauseGate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
	default:
		close(g.open)
	}
}

// Close cierra la puerta. Idempotente.
func (g *PauseGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
	}
}

// IsOpen indica el estado actual sin bloquear.
func (g *PauseGate) IsOpen() bool {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Wait bloquea hasta que la puerta esté abierta o ctx termine.
func (g *PauseGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
