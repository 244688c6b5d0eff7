// internal/platform/resilience/circuit_breaker.go
package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// State representa el estado del circuit breaker.
type State int

const (
	StateClosed   State = iota // operación normal
	StateOpen                  // demasiados fallos seguidos, se rechaza
	StateHalfOpen              // cooldown vencido, se deja pasar una prueba
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker corta un batch de sub-tareas contra un servicio que ha dejado
// de responder: tras failureThreshold fallos consecutivos se abre. Con
// cooldown > 0 pasa a half-open al vencer y una sola prueba decide si cierra.
// Con cooldown 0 queda abierto hasta Reset.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       State
	consecutive int
	total       int
	openedAt    time.Time
	probing     bool

	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time
}

// NewCircuitBreaker crea un nuevo circuit breaker. failureThreshold <= 0 usa 5.
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
	}
}

// Allow indica si la siguiente operación puede ejecutarse.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.cooldown <= 0 || cb.now().Sub(cb.openedAt) < cb.cooldown {
			return false
		}
		cb.state = StateHalfOpen
		cb.probing = true
		return true
	default:
		// half-open: solo la prueba en curso
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
}

// RecordSuccess cierra el circuito y reinicia la racha de fallos.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.consecutive = 0
	cb.probing = false
}

// RecordFailure registra un fallo y devuelve true si el circuito queda abierto.
func (cb *CircuitBreaker) RecordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutive++
	cb.total++

	if cb.state == StateHalfOpen || cb.consecutive >= cb.failureThreshold {
		if cb.state != StateOpen {
			cb.openedAt = cb.now()
		}
		cb.state = StateOpen
		cb.probing = false
	}
	return cb.state == StateOpen
}

// State retorna el estado actual del circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset vuelve al estado cerrado sin historial.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.consecutive = 0
	cb.total = 0
	cb.probing = false
}

// Stats retorna estadísticas del circuit breaker.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:       cb.state,
		Consecutive: cb.consecutive,
		Failures:    cb.total,
		OpenedAt:    cb.openedAt,
	}
}

// CircuitBreakerStats contiene estadísticas del circuit breaker.
type CircuitBreakerStats struct {
	State       State
	Consecutive int
	Failures    int
	OpenedAt    time.Time
}
