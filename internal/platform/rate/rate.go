// Package rate limita peticiones por host con token buckets.
package rate

import (
	"context"
	"sync"
	"time"
)

// Limiter es un token bucket: rate tokens por segundo, capacidad burst.
type Limiter struct {
	mu     sync.Mutex
	rate   float64
	burst  int
	tokens float64
	last   time.Time
}

// New crea un limiter con el bucket lleno.
func New(rate float64, burst int) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{rate: rate, burst: burst, tokens: float64(burst), last: time.Now()}
}

// Wait bloquea hasta obtener un token o hasta que ctx termine.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		wait := l.reserve()
		if wait == 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Allow consume un token si hay disponible.
func (l *Limiter) Allow() bool {
	return l.reserve() == 0
}

// reserve consume un token y devuelve 0, o devuelve cuánto falta para el siguiente.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
	l.last = now

	if l.tokens >= 1 {
		l.tokens--
		return 0
	}
	return time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
}

// Rate returns the current rate limit (tokens per second).
func (l *Limiter) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}

// Group mantiene un Limiter por clave (normalmente el host destino), así dos
// plugins que atacan el mismo host comparten cuota.
type Group struct {
	mu       sync.Mutex
	rate     float64
	burst    int
	limiters map[string]*Limiter
}

// NewGroup crea un grupo. Con rate <= 0 el grupo no limita.
func NewGroup(rate float64, burst int) *Group {
	return &Group{rate: rate, burst: burst, limiters: make(map[string]*Limiter)}
}

// Wait espera un token para key.
func (g *Group) Wait(ctx context.Context, key string) error {
	if g == nil || g.rate <= 0 {
		return ctx.Err()
	}
	return g.get(key).Wait(ctx)
}

// Len es el número de claves con limiter creado.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.limiters)
}

func (g *Group) get(key string) *Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[key]
	if !ok {
		l = New(g.rate, g.burst)
		g.limiters[key] = l
	}
	return l
}
