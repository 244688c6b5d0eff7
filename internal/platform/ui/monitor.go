// internal/platform/ui/monitor.go
package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/term"

	"reconflow/internal/core/runstate"
	"reconflow/internal/platform/ui/terminal"
)

// termMu serializa las escrituras a la terminal entre el monitor y el echo.
var termMu sync.Mutex

// Monitor reescribe en el sitio una línea de progreso a intervalo fijo
// mientras la puerta de pausa está abierta. Nunca modifica el estado.
type Monitor struct {
	out      io.Writer
	interval time.Duration
	enabled  bool
	now      func() time.Time

	mu    sync.Mutex
	drawn bool
}

// NewMonitor crea un monitor que escribe en out. Solo se activa si out es una terminal.
func NewMonitor(out io.Writer) *Monitor {
	return &Monitor{
		out:      out,
		interval: time.Second,
		enabled:  IsTerminal(out),
		now:      time.Now,
	}
}

// IsTerminal indica si out es una terminal interactiva.
func IsTerminal(out io.Writer) bool {
	f, ok := out.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Enabled indica si el monitor pinta algo.
func (m *Monitor) Enabled() bool { return m.enabled }

// SetEnabled fuerza el modo (p.ej. para salidas redirigidas o tests).
func (m *Monitor) SetEnabled(on bool) { m.enabled = on }

// SetInterval cambia la cadencia. Valores <= 0 se ignoran.
func (m *Monitor) SetInterval(d time.Duration) {
	if d > 0 {
		m.interval = d
	}
}

// Run pinta el progreso de state hasta que ctx termina.
func (m *Monitor) Run(ctx context.Context, state *runstate.State, gate *runstate.PauseGate) {
	if !m.enabled || state == nil {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.erase()
			return
		case <-ticker.C:
			if gate != nil && !gate.IsOpen() {
				continue
			}
			m.draw(Render(state.Snapshot(), m.now()))
		}
	}
}

func (m *Monitor) draw(line string) {
	termMu.Lock()
	defer termMu.Unlock()
	fmt.Fprint(m.out, line+terminal.ClearToLineEnd)

	m.mu.Lock()
	m.drawn = true
	m.mu.Unlock()
}

// erase borra la última línea pintada para que la salida siguiente empiece limpia.
func (m *Monitor) erase() {
	m.mu.Lock()
	drawn := m.drawn
	m.drawn = false
	m.mu.Unlock()
	if !drawn {
		return
	}

	termMu.Lock()
	defer termMu.Unlock()
	fmt.Fprint(m.out, terminal.ReturnAndClear)
}

// Render produce la línea de progreso para un snapshot:
//
//	\r[|] 42.00% - Last Job: redis :: brute-batch
//
// El glifo rota con los segundos de now. Con denominador cero el avance es 0%.
func Render(s runstate.Snapshot, now time.Time) string {
	n := int64(len(SpinnerFrames))
	frame := SpinnerFrames[((now.Unix()%n)+n)%n]

	next := s.NextJobName
	if s.Threshold.Name != "" {
		next = s.Threshold.Name
	}

	return fmt.Sprintf("\r%s %.2f%% - Last Job: %s :: %s",
		terminal.Colorize("["+frame+"]", terminal.Blue),
		s.Fraction()*100,
		orDash(s.LastJobName),
		orDash(next),
	)
}
