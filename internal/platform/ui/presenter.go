// internal/platform/ui/presenter.go
package ui

import (
	"io"
	"time"
)

// Presenter muestra el inicio y el cierre de un `reconflow scan`.
// El progreso por job lo pintan Monitor y Echo.
type Presenter interface {
	// Start muestra la configuración del escaneo
	Start(info ScanInfo)

	// Info muestra un mensaje informativo
	Info(msg string)

	// Warning muestra una advertencia
	Warning(msg string)

	// Finish muestra las estadísticas finales
	Finish(stats ScanStats)
}

// ScanInfo contiene información inicial del escaneo
type ScanInfo struct {
	RunID     string
	Commands  []string
	Targets   []string
	PluginDir string
	Depth     int
	Threads   int
	Console   bool
}

// ScanStats contiene las estadísticas finales
type ScanStats struct {
	Duration time.Duration
	Records  int
	// Keys cuenta, por clave de primer nivel, los records que la contienen.
	Keys   map[string]int
	Output string
}

// NewPresenter elige el presenter pterm en terminales y el raw en otro caso.
func NewPresenter(out io.Writer) Presenter {
	if IsTerminal(out) {
		return NewPTermPresenter(out)
	}
	return NewRawPresenter(out)
}
