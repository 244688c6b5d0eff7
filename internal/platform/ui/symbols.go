// internal/platform/ui/symbols.go
package ui

import (
	"github.com/pterm/pterm"

	"reconflow/internal/core/ports"
)

// Status representa el estado de un plugin en el listado
type Status int

const (
	StatusEnabled Status = iota
	StatusDisabled
)

// StatusOf deriva el estado de un descriptor descubierto.
func StatusOf(desc ports.Descriptor) Status {
	if desc.Disabled {
		return StatusDisabled
	}
	return StatusEnabled
}

func (s Status) String() string {
	if s == StatusDisabled {
		return "disabled"
	}
	return "enabled"
}

// Symbol retorna el símbolo visual del estado
func (s Status) Symbol() string {
	if s == StatusDisabled {
		return IconError
	}
	return IconSuccess
}

// Color retorna el color pterm asociado
func (s Status) Color() pterm.Color {
	if s == StatusDisabled {
		return pterm.FgRed
	}
	return pterm.FgCyan
}

// Style retorna un pterm.Style configurado para el estado
func (s Status) Style() *pterm.Style {
	return pterm.NewStyle(s.Color())
}

// Label es "símbolo estado" con el color del estado.
func (s Status) Label() string {
	return s.Style().Sprint(s.Symbol() + " " + s.String())
}

var (
	IconTarget  = "🎯"
	IconInfo    = "ℹ"
	IconError   = "✗"
	IconSuccess = "✓"
	IconTime    = "⏱"
	IconPlugins = "🔌"
	IconWorkers = "⚙️"
)

// SpinnerFrames son los glifos del monitor de progreso, indexados por segundo.
var SpinnerFrames = []string{`\`, "|", "/", "-"}

var (
	SeparatorHeavy = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"
	SeparatorLight = "────────────────────────────────────────────"
)
