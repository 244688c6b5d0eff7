// internal/platform/ui/colors.go
package ui

import "github.com/pterm/pterm"

// Paleta de reconflow
var (
	// Ember - headers y claves de resultado
	Ember = pterm.NewRGB(255, 107, 53)

	// Gold - contadores y avisos
	Gold = pterm.NewRGB(255, 182, 39)

	// Crimson - errores y plugins deshabilitados
	Crimson = pterm.NewRGB(215, 38, 56)

	// Ash - texto secundario (nombre del plugin en el echo)
	Ash = pterm.NewRGB(128, 128, 128)

	// Cyan - plugins habilitados, operaciones exitosas
	Cyan = pterm.NewRGB(0, 206, 209)
)

// Estilos preconfigurados
var (
	StylePrimary   = Ember.ToRGBStyle()
	StyleWarning   = Gold.ToRGBStyle()
	StyleError     = Crimson.ToRGBStyle()
	StyleSecondary = Ash.ToRGBStyle()
	StyleSuccess   = Cyan.ToRGBStyle()
)
