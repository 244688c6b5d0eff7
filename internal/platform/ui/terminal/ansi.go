// internal/platform/ui/terminal/ansi.go
package terminal

import (
	"strings"
)

// ANSI Escape Codes
const (
	Reset = "\033[0m"

	// Cursor Control
	CursorHide     = "\033[?25l"
	CursorShow     = "\033[?25h"
	ClearToLineEnd = "\033[K"

	// ReturnAndClear vuelve al inicio de la línea y la borra.
	ReturnAndClear = "\r" + ClearToLineEnd

	// Colors (Foreground)
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Gray   = "\033[90m"

	Bold = "\033[1m"
)

// Colorize aplica un color a un texto
func Colorize(text, color string) string {
	return color + text + Reset
}

// StripANSI elimina los códigos ANSI de s (CSI terminados en letra).
func StripANSI(s string) string {
	inEscape := false
	var result strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				inEscape = false
			}
			continue
		}
		result.WriteByte(c)
	}

	return result.String()
}

// VisualLength calcula el largo visual de un string (sin ANSI codes, en runas)
func VisualLength(s string) int {
	return len([]rune(StripANSI(s)))
}

// TruncateVisual trunca s a width caracteres visibles, terminando en "...".
// Los códigos ANSI se descartan al truncar.
func TruncateVisual(s string, width int) string {
	if width <= 0 || VisualLength(s) <= width {
		return s
	}
	runes := []rune(StripANSI(s))
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
