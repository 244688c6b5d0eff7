// internal/platform/ui/raw_presenter.go
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// RawPresenter implementa Presenter en formato logfmt, para salidas no interactivas.
type RawPresenter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewRawPresenter crea un nuevo RawPresenter
func NewRawPresenter(out io.Writer) *RawPresenter {
	return &RawPresenter{out: out, now: time.Now}
}

// log escribe: timestamp LEVEL message key=value key2=value2
// Los campos se escriben en el orden recibido (pares clave, valor).
func (r *RawPresenter) log(level, message string, kv ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parts := []string{
		r.now().UTC().Format(time.RFC3339),
		fmt.Sprintf("%-5s", level),
		message,
	}
	for i := 0; i+1 < len(kv); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%s", kv[i], formatValue(kv[i+1])))
	}

	termMu.Lock()
	defer termMu.Unlock()
	fmt.Fprintln(r.out, strings.Join(parts, " "))
}

// formatValue formatea valores para logfmt (entrecomilla strings con espacios)
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " =\"") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case []string:
		return formatValue(strings.Join(val, ","))
	case time.Duration:
		return val.String()
	case float64:
		return fmt.Sprintf("%.1f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (r *RawPresenter) Start(info ScanInfo) {
	r.log("INFO", "scan_started",
		"run", info.RunID,
		"targets", info.Targets,
		"commands", info.Commands,
		"depth", info.Depth,
		"threads", info.Threads,
		"console", info.Console,
	)
}

func (r *RawPresenter) Info(msg string) {
	r.log("INFO", msg)
}

func (r *RawPresenter) Warning(msg string) {
	r.log("WARN", msg)
}

func (r *RawPresenter) Finish(stats ScanStats) {
	kv := []any{"duration", stats.Duration, "records", stats.Records}
	if stats.Output != "" {
		kv = append(kv, "output", stats.Output)
	}
	for _, k := range sortedKeys(stats.Keys) {
		kv = append(kv, "key."+k, stats.Keys[k])
	}
	r.log("INFO", "scan_completed", kv...)
}
