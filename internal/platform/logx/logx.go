// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// sink es compartido por un logger y todos sus hijos (With).
type sink struct {
	mu  sync.Mutex
	lg  *log.Logger
	lvl atomic.Int32

	// antes de escribir se borra la línea del monitor de progreso
	clearLine bool
}

type simpleLogger struct {
	out   *sink
	scope []string // pares key=value fijos
}

// New crea un logger a stderr con el nivel de RECONFLOW_LOG_LEVEL.
func New() Logger {
	return NewWithWriter(os.Stderr, ParseLevel(os.Getenv("RECONFLOW_LOG_LEVEL")))
}

// NewWithLevel creates a logger with a specific log level
func NewWithLevel(lvl Level) Logger {
	return NewWithWriter(os.Stderr, lvl)
}

// NewWithWriter permite capturar la salida (tests) o redirigirla.
func NewWithWriter(w io.Writer, lvl Level) Logger {
	s := &sink{lg: log.New(w, "", 0)}
	s.lvl.Store(int32(lvl))
	return &simpleLogger{out: s}
}

// NewSilent creates a logger that only outputs errors
func NewSilent() Logger {
	return NewWithLevel(LevelError)
}

// NewNop descarta todo.
func NewNop() Logger {
	return NewWithWriter(io.Discard, LevelError+1)
}

// ClearLine activa el borrado de la línea actual de terminal antes de cada
// mensaje, para no mezclar logs con el spinner de progreso.
func ClearLine(l Logger, on bool) {
	if s, ok := l.(*simpleLogger); ok {
		s.out.mu.Lock()
		s.out.clearLine = on
		s.out.mu.Unlock()
	}
}

func (s *simpleLogger) With(kv ...any) Logger {
	return &simpleLogger{
		out:   s.out,
		scope: append(append([]string{}, s.scope...), kvPairs(kv...)...),
	}
}

// SetLevel afecta también a los loggers derivados con With.
func (s *simpleLogger) SetLevel(lvl Level) {
	s.out.lvl.Store(int32(lvl))
}

func (s *simpleLogger) Debug(msg string, kv ...any) { s.log(LevelDebug, "DBG", msg, kv...) }
func (s *simpleLogger) Info(msg string, kv ...any)  { s.log(LevelInfo, "INF", msg, kv...) }
func (s *simpleLogger) Warn(msg string, kv ...any)  { s.log(LevelWarn, "WRN", msg, kv...) }
func (s *simpleLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	kv = append([]any{"error", err.Error()}, kv...)
	s.log(LevelError, "ERR", "", kv...)
}

func (s *simpleLogger) log(l Level, tag, msg string, kv ...any) {
	if int32(l) < s.out.lvl.Load() {
		return
	}
	ts := time.Now().Format("15:04:05")
	fields := append([]string{}, s.scope...)
	fields = append(fields, kvPairs(kv...)...)
	line := fmt.Sprintf("%s %s %s", ts, tag, msg)
	if len(strings.TrimSpace(msg)) == 0 && len(fields) > 0 {
		// si no hay msg y solo campos (e.g., Err), evita doble espacio
		line = fmt.Sprintf("%s %s", ts, tag)
	}
	if len(fields) > 0 {
		line = fmt.Sprintf("%s %s", line, strings.Join(fields, " "))
	}
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	if s.out.clearLine {
		line = "\r\033[K" + line
	}
	s.out.lg.Println(line)
}

func kvPairs(kv ...any) []string {
	out := make([]string, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		var k, v any
		k = kv[i]
		if i+1 < len(kv) {
			v = kv[i+1]
		} else {
			v = "(missing)"
		}
		out = append(out, fmt.Sprintf("%v=%v", k, v))
	}
	return out
}

// ParseLevel convierte "debug", "warn", ... en Level. Desconocido = info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}
