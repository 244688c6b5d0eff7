// internal/adapters/output/streaming.go
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"reconflow/internal/core/ports"
	"reconflow/internal/platform/logx"
)

// StreamingWriter escribe cada Record en un fichero parcial en cuanto termina
// su ejecución, antes de que exista el dataset completo.
type StreamingWriter struct {
	baseDir   string
	runID     string
	timestamp string
	logger    logx.Logger

	mu      sync.Mutex
	seq     int
	written []string
}

// NewStreamingWriter crea un nuevo writer de streaming.
func NewStreamingWriter(baseDir, runID string, logger logx.Logger) *StreamingWriter {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &StreamingWriter{
		baseDir:   baseDir,
		runID:     runID,
		timestamp: time.Now().Format("20060102_150405"),
		logger:    logger.With("component", "streaming-writer"),
	}
}

// PartialRecord es el contenido de un fichero parcial.
type PartialRecord struct {
	ports.Record
	WrittenAt time.Time `json:"written_at"`
}

// WritePartial escribe r a disco y devuelve la ruta del fichero.
// Formato: reconflow_{run}_{timestamp}_partial_{seq}_{command}.json
func (w *StreamingWriter) WritePartial(r ports.Record) (string, error) {
	w.mu.Lock()
	w.seq++
	path := filepath.Join(w.baseDir, w.GeneratePartialFilename(w.seq, r.Command))
	w.mu.Unlock()

	f, err := createFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := jsonAPI.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(PartialRecord{Record: r, WrittenAt: time.Now()}); err != nil {
		return "", fmt.Errorf("failed to encode partial JSON: %w", err)
	}

	w.mu.Lock()
	w.written = append(w.written, path)
	w.mu.Unlock()

	w.logger.Debug("partial result written",
		"command", r.Command,
		"root", r.Root.String(),
		"file", filepath.Base(path),
	)
	return path, nil
}

// Record adapta WritePartial a usecases.AppOptions.OnRecord: los errores se
// registran como warning y no interrumpen la ejecución.
func (w *StreamingWriter) Record(r ports.Record) {
	if _, err := w.WritePartial(r); err != nil {
		w.logger.Warn("partial result not written", "root", r.Root.String(), "error", err)
	}
}

// GeneratePartialFilename genera el nombre de archivo para un resultado parcial.
func (w *StreamingWriter) GeneratePartialFilename(seq int, command string) string {
	return fmt.Sprintf("reconflow_%s_%s_partial_%03d_%s.json", shortID(w.runID), w.timestamp, seq, sanitizeName(command))
}

// GetPattern retorna el patrón glob para encontrar archivos parciales de esta ejecución.
func (w *StreamingWriter) GetPattern() string {
	return filepath.Join(w.baseDir, fmt.Sprintf("reconflow_%s_%s_partial_*.json", shortID(w.runID), w.timestamp))
}

// Partials devuelve las rutas escritas, en orden.
func (w *StreamingWriter) Partials() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.written...)
}

// Cleanup borra los ficheros parciales; se llama tras exportar el dataset final.
func (w *StreamingWriter) Cleanup() error {
	w.mu.Lock()
	written := w.written
	w.written = nil
	w.mu.Unlock()

	var firstErr error
	for _, path := range written {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove partial file: %w", err)
		}
	}
	return firstErr
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "run"
	}
	return id
}
