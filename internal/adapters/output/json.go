// internal/adapters/output/json.go
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"reconflow/internal/core/ports"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// sanitizeName convierte un valor de target en un nombre de fichero válido.
// Ejemplo: "http://a.example.com" -> "http___a_example_com"
func sanitizeName(value string) string {
	sanitized := strings.ReplaceAll(value, ".", "_")
	sanitized = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, sanitized)
	if sanitized == "" {
		return "run"
	}
	return sanitized
}

// DefaultFilename genera reconflow_{root}_{timestamp}{ext} a partir del primer record.
func DefaultFilename(ds ports.Dataset, now time.Time, ext string) string {
	root := "run"
	if len(ds) > 0 {
		root = sanitizeName(ds[0].Root.Value)
	}
	return fmt.Sprintf("reconflow_%s_%s%s", root, now.Format("20060102_150405"), ext)
}

// resolvePath devuelve path, o un nombre por defecto dentro de path si es un directorio.
func resolvePath(path string, ds ports.Dataset, now time.Time, ext string) string {
	if strings.HasSuffix(path, string(os.PathSeparator)) {
		return filepath.Join(path, DefaultFilename(ds, now, ext))
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, DefaultFilename(ds, now, ext))
	}
	return path
}

// createFile crea el fichero de salida y sus directorios.
func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// JSONExporter exporta el dataset como un array JSON de records.
type JSONExporter struct {
	now func() time.Time
}

// NewJSONExporter crea el exporter JSON.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{now: time.Now}
}

func (e *JSONExporter) Name() string { return "json" }

// Export escribe en opts.OutputPath, o en stdout si está vacío.
func (e *JSONExporter) Export(ds ports.Dataset, opts ports.ExportOptions) error {
	if opts.OutputPath == "" {
		return e.ExportToWriter(ds, os.Stdout, opts)
	}

	f, err := createFile(resolvePath(opts.OutputPath, ds, e.now(), ".json"))
	if err != nil {
		return err
	}
	defer f.Close()

	return e.ExportToWriter(ds, f, opts)
}

func (e *JSONExporter) ExportToWriter(ds ports.Dataset, w io.Writer, opts ports.ExportOptions) error {
	if ds == nil {
		ds = ports.Dataset{}
	}
	enc := jsonAPI.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// NewExporter elige el exporter por la extensión de path: ".txt" produce
// la tabla de resumen y cualquier otra el JSON.
func NewExporter(path string) ports.WriterExporter {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return NewTableExporter()
	}
	return NewJSONExporter()
}
