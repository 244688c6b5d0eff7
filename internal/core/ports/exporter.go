// internal/core/ports/exporter.go
package ports

import (
	"io"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/resulttree"
)

// Record es el resultado de una ejecución completa para un target semilla.
type Record struct {
	RunID   string           `json:"run_id"`
	Command string           `json:"command"`
	Root    domain.Target    `json:"root"`
	Content *resulttree.Node `json:"content"`
}

// Dataset acumula los Record de todas las ejecuciones de una invocación.
type Dataset []Record

// Contents devuelve los árboles de resultado en orden.
func (d Dataset) Contents() []*resulttree.Node {
	out := make([]*resulttree.Node, 0, len(d))
	for _, r := range d {
		out = append(out, r.Content)
	}
	return out
}

// ForCommand filtra los Record producidos por command.
func (d Dataset) ForCommand(command string) Dataset {
	var out Dataset
	for _, r := range d {
		if r.Command == command {
			out = append(out, r)
		}
	}
	return out
}

// Exporter es el port para exportar el dataset.
type Exporter interface {
	// Name retorna el nombre del exporter (ej: "json")
	Name() string

	// Export escribe el dataset según opts
	Export(ds Dataset, opts ExportOptions) error
}

// WriterExporter permite exportar a cualquier io.Writer.
type WriterExporter interface {
	Exporter

	ExportToWriter(ds Dataset, w io.Writer, opts ExportOptions) error
}

// ExportOptions configura las opciones de exportación.
type ExportOptions struct {
	// OutputPath ruta del fichero (vacío = stdout)
	OutputPath string

	// Pretty indica si el output debe ser indentado
	Pretty bool
}

// DefaultExportOptions retorna opciones por defecto.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Pretty: true}
}
