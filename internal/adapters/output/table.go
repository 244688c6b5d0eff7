// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
)

// TableExporter escribe un resumen en texto plano: una fila por record y clave
// de primer nivel con el número de entradas.
type TableExporter struct {
	now func() time.Time
}

// NewTableExporter crea el exporter de tabla.
func NewTableExporter() *TableExporter {
	return &TableExporter{now: time.Now}
}

func (e *TableExporter) Name() string { return "table" }

func (e *TableExporter) Export(ds ports.Dataset, opts ports.ExportOptions) error {
	if opts.OutputPath == "" {
		return e.ExportToWriter(ds, os.Stdout, opts)
	}

	f, err := createFile(resolvePath(opts.OutputPath, ds, e.now(), ".txt"))
	if err != nil {
		return err
	}
	defer f.Close()

	return e.ExportToWriter(ds, f, opts)
}

func (e *TableExporter) ExportToWriter(ds ports.Dataset, out io.Writer, _ ports.ExportOptions) error {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)

	fmt.Fprintln(w, "COMMAND\tROOT\tKEY\tENTRIES")
	fmt.Fprintln(w, "-------\t----\t---\t-------")

	if len(ds) == 0 {
		fmt.Fprintln(w, "No records.")
	}
	for _, r := range ds {
		keys := r.Content.Keys()
		if len(keys) == 0 {
			fmt.Fprintf(w, "%s\t%s\t-\t0\n", r.Command, r.Root.String())
			continue
		}
		for _, k := range keys {
			v, _ := r.Content.Get(k)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", r.Command, r.Root.String(), k, entries(v))
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %w", err)
	}
	return nil
}

// entries cuenta los escalares bajo n.
func entries(n *resulttree.Node) int {
	switch {
	case n == nil:
		return 0
	case n.IsScalar():
		return 1
	case n.IsSequence():
		return n.Len()
	default:
		total := 0
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			total += entries(v)
		}
		return total
	}
}
