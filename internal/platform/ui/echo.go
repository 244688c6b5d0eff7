// internal/platform/ui/echo.go
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/ui/terminal"
)

// Echo imprime el resultado individual de cada job terminado (ports.JobNotifier).
type Echo struct {
	out       io.Writer
	clearLine bool
}

// NewEcho crea un echo sobre out. Con clearLine borra antes la línea del monitor.
func NewEcho(out io.Writer, clearLine bool) *Echo {
	return &Echo{out: out, clearLine: clearLine}
}

func (e *Echo) JobDone(plugin string, _ domain.Target, result *resulttree.Node) {
	if result == nil {
		return
	}
	text := RenderResult(plugin, resulttree.Merge(result))
	if text == "" {
		return
	}

	termMu.Lock()
	defer termMu.Unlock()
	if e.clearLine {
		fmt.Fprint(e.out, terminal.ReturnAndClear)
	}
	fmt.Fprint(e.out, text)
}

// RenderResult formatea cada clave de primer nivel de un resultado:
//   - escalares como "clave: valor (plugin)"
//   - secuencias como tabla con el número de elementos
//   - mapeos recursivamente si tienen valores compuestos, o como tabla vertical
func RenderResult(plugin string, n *resulttree.Node) string {
	var b strings.Builder
	if n.IsMapping() {
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			renderNode(&b, plugin, k, v)
		}
	} else {
		renderNode(&b, plugin, "result", n)
	}
	return b.String()
}

func renderNode(b *strings.Builder, plugin, key string, n *resulttree.Node) {
	switch {
	case n == nil:
		return

	case n.IsScalar():
		fmt.Fprintf(b, "%s: %s %s\n",
			StylePrimary.Sprint(key), n.Text(), StyleSecondary.Sprint("("+plugin+")"))

	case n.IsSequence():
		if n.Len() == 0 {
			return
		}
		fmt.Fprintf(b, "%s %s %s\n",
			StylePrimary.Sprint(key),
			StyleWarning.Sprint(fmt.Sprintf("[%d]", n.Len())),
			StyleSecondary.Sprint("("+plugin+")"))
		b.WriteString(sequenceTable(key, n))

	case n.IsMapping():
		if n.Len() == 0 {
			return
		}
		if !n.HasOnlyScalarValues() {
			for _, k := range n.Keys() {
				v, _ := n.Get(k)
				renderNode(b, plugin, k, v)
			}
			return
		}
		fmt.Fprintf(b, "%s %s\n", StylePrimary.Sprint(key), StyleSecondary.Sprint("("+plugin+")"))
		b.WriteString(verticalTable(n))
	}
}

// sequenceTable usa como columnas la unión de claves si todos los elementos
// son mapeos; si no, una única columna con el texto de cada elemento.
func sequenceTable(key string, n *resulttree.Node) string {
	items := n.Items()

	allMaps := true
	for _, it := range items {
		if !it.IsMapping() {
			allMaps = false
			break
		}
	}

	if !allMaps {
		data := pterm.TableData{{key}}
		for _, it := range items {
			data = append(data, []string{it.Text()})
		}
		return renderTable(data, true)
	}

	var columns []string
	seen := map[string]bool{}
	for _, it := range items {
		for _, k := range it.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}

	data := pterm.TableData{columns}
	for _, it := range items {
		row := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := it.Get(col); ok {
				row[i] = v.Text()
			}
		}
		data = append(data, row)
	}
	return renderTable(data, true)
}

func verticalTable(n *resulttree.Node) string {
	data := pterm.TableData{}
	for _, k := range n.Keys() {
		v, _ := n.Get(k)
		data = append(data, []string{k, v.Text()})
	}
	return renderTable(data, false)
}

func renderTable(data pterm.TableData, header bool) string {
	table := pterm.DefaultTable.WithBoxed().WithData(data)
	if header {
		table = table.WithHasHeader()
	}
	out, err := table.Srender()
	if err != nil {
		// Sin formato: una fila por línea separada por tabs.
		var b strings.Builder
		for _, row := range data {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		return b.String()
	}
	return out + "\n"
}
