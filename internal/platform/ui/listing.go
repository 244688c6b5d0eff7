// internal/platform/ui/listing.go
package ui

import (
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"reconflow/internal/core/ports"
	"reconflow/internal/platform/ui/terminal"
)

const descriptionWidth = 48

// PluginTable renderiza los plugins descubiertos para `reconflow list`.
// Con un único plugin usa la vista de detalle vertical.
func PluginTable(descs []ports.Descriptor) string {
	switch len(descs) {
	case 0:
		return ""
	case 1:
		return pluginDetail(descs[0])
	}

	sorted := append([]ports.Descriptor(nil), descs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Command != sorted[j].Command {
			return sorted[i].Command < sorted[j].Command
		}
		return sorted[i].Name < sorted[j].Name
	})

	data := pterm.TableData{{"Name", "Command", "Kind", "Description", "Support", "Status"}}
	for _, d := range sorted {
		data = append(data, []string{
			d.Name,
			d.Command,
			d.Kind.String(),
			terminal.TruncateVisual(orDash(d.Metadata.Description), descriptionWidth),
			joinOrDash(d.Capabilities, ","),
			StatusOf(d).Label(),
		})
	}
	return renderTable(data, true)
}

func pluginDetail(d ports.Descriptor) string {
	meta := d.Metadata.WithDefaults(d.Name)
	data := pterm.TableData{
		{"Name", meta.Name},
		{"Command", orDash(d.Command)},
		{"Kind", d.Kind.String()},
		{"Author", meta.Author},
		{"Description", meta.Description},
		{"Support", joinOrDash(d.Capabilities, ", ")},
		{"References", strings.Join(meta.References, ", ")},
		{"Date", meta.Datetime},
		{"Path", orDash(d.Path)},
		{"Status", StatusOf(d).Label()},
	}
	return renderTable(data, false)
}
