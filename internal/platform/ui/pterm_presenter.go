// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

// PTermPresenter implementa Presenter usando pterm (header, secciones y cajas).
type PTermPresenter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter(out io.Writer) *PTermPresenter {
	return &PTermPresenter{out: out}
}

func (p *PTermPresenter) print(s string) {
	termMu.Lock()
	defer termMu.Unlock()
	fmt.Fprintln(p.out, s)
}

// Start muestra el banner y un panel con la configuración
func (p *PTermPresenter) Start(info ScanInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.print(StylePrimary.Sprint(BannerCompact))
	p.print(pterm.DefaultSection.Sprint("Scan Configuration"))

	content := fmt.Sprintf("%s Targets: %s\n", IconTarget, pterm.Cyan(joinOrDash(info.Targets, ", ")))
	content += fmt.Sprintf("%s Commands: %s\n", IconPlugins, pterm.Yellow(joinOrDash(info.Commands, " -> ")))
	content += fmt.Sprintf("%s Threads: %d\n", IconWorkers, info.Threads)
	content += fmt.Sprintf("   Depth: %s\n", depthString(info.Depth))
	content += fmt.Sprintf("   Console: %s\n", boolToString(info.Console))
	content += fmt.Sprintf("   Plugins: %s\n", orDash(info.PluginDir))
	content += fmt.Sprintf("%s Run: %s", IconInfo, pterm.Gray(orDash(info.RunID)))

	panel := pterm.DefaultBox.
		WithTitle("reconflow").
		WithTitleTopLeft().
		WithLeftPadding(2).
		WithRightPadding(2).
		WithBoxStyle(pterm.NewStyle(pterm.FgLightRed))
	p.print(panel.Sprint(content))
	p.print(pterm.LightBlue(SeparatorHeavy))
}

func (p *PTermPresenter) Info(msg string) {
	p.print(pterm.Info.Sprint(msg))
}

func (p *PTermPresenter) Warning(msg string) {
	p.print(pterm.Warning.Sprint(msg))
}

// Finish muestra el panel de estadísticas y la tabla de claves por record
func (p *PTermPresenter) Finish(stats ScanStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.print(pterm.LightBlue(SeparatorHeavy))

	content := fmt.Sprintf("%s Total Duration: %s\n", IconTime, pterm.Green(FormatDuration(stats.Duration)))
	content += fmt.Sprintf("%s Records: %s", IconSuccess, pterm.Cyan(fmt.Sprintf("%d", stats.Records)))
	if stats.Output != "" {
		content += fmt.Sprintf("\n   Output: %s", stats.Output)
	}

	panel := pterm.DefaultBox.
		WithTitle("Scan Statistics").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgGreen))
	p.print(panel.Sprint(content))

	if len(stats.Keys) == 0 {
		return
	}
	data := pterm.TableData{{"Key", "Records"}}
	for _, k := range sortedKeys(stats.Keys) {
		data = append(data, []string{k, fmt.Sprintf("%d", stats.Keys[k])})
	}
	p.print(strings.TrimRight(renderTable(data, true), "\n"))
}

func depthString(depth int) string {
	if depth < 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", depth)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
