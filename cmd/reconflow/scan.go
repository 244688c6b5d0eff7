// cmd/reconflow/scan.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reconflow/internal/adapters/output"
	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/usecases"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/platform/ui"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [target...]",
		Short: "Run plugin commands over seed targets",
		Example: `  reconflow scan -c collect -t example.com
  reconflow scan -c collect -c login -t domain:example.com -d 2 -o results/
  reconflow scan -c login -p redis --console -t ip:10.0.0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
			}
			cfg.Targets = append(cfg.Targets, args...)
			return runScan(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runScan(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	if len(cfg.Commands) == 0 {
		return fmt.Errorf("%w: no command given (-c collect)", domain.ErrInvalidConfig)
	}
	seeds, err := seedTargets(cfg.Targets)
	if err != nil {
		return err
	}

	lvl := logx.ParseLevel(os.Getenv("RECONFLOW_LOG_LEVEL"))
	if cfg.Verbose {
		lvl = logx.LevelDebug
	}
	logger := logx.NewWithWriter(stderr, lvl)

	monitor := ui.NewMonitor(stdout)
	logx.ClearLine(logger, monitor.Enabled())

	k, err := kit.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}

	var stream *output.StreamingWriter
	app := usecases.NewApp(usecases.AppOptions{
		Config:   &cfg,
		Plugins:  registry.Global().NewLoader(&cfg, k, logger),
		Notifier: ui.NewEcho(stdout, monitor.Enabled()),
		Monitor:  monitor,
		Logger:   logger,
		OnRecord: func(r ports.Record) {
			if stream != nil {
				stream.Record(r)
			}
		},
	})
	if cfg.Output != "" {
		stream = output.NewStreamingWriter(partialDir(cfg.Output), app.RunID(), logger)
	}

	presenter := ui.NewPresenter(stdout)
	presenter.Start(ui.ScanInfo{
		RunID:     app.RunID(),
		Commands:  cfg.Commands,
		Targets:   targetStrings(seeds),
		PluginDir: cfg.PluginDir,
		Depth:     cfg.General.Depth,
		Threads:   cfg.General.Threads,
		Console:   cfg.Console,
	})

	start := time.Now()
	dataset, runErr := app.Run(ctx, seeds)
	if errors.Is(runErr, domain.ErrNoPluginsMatched) {
		presenter.Warning(fmt.Sprintf("No plugins matched under %s", cfg.PluginDir))
		if len(dataset) == 0 {
			return nil
		}
		// Los comandos anteriores de la cadena sí produjeron registros.
		runErr = nil
	}
	if runErr != nil {
		logger.Err(runErr, "phase", "run")
	}

	if cfg.Output != "" {
		if err := exportDataset(dataset, cfg.Output); err != nil {
			logger.Err(err, "phase", "output", "partials", stream.GetPattern())
			return err
		}
		if err := stream.Cleanup(); err != nil {
			logger.Warn("failed to remove partial files", "error", err.Error())
		}
	}

	presenter.Finish(ui.ScanStats{
		Duration: time.Since(start),
		Records:  len(dataset),
		Keys:     keyCounts(dataset),
		Output:   cfg.Output,
	})
	return runErr
}

// seedTargets parsea los targets "key:value" o con key inferida.
func seedTargets(raw []string) ([]domain.Target, error) {
	set := domain.NewTargetSet()
	for _, r := range raw {
		t, err := domain.ParseTarget(r)
		if err != nil {
			return nil, err
		}
		set.Add(t)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: no seed target (-t example.com)", domain.ErrInvalidConfig)
	}
	return set.Items(), nil
}

func targetStrings(ts []domain.Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func keyCounts(ds ports.Dataset) map[string]int {
	out := map[string]int{}
	for _, r := range ds {
		for _, k := range r.Content.Keys() {
			out[k]++
		}
	}
	return out
}

func exportDataset(ds ports.Dataset, path string) error {
	exp := output.NewExporter(path)
	if err := exp.Export(ds, ports.ExportOptions{OutputPath: path, Pretty: true}); err != nil {
		return fmt.Errorf("%s output: %w", exp.Name(), err)
	}
	return nil
}

// partialDir es el directorio donde se vuelcan los records parciales.
func partialDir(outputPath string) string {
	if strings.HasSuffix(outputPath, string(os.PathSeparator)) || strings.HasSuffix(outputPath, "/") {
		return outputPath
	}
	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		return outputPath
	}
	return filepath.Dir(outputPath)
}
