// internal/core/usecases/app.go
package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/core/runstate"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/logx"
)

// PluginProvider resuelve los plugins cargados de un comando.
// registry.Loader lo implementa.
type PluginProvider interface {
	Plugins(ctx context.Context, command string, filters []string) ([]ports.Plugin, error)
}

// AliveChecker decide si un target merece procesarse.
type AliveChecker interface {
	Alive(ctx context.Context, t domain.Target) bool
}

// AlwaysAlive no comprueba nada: todo target se considera vivo.
type AlwaysAlive struct{}

func (AlwaysAlive) Alive(context.Context, domain.Target) bool { return true }

// ProgressMonitor se ejecuta mientras dura el scheduler de un target.
type ProgressMonitor interface {
	Run(ctx context.Context, state *runstate.State, gate *runstate.PauseGate)
}

// App ejecuta una o varias ejecuciones de nivel superior: un scheduler por
// target semilla y por comando, encadenando comandos a través del dataset.
type App struct {
	cfg      *config.Config
	plugins  PluginProvider
	notifier ports.JobNotifier
	alive    AliveChecker
	monitor  ProgressMonitor
	gate     *runstate.PauseGate
	onRecord func(ports.Record)
	logger   logx.Logger

	runID     string
	threshold runstate.Threshold
}

// AppOptions configura la aplicación.
type AppOptions struct {
	Config   *config.Config
	Plugins  PluginProvider
	Notifier ports.JobNotifier
	Alive    AliveChecker
	Monitor  ProgressMonitor
	Logger   logx.Logger

	// OnRecord recibe cada Record en cuanto termina su ejecución.
	OnRecord func(ports.Record)
}

// NewApp crea la aplicación.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		def := config.DefaultConfig()
		opts.Config = &def
	}
	if opts.Alive == nil {
		opts.Alive = AlwaysAlive{}
	}
	if opts.Notifier == nil {
		opts.Notifier = ports.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	return &App{
		cfg:      opts.Config,
		plugins:  opts.Plugins,
		notifier: opts.Notifier,
		alive:    opts.Alive,
		monitor:  opts.Monitor,
		gate:     runstate.NewPauseGate(),
		onRecord: opts.OnRecord,
		logger:   opts.Logger.With("component", "app"),
		runID:    uuid.NewString(),
	}
}

// RunID identifica la invocación; todos los Record la comparten.
func (a *App) RunID() string { return a.runID }

// Run ejecuta cada comando de la configuración sobre seeds. A partir del
// segundo comando las semillas salen de los resultados del anterior.
func (a *App) Run(ctx context.Context, seeds []domain.Target) (ports.Dataset, error) {
	if a.plugins == nil {
		return nil, fmt.Errorf("%w: no plugin provider", domain.ErrInvalidConfig)
	}
	if len(a.cfg.Commands) == 0 {
		return nil, fmt.Errorf("%w: no command given", domain.ErrInvalidConfig)
	}

	var dataset ports.Dataset
	targets := seeds

	for i, command := range a.cfg.Commands {
		if i > 0 {
			targets = ChainTargets(dataset.ForCommand(a.cfg.Commands[i-1]), a.cfg.Derive)
			a.logger.Debug("chained targets", "command", command, "targets", len(targets))
		}

		plugins, err := a.plugins.Plugins(ctx, command, a.cfg.Plugins)
		if err != nil {
			return dataset, err
		}

		records := a.runCommand(ctx, command, plugins, targets)
		dataset = append(dataset, records...)
	}
	return dataset, nil
}

func (a *App) runCommand(ctx context.Context, command string, plugins []ports.Plugin, targets []domain.Target) ports.Dataset {
	state := runstate.New()
	state.CarryThreshold(a.threshold)
	defer func() { a.threshold = state.Threshold() }()

	runner := NewJobRunner(JobRunnerOptions{
		Config:   a.cfg,
		Options:  a.options(command),
		State:    state,
		Gate:     a.gate,
		Notifier: a.notifier,
		Logger:   a.logger,
	})
	sched := NewScheduler(SchedulerOptions{
		Plugins: plugins,
		Runner:  runner,
		Config:  a.cfg,
		Logger:  a.logger,
	})

	var out ports.Dataset
	for _, t := range targets {
		a.logger.Info("target", "command", command, "target", t.Value)
		if !a.alive.Alive(ctx, t) {
			a.logger.Warn("target cannot be reached", "target", t.String())
			continue
		}

		content := a.withMonitor(ctx, state, func() *resulttree.Node {
			return sched.Run(ctx, []domain.Target{t}, a.cfg.General.Depth, a.cfg.General.Threads)
		})
		record := ports.Record{RunID: a.runID, Command: command, Root: t, Content: content}
		out = append(out, record)
		if a.onRecord != nil {
			a.onRecord(record)
		}
	}
	return out
}

func (a *App) withMonitor(ctx context.Context, state *runstate.State, fn func() *resulttree.Node) *resulttree.Node {
	if a.monitor == nil {
		return fn()
	}
	mctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.monitor.Run(mctx, state, a.gate)
	}()

	result := fn()
	cancel()
	<-done
	return result
}

// options son las opciones de ejecución compartidas por todos los jobs.
func (a *App) options(command string) map[string]any {
	return map[string]any{
		"command": command,
		"console": a.cfg.Console,
		"verbose": a.cfg.Verbose,
		"depth":   a.cfg.General.Depth,
		"threads": a.cfg.General.Threads,
		"batch":   a.cfg.General.BatchWorkers,
		"timeout": a.cfg.General.Timeout,
	}
}

// ChainTargets deriva las semillas de un comando a partir de los resultados
// de otro, con las mismas reglas que la expansión por niveles.
func ChainTargets(records ports.Dataset, rules map[string]config.DeriveRule) []domain.Target {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	contents := records.Contents()
	set := domain.NewTargetSet()
	for _, source := range keys {
		rule := rules[source]
		if rule.Key == "" {
			continue
		}
		for _, value := range resulttree.ScalarTexts(resulttree.ExtractAll(contents, source)) {
			if t := DeriveTarget(rule, value); t.Validate() == nil {
				set.Add(t)
			}
		}
	}
	return set.Items()
}
