// internal/core/usecases/job.go
package usecases

import (
	"context"
	"fmt"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/core/runstate"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/errors"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/workerpool"
)

// Job es un par (plugin, target) enviado al worker pool.
type Job struct {
	Plugin ports.Plugin
	Target domain.Target
}

// Name devuelve el nombre del plugin del job.
func (j Job) Name() string {
	return j.Plugin.Descriptor().Name
}

// JobRunner ejecuta jobs individuales. Un fallo del plugin nunca sale de
// aquí: se registra como warning y el resultado queda ausente.
type JobRunner struct {
	cfg      *config.Config
	options  map[string]any
	state    *runstate.State
	gate     *runstate.PauseGate
	notifier ports.JobNotifier
	console  bool
	logger   logx.Logger
}

// JobRunnerOptions configura el runner.
type JobRunnerOptions struct {
	Config   *config.Config
	Options  map[string]any
	State    *runstate.State
	Gate     *runstate.PauseGate
	Notifier ports.JobNotifier
	Logger   logx.Logger
}

// NewJobRunner crea un runner. El modo consola se toma de Config.Console.
func NewJobRunner(opts JobRunnerOptions) *JobRunner {
	if opts.Config == nil {
		def := config.DefaultConfig()
		opts.Config = &def
	}
	if opts.State == nil {
		opts.State = runstate.New()
	}
	if opts.Gate == nil {
		opts.Gate = runstate.NewPauseGate()
	}
	if opts.Notifier == nil {
		opts.Notifier = ports.NopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	return &JobRunner{
		cfg:      opts.Config,
		options:  opts.Options,
		state:    opts.State,
		gate:     opts.Gate,
		notifier: opts.Notifier,
		console:  opts.Config.Console,
		logger:   opts.Logger.With("component", "job"),
	}
}

// Task adapta el job a una tarea del worker pool. La tarea nunca devuelve error.
func (r *JobRunner) Task(job Job) workerpool.Task[*resulttree.Node] {
	return workerpool.Task[*resulttree.Node]{
		Name: job.Name() + "@" + job.Target.String(),
		Run: func(ctx context.Context) (*resulttree.Node, error) {
			return r.Execute(ctx, job), nil
		},
	}
}

// Execute ejecuta el job y reporta su finalización al estado compartido.
func (r *JobRunner) Execute(ctx context.Context, job Job) (result *resulttree.Node) {
	name := job.Name()
	r.state.Started(name)

	jc := &ports.JobContext{
		Options: ports.CopyOptions(r.options, name),
		Config:  r.cfg,
		Target:  job.Target,
		Pause:   r.gate,
		State:   r.state,
		Logger:  r.logger.With("plugin", name),
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.warn(name, job.Target, errors.FromPanic(rec))
			result = nil
		}

		var echo runstate.EchoFunc
		if !r.console {
			echo = func(plugin string, res *resulttree.Node) {
				r.notifier.JobDone(plugin, job.Target, res)
			}
		}
		r.state.Complete(name, result, echo)
	}()

	out, err := r.invoke(ctx, job, jc)
	if err != nil {
		r.warn(name, job.Target, err)
		return nil
	}
	return out
}

func (r *JobRunner) invoke(ctx context.Context, job Job, jc *ports.JobContext) (*resulttree.Node, error) {
	if !r.console {
		return job.Plugin.Invoke(ctx, job.Target.Key, jc)
	}

	fn, ok := job.Plugin.Decorated()
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDecorationMissing, job.Name())
	}
	r.gate.Close()
	defer r.gate.Open()
	return fn(ctx, jc)
}

func (r *JobRunner) warn(plugin string, target domain.Target, cause error) {
	err := errors.ForPlugin(plugin, target.String(), domain.ErrJobFailed, cause)
	r.logger.Warn("job failed", "plugin", plugin, "target", target.String(), "error", err.Error())
}
