// internal/core/usecases/scheduler.go
package usecases

import (
	"context"
	"sort"
	"strings"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/iprange"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/workerpool"
)

// SegmentsKey es la entrada de resumen con los segmentos de red agregados.
const SegmentsKey = "NetworkSegments"

// Scheduler ejecuta el bucle BFS acotado por profundidad sobre un conjunto
// fijo de plugins cargados.
type Scheduler struct {
	plugins []ports.Plugin
	runner  *JobRunner
	cfg     *config.Config
	logger  logx.Logger

	// onSubmit observa cada job enviado.
	onSubmit func(Job)
}

// SchedulerOptions configura el scheduler.
type SchedulerOptions struct {
	Plugins []ports.Plugin
	Runner  *JobRunner
	Config  *config.Config
	Logger  logx.Logger
}

// NewScheduler crea un scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Config == nil {
		def := config.DefaultConfig()
		opts.Config = &def
	}
	if opts.Logger == nil {
		opts.Logger = logx.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = NewJobRunner(JobRunnerOptions{Config: opts.Config, Logger: opts.Logger})
	}
	return &Scheduler{
		plugins: opts.Plugins,
		runner:  opts.Runner,
		cfg:     opts.Config,
		logger:  opts.Logger.With("component", "scheduler"),
	}
}

// Run procesa seeds nivel a nivel. Cada nivel espera a todos sus jobs antes
// de derivar la siguiente frontera. depth < 0 es ilimitado; depth == 0 no
// ejecuta nada. workers acota los jobs concurrentes.
func (s *Scheduler) Run(ctx context.Context, seeds []domain.Target, depth, workers int) *resulttree.Node {
	pool := workerpool.New[*resulttree.Node](ctx, workerpool.Config{Workers: workers, Logger: s.logger})
	defer pool.Close()

	frontier := domain.NewTargetSet(seeds...)
	visited := domain.NewTargetSet()
	var collected []*resulttree.Node

	for level := 0; frontier.Len() > 0 && depth != 0; level++ {
		submitted := 0
		for _, t := range frontier.Items() {
			if !visited.Add(t) {
				continue
			}
			for _, p := range s.plugins {
				if !supports(p, t.Key) {
					continue
				}
				job := Job{Plugin: p, Target: t}
				s.runner.state.AddJobs(1)
				if s.onSubmit != nil {
					s.onSubmit(job)
				}
				pool.Submit(s.runner.Task(job))
				submitted++
			}
		}

		s.logger.Debug("level submitted", "level", level, "targets", frontier.Len(), "jobs", submitted)

		var levelResults []*resulttree.Node
		for _, res := range pool.Join() {
			if res.Err != nil {
				s.logger.Warn("job aborted", "job", res.Name, "error", res.Err.Error())
				continue
			}
			if res.Value != nil {
				levelResults = append(levelResults, res.Value)
			}
		}
		collected = append(collected, levelResults...)

		frontier = s.derive(levelResults, visited)
		if depth > 0 {
			depth--
		}
	}

	return s.summarize(resulttree.Merge(collected...))
}

// derive extrae los targets de la siguiente frontera según cfg.Derive.
func (s *Scheduler) derive(results []*resulttree.Node, visited *domain.TargetSet) *domain.TargetSet {
	next := domain.NewTargetSet()
	if len(results) == 0 {
		return next
	}

	keys := make([]string, 0, len(s.cfg.Derive))
	for k := range s.cfg.Derive {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, source := range keys {
		rule := s.cfg.Derive[source]
		if rule.Key == "" {
			continue
		}
		for _, value := range resulttree.ScalarTexts(resulttree.ExtractAll(results, source)) {
			t := DeriveTarget(rule, value)
			if t.Validate() != nil || visited.Has(t) {
				continue
			}
			next.Add(t)
		}
	}
	return next
}

// DeriveTarget aplica una regla de derivación a un valor extraído.
// El destino "domain" se normaliza a su dominio registrable.
func DeriveTarget(rule config.DeriveRule, value string) domain.Target {
	value = strings.TrimSpace(value)
	if rule.Key == domain.KeyDomain {
		if root, err := kit.RootDomain(value); err == nil {
			value = root
		}
	}
	if rule.Template != "" {
		value = strings.ReplaceAll(rule.Template, "{value}", value)
	}
	return domain.NewTarget(rule.Key, value)
}

// summarize agrega las IPs del árbol en segmentos de red. Si la raíz no es
// un mapeo, el resumen se añade como un elemento más de la secuencia.
func (s *Scheduler) summarize(merged *resulttree.Node) *resulttree.Node {
	ips := resulttree.ScalarTexts(resulttree.Extract(merged, domain.KeyIP))
	if len(ips) == 0 {
		return merged
	}
	segments := iprange.MergeSegments(ips, iprange.Options{
		IPv4Bits: s.cfg.Segment.IPv4Bits,
		IPv6Bits: s.cfg.Segment.IPv6Bits,
	})
	if len(segments) == 0 {
		return merged
	}
	summary := resulttree.Strings(segments...)
	switch {
	case merged.IsMapping():
		return merged.Set(SegmentsKey, summary)
	case merged.IsSequence():
		return merged.Append(resulttree.Map().Set(SegmentsKey, summary))
	default:
		return resulttree.Seq(merged, resulttree.Map().Set(SegmentsKey, summary))
	}
}

func supports(p ports.Plugin, key string) bool {
	for _, c := range p.Capabilities() {
		if c == key {
			return true
		}
	}
	return false
}
