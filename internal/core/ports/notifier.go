// internal/core/ports/notifier.go
package ports

import (
	"reconflow/internal/core/domain"
	"reconflow/internal/core/resulttree"
)

// JobNotifier recibe el resultado individual de cada job terminado
// (fuera del modo consola). La UI lo usa para el echo por job.
type JobNotifier interface {
	JobDone(plugin string, target domain.Target, result *resulttree.Node)
}

// NotifierFunc adapta una función a JobNotifier.
type NotifierFunc func(plugin string, target domain.Target, result *resulttree.Node)

func (f NotifierFunc) JobDone(plugin string, target domain.Target, result *resulttree.Node) {
	f(plugin, target, result)
}

// NopNotifier descarta los resultados.
type NopNotifier struct{}

func (NopNotifier) JobDone(string, domain.Target, *resulttree.Node) {}
