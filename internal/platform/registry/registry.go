// internal/platform/registry/registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"reconflow/internal/core/ports"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
)

// Factory construye un plugin compilado a partir de su descriptor.
// El kit es la superficie de helpers compartida (HTTP, batch, opciones).
type Factory func(desc ports.Descriptor, k *kit.Kit) (ports.Plugin, error)

type registration struct {
	factory      Factory
	capabilities []string
}

// Registry gestiona las implementaciones compiladas disponibles.
// Los manifiestos .plugin en disco las referencian por nombre (impl).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
	logger  logx.Logger
}

var (
	globalRegistry *Registry
	once           sync.Once
)

// Global retorna la instancia global del registry.
func Global() *Registry {
	once.Do(func() {
		globalRegistry = New(logx.NewSilent())
	})
	return globalRegistry
}

// New crea un registry vacío.
func New(logger logx.Logger) *Registry {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &Registry{
		entries: make(map[string]registration),
		logger:  logger.With("component", "plugin-registry"),
	}
}

// Register registra una implementación y las capabilities que declara.
// Típicamente llamado desde init() de cada paquete de plugins.
func (r *Registry) Register(impl string, capabilities []string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if impl == "" {
		return fmt.Errorf("plugin implementation name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for plugin %s", impl)
	}
	if len(capabilities) == 0 {
		return fmt.Errorf("plugin %s declares no capabilities", impl)
	}
	if _, exists := r.entries[impl]; exists {
		return fmt.Errorf("plugin %s is already registered", impl)
	}

	caps := append([]string(nil), capabilities...)
	sort.Strings(caps)
	r.entries[impl] = registration{factory: factory, capabilities: caps}
	r.logger.Debug("plugin registered", "impl", impl, "capabilities", caps)
	return nil
}

// MustRegister es Register para init(); un registro inválido es un bug.
func (r *Registry) MustRegister(impl string, capabilities []string, factory Factory) {
	if err := r.Register(impl, capabilities, factory); err != nil {
		panic(err)
	}
}

// Capabilities devuelve las capabilities declaradas por impl.
func (r *Registry) Capabilities(impl string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[impl]
	if !ok {
		return nil, false
	}
	return append([]string(nil), e.capabilities...), true
}

func (r *Registry) factory(impl string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[impl]
	return e.factory, ok
}

// List retorna los nombres de todas las implementaciones registradas.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered verifica si una implementación está registrada.
func (r *Registry) IsRegistered(impl string) bool {
	_, ok := r.factory(impl)
	return ok
}

// Clear elimina todos los registros (útil para testing).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]registration)
}
