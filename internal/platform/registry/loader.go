// internal/platform/registry/loader.go
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/platform/cache"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/errors"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/rules"
)

// Loader resuelve descriptores en plugins cargados para una ejecución.
// Descubrimiento y carga se cachean: un mismo fichero se parsea una vez
// aunque se consulte en cada nivel de profundidad.
type Loader struct {
	reg    *Registry
	cfg    *config.Config
	kit    *kit.Kit
	logger logx.Logger

	discovered *cache.Memory[string, []ports.Descriptor]
	loaded     *cache.Memory[string, ports.Plugin]
}

// NewLoader crea un loader con caché propia.
func (r *Registry) NewLoader(cfg *config.Config, k *kit.Kit, logger logx.Logger) *Loader {
	if logger == nil {
		logger = logx.NewNop()
	}
	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	return &Loader{
		reg:        r,
		cfg:        cfg,
		kit:        k,
		logger:     logger.With("component", "plugin-loader"),
		discovered: cache.New[string, []ports.Descriptor](64, 0),
		loaded:     cache.New[string, ports.Plugin](1024, 0),
	}
}

// Discover descubre los plugins de command bajo el directorio de plugins y
// marca los deshabilitados por configuración.
func (l *Loader) Discover(command string, filters []string) ([]ports.Descriptor, error) {
	key := command + "\x00" + strings.Join(filters, "\x00")
	descs, err := l.discovered.GetOrLoad(key, func() ([]ports.Descriptor, error) {
		base := filepath.Join(l.cfg.PluginDir, command)
		if _, err := os.Stat(base); err != nil {
			return nil, fmt.Errorf("plugin command %q: %w", command, err)
		}
		found, err := l.reg.Discover(base, filters)
		if err != nil {
			return nil, err
		}
		for i := range found {
			found[i].Command = command
			found[i].Disabled = !l.cfg.PluginEnabled(found[i].Name)
		}
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]ports.Descriptor(nil), descs...), nil
}

// Load convierte un descriptor en plugin. Los errores envuelven domain.ErrLoad
// y solo afectan a ese plugin.
func (l *Loader) Load(desc ports.Descriptor) (ports.Plugin, error) {
	if desc.Disabled {
		return nil, fmt.Errorf("%w: %s", domain.ErrPluginDisabled, desc.Name)
	}
	return l.loaded.GetOrLoad(desc.ID(), func() (ports.Plugin, error) {
		switch desc.Kind {
		case ports.KindRule:
			return l.loadRule(desc)
		default:
			return l.loadCode(desc)
		}
	})
}

func (l *Loader) loadCode(desc ports.Descriptor) (p ports.Plugin, err error) {
	factory, ok := l.reg.factory(desc.Impl)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrLoad, domain.ErrUnknownPlugin, desc.Impl)
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %w", domain.ErrLoad, errors.FromPanic(r))
		}
	}()
	p, err = factory(desc, l.kit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoad, desc.Name, err)
	}
	return p, nil
}

func (l *Loader) loadRule(desc ports.Descriptor) (ports.Plugin, error) {
	data, err := os.ReadFile(filepath.Join(desc.Path, desc.Stem+desc.Ext))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, err)
	}
	def, err := rules.Parse(data)
	if err != nil {
		return nil, err
	}
	if l.kit == nil || l.kit.HTTP == nil {
		return nil, fmt.Errorf("%w: %s: no http client", domain.ErrLoad, desc.Name)
	}
	return rules.NewPlugin(desc, def, l.kit.HTTP), nil
}

// Plugins descubre y carga los plugins habilitados de command. Los fallos
// de carga se registran como warning y el plugin se omite.
func (l *Loader) Plugins(_ context.Context, command string, filters []string) ([]ports.Plugin, error) {
	descs, err := l.Discover(command, filters)
	if err != nil {
		return nil, err
	}

	plugins := make([]ports.Plugin, 0, len(descs))
	for _, desc := range descs {
		if desc.Disabled {
			l.logger.Debug("plugin disabled", "plugin", desc.Name)
			continue
		}
		p, err := l.Load(desc)
		if err != nil {
			l.logger.Warn("plugin load failed", "plugin", desc.Name, "error", err.Error())
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// Reset vacía las cachés; se usa entre ejecuciones independientes.
func (l *Loader) Reset() {
	l.discovered.Clear()
	l.loaded.Clear()
}
