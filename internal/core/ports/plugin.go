// internal/core/ports/plugin.go
package ports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/core/runstate"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/logx"
)

// Kind distingue plugins compilados de plugins declarativos (reglas YAML).
type Kind uint8

const (
	KindCode Kind = iota
	KindRule
)

func (k Kind) String() string {
	if k == KindRule {
		return "rule"
	}
	return "code"
}

// Metadata describe un plugin. Los campos vacíos se completan con BaseMetadata.
type Metadata struct {
	Name        string   `yaml:"name" json:"name"`
	Author      string   `yaml:"author" json:"author"`
	Description string   `yaml:"description" json:"description"`
	References  []string `yaml:"references" json:"references"`
	Datetime    string   `yaml:"datetime" json:"datetime"`
}

// BaseMetadata son los valores por defecto heredados por todos los plugins.
var BaseMetadata = Metadata{
	Author:      "unknown",
	Description: "-",
	References:  []string{"-"},
	Datetime:    "-",
}

// WithDefaults completa los campos vacíos con BaseMetadata y name.
func (m Metadata) WithDefaults(name string) Metadata {
	if m.Name == "" {
		m.Name = name
	}
	if m.Author == "" {
		m.Author = BaseMetadata.Author
	}
	if m.Description == "" {
		m.Description = BaseMetadata.Description
	}
	if len(m.References) == 0 {
		m.References = append([]string(nil), BaseMetadata.References...)
	}
	if m.Datetime == "" {
		m.Datetime = BaseMetadata.Datetime
	}
	return m
}

// Descriptor es la definición descubierta en disco, antes de cargar el plugin.
type Descriptor struct {
	Name         string
	Command      string // primer directorio bajo el path base (collect, login, ...)
	Kind         Kind
	Impl         string // nombre de la implementación compilada (KindCode)
	Capabilities []string
	Metadata     Metadata
	Disabled     bool // enable: false en la configuración del plugin

	Path string
	Stem string
	Ext  string
}

// ID identifica el fichero de origen; dos descriptores con el mismo ID son el mismo plugin.
func (d Descriptor) ID() string {
	return d.Path + "|" + d.Stem + "|" + d.Ext
}

// Supports indica si el plugin declara la capability key.
func (d Descriptor) Supports(key string) bool {
	for _, c := range d.Capabilities {
		if c == key {
			return true
		}
	}
	return false
}

// CapabilityFunc es una unidad invocable de un plugin.
type CapabilityFunc func(ctx context.Context, jc *JobContext) (*resulttree.Node, error)

// Plugin es la forma cargada de un plugin. Un resultado nil significa
// "sin resultado" y no es un error.
type Plugin interface {
	Descriptor() Descriptor
	Capabilities() []string
	Invoke(ctx context.Context, capability string, jc *JobContext) (*resulttree.Node, error)

	// Decorated devuelve el punto de entrada del modo consola, si existe.
	Decorated() (CapabilityFunc, bool)
}

// JobContext es el contexto construido para cada job.
type JobContext struct {
	Options map[string]any
	Config  *config.Config
	Target  domain.Target
	Pause   *runstate.PauseGate
	State   *runstate.State
	Logger  logx.Logger
}

// PluginName devuelve el plugin activo guardado en Options.
func (jc *JobContext) PluginName() string {
	if jc == nil {
		return ""
	}
	name, _ := jc.Options["plugin"].(string)
	return name
}

// CopyOptions hace una copia superficial de base y fija el plugin activo.
func CopyOptions(base map[string]any, plugin string) map[string]any {
	out := make(map[string]any, len(base)+1)
	for k, v := range base {
		out[k] = v
	}
	out["plugin"] = plugin
	return out
}

// Table es una tabla de despacho capability -> función.
type Table map[string]CapabilityFunc

// Capabilities devuelve las claves ordenadas.
func (t Table) Capabilities() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Invoke resuelve capability en la tabla.
func (t Table) Invoke(ctx context.Context, capability string, jc *JobContext) (*resulttree.Node, error) {
	fn, ok := t[capability]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, capability)
	}
	return fn(ctx, jc)
}

// CodePlugin implementa Plugin sobre una Table. Es la base de los plugins compilados.
type CodePlugin struct {
	Desc    Descriptor
	Table   Table
	Console CapabilityFunc
}

func (p *CodePlugin) Descriptor() Descriptor { return p.Desc }
func (p *CodePlugin) Capabilities() []string { return p.Table.Capabilities() }
func (p *CodePlugin) Decorated() (CapabilityFunc, bool) {
	return p.Console, p.Console != nil
}

func (p *CodePlugin) Invoke(ctx context.Context, capability string, jc *JobContext) (*resulttree.Node, error) {
	return p.Table.Invoke(ctx, capability, jc)
}

// KnownCapability indica si key es una clave de target conocida.
func KnownCapability(key string) bool {
	switch strings.ToLower(key) {
	case domain.KeyIP, domain.KeyDomain, domain.KeySubdomain, domain.KeyURL:
		return true
	}
	return false
}
