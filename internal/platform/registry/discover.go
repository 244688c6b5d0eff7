// internal/platform/registry/discover.go
package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
)

// Extensiones reconocidas.
const (
	ExtManifest = ".plugin" // plugin compilado, manifiesto YAML
	ExtRule     = ".yml"    // plugin declarativo
	ExtRuleAlt  = ".yaml"
)

// Marcadores de filtro.
const (
	excludeMarker    = "!"
	capabilityMarker = "@"
	privateMarker    = "_"
)

// manifest es el contenido de un fichero .plugin.
type manifest struct {
	ports.Metadata `yaml:",inline"`
	Impl           string `yaml:"impl"`
}

// ruleHeader es la parte de un plugin declarativo necesaria para descubrirlo.
// La validación completa ocurre al cargarlo.
type ruleHeader struct {
	Name   string `yaml:"name"`
	Target string `yaml:"target"`
	Detail struct {
		Author      string   `yaml:"author"`
		Links       []string `yaml:"links"`
		Description string   `yaml:"description"`
		Datetime    string   `yaml:"datetime"`
	} `yaml:"detail"`
}

// Filter es un conjunto de tokens de selección ya clasificados.
type Filter struct {
	names        map[string]struct{}
	capabilities map[string]struct{}
	excluded     map[string]struct{}
}

// ParseFilter clasifica tokens: "name", "!name" (exclusión), "@cap" (capability).
func ParseFilter(tokens []string) Filter {
	f := Filter{
		names:        map[string]struct{}{},
		capabilities: map[string]struct{}{},
		excluded:     map[string]struct{}{},
	}
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "" || tok == excludeMarker || tok == capabilityMarker:
		case strings.HasPrefix(tok, excludeMarker):
			f.excluded[tok[1:]] = struct{}{}
		case strings.HasPrefix(tok, capabilityMarker):
			f.capabilities[strings.ToLower(tok[1:])] = struct{}{}
		default:
			f.names[tok] = struct{}{}
		}
	}
	return f
}

// SelectsAll reporta si el filtro no tiene selecciones positivas
// (vacío o solo exclusiones).
func (f Filter) SelectsAll() bool {
	return len(f.names) == 0 && len(f.capabilities) == 0
}

// Match decide si desc pasa el filtro.
func (f Filter) Match(desc ports.Descriptor) bool {
	if _, ok := f.excluded[desc.Stem]; ok {
		return false
	}
	if _, ok := f.excluded[desc.Name]; ok {
		return false
	}
	if f.SelectsAll() {
		return true
	}
	if _, ok := f.names[desc.Stem]; ok {
		return true
	}
	if _, ok := f.names[desc.Name]; ok {
		return true
	}
	for _, c := range desc.Capabilities {
		if _, ok := f.capabilities[c]; ok {
			return true
		}
	}
	return false
}

// Discover recorre basePath y devuelve un descriptor por cada fichero de
// plugin que pase el filtro. Los ficheros con prefijo "_" se ignoran.
// Un plugin mal formado se omite con un warning; los errores de lectura
// del árbol se propagan. Sin coincidencias devuelve ErrNoPluginsMatched.
func (r *Registry) Discover(basePath string, filters []string) ([]ports.Descriptor, error) {
	filter := ParseFilter(filters)
	seen := make(map[string]struct{})
	var out []ports.Descriptor

	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !recognized(ext) || strings.HasPrefix(name, privateMarker) {
			return nil
		}

		desc := ports.Descriptor{
			Path:    filepath.Dir(path),
			Stem:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Command: commandOf(basePath, path),
		}
		if _, dup := seen[desc.ID()]; dup {
			return nil
		}
		seen[desc.ID()] = struct{}{}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read plugin %s: %w", path, err)
		}

		desc, err = r.describe(desc, data)
		if err != nil {
			r.logger.Warn("skipping plugin", "file", path, "error", err.Error())
			return nil
		}

		if filter.Match(desc) {
			out = append(out, desc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s %v", domain.ErrNoPluginsMatched, basePath, filters)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Command != out[j].Command {
			return out[i].Command < out[j].Command
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// describe completa el descriptor con la cabecera del fichero.
func (r *Registry) describe(desc ports.Descriptor, data []byte) (ports.Descriptor, error) {
	switch desc.Ext {
	case ExtManifest:
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return desc, fmt.Errorf("%w: %v", domain.ErrLoad, err)
		}
		desc.Kind = ports.KindCode
		desc.Impl = m.Impl
		if desc.Impl == "" {
			desc.Impl = desc.Stem
		}
		caps, ok := r.Capabilities(desc.Impl)
		if !ok {
			return desc, fmt.Errorf("%w: %s", domain.ErrUnknownPlugin, desc.Impl)
		}
		desc.Capabilities = caps
		desc.Name = firstNonEmpty(m.Name, desc.Stem)
		desc.Metadata = m.Metadata.WithDefaults(desc.Name)

	default:
		var h ruleHeader
		if err := yaml.Unmarshal(data, &h); err != nil {
			return desc, fmt.Errorf("%w: %v", domain.ErrLoad, err)
		}
		desc.Kind = ports.KindRule
		target := strings.ToLower(strings.TrimSpace(h.Target))
		if target == "" {
			target = domain.KeyURL
		}
		desc.Capabilities = []string{target}
		desc.Name = desc.Stem
		desc.Metadata = ports.Metadata{
			Name:        h.Name,
			Author:      h.Detail.Author,
			Description: h.Detail.Description,
			References:  h.Detail.Links,
			Datetime:    h.Detail.Datetime,
		}.WithDefaults(desc.Stem)
	}
	return desc, nil
}

func recognized(ext string) bool {
	switch ext {
	case ExtManifest, ExtRule, ExtRuleAlt:
		return true
	}
	return false
}

// commandOf devuelve el primer directorio de path relativo a base, o el
// nombre de base si el fichero cuelga directamente de él.
func commandOf(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err == nil {
		if dir, _, ok := strings.Cut(filepath.ToSlash(rel), "/"); ok {
			return dir
		}
	}
	return filepath.Base(filepath.Clean(base))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
