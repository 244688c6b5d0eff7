package kit

import (
	"fmt"
	"strconv"
	"strings"

	"reconflow/internal/core/ports"
)

// OptionSpec declara un parámetro de una capability con su valor por defecto.
// Los valores string admiten {value}, que se sustituye por el valor del target.
type OptionSpec struct {
	Name    string
	Desc    string
	Default any
}

// Options son los parámetros ya resueltos para un job.
type Options map[string]any

// ResolveOptions combina defaults < sección del plugin en config < opciones
// del job, y sustituye {value}.
func ResolveOptions(jc *ports.JobContext, specs []OptionSpec) Options {
	out := make(Options, len(specs))
	for _, s := range specs {
		out[s.Name] = s.Default
	}
	if jc == nil {
		return out
	}
	if jc.Config != nil {
		for _, s := range specs {
			if v, ok := jc.Config.PluginSettings(jc.PluginName())[strings.ToLower(s.Name)]; ok {
				out[s.Name] = v
			}
		}
	}
	for _, s := range specs {
		if v, ok := jc.Options[s.Name]; ok {
			out[s.Name] = v
		}
	}
	for k, v := range out {
		if str, ok := v.(string); ok {
			out[k] = strings.ReplaceAll(str, "{value}", jc.Target.Value)
		}
	}
	return out
}

func (o Options) String(name string) string {
	v, ok := o[name]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (o Options) Int(name string, def int) int {
	switch v := o[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}
