// internal/platform/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix es el prefijo de las variables de entorno (RECONFLOW_GENERAL_DEPTH, ...).
const EnvPrefix = "RECONFLOW"

type Config struct {
	General General `mapstructure:"general"`

	// Plugins
	PluginDir string   `mapstructure:"plugin_dir"`
	Commands  []string `mapstructure:"commands"`
	Plugins   []string `mapstructure:"plugins"` // filtros: nombre, !nombre, @capability

	// Targets semilla en formato key:value (o valor con key inferida)
	Targets []string `mapstructure:"targets"`

	Console bool   `mapstructure:"console"`
	Verbose bool   `mapstructure:"verbose"`
	Output  string `mapstructure:"output"`

	// Proxy
	ProxyURL string `mapstructure:"proxy"`

	Segment Segment `mapstructure:"segment"`

	// Derive: key de resultado -> nuevo target para el siguiente nivel
	Derive map[string]DeriveRule `mapstructure:"derive"`

	// Settings: sección libre por plugin (enable, port, workers, ...)
	Settings map[string]map[string]any `mapstructure:"settings"`
}

type General struct {
	Depth        int           `mapstructure:"depth"`   // < 0 = sin límite
	Threads      int           `mapstructure:"threads"` // jobs concurrentes por nivel
	BatchWorkers int           `mapstructure:"batch"`   // sub-tareas concurrentes por job
	Timeout      time.Duration `mapstructure:"timeout"` // timeout de red por petición
}

// Segment controla la agregación de IPs en rangos.
type Segment struct {
	IPv4Bits int `mapstructure:"ipv4_bits"`
	IPv6Bits int `mapstructure:"ipv6_bits"`
}

// DeriveRule describe cómo convertir un valor extraído en un target nuevo.
// Template admite {value}.
type DeriveRule struct {
	Key      string `mapstructure:"key"`
	Template string `mapstructure:"template"`
}

// DefaultConfig retorna una configuración por defecto.
func DefaultConfig() Config {
	return Config{
		General: General{
			Depth:        1,
			Threads:      10,
			BatchWorkers: 50,
			Timeout:      10 * time.Second,
		},
		PluginDir: "plugins",
		Segment: Segment{
			IPv4Bits: 24,
			IPv6Bits: 64,
		},
		Derive: map[string]DeriveRule{
			"subdomain": {Key: "url", Template: "http://{value}"},
		},
		Settings: map[string]map[string]any{},
	}
}

// RegisterFlags declara los flags de escaneo en fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.StringP("config", "f", "", "Config file (YAML)")
	fs.StringArrayP("command", "c", nil, "Plugin command to run, repeatable (e.g. collect, login)")
	fs.StringArrayP("target", "t", nil, "Seed target key:value or bare value, repeatable")
	fs.StringSliceP("plugin", "p", nil, "Plugin filters: name, !name, @capability")
	fs.IntP("depth", "d", def.General.Depth, "Expansion depth (negative = unlimited)")
	fs.IntP("threads", "n", def.General.Threads, "Concurrent jobs per level")
	fs.Int("batch", def.General.BatchWorkers, "Concurrent sub-tasks per job")
	fs.Duration("timeout", def.General.Timeout, "Network timeout per request")
	fs.String("plugin-dir", def.PluginDir, "Plugin directory")
	fs.Bool("console", false, "Interactive console mode")
	fs.BoolP("verbose", "v", false, "Debug logging")
	fs.StringP("output", "o", "", "Write dataset as JSON to this file")
	fs.String("proxy", "", "HTTP(S) proxy URL for outbound requests")
}

// flagKeys asocia cada flag con su clave de configuración.
var flagKeys = map[string]string{
	"command":    "commands",
	"target":     "targets",
	"plugin":     "plugins",
	"depth":      "general.depth",
	"threads":    "general.threads",
	"batch":      "general.batch",
	"timeout":    "general.timeout",
	"plugin-dir": "plugin_dir",
	"console":    "console",
	"verbose":    "verbose",
	"output":     "output",
	"proxy":      "proxy",
}

// Load inicializa la configuración: defaults -> fichero -> ENV -> FLAGS.
// fs puede ser nil (sin flags).
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	path := getenv(EnvPrefix+"_CONFIG", "")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// Las listas desde ENV llegan como un único string.
	cfg.Commands = splitList(cfg.Commands)
	cfg.Targets = splitList(cfg.Targets)
	cfg.Plugins = splitList(cfg.Plugins)

	normalize(&cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("general.depth", def.General.Depth)
	v.SetDefault("general.threads", def.General.Threads)
	v.SetDefault("general.batch", def.General.BatchWorkers)
	v.SetDefault("general.timeout", def.General.Timeout)
	v.SetDefault("plugin_dir", def.PluginDir)
	v.SetDefault("segment.ipv4_bits", def.Segment.IPv4Bits)
	v.SetDefault("segment.ipv6_bits", def.Segment.IPv6Bits)
	v.SetDefault("console", false)
	v.SetDefault("verbose", false)
	v.SetDefault("output", "")
	v.SetDefault("proxy", "")
	v.SetDefault("commands", []string{})
	v.SetDefault("targets", []string{})
	v.SetDefault("plugins", []string{})
}

func normalize(c *Config) {
	if c.General.Threads < 1 {
		c.General.Threads = 1
	}
	if c.General.BatchWorkers < 1 {
		c.General.BatchWorkers = 1
	}
	if c.General.Timeout < 0 {
		c.General.Timeout = 0
	}
	if c.General.Depth < 0 {
		c.General.Depth = -1
	}
	if c.PluginDir == "" {
		c.PluginDir = "plugins"
	}
	if c.Segment.IPv4Bits <= 0 || c.Segment.IPv4Bits > 32 {
		c.Segment.IPv4Bits = 24
	}
	if c.Segment.IPv6Bits <= 0 || c.Segment.IPv6Bits > 128 {
		c.Segment.IPv6Bits = 64
	}
	if c.Derive == nil {
		c.Derive = map[string]DeriveRule{}
	}
	for k, r := range c.Derive {
		r.Key = strings.ToLower(strings.TrimSpace(r.Key))
		if r.Template == "" {
			r.Template = "{value}"
		}
		c.Derive[k] = r
	}
	if c.Settings == nil {
		c.Settings = map[string]map[string]any{}
	}
	c.ProxyURL = strings.TrimSpace(c.ProxyURL)
}

// Unlimited indica si la profundidad no tiene límite.
func (c Config) Unlimited() bool { return c.General.Depth < 0 }

// PluginSettings devuelve la sección de un plugin (nunca nil).
// Las claves llegan en minúsculas desde viper.
func (c Config) PluginSettings(name string) map[string]any {
	if s, ok := c.Settings[strings.ToLower(name)]; ok && s != nil {
		return s
	}
	return map[string]any{}
}

// PluginEnabled es false solo si la sección del plugin declara enable: false.
func (c Config) PluginEnabled(name string) bool {
	raw, ok := c.PluginSettings(name)["enable"]
	if !ok {
		return true
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return parseBool(v)
	default:
		return fmt.Sprint(v) != "0"
	}
}

// PluginInt lee un entero de la sección de un plugin.
func (c Config) PluginInt(name, key string, def int) int {
	raw, ok := c.PluginSettings(name)[key]
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return parseInt(fmt.Sprint(v), def)
	}
}

// PluginString lee un string de la sección de un plugin.
func (c Config) PluginString(name, key, def string) string {
	raw, ok := c.PluginSettings(name)[key]
	if !ok || raw == nil {
		return def
	}
	return fmt.Sprint(raw)
}

// Helpers

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(v string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return i
}
