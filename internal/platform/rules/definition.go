// Package rules interprets declarative (YAML) plugins: variables, HTTP rules
// with matchers, a boolean expression over the rules and an output template.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"reconflow/internal/core/domain"
)

// Definition es un plugin declarativo ya parseado.
type Definition struct {
	Name       string          `yaml:"name"`
	Target     string          `yaml:"target"`
	Detail     Detail          `yaml:"detail"`
	Set        Ordered         `yaml:"set"`
	Rules      map[string]Rule `yaml:"rules"`
	Expression string          `yaml:"expression"`
	Output     Ordered         `yaml:"output"`

	expr node
}

type Detail struct {
	Author      string   `yaml:"author"`
	Links       []string `yaml:"links"`
	Description string   `yaml:"description"`
	Datetime    string   `yaml:"datetime"`
}

type Rule struct {
	Request  Request  `yaml:"request"`
	Matchers Matchers `yaml:"matchers"`

	regex *regexp.Regexp
}

type Request struct {
	Method  string            `yaml:"method"`
	Path    string            `yaml:"path"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

// Matchers se combinan con AND: todos los declarados deben cumplirse.
type Matchers struct {
	Status []int             `yaml:"status"`
	Words  []string          `yaml:"words"`
	Regex  string            `yaml:"regex"`
	JSON   map[string]string `yaml:"json"` // ruta gjson -> valor esperado ("" = existe)
	Part   string            `yaml:"part"` // body (defecto), header, all
}

// KV es una entrada de un mapa YAML con orden.
type KV struct {
	Key   string
	Value string
}

// Ordered conserva el orden de declaración de un mapa YAML de strings.
type Ordered []KV

func (o *Ordered) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", value.Line)
	}
	out := make(Ordered, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of %q must be a scalar", v.Line, k.Value)
		}
		out = append(out, KV{Key: k.Value, Value: v.Value})
	}
	*o = out
	return nil
}

// Parse lee y valida un plugin declarativo. Cualquier fallo envuelve domain.ErrLoad.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLoad, err)
	}

	def.Name = strings.TrimSpace(def.Name)
	def.Target = strings.ToLower(strings.TrimSpace(def.Target))
	if def.Target == "" {
		def.Target = domain.KeyURL
	}

	switch {
	case def.Name == "":
		return nil, fmt.Errorf("%w: missing name", domain.ErrLoad)
	case len(def.Rules) == 0:
		return nil, fmt.Errorf("%w: %s: missing rules", domain.ErrLoad, def.Name)
	case strings.TrimSpace(def.Expression) == "":
		return nil, fmt.Errorf("%w: %s: missing expression", domain.ErrLoad, def.Name)
	}

	for name, r := range def.Rules {
		if r.Matchers.Regex != "" {
			re, err := regexp.Compile(r.Matchers.Regex)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: rule %s: %v", domain.ErrLoad, def.Name, name, err)
			}
			r.regex = re
		}
		if r.Request.Method == "" {
			r.Request.Method = "GET"
		}
		def.Rules[name] = r
	}

	expr, err := parseExpression(def.Expression)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLoad, def.Name, err)
	}
	for _, ref := range expr.refs(nil) {
		if _, ok := def.Rules[ref]; !ok {
			return nil, fmt.Errorf("%w: %s: expression references unknown rule %s", domain.ErrLoad, def.Name, ref)
		}
	}
	def.expr = expr

	return &def, nil
}
