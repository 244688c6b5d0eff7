package rules

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/httpclient"
	"reconflow/internal/platform/kit"
)

// ResultKey es la clave bajo la que se publican las coincidencias.
const ResultKey = "VulnList"

// Prober lanza las peticiones de las reglas. *httpclient.Client lo implementa.
type Prober interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	callRe        = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`)
)

// Evaluate ejecuta la definición contra target. Devuelve nil cuando la
// expresión no se cumple.
func (d *Definition) Evaluate(ctx context.Context, prober Prober, target domain.Target) (*resulttree.Node, error) {
	vars, err := d.variables()
	if err != nil {
		return nil, err
	}

	base := baseURL(target)
	cache := make(map[string]bool, len(d.Rules))
	matched, err := d.expr.eval(func(name string) (bool, error) {
		if v, ok := cache[name]; ok {
			return v, nil
		}
		ok, err := d.runRule(ctx, prober, base, d.Rules[name], vars)
		if err != nil {
			return false, fmt.Errorf("rule %s: %w", name, err)
		}
		cache[name] = ok
		return ok, nil
	})
	if err != nil || !matched {
		return nil, err
	}

	entry := resulttree.Map().
		Set("name", resulttree.String(d.Name)).
		Set("url", resulttree.String(base))
	for _, kv := range d.Output {
		entry.Set(kv.Key, resulttree.String(render(kv.Value, vars)))
	}
	return resulttree.Map().Set(ResultKey, resulttree.Seq(entry)), nil
}

// variables evalúa "set" en orden; cada valor puede usar variables previas.
func (d *Definition) variables() (map[string]string, error) {
	funcs := kit.Funcs()
	vars := make(map[string]string, len(d.Set))
	for _, kv := range d.Set {
		raw := strings.TrimSpace(render(kv.Value, vars))
		m := callRe.FindStringSubmatch(raw)
		if m == nil {
			vars[kv.Key] = raw
			continue
		}
		fn, ok := funcs[m[1]]
		if !ok {
			vars[kv.Key] = raw
			continue
		}
		v, err := fn(splitArgs(m[2])...)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", kv.Key, err)
		}
		vars[kv.Key] = v
	}
	return vars, nil
}

func (d *Definition) runRule(ctx context.Context, prober Prober, base string, r Rule, vars map[string]string) (bool, error) {
	req := httpclient.Request{
		Method: strings.ToUpper(r.Request.Method),
		URL:    joinURL(base, render(r.Request.Path, vars)),
		Body:   render(r.Request.Body, vars),
	}
	if len(r.Request.Headers) > 0 {
		req.Headers = make(map[string]string, len(r.Request.Headers))
		for k, v := range r.Request.Headers {
			req.Headers[k] = render(v, vars)
		}
	}

	resp, err := prober.Do(ctx, req)
	if err != nil {
		return false, err
	}
	return r.match(resp, vars), nil
}

// match aplica los matchers; los grupos con nombre del regex pasan a vars.
func (r Rule) match(resp *httpclient.Response, vars map[string]string) bool {
	m := r.Matchers
	if len(m.Status) > 0 && !containsInt(m.Status, resp.StatusCode) {
		return false
	}

	subject := part(resp, m.Part)
	for _, w := range m.Words {
		if !strings.Contains(subject, w) {
			return false
		}
	}

	for path, want := range m.JSON {
		res := gjson.GetBytes(resp.Body, path)
		if !res.Exists() || (want != "" && res.String() != want) {
			return false
		}
	}

	if r.regex != nil {
		sub := r.regex.FindStringSubmatch(subject)
		if sub == nil {
			return false
		}
		for i, name := range r.regex.SubexpNames() {
			if name != "" && i < len(sub) {
				vars[name] = sub[i]
			}
		}
	}
	return true
}

func part(resp *httpclient.Response, which string) string {
	switch strings.ToLower(which) {
	case "header", "headers":
		return headerText(resp.Header)
	case "all":
		return headerText(resp.Header) + "\r\n" + resp.Text()
	default:
		return resp.Text()
	}
}

func headerText(h http.Header) string {
	var b strings.Builder
	_ = h.Write(&b)
	return b.String()
}

func render(s string, vars map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return parts
}

func baseURL(t domain.Target) string {
	v := strings.TrimRight(t.Value, "/")
	if t.Key == domain.KeyURL || strings.Contains(v, "://") {
		return v
	}
	return "http://" + v
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
