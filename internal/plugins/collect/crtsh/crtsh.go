// internal/plugins/collect/crtsh/crtsh.go
package crtsh

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/httpclient"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
)

// Impl es el nombre con el que los manifiestos .plugin referencian este plugin.
const Impl = "crtsh"

// Auto-registro del plugin al importar el package
func init() {
	if err := registry.Global().Register(Impl, []string{domain.KeyDomain}, New); err != nil {
		logx.New().Warn("failed to register plugin", "plugin", Impl, "error", err.Error())
	}
}

var options = []kit.OptionSpec{
	{Name: "url", Desc: "crt.sh JSON endpoint", Default: "https://crt.sh/?q=%25.{value}&output=json"},
}

// CRT consulta los logs de Certificate Transparency de crt.sh para
// descubrir subdominios de un dominio.
type CRT struct {
	kit *kit.Kit
}

// New construye el plugin sobre el cliente HTTP compartido.
func New(desc ports.Descriptor, k *kit.Kit) (ports.Plugin, error) {
	if k == nil || k.HTTP == nil {
		return nil, errors.New("crtsh: http client required")
	}
	c := &CRT{kit: k}
	return &ports.CodePlugin{
		Desc:  desc,
		Table: ports.Table{domain.KeyDomain: c.Run},
	}, nil
}

// Run devuelve {"SubdomainList": [{"subdomain", "issuer", "not_after"}, ...]}.
func (c *CRT) Run(ctx context.Context, jc *ports.JobContext) (*resulttree.Node, error) {
	opts := kit.ResolveOptions(jc, options)

	resp, err := c.kit.Request(ctx, httpclient.Request{URL: opts.String("url")})
	if err != nil {
		return nil, err
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("crtsh: %w", err)
	}

	var records []certRecord
	if err := jsoniter.Unmarshal(resp.Body, &records); err != nil {
		// crt.sh devuelve HTML cuando está saturado
		return nil, fmt.Errorf("crtsh: parse JSON: %w", err)
	}

	found := processRecords(records, jc.Target.Value)
	if len(found) == 0 {
		return nil, nil
	}

	list := resulttree.Seq()
	for _, f := range found {
		list.Append(resulttree.Map().
			Set("subdomain", resulttree.String(f.host)).
			Set("issuer", resulttree.String(f.issuer)).
			Set("not_after", resulttree.String(f.notAfter)))
	}
	return resulttree.Map().Set("SubdomainList", list), nil
}

type discovery struct {
	host     string
	issuer   string
	notAfter string
}

// processRecords extrae los hosts en scope de root, sin duplicados y ordenados.
// name_value puede contener múltiples dominios separados por \n; los
// wildcard se reducen a su dominio base.
func processRecords(records []certRecord, root string) []discovery {
	root = strings.ToLower(strings.TrimSuffix(root, "."))
	seen := make(map[string]bool)
	var out []discovery

	for _, record := range records {
		for _, host := range strings.Split(record.NameValue, "\n") {
			host = strings.ToLower(strings.TrimSpace(host))
			host = strings.TrimPrefix(host, "*.")
			if host == "" || seen[host] || !inScope(host, root) {
				continue
			}
			seen[host] = true
			out = append(out, discovery{host: host, issuer: record.IssuerName, notAfter: record.NotAfter})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].host < out[j].host })
	return out
}

func inScope(host, root string) bool {
	return host == root || strings.HasSuffix(host, "."+root)
}

// certRecord representa un registro de certificado de crt.sh.
type certRecord struct {
	IssuerName   string `json:"issuer_name"`
	NameValue    string `json:"name_value"`
	NotAfter     string `json:"not_after"`
	NotBefore    string `json:"not_before"`
	SerialNumber string `json:"serial_number"`
}
