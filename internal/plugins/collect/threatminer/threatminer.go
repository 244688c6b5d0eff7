// internal/plugins/collect/threatminer/threatminer.go
package threatminer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/httpclient"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/platform/validator"
)

const Impl = "threatminer"

func init() {
	if err := registry.Global().Register(Impl, []string{domain.KeyDomain}, New); err != nil {
		logx.New().Warn("failed to register plugin", "plugin", Impl, "error", err.Error())
	}
}

var options = []kit.OptionSpec{
	{Name: "url", Desc: "ThreatMiner domain report page", Default: "https://www.threatminer.org/domain.php?q={value}&t=5"},
}

// ThreatMiner extrae subdominios de la tabla de la página de dominio de threatminer.org.
type ThreatMiner struct {
	kit *kit.Kit
}

func New(desc ports.Descriptor, k *kit.Kit) (ports.Plugin, error) {
	if k == nil || k.HTTP == nil {
		return nil, errors.New("threatminer: http client required")
	}
	tm := &ThreatMiner{kit: k}
	return &ports.CodePlugin{
		Desc:  desc,
		Table: ports.Table{domain.KeyDomain: tm.Run},
	}, nil
}

func (tm *ThreatMiner) Run(ctx context.Context, jc *ports.JobContext) (*resulttree.Node, error) {
	opts := kit.ResolveOptions(jc, options)

	resp, err := tm.kit.Request(ctx, httpclient.Request{URL: opts.String("url")})
	if err != nil {
		return nil, err
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("threatminer: %w", err)
	}

	hosts, err := parseSubdomains(resp.Body, jc.Target.Value)
	if err != nil {
		return nil, err
	}
	if len(hosts) == 0 {
		return nil, nil
	}

	list := resulttree.Seq()
	for _, h := range hosts {
		list.Append(resulttree.Map().Set("subdomain", resulttree.String(h)))
	}
	return resulttree.Map().Set("SubdomainList", list), nil
}

// parseSubdomains lee el texto de los enlaces dentro de <tbody> y se queda
// con los dominios válidos bajo root, sin duplicados y en orden de aparición.
func parseSubdomains(page []byte, root string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("threatminer: parse HTML: %w", err)
	}

	root = validator.NormalizeDomain(root)
	seen := make(map[string]bool)
	var out []string

	doc.Find("tbody a").Each(func(_ int, s *goquery.Selection) {
		host := validator.NormalizeDomain(strings.TrimSpace(s.Text()))
		if host == "" || seen[host] || !validator.IsDomain(host) {
			return
		}
		if host != root && !validator.IsSubdomain(host, root) {
			return
		}
		seen[host] = true
		out = append(out, host)
	})
	return out, nil
}
