// internal/plugins/collect/dnsresolve/dnsresolve.go
package dnsresolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/platform/validator"
)

const Impl = "dnsresolve"

func init() {
	if err := registry.Global().Register(Impl, []string{domain.KeyDomain, domain.KeySubdomain}, New); err != nil {
		logx.New().Warn("failed to register plugin", "plugin", Impl, "error", err.Error())
	}
}

var options = []kit.OptionSpec{
	{Name: "resolver", Desc: "DNS server host:port", Default: "1.1.1.1:53"},
	{Name: "types", Desc: "Record types to query (A, AAAA, CNAME)", Default: "A,AAAA,CNAME"},
}

// Resolver resuelve un dominio contra un servidor DNS concreto y devuelve
// sus direcciones, que alimentan el resumen de segmentos de red.
type Resolver struct {
	client *dns.Client
	logger logx.Logger
}

func New(desc ports.Descriptor, k *kit.Kit) (ports.Plugin, error) {
	timeout := 5 * time.Second
	logger := logx.NewNop()
	if k != nil {
		if k.Timeout > 0 {
			timeout = k.Timeout
		}
		if k.Logger != nil {
			logger = k.Logger
		}
	}

	r := &Resolver{
		client: &dns.Client{Net: "udp", Timeout: timeout},
		logger: logger.With("plugin", desc.Name),
	}
	return &ports.CodePlugin{
		Desc: desc,
		Table: ports.Table{
			domain.KeyDomain:    r.Run,
			domain.KeySubdomain: r.Run,
		},
	}, nil
}

// Run devuelve {"ip": [...], "cname": [...]}; nil si el nombre no resuelve.
func (r *Resolver) Run(ctx context.Context, jc *ports.JobContext) (*resulttree.Node, error) {
	opts := kit.ResolveOptions(jc, options)
	name := validator.NormalizeDomain(validator.HostOf(jc.Target.Value))
	if !validator.IsDomain(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidTarget, jc.Target.Value)
	}

	ips := resulttree.Seq()
	cnames := resulttree.Seq()
	for _, qtype := range queryTypes(opts.String("types")) {
		answers, err := r.query(ctx, opts.String("resolver"), name, qtype)
		if err != nil {
			return nil, err
		}
		for _, rr := range answers {
			switch v := rr.(type) {
			case *dns.A:
				ips.Append(resulttree.String(v.A.String()))
			case *dns.AAAA:
				ips.Append(resulttree.String(v.AAAA.String()))
			case *dns.CNAME:
				cnames.Append(resulttree.String(strings.TrimSuffix(v.Target, ".")))
			}
		}
	}

	if ips.Len() == 0 && cnames.Len() == 0 {
		return nil, nil
	}
	out := resulttree.Map()
	if ips.Len() > 0 {
		out.Set("ip", ips)
	}
	if cnames.Len() > 0 {
		out.Set("cname", cnames)
	}
	// Merge de uno elimina duplicados (A repetidos en cadenas CNAME)
	return resulttree.Merge(out), nil
}

func (r *Resolver) query(ctx context.Context, server, name string, qtype uint16) ([]dns.RR, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, m, server)
	if err != nil {
		return nil, fmt.Errorf("dns %s %s: %w", dns.TypeToString[qtype], name, err)
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
		return in.Answer, nil
	case dns.RcodeNameError:
		r.logger.Debug("name does not exist", "name", name, "type", dns.TypeToString[qtype])
		return nil, nil
	default:
		return nil, fmt.Errorf("dns %s %s: %s", dns.TypeToString[qtype], name, dns.RcodeToString[in.Rcode])
	}
}

// queryTypes parsea "A,AAAA" ignorando tipos desconocidos.
func queryTypes(spec string) []uint16 {
	var out []uint16
	for _, part := range strings.Split(spec, ",") {
		if t, ok := dns.StringToType[strings.ToUpper(strings.TrimSpace(part))]; ok {
			out = append(out, t)
		}
	}
	return out
}
