package rules

import (
	"context"
	"fmt"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
)

// Plugin adapta una Definition a ports.Plugin. Su única capability es el
// tipo de target declarado (url por defecto).
type Plugin struct {
	desc   ports.Descriptor
	def    *Definition
	prober Prober
}

// NewPlugin completa desc con los metadatos y la capability de def.
func NewPlugin(desc ports.Descriptor, def *Definition, prober Prober) *Plugin {
	desc.Kind = ports.KindRule
	desc.Capabilities = []string{def.Target}
	desc.Metadata = ports.Metadata{
		Name:        def.Name,
		Author:      def.Detail.Author,
		Description: def.Detail.Description,
		References:  def.Detail.Links,
		Datetime:    def.Detail.Datetime,
	}.WithDefaults(desc.Name)
	return &Plugin{desc: desc, def: def, prober: prober}
}

func (p *Plugin) Descriptor() ports.Descriptor { return p.desc }
func (p *Plugin) Capabilities() []string       { return p.desc.Capabilities }
func (p *Plugin) Definition() *Definition      { return p.def }

// Los plugins declarativos no tienen modo consola.
func (p *Plugin) Decorated() (ports.CapabilityFunc, bool) { return nil, false }

func (p *Plugin) Invoke(ctx context.Context, capability string, jc *ports.JobContext) (*resulttree.Node, error) {
	if capability != p.def.Target {
		return nil, fmt.Errorf("%w: %s", domain.ErrCapabilityNotFound, capability)
	}
	return p.def.Evaluate(ctx, p.prober, jc.Target)
}
