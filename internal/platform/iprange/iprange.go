// Package iprange agrega direcciones IP sueltas en segmentos de red.
package iprange

import (
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// Options controla el tamaño mínimo de segmento por familia.
type Options struct {
	IPv4Bits int
	IPv6Bits int
}

// DefaultOptions agrupa IPv4 en /24 e IPv6 en /64.
func DefaultOptions() Options {
	return Options{IPv4Bits: 24, IPv6Bits: 64}
}

// MergeSegments enmascara cada IP a su segmento, une los segmentos contiguos o
// solapados y devuelve los prefijos resultantes ordenados. Acepta también
// prefijos CIDR. Los valores no parseables se ignoran.
func MergeSegments(values []string, opts Options) []string {
	if opts.IPv4Bits <= 0 || opts.IPv4Bits > 32 {
		opts.IPv4Bits = 24
	}
	if opts.IPv6Bits <= 0 || opts.IPv6Bits > 128 {
		opts.IPv6Bits = 64
	}

	var builder netipx.IPSetBuilder
	added := 0
	for _, raw := range values {
		prefix, ok := segment(strings.TrimSpace(raw), opts)
		if !ok {
			continue
		}
		builder.AddPrefix(prefix)
		added++
	}
	if added == 0 {
		return []string{}
	}

	set, err := builder.IPSet()
	if err != nil {
		return []string{}
	}
	prefixes := set.Prefixes()
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, p.String())
	}
	return out
}

func segment(raw string, opts Options) (netip.Prefix, bool) {
	if raw == "" {
		return netip.Prefix{}, false
	}
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, false
		}
		return mask(p.Addr().Unmap(), min(p.Bits(), bitsFor(p.Addr().Unmap(), opts)))
	}
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, false
	}
	addr = addr.Unmap().WithZone("")
	return mask(addr, bitsFor(addr, opts))
}

func bitsFor(addr netip.Addr, opts Options) int {
	if addr.Is4() {
		return opts.IPv4Bits
	}
	return opts.IPv6Bits
}

func mask(addr netip.Addr, bits int) (netip.Prefix, bool) {
	p, err := addr.Prefix(bits)
	if err != nil {
		return netip.Prefix{}, false
	}
	return p, true
}
