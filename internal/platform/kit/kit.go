// Package kit is the helper surface injected into compiled-in plugins:
// HTTP probing, domain helpers, credential lists, option resolution and a
// finer-grained batch pool.
package kit

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"

	"reconflow/internal/platform/config"
	"reconflow/internal/platform/httpclient"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/validator"
)

// Kit agrupa los servicios compartidos por los plugins compilados.
type Kit struct {
	HTTP         *httpclient.Client
	Logger       logx.Logger
	BatchWorkers int
	Timeout      time.Duration // timeout de red para clientes no HTTP (dns, tcp)

	dialer proxy.ContextDialer
}

// New construye el kit a partir de la configuración global.
func New(cfg *config.Config, logger logx.Logger) (*Kit, error) {
	if logger == nil {
		logger = logx.NewNop()
	}
	def := config.DefaultConfig()
	if cfg == nil {
		cfg = &def
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.General.Timeout
	httpCfg.ProxyURL = cfg.ProxyURL
	client, err := httpclient.New(httpCfg, logger)
	if err != nil {
		return nil, err
	}

	dialer, err := newDialer(cfg.ProxyURL, cfg.General.Timeout)
	if err != nil {
		return nil, err
	}

	return &Kit{
		HTTP:         client,
		Logger:       logger,
		BatchWorkers: cfg.General.BatchWorkers,
		Timeout:      cfg.General.Timeout,
		dialer:       dialer,
	}, nil
}

// newDialer usa el proxy solo si es SOCKS5; un proxy HTTP no sirve para TCP crudo.
func newDialer(proxyURL string, timeout time.Duration) (proxy.ContextDialer, error) {
	direct := &net.Dialer{Timeout: timeout}
	if proxyURL == "" {
		return direct, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("proxy url %q: %w", proxyURL, err)
	}
	if u.Scheme != "socks5" && u.Scheme != "socks5h" {
		return direct, nil
	}
	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("socks proxy %q: %w", proxyURL, err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks proxy %q: dialer without context support", proxyURL)
	}
	return cd, nil
}

// Dial abre una conexión TCP para plugins de protocolo, respetando el proxy SOCKS5.
func (k *Kit) Dial(ctx context.Context, network, addr string) (net.Conn, error) {
	if k == nil || k.dialer == nil {
		timeout := 5 * time.Second
		if k != nil && k.Timeout > 0 {
			timeout = k.Timeout
		}
		return (&net.Dialer{Timeout: timeout}).DialContext(ctx, network, addr)
	}
	return k.dialer.DialContext(ctx, network, addr)
}

// Request realiza una petición HTTP con el cliente compartido.
func (k *Kit) Request(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	return k.HTTP.Do(ctx, req)
}

// RootDomain devuelve el dominio registrable (eTLD+1) de un host o URL.
func RootDomain(value string) (string, error) {
	host := strings.TrimSuffix(strings.ToLower(validator.HostOf(value)), ".")
	return publicsuffix.EffectiveTLDPlusOne(host)
}
