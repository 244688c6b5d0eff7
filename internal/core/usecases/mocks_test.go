// internal/core/usecases/mocks_test.go
package usecases

import (
	"bytes"
	"context"
	"sync"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
)

// mockPlugin es un mock de ports.Plugin para tests del scheduler
type mockPlugin struct {
	name    string
	caps    []string
	runFunc func(ctx context.Context, jc *ports.JobContext) (*resulttree.Node, error)
	console ports.CapabilityFunc

	mu    sync.Mutex
	calls []domain.Target
}

func newMockPlugin(name string, caps ...string) *mockPlugin {
	return &mockPlugin{name: name, caps: caps}
}

func (m *mockPlugin) Descriptor() ports.Descriptor {
	return ports.Descriptor{Name: m.name, Kind: ports.KindCode, Capabilities: m.caps}
}

func (m *mockPlugin) Capabilities() []string { return m.caps }

func (m *mockPlugin) Decorated() (ports.CapabilityFunc, bool) {
	return m.console, m.console != nil
}

func (m *mockPlugin) Invoke(ctx context.Context, capability string, jc *ports.JobContext) (*resulttree.Node, error) {
	m.mu.Lock()
	m.calls = append(m.calls, jc.Target)
	m.mu.Unlock()

	if capability != jc.Target.Key {
		return nil, domain.ErrCapabilityNotFound
	}
	if m.runFunc != nil {
		return m.runFunc(ctx, jc)
	}
	return nil, nil
}

func (m *mockPlugin) getCalls() []domain.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Target(nil), m.calls...)
}

// mockPluginWithResult creates a mock that always returns result
func mockPluginWithResult(name string, result *resulttree.Node, caps ...string) *mockPlugin {
	m := newMockPlugin(name, caps...)
	m.runFunc = func(context.Context, *ports.JobContext) (*resulttree.Node, error) {
		return result.Clone(), nil
	}
	return m
}

// mockPluginWithError creates a mock that always fails
func mockPluginWithError(name string, err error, caps ...string) *mockPlugin {
	m := newMockPlugin(name, caps...)
	m.runFunc = func(context.Context, *ports.JobContext) (*resulttree.Node, error) {
		return nil, err
	}
	return m
}

// mockProvider es un PluginProvider con plugins fijos por comando
type mockProvider struct {
	byCommand map[string][]ports.Plugin
	err       error
}

func (m *mockProvider) Plugins(_ context.Context, command string, _ []string) ([]ports.Plugin, error) {
	if m.err != nil {
		return nil, m.err
	}
	plugins, ok := m.byCommand[command]
	if !ok {
		return nil, domain.ErrNoPluginsMatched
	}
	return plugins, nil
}

// mockNotifier registra los echos recibidos
type mockNotifier struct {
	mu      sync.Mutex
	plugins []string
	results []*resulttree.Node
}

func (m *mockNotifier) JobDone(plugin string, _ domain.Target, result *resulttree.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = append(m.plugins, plugin)
	m.results = append(m.results, result)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plugins)
}

// syncBuffer permite leer la salida del logger mientras otros goroutines escriben
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// subdomainList construye {"SubdomainList": [{"subdomain": s}, ...]}
func subdomainList(subs ...string) *resulttree.Node {
	list := resulttree.Seq()
	for _, s := range subs {
		list.Append(resulttree.Map().Set(domain.KeySubdomain, resulttree.String(s)))
	}
	return resulttree.Map().Set("SubdomainList", list)
}
