// internal/platform/registry/registry_test.go
package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/testutil"
)

func echoFactory(desc ports.Descriptor, _ *kit.Kit) (ports.Plugin, error) {
	return &ports.CodePlugin{
		Desc: desc,
		Table: ports.Table{
			domain.KeyDomain: func(_ context.Context, jc *ports.JobContext) (*resulttree.Node, error) {
				return resulttree.Map().Set("echo", resulttree.String(jc.Target.Value)), nil
			},
		},
	}, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(logx.NewSilent())
	testutil.AssertNoError(t, r.Register("echo", []string{domain.KeyDomain}, echoFactory), "register echo")
	testutil.AssertNoError(t, r.Register("prober", []string{domain.KeyURL, domain.KeyIP}, echoFactory), "register prober")
	testutil.AssertNoError(t, r.Register("broken", []string{domain.KeyIP}, func(ports.Descriptor, *kit.Kit) (ports.Plugin, error) {
		return nil, errors.New("boom")
	}), "register broken")
	return r
}

// pluginTree crea:
//
//	collect/echo.plugin
//	collect/prober.plugin     (name: web-prober)
//	collect/_private.plugin
//	collect/notes.txt
//	collect/sub/banner.yml
//	collect/bad.yml           (yaml inválido)
//	collect/ghost.plugin      (impl no registrada)
//	login/broken.plugin
func pluginTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "collect"), "echo.plugin", "author: tester\ndescription: echoes domains\n")
	testutil.WriteFile(t, filepath.Join(root, "collect"), "prober.plugin", "name: web-prober\nimpl: prober\n")
	testutil.WriteFile(t, filepath.Join(root, "collect"), "_private.plugin", "impl: echo\n")
	testutil.WriteFile(t, filepath.Join(root, "collect"), "notes.txt", "ignored")
	testutil.WriteFile(t, filepath.Join(root, "collect", "sub"), "banner.yml", testutil.FixtureRulePlugin)
	testutil.WriteFile(t, filepath.Join(root, "collect"), "bad.yml", "name: [unclosed")
	testutil.WriteFile(t, filepath.Join(root, "collect"), "ghost.plugin", "impl: ghost\n")
	testutil.WriteFile(t, filepath.Join(root, "login"), "broken.plugin", "")
	return root
}

func names(descs []ports.Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Name)
	}
	return out
}

func TestRegistry_Register(t *testing.T) {
	r := newTestRegistry(t)

	testutil.AssertTrue(t, r.IsRegistered("echo"), "echo registered")
	testutil.AssertDeepEqual(t, r.List(), []string{"broken", "echo", "prober"}, "sorted list")

	caps, ok := r.Capabilities("prober")
	testutil.AssertTrue(t, ok, "prober capabilities")
	testutil.AssertDeepEqual(t, caps, []string{domain.KeyIP, domain.KeyURL}, "sorted capabilities")

	testutil.AssertError(t, r.Register("echo", []string{domain.KeyIP}, echoFactory), "duplicate")
	testutil.AssertError(t, r.Register("", []string{domain.KeyIP}, echoFactory), "empty name")
	testutil.AssertError(t, r.Register("x", []string{domain.KeyIP}, nil), "nil factory")
	testutil.AssertError(t, r.Register("y", nil, echoFactory), "no capabilities")

	r.Clear()
	testutil.AssertEqual(t, len(r.List()), 0, "cleared")
}

func TestParseFilter(t *testing.T) {
	echo := ports.Descriptor{Name: "echo", Stem: "echo", Capabilities: []string{domain.KeyDomain}}
	web := ports.Descriptor{Name: "web-prober", Stem: "prober", Capabilities: []string{domain.KeyURL}}

	tests := []struct {
		name    string
		tokens  []string
		echo    bool
		web     bool
		selects bool
	}{
		{"empty selects all", nil, true, true, true},
		{"bare name", []string{"echo"}, true, false, false},
		{"name or stem", []string{"prober"}, false, true, false},
		{"exclusion only", []string{"!echo"}, false, true, true},
		{"capability", []string{"@url"}, false, true, false},
		{"capability case-insensitive", []string{"@DOMAIN"}, true, false, false},
		{"exclusion wins", []string{"echo", "!echo"}, false, false, false},
		{"unknown name", []string{"nope"}, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseFilter(tt.tokens)
			testutil.AssertEqual(t, f.Match(echo), tt.echo, "echo")
			testutil.AssertEqual(t, f.Match(web), tt.web, "web")
			testutil.AssertEqual(t, f.SelectsAll(), tt.selects, "selects all")
		})
	}
}

func TestDiscover_All(t *testing.T) {
	root := pluginTree(t)
	r := newTestRegistry(t)

	descs, err := r.Discover(filepath.Join(root, "collect"), nil)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertSameElements(t, names(descs), []string{"banner", "echo", "web-prober"}, "plugins found")

	for _, d := range descs {
		switch d.Name {
		case "banner":
			testutil.AssertEqual(t, d.Command, "sub", "first directory below base")
			testutil.AssertEqual(t, d.Kind, ports.KindRule, "rule kind")
			testutil.AssertDeepEqual(t, d.Capabilities, []string{domain.KeyURL}, "rule target defaults to url")
			testutil.AssertEqual(t, d.Metadata.Name, "poc-example-banner", "rule metadata name")
			testutil.AssertEqual(t, d.Ext, ExtRule, "ext")
		case "echo":
			testutil.AssertEqual(t, d.Command, "collect", "base name for top-level files")
			testutil.AssertEqual(t, d.Kind, ports.KindCode, "code kind")
			testutil.AssertEqual(t, d.Impl, "echo", "impl defaults to stem")
			testutil.AssertEqual(t, d.Metadata.Author, "tester", "author")
			testutil.AssertEqual(t, d.Metadata.Datetime, ports.BaseMetadata.Datetime, "inherited datetime")
		case "web-prober":
			testutil.AssertEqual(t, d.Impl, "prober", "explicit impl")
			testutil.AssertEqual(t, d.Stem, "prober", "stem")
		}
	}
}

func TestDiscover_CommandFromSubdirectory(t *testing.T) {
	root := pluginTree(t)
	r := newTestRegistry(t)

	descs, err := r.Discover(root, []string{"banner", "broken"})
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertEqual(t, len(descs), 2, "two plugins")
	testutil.AssertEqual(t, descs[0].Command, "collect", "first directory")
	testutil.AssertEqual(t, descs[1].Command, "login", "first directory")
}

func TestDiscover_Filters(t *testing.T) {
	root := filepath.Join(pluginTree(t), "collect")
	r := newTestRegistry(t)

	descs, err := r.Discover(root, []string{"!banner"})
	testutil.AssertNoError(t, err, "exclusion")
	testutil.AssertSameElements(t, names(descs), []string{"echo", "web-prober"}, "all but banner")

	descs, err = r.Discover(root, []string{"@url"})
	testutil.AssertNoError(t, err, "capability")
	testutil.AssertSameElements(t, names(descs), []string{"banner", "web-prober"}, "url capable")

	_, err = r.Discover(root, []string{"nothing"})
	testutil.AssertErrorIs(t, err, domain.ErrNoPluginsMatched, "zero matches")
}

func TestDiscover_MissingDirectory(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Discover(filepath.Join(t.TempDir(), "absent"), nil)
	testutil.AssertError(t, err, "walk error propagates")
	testutil.AssertFalse(t, errors.Is(err, domain.ErrNoPluginsMatched), "not a filter miss")
}

func TestLoader_LoadAndCache(t *testing.T) {
	root := pluginTree(t)
	r := newTestRegistry(t)
	cfg := config.DefaultConfig()
	cfg.PluginDir = root
	k, err := kit.New(&cfg, nil)
	testutil.AssertNoError(t, err, "kit")

	l := r.NewLoader(&cfg, k, logx.NewSilent())
	plugins, err := l.Plugins(context.Background(), "collect", nil)
	testutil.AssertNoError(t, err, "Plugins")
	testutil.AssertEqual(t, len(plugins), 3, "three loaded")

	descs, err := l.Discover("collect", []string{"echo"})
	testutil.AssertNoError(t, err, "Discover")
	p1, err := l.Load(descs[0])
	testutil.AssertNoError(t, err, "Load")
	p2, err := l.Load(descs[0])
	testutil.AssertNoError(t, err, "Load again")
	testutil.AssertTrue(t, p1 == p2, "cached instance")
	testutil.AssertEqual(t, descs[0].Command, "collect", "command")

	out, err := p1.Invoke(context.Background(), domain.KeyDomain, &ports.JobContext{Target: domain.NewTarget(domain.KeyDomain, "example.com")})
	testutil.AssertNoError(t, err, "Invoke")
	testutil.AssertDeepEqual(t, resulttree.ScalarTexts(resulttree.Extract(out, "echo")), []string{"example.com"}, "echo result")
}

func TestLoader_FailuresAreIsolated(t *testing.T) {
	root := pluginTree(t)
	testutil.WriteFile(t, filepath.Join(root, "login"), "invalid.yml", "name: x\nexpression: r0()\n")
	r := newTestRegistry(t)
	cfg := config.DefaultConfig()
	cfg.PluginDir = root
	k, err := kit.New(&cfg, nil)
	testutil.AssertNoError(t, err, "kit")

	l := r.NewLoader(&cfg, k, logx.NewSilent())
	descs, err := l.Discover("login", nil)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertEqual(t, len(descs), 2, "broken + invalid discovered")

	for _, d := range descs {
		_, err := l.Load(d)
		testutil.AssertErrorIs(t, err, domain.ErrLoad, "load error for "+d.Name)
	}

	plugins, err := l.Plugins(context.Background(), "login", nil)
	testutil.AssertNoError(t, err, "Plugins does not fail")
	testutil.AssertEqual(t, len(plugins), 0, "nothing loaded")
}

func TestLoader_DisabledPlugin(t *testing.T) {
	root := pluginTree(t)
	r := newTestRegistry(t)
	cfg := config.DefaultConfig()
	cfg.PluginDir = root
	cfg.Settings = map[string]map[string]any{"echo": {"enable": false}}
	k, err := kit.New(&cfg, nil)
	testutil.AssertNoError(t, err, "kit")

	l := r.NewLoader(&cfg, k, logx.NewSilent())
	descs, err := l.Discover("collect", []string{"echo"})
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertTrue(t, descs[0].Disabled, "marked disabled")

	_, err = l.Load(descs[0])
	testutil.AssertErrorIs(t, err, domain.ErrPluginDisabled, "disabled load")

	plugins, err := l.Plugins(context.Background(), "collect", nil)
	testutil.AssertNoError(t, err, "Plugins")
	testutil.AssertEqual(t, len(plugins), 2, "echo skipped")
}

func TestLoader_UnknownCommand(t *testing.T) {
	r := newTestRegistry(t)
	cfg := config.DefaultConfig()
	cfg.PluginDir = t.TempDir()

	_, err := r.NewLoader(&cfg, nil, nil).Plugins(context.Background(), "collect", nil)
	testutil.AssertError(t, err, "missing command directory")
}
