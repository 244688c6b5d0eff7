// internal/plugins/collect/crtsh/crtsh_test.go
package crtsh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/platform/config"
	"reconflow/internal/platform/kit"
	"reconflow/internal/platform/logx"
	"reconflow/internal/platform/registry"
	"reconflow/internal/testutil"
)

func TestRegistered(t *testing.T) {
	caps, ok := registry.Global().Capabilities(Impl)
	testutil.AssertTrue(t, ok, "crtsh registered on import")
	testutil.AssertDeepEqual(t, caps, []string{domain.KeyDomain}, "capabilities")
}

func TestProcessRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []certRecord
		want    []string
	}{
		{
			name:    "single subdomain",
			records: []certRecord{{IssuerName: "Let's Encrypt Authority X3", NameValue: "test.example.com"}},
			want:    []string{"test.example.com"},
		},
		{
			name:    "multiple subdomains in one certificate",
			records: []certRecord{{NameValue: "www.example.com\napi.example.com"}},
			want:    []string{"api.example.com", "www.example.com"},
		},
		{
			name:    "wildcard certificate",
			records: []certRecord{{NameValue: "*.example.com"}},
			want:    []string{"example.com"},
		},
		{
			name: "duplicates across certificates",
			records: []certRecord{
				{NameValue: "API.example.com"},
				{NameValue: "api.example.com\n"},
			},
			want: []string{"api.example.com"},
		},
		{
			name:    "out of scope subdomain",
			records: []certRecord{{NameValue: "test.other-domain.com\nnotexample.com"}},
			want:    nil,
		},
		{
			name:    "empty records",
			records: []certRecord{},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, d := range processRecords(tt.records, "example.com") {
				got = append(got, d.host)
			}
			testutil.AssertDeepEqual(t, got, tt.want, "hosts")
		})
	}
}

func newJob(t *testing.T, endpoint string) (ports.Plugin, *ports.JobContext) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Settings[Impl] = map[string]any{"url": endpoint}

	k, err := kit.New(&cfg, logx.NewNop())
	testutil.AssertNoError(t, err, "kit")

	p, err := New(ports.Descriptor{Name: Impl, Capabilities: []string{domain.KeyDomain}}, k)
	testutil.AssertNoError(t, err, "New")

	return p, &ports.JobContext{
		Options: ports.CopyOptions(nil, Impl),
		Config:  &cfg,
		Target:  domain.NewTarget(domain.KeyDomain, "example.com"),
		Logger:  logx.NewNop(),
	}
}

func TestCRT_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.URL.Query().Get("q"), "%.example.com", "query built from target")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"issuer_name": "R3", "name_value": "a.example.com\nb.example.com", "not_after": "2025-12-31T23:59:59"},
			{"issuer_name": "R3", "name_value": "*.b.example.com", "not_after": "2025-12-31T23:59:59"},
			{"issuer_name": "R3", "name_value": "evil.com", "not_after": "2025-12-31T23:59:59"}
		]`))
	}))
	defer srv.Close()

	p, jc := newJob(t, srv.URL+"/?q=%25.{value}&output=json")
	result, err := p.Invoke(context.Background(), domain.KeyDomain, jc)
	testutil.AssertNoError(t, err, "Invoke")

	subs := resulttree.ScalarTexts(resulttree.Extract(result, "subdomain"))
	testutil.AssertDeepEqual(t, subs, []string{"a.example.com", "b.example.com"}, "in-scope subdomains")

	list, ok := result.Get("SubdomainList")
	testutil.AssertTrue(t, ok, "SubdomainList key")
	issuer, _ := list.Items()[0].Get("issuer")
	testutil.AssertEqual(t, issuer.Text(), "R3", "issuer kept")
}

func TestCRT_RunErrors(t *testing.T) {
	t.Run("html instead of json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>502 Bad Gateway</html>"))
		}))
		defer srv.Close()

		p, jc := newJob(t, srv.URL+"/?q={value}")
		_, err := p.Invoke(context.Background(), domain.KeyDomain, jc)
		testutil.AssertError(t, err, "parse error")
	})

	t.Run("no records", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		}))
		defer srv.Close()

		p, jc := newJob(t, srv.URL+"/?q={value}")
		result, err := p.Invoke(context.Background(), domain.KeyDomain, jc)
		testutil.AssertNoError(t, err, "empty is not an error")
		testutil.AssertTrue(t, result == nil, "absent result")
	})

	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		p, jc := newJob(t, srv.URL+"/?q={value}")
		_, err := p.Invoke(context.Background(), domain.KeyDomain, jc)
		testutil.AssertError(t, err, "403")
	})

	t.Run("missing client", func(t *testing.T) {
		_, err := New(ports.Descriptor{Name: Impl}, nil)
		testutil.AssertError(t, err, "kit required")
	})
}
