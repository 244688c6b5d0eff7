// internal/adapters/output/json_test.go
package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reconflow/internal/core/domain"
	"reconflow/internal/core/ports"
	"reconflow/internal/core/resulttree"
	"reconflow/internal/testutil"
)

func sampleDataset() ports.Dataset {
	return ports.Dataset{
		{
			RunID:   "0f8c2d4e-aaaa-bbbb-cccc-000000000001",
			Command: "collect",
			Root:    domain.NewTarget(domain.KeyDomain, "example.com"),
			Content: resulttree.Map().
				Set("SubdomainList", resulttree.Seq(
					resulttree.Map().Set("subdomain", resulttree.String("a.example.com")),
					resulttree.Map().Set("subdomain", resulttree.String("b.example.com")),
				)).
				Set("NetworkSegments", resulttree.Strings("10.0.0.0/24")),
		},
		{
			RunID:   "0f8c2d4e-aaaa-bbbb-cccc-000000000001",
			Command: "login",
			Root:    domain.NewTarget(domain.KeyURL, "http://a.example.com"),
			Content: resulttree.Map(),
		},
	}
}

func TestJSONExporter_ExportToWriter(t *testing.T) {
	var buf bytes.Buffer
	err := NewJSONExporter().ExportToWriter(sampleDataset(), &buf, ports.ExportOptions{})
	testutil.AssertNoError(t, err, "ExportToWriter")

	var decoded []map[string]any
	testutil.AssertNoError(t, jsonAPI.Unmarshal(buf.Bytes(), &decoded), "valid JSON")
	testutil.AssertEqual(t, len(decoded), 2, "one object per record")
	testutil.AssertEqual(t, decoded[0]["command"], "collect", "command")

	root := decoded[0]["root"].(map[string]any)
	testutil.AssertEqual(t, root["key"], "domain", "root key")
	testutil.AssertEqual(t, root["value"], "example.com", "root value")

	content := decoded[0]["content"].(map[string]any)
	subs := content["SubdomainList"].([]any)
	testutil.AssertEqual(t, len(subs), 2, "content preserved")
}

func TestJSONExporter_EmptyDataset(t *testing.T) {
	var buf bytes.Buffer
	err := NewJSONExporter().ExportToWriter(nil, &buf, ports.ExportOptions{})
	testutil.AssertNoError(t, err, "ExportToWriter")
	testutil.AssertEqual(t, strings.TrimSpace(buf.String()), "[]", "empty array, not null")
}

func TestJSONExporter_ExportToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	err := NewJSONExporter().Export(sampleDataset(), ports.ExportOptions{OutputPath: path, Pretty: true})
	testutil.AssertNoError(t, err, "Export")

	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err, "output written")
	testutil.AssertContains(t, string(data), "\n  {", "pretty printed")
	testutil.AssertContains(t, string(data), `"NetworkSegments"`, "content")
}

func TestJSONExporter_ExportToDirectory(t *testing.T) {
	dir := t.TempDir()
	exporter := NewJSONExporter()
	exporter.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	err := exporter.Export(sampleDataset(), ports.ExportOptions{OutputPath: dir})
	testutil.AssertNoError(t, err, "Export")

	_, err = os.Stat(filepath.Join(dir, "reconflow_example_com_20240501_103000.json"))
	testutil.AssertNoError(t, err, "default filename inside directory")
}

func TestSanitizeName(t *testing.T) {
	testutil.AssertEqual(t, sanitizeName("example.com"), "example_com", "dots")
	testutil.AssertEqual(t, sanitizeName("http://a.example.com:8080"), "http___a_example_com_8080", "url")
	testutil.AssertEqual(t, sanitizeName(""), "run", "empty")
}

func TestNewExporter(t *testing.T) {
	testutil.AssertEqual(t, NewExporter("out.json").Name(), "json", "json by default")
	testutil.AssertEqual(t, NewExporter("").Name(), "json", "stdout json")
	testutil.AssertEqual(t, NewExporter("summary.TXT").Name(), "table", "txt is table")
}
