package boards

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write boards file: %v", err)
	}
	return file
}

func TestLoadRegistryYAML(t *testing.T) {
	file := writeFile(t, "boards.yaml", `
boards:
  - id: main
    name: " Main Board "
    base_url: https://board.example/api/
    api_key: k1
    request_delay_ms: 750
    headers:
      X-Tenant: acme
      "": dropped
`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	b, ok := reg.ByID("main")
	if !ok {
		t.Fatalf("expected board main")
	}
	if b.Name != "Main Board" || b.BaseURL != "https://board.example/api" {
		t.Fatalf("board not sanitized: %+v", b)
	}
	if b.RequestDelay() != 750*time.Millisecond {
		t.Fatalf("unexpected delay %v", b.RequestDelay())
	}
	if len(b.Headers) != 1 {
		t.Fatalf("empty header not dropped: %v", b.Headers)
	}

	env := b.Environment()
	if got := env.Endpoint("/events"); got != "https://board.example/api/events" {
		t.Fatalf("unexpected endpoint %s", got)
	}
	if env.AuthHeaders()["X-Api-Key"] != "k1" || env.AuthHeaders()["X-Tenant"] != "acme" {
		t.Fatalf("unexpected auth headers %v", env.AuthHeaders())
	}
}

func TestLoadRegistryJSONDefaultsDelay(t *testing.T) {
	file := writeFile(t, "boards.json", `{"boards":[{"id":"b","name":"B","base_url":"http://localhost:8080"}]}`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if got := reg.All()[0].RequestDelay(); got != 500*time.Millisecond {
		t.Fatalf("unexpected default delay %v", got)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
boards:
  - {id: a, name: A, base_url: "https://a.example"}
  - {id: a, name: A2, base_url: "https://b.example"}
`,
		"relative url": `
boards:
  - {id: a, name: A, base_url: "/api"}
`,
		"missing name": `
boards:
  - {id: a, base_url: "https://a.example"}
`,
		"empty": `boards: []`,
	}
	for name, content := range cases {
		file := writeFile(t, "boards.yaml", content)
		if _, err := LoadRegistry(file); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
