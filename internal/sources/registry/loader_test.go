package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `---
site:
  title: Bored Ape Solana Club Vault
  subtitle: Stake your Apes (and friends) to keep them safe!
  imageUrl: /logos/basc_logo.png
pools:
  - name: basc
    displayName: Bored Ape Solana Club
    poolAddress: 6qfbKwV8Tu1RsUc7R4U6aXPsvRarUm4JhRyuihSueLvH
    nameInHeader: true
    maxStaked: 6002
    receiptType: original
    tokenStandard: non-fungible
    colors:
      primary: "#242a36"
      secondary: "#4f2a89"
    links:
      - text: Buy on Magic Eden
        value: https://magiceden.io/marketplace/basc
  - name: abducted-basc
    displayName: Abducted BASC
    poolAddress: A3fzMcAvbU4sPfXJfahyjdt3fA5UrvxQZ1VYt32jodrD
    hidden: true
    hostname: "{{STAKEHUB_VAR_ABDUCTED_HOST}}"
overlays:
  devnet:
    patch:
      - name: basc
        poolAddress: 2HAXVu6KsgTzWxgKXXnEs7g8NKDarvXSQfYtG9cJa2uT
    remove:
      - abducted-basc
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pools.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	t.Setenv("STAKEHUB_VAR_ABDUCTED_HOST", "abducted.bascdao.net")

	loader := NewLoader(writeFile(t, sampleYAML))
	f, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(f.Pools) != 2 {
		t.Fatalf("Load() returned %d pools, want 2", len(f.Pools))
	}
	if f.Site.Title != "Bored Ape Solana Club Vault" {
		t.Errorf("site title = %q", f.Site.Title)
	}
	if got := f.Pools[1].Hostname; got != "abducted.bascdao.net" {
		t.Errorf("hostname = %q, want template expanded", got)
	}
	if f.Pools[0].MaxStaked == nil || *f.Pools[0].MaxStaked != 6002 {
		t.Errorf("maxStaked = %v, want 6002", f.Pools[0].MaxStaked)
	}
	if _, ok := f.Overlays["devnet"]; !ok {
		t.Error("devnet overlay missing")
	}
}

func TestLoaderLoadUnsetTemplateVariable(t *testing.T) {
	loader := NewLoader(writeFile(t, sampleYAML))
	loader.lookup = func(string) (string, bool) { return "", false }

	_, err := loader.Load()
	if err == nil {
		t.Fatal("Load() with unset template variable should return error")
	}
	if !strings.Contains(err.Error(), "STAKEHUB_VAR_ABDUCTED_HOST") {
		t.Errorf("error should name the variable, got %v", err)
	}
}

func TestLoaderIgnoresPlaceholdersInComments(t *testing.T) {
	content := "# Placeholders such as {{UNSET_IN_COMMENT}} are expanded.\n" + sampleYAML
	loader := NewLoader(writeFile(t, content))
	loader.lookup = func(k string) (string, bool) {
		if k == "STAKEHUB_VAR_ABDUCTED_HOST" {
			return "abducted.bascdao.net", true
		}
		return "", false
	}

	f, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := f.Pools[1].Hostname; got != "abducted.bascdao.net" {
		t.Errorf("hostname = %q, want template expanded", got)
	}
}

func TestLoaderLoadShippedRegistry(t *testing.T) {
	loader := NewLoader(filepath.Join("..", "..", "..", "configs", "pools.yaml"))
	loader.lookup = func(string) (string, bool) { return "", false }

	f, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Pools) == 0 {
		t.Error("shipped registry has no pools")
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/pools.yaml")
	_, err := loader.Load()
	if err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderRejectsUnknownFields(t *testing.T) {
	loader := NewLoader("")
	_, err := loader.Parse([]byte("pools:\n  - name: basc\n    maxStake: 10\n"))
	if err == nil {
		t.Error("Parse() should reject the misspelled maxStake key")
	}
}

func TestLoaderRejectsEmptyRegistry(t *testing.T) {
	loader := NewLoader("")
	if _, err := loader.Parse([]byte("site:\n  title: x\npools: []\n")); err == nil {
		t.Error("Parse() with no pools should return error")
	}
}

func TestExpandTemplateVariables(t *testing.T) {
	env := map[string]string{"A": "alpha", "B_2": "beta"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "single", input: "x: {{A}}", expected: "x: alpha"},
		{name: "spaces", input: "x: {{ B_2 }}", expected: "x: beta"},
		{name: "multiple", input: "{{A}}-{{B_2}}", expected: "alpha-beta"},
		{name: "none", input: "x: y", expected: "x: y"},
		{name: "unset", input: "x: {{MISSING}}", wantErr: true},
		{name: "comment line", input: "# {{MISSING}} stays\nx: {{A}}", expected: "# {{MISSING}} stays\nx: alpha"},
		{name: "indented comment", input: "  # see {{MISSING}}\n", expected: "  # see {{MISSING}}\n"},
		{name: "trailing comment", input: "x: {{A}} # was {{MISSING}}", expected: "x: alpha # was {{MISSING}}"},
		{name: "hash in quoted value", input: `x: "#{{A}} # {{B_2}}"`, expected: `x: "#alpha # beta"`},
		{name: "hash inside url", input: "x: https://a.io/#{{A}}", expected: "x: https://a.io/#alpha"},
		{name: "escaped quote", input: `x: "a\" # {{A}}" # {{MISSING}}`, expected: `x: "a\" # alpha" # {{MISSING}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplateVariables([]byte(tt.input), lookup)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("expandTemplateVariables() = %q, want %q", got, tt.expected)
			}
		})
	}
}
