package qualification

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadTagScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.toml")
	content := `
version = 1
width = 3

[departments]
"Quality Control" = "qc"
Production = "PRD"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write scheme: %v", err)
	}

	scheme, err := LoadTagScheme(path)
	if err != nil {
		t.Fatalf("LoadTagScheme() error = %v", err)
	}
	if got := scheme.Format(scheme.Prefix("quality control"), 7); got != "QC-007" {
		t.Fatalf("tag = %q, want QC-007", got)
	}
	if got := scheme.Prefix("Engineering"); got != "ENG" {
		t.Fatalf("fallback prefix = %q, want ENG", got)
	}
}

func TestLoadTagSchemeEmptyPath(t *testing.T) {
	scheme, err := LoadTagScheme("  ")
	if err != nil {
		t.Fatalf("LoadTagScheme(\"\") error = %v", err)
	}
	if got := scheme.Format(scheme.Prefix("Microbiology Lab"), 12); got != "ML-0012" {
		t.Fatalf("tag = %q, want ML-0012", got)
	}
}

func TestParseTagSchemeRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"version":     "version = 3",
		"width":       "width = 12",
		"placeholder": "[departments]\nQC = \"pending\"",
		"empty":       "[departments]\nQC = \" \"",
		"syntax":      "departments = [",
	}
	for name, raw := range cases {
		if _, err := ParseTagScheme([]byte(raw)); err == nil {
			t.Fatalf("%s: ParseTagScheme() should fail", name)
		}
	}
}
