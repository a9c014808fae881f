package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/cpidash/internal/dataset"
	"github.com/starford/cpidash/internal/storage"
	pkgconfig "github.com/starford/cpidash/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDatasetConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Dataset.OnMalformed != dataset.PolicyFail || !cfg.Dataset.Watch {
		t.Errorf("dataset defaults = %+v", cfg.Dataset)
	}
	if cfg.Dataset.Columns != storage.DefaultColumns() {
		t.Errorf("columns = %+v", cfg.Dataset.Columns)
	}
}

func TestDatasetConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatasetConfig
	}{
		{"empty path", DatasetConfig{OnMalformed: dataset.PolicySkip, Columns: storage.DefaultColumns()}},
		{"unknown policy", DatasetConfig{Path: "x.csv", OnMalformed: "ignore", Columns: storage.DefaultColumns()}},
		{"missing column name", DatasetConfig{Path: "x.csv", Columns: storage.Columns{Region: "r", Item: "i", Period: "p", Index: "v"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDatasetConfig_EmptyPolicyDefaultsFail(t *testing.T) {
	cfg := DatasetConfig{Path: "x.csv", Columns: storage.DefaultColumns()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.OnMalformed != dataset.PolicyFail {
		t.Errorf("policy = %q", cfg.OnMalformed)
	}
}

func TestLoadYAML_OverridesDefaults(t *testing.T) {
	t.Setenv("CPIDASH_TEST_DATA", "/srv/cpi")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `app:
  http:
    port: 9090
dataset:
  path: ${CPIDASH_TEST_DATA}/cpi.csv
  on_malformed: skip
  watch: false
  columns:
    index: CPI
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Dataset.Path != "/srv/cpi/cpi.csv" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Dataset.OnMalformed != dataset.PolicySkip || cfg.Dataset.Watch {
		t.Errorf("dataset = %+v", cfg.Dataset)
	}
	if cfg.Dataset.Columns.Index != "CPI" || cfg.Dataset.Columns.Region != storage.DefaultColumns().Region {
		t.Errorf("columns = %+v", cfg.Dataset.Columns)
	}
	if cfg.SQLite.Path != "./cpidash.db" {
		t.Errorf("sqlite path = %q", cfg.SQLite.Path)
	}
}
