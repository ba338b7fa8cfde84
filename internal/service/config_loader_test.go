package service

import (
	"strings"
	"testing"

	"argo-mgr/internal/model"
)

func envLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, warnings := LoadConfig(envLookup(nil))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.FilePath != model.DefaultFilePath || cfg.SubPath != model.DefaultSubPath {
		t.Fatalf("unexpected paths: %+v", cfg)
	}
	if cfg.Port != 3000 || cfg.ArgoPort != 8001 || cfg.CFPort != 443 {
		t.Fatalf("unexpected ports: %+v", cfg)
	}
	if cfg.UUID != model.DefaultUUID || cfg.CFIP != "www.visa.com.sg" || cfg.Name != "Vls" {
		t.Fatalf("unexpected identity: %+v", cfg)
	}
	if cfg.AutoAccess || cfg.StrictConfig {
		t.Fatalf("flags should default to false")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, warnings := LoadConfig(envLookup(map[string]string{
		"UPLOAD_URL":  "https://merge.example.com/",
		"PROJECT_URL": "https://app.example.com/",
		"AUTO_ACCESS": "true",
		"SUB_PATH":    "/feed/",
		"PORT":        "8080",
		"ARGO_PORT":   "abc",
		"CFPORT":      "8443",
	}))
	if len(warnings) != 1 || !strings.Contains(warnings[0], "ARGO_PORT") {
		t.Fatalf("expected one ARGO_PORT warning, got %v", warnings)
	}
	if cfg.UploadURL != "https://merge.example.com" || cfg.ProjectURL != "https://app.example.com" {
		t.Fatalf("trailing slash not trimmed: %+v", cfg)
	}
	if cfg.SubPath != "feed" {
		t.Fatalf("sub path = %q", cfg.SubPath)
	}
	if !cfg.AutoAccess || cfg.Port != 8080 || cfg.ArgoPort != model.DefaultArgoPort || cfg.CFPort != 8443 {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	cfg, _ := LoadConfig(envLookup(map[string]string{
		"UUID": "2b3c4d5e-1111-4222-8333-944455556666",
	}))
	if findings := ValidateConfig(cfg); len(findings) != 0 {
		t.Fatalf("expected clean config, got %v", findings)
	}

	cfg, _ = LoadConfig(envLookup(nil))
	findings := ValidateConfig(cfg)
	if len(findings) != 1 || !strings.Contains(findings[0], "UUID") {
		t.Fatalf("expected default uuid finding, got %v", findings)
	}

	cfg, _ = LoadConfig(envLookup(map[string]string{
		"UUID":         "not-a-uuid",
		"NEZHA_SERVER": "nz.example.com",
		"ARGO_AUTH":    `{"TunnelSecret":"x"}`,
		"PORT":         "70000",
	}))
	findings = ValidateConfig(cfg)
	joined := strings.Join(findings, "\n")
	for _, want := range []string{"Port", "not-a-uuid", "NEZHA_KEY", "ARGO_DOMAIN"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing finding %q in %v", want, findings)
		}
	}
}

func TestLoadConfigReservedSubPath(t *testing.T) {
	for _, raw := range []string{"healthz", "/healthz/", "feed:id", "*rest"} {
		cfg, warnings := LoadConfig(envLookup(map[string]string{"SUB_PATH": raw}))
		if cfg.SubPath != model.DefaultSubPath {
			t.Fatalf("SUB_PATH=%q: sub path = %q", raw, cfg.SubPath)
		}
		if len(warnings) != 1 || !strings.Contains(warnings[0], "SUB_PATH") {
			t.Fatalf("SUB_PATH=%q: warnings = %v", raw, warnings)
		}
	}

	cfg := testConfig()
	cfg.SubPath = "feed:id"
	findings := ValidateConfig(cfg)
	if len(findings) != 1 || !strings.Contains(findings[0], "SubPath") {
		t.Fatalf("expected SubPath finding, got %v", findings)
	}
}
