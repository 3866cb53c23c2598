package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formweave.yaml")

	content := `version: 1
store:
  backend: mongodb
  connection_string: "mongodb://localhost:27017"
  database: formweave
api:
  port: 9000
  dev_mode: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Backend != "mongodb" {
		t.Errorf("backend = %s, want mongodb", cfg.Store.Backend)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Archive.Prefix != "formweave/schemas" {
		t.Errorf("expected default archive prefix, got %s", cfg.Archive.Prefix)
	}
}

func TestLoadAppliesStoreDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formweave.yaml")

	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("backend = %s, want memory default", cfg.Store.Backend)
	}
	if cfg.API.Port != 8750 {
		t.Errorf("port = %d, want 8750 default", cfg.API.Port)
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formweave.yaml")

	if err := os.WriteFile(path, []byte("version: 99\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected version error")
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("FORMWEAVE_TEST_SECRET", "s3cret")

	val, err := ResolveValue("${ENV:FORMWEAVE_TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "s3cret" {
		t.Errorf("val = %q, want s3cret", val)
	}

	if _, err := ResolveValue("${ENV:FORMWEAVE_TEST_UNSET}"); err == nil {
		t.Error("expected error for unset variable")
	}
}

func TestResolvePlainValuePassesThrough(t *testing.T) {
	val, err := ResolveValue("plain-text-value")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plain-text-value" {
		t.Errorf("plain values should pass through, got %q", val)
	}
}

func TestResolveVaultWithoutAddress(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	if _, err := ResolveValue("${VAULT:secret/data/formweave#conn}"); err == nil {
		t.Error("expected error when VAULT_ADDR is not set")
	}
}

func TestResolveVaultMalformedRef(t *testing.T) {
	t.Setenv("VAULT_ADDR", "http://127.0.0.1:8200")
	t.Setenv("VAULT_TOKEN", "test-token")
	for _, ref := range []string{"${VAULT:secret/data/formweave}", "${VAULT:#conn}", "${VAULT:secret/data/formweave#}"} {
		if _, err := ResolveValue(ref); err == nil {
			t.Errorf("expected error for %s", ref)
		}
	}
}

func TestResolveSecretsInConnectionString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formweave.yaml")
	t.Setenv("FORMWEAVE_TEST_CONN", "postgres://app:pw@db/formweave")

	content := `version: 1
store:
  backend: postgresql
  connection_string: "${ENV:FORMWEAVE_TEST_CONN}"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.ConnectionString != "postgres://app:pw@db/formweave" {
		t.Errorf("connection string = %q", cfg.Store.ConnectionString)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "formweave.yaml")

	cfg := Default()
	cfg.Store.Backend = "postgresql"
	cfg.Store.ConnectionString = "postgres://localhost/formweave"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Store.Backend != "postgresql" {
		t.Errorf("backend = %s", loaded.Store.Backend)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got := ExpandHome("~/.formweave/formweave.yaml")
	want := filepath.Join(home, ".formweave", "formweave.yaml")
	if got != want {
		t.Errorf("ExpandHome = %q, want %q", got, want)
	}
	if ExpandHome("/abs/path") != "/abs/path" {
		t.Error("absolute paths must pass through")
	}
}
