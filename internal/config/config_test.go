package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server == "" {
		t.Error("Server should not be empty")
	}
	if cfg.SimType != "srw" {
		t.Errorf("SimType = %s, want srw", cfg.SimType)
	}
	if cfg.DataRoot == "" {
		t.Error("DataRoot should not be empty")
	}
	if cfg.UnitScale != 1000 {
		t.Errorf("UnitScale = %v, want 1000", cfg.UnitScale)
	}
	if cfg.Database.Path == "" {
		t.Error("Database.Path should not be empty")
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "srwbridge.yaml")

	content := `
server: http://sirepo.example.org:8000
sim_type: srw
data_root: /srv/data
unit_scale: 100
database:
  path: /srv/registry.db
http_timeout: 30s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, loadedPath, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if loadedPath != path {
		t.Errorf("loaded path = %s, want %s", loadedPath, path)
	}
	if cfg.Server != "http://sirepo.example.org:8000" {
		t.Errorf("Server = %s", cfg.Server)
	}
	if cfg.DataRoot != "/srv/data" {
		t.Errorf("DataRoot = %s", cfg.DataRoot)
	}
	if cfg.UnitScale != 100 {
		t.Errorf("UnitScale = %v, want 100", cfg.UnitScale)
	}
	if cfg.Database.Path != "/srv/registry.db" {
		t.Errorf("Database.Path = %s", cfg.Database.Path)
	}
	// unset values pick up defaults
	if cfg.PollInterval != "1s" {
		t.Errorf("PollInterval = %s, want default 1s", cfg.PollInterval)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Error("LoadFromPath on missing file should fail")
	}
}

func TestLoadFromPathMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath on malformed YAML should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Server = "http://10.10.10.10:8000"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if loaded.Server != "http://10.10.10.10:8000" {
		t.Errorf("Server = %s after round trip", loaded.Server)
	}
}

func TestFindConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explicit.yaml")
	if err := os.WriteFile(path, []byte("server: http://x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfigPath, path)

	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath() = %s, want %s", got, path)
	}
}

func TestEffectiveDurations(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"2m", 2 * time.Minute},
		{"garbage", 60 * time.Second},
		{"", 60 * time.Second},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.HTTPTimeout = tt.raw
		if got := cfg.EffectiveHTTPTimeout(); got != tt.want {
			t.Errorf("EffectiveHTTPTimeout(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	cfg := DefaultConfig()
	cfg.PollInterval = "250ms"
	if got := cfg.EffectivePollInterval(); got != 250*time.Millisecond {
		t.Errorf("EffectivePollInterval() = %s", got)
	}
}
