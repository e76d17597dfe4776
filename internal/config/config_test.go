package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/wprollup/internal/rollup"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// --- Load ---

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
data_dir = "`+dir+`"
log_mode = "DEV"
log_level = "debug"
max_tree_depth = 3

[progress]
done_ratio = "status"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, dir)
	}
	if cfg.LogMode != LogModeDev {
		t.Errorf("LogMode = %s, want dev", cfg.LogMode)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.MaxTreeDepth != 3 {
		t.Errorf("MaxTreeDepth = %d, want 3", cfg.MaxTreeDepth)
	}
	if cfg.DoneRatio != DoneRatioStatus {
		t.Errorf("DoneRatio = %s, want status", cfg.DoneRatio)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `log_level = "warn"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DoneRatio != DoneRatioField {
		t.Errorf("DoneRatio = %s, want field", cfg.DoneRatio)
	}
	if cfg.LogMode != LogModeProd {
		t.Errorf("LogMode = %s, want prod", cfg.LogMode)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad mode", "[progress]\ndone_ratio = \"sometimes\"", "progress.done_ratio"},
		{"bad log mode", `log_mode = "loud"`, "log_mode"},
		{"bad depth", `max_tree_depth = 0`, "max_tree_depth"},
		{"unknown key", `colour = "red"`, "unknown key"},
		{"syntax", `data_dir = `, "load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestDefaultPath_Env(t *testing.T) {
	t.Setenv(EnvPath, "/etc/wprollup.toml")
	if got := DefaultPath(); got != "/etc/wprollup.toml" {
		t.Errorf("DefaultPath() = %s, want /etc/wprollup.toml", got)
	}
}

// --- Policy ---

func TestPolicy(t *testing.T) {
	tests := []struct {
		mode string
		want rollup.Policy
	}{
		{DoneRatioField, rollup.Policy{}},
		{DoneRatioStatus, rollup.Policy{UseStatusForDoneRatio: true}},
		{DoneRatioDisabled, rollup.Policy{DoneRatioDisabled: true}},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.DoneRatio = tt.mode
		if got := cfg.Policy(); got != tt.want {
			t.Errorf("Policy(%s) = %+v, want %+v", tt.mode, got, tt.want)
		}
	}
}
