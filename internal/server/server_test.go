package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/HendryAvila/wprollup/internal/config"
	"go.uber.org/zap"
)

func TestNew_RegistersTools(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	s, cleanup, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer cleanup()

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	for _, name := range []string{
		"status_create", "status_list",
		"wp_create", "wp_update", "wp_move", "wp_delete", "wp_recompute",
		"wp_get", "wp_tree", "wp_history",
	} {
		if !strings.Contains(string(raw), `"name":"`+name+`"`) {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestNew_RegistersPromptsAndResources(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	s, cleanup, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer cleanup()

	tests := []struct {
		method string
		want   []string
	}{
		{"prompts/list", []string{`"name":"wp-breakdown"`, `"name":"wp-progress"`}},
		{"resources/list", []string{`"uri":"wprollup://hierarchy"`, `"uri":"wprollup://statuses"`}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"`+tt.method+`"}`))
			raw, err := json.Marshal(resp)
			if err != nil {
				t.Fatalf("marshal response: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(raw), w) {
					t.Errorf("%s response missing %s:\n%s", tt.method, w, raw)
				}
			}
		})
	}
}

func TestNew_BadDataDir(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = "/dev/null/wprollup"

	_, cleanup, err := New(cfg, zap.NewNop())
	if err == nil {
		t.Fatal("New() should fail for an unusable data dir")
	}
	cleanup()
}
