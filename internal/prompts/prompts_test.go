package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func promptText(t *testing.T, r *mcp.GetPromptResult) string {
	t.Helper()
	if len(r.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(r.Messages))
	}
	tc, ok := r.Messages[0].Content.(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", r.Messages[0].Content)
	}
	return tc.Text
}

func TestBreakdownPrompt(t *testing.T) {
	p := NewBreakdownPrompt()
	if got := p.Definition().Name; got != "wp-breakdown" {
		t.Errorf("name = %q, want wp-breakdown", got)
	}

	tests := []struct {
		name string
		args map[string]string
		want []string
	}{
		{"root", map[string]string{"subject": "Checkout flow"}, []string{`subject="Checkout flow"`, "top-level"}},
		{"under parent", map[string]string{"subject": "Payments", "parent_id": "7"}, []string{"parent_id=7", "#7"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mcp.GetPromptRequest{}
			req.Params.Arguments = tt.args
			r, err := p.Handle(context.Background(), req)
			if err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			text := promptText(t, r)
			for _, w := range tt.want {
				if !strings.Contains(text, w) {
					t.Errorf("prompt missing %q:\n%s", w, text)
				}
			}
		})
	}

	req := mcp.GetPromptRequest{}
	req.Params.Arguments = map[string]string{"subject": "  "}
	if _, err := p.Handle(context.Background(), req); err == nil {
		t.Error("blank subject should be rejected")
	}
}

func TestProgressPrompt(t *testing.T) {
	p := NewProgressPrompt()
	if got := p.Definition().Name; got != "wp-progress" {
		t.Errorf("name = %q, want wp-progress", got)
	}
	r, err := p.Handle(context.Background(), mcp.GetPromptRequest{})
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if text := promptText(t, r); !strings.Contains(text, "wp_tree") {
		t.Errorf("prompt should start from wp_tree:\n%s", text)
	}
}
