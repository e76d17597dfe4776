package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ProgressPrompt handles the wp-progress MCP prompt.
// It instructs the AI to read the hierarchy and report progress.
type ProgressPrompt struct{}

// NewProgressPrompt creates a ProgressPrompt.
func NewProgressPrompt() *ProgressPrompt {
	return &ProgressPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ProgressPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("wp-progress",
		mcp.WithPromptDescription(
			"Report progress across the work package tree: done ratios, remaining estimates, "+
				"and ancestors that need a recompute.",
		),
	)
}

// Handle processes the wp-progress prompt request.
func (p *ProgressPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Work package progress",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `wp_tree` with detail_level=standard to load the hierarchy.\n\n" +
						"Then:\n" +
						"1. Summarize each top-level work package: done ratio and derived estimated hours\n" +
						"2. List the leaves that are still at 0% and carry the largest estimates\n" +
						"3. Point out parents whose values look inconsistent with their children and offer to run `wp_recompute`\n" +
						"4. Suggest what to work on next",
				),
			},
		},
	}, nil
}
