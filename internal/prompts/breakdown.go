// Package prompts implements MCP prompt handlers for work package
// planning.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// BreakdownPrompt handles the wp-breakdown MCP prompt.
// It guides the AI to split a piece of work into estimated leaves.
type BreakdownPrompt struct{}

// NewBreakdownPrompt creates a BreakdownPrompt.
func NewBreakdownPrompt() *BreakdownPrompt {
	return &BreakdownPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *BreakdownPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("wp-breakdown",
		mcp.WithPromptDescription(
			"Break a piece of work into a parent work package with estimated child tasks. "+
				"Progress and estimates of the parent are then computed from the children.",
		),
		mcp.WithArgument("subject",
			mcp.ArgumentDescription("What needs to be done"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("parent_id",
			mcp.ArgumentDescription("Existing work package to attach the breakdown to (optional)"),
		),
	)
}

// Handle processes the wp-breakdown prompt request.
func (p *BreakdownPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	subject := strings.TrimSpace(args["subject"])
	if subject == "" {
		return nil, fmt.Errorf("argument 'subject' is required")
	}

	attach := "as a new top-level work package"
	if parent := strings.TrimSpace(args["parent_id"]); parent != "" {
		attach = fmt.Sprintf("under work package #%s (pass parent_id=%s)", parent, parent)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Break down: %s", subject),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I need to plan: %s\n\n"+
						"Please:\n"+
						"1. Run `wp_create` with subject=%q %s\n"+
						"2. Propose 3-8 child tasks with an estimate in hours each and confirm them with me\n"+
						"3. Create each child with `wp_create`, parent_id set to the new work package, estimated_hours set\n"+
						"4. Run `wp_tree` on the new work package and show me the outline with its derived estimate\n\n"+
						"Put estimates on the child tasks only; the parent's total is computed.",
					subject, subject, attach,
				)),
			},
		},
	}, nil
}
