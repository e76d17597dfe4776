package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusCreateTool handles the status_create MCP tool.
type StatusCreateTool struct {
	store *store.Store
}

// NewStatusCreateTool creates a StatusCreateTool.
func NewStatusCreateTool(s *store.Store) *StatusCreateTool {
	return &StatusCreateTool{store: s}
}

// Definition returns the MCP tool definition for status_create.
func (t *StatusCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("status_create",
		mcp.WithDescription(
			"Create a workflow status. Work packages in a closed status count as 100% done for their ancestors. "+
				"A default done ratio pins the ratio of items in that status when progress is status-based.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Unique status name (e.g. 'New', 'In progress', 'Closed')"),
		),
		mcp.WithBoolean("is_closed",
			mcp.Description("Whether work packages in this status are finished (default: false)"),
		),
		mcp.WithNumber("default_done_ratio",
			mcp.Description("Optional done ratio 0-100 applied when progress is status-based"),
		),
	)
}

// Handle processes the status_create tool call.
func (t *StatusCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	defRatio, err := optInt(req, "default_done_ratio")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st, err := t.store.CreateStatus(ctx, store.CreateStatusParams{
		Name:             name,
		IsClosed:         boolArg(req, "is_closed", false),
		DefaultDoneRatio: defRatio,
	})
	if err != nil {
		return storeError("create status", err), nil
	}

	response := fmt.Sprintf("Status created: %q (ID: %d)", st.Name, st.ID)
	if st.IsClosed {
		response += "\nClosed: yes"
	}
	if st.DefaultDoneRatio != nil {
		response += fmt.Sprintf("\nDefault done ratio: %d%%", *st.DefaultDoneRatio)
	}
	return mcp.NewToolResultText(response), nil
}

// ─── StatusListTool ─────────────────────────────────────────────────────────

// StatusListTool handles the status_list MCP tool.
type StatusListTool struct {
	store *store.Store
}

// NewStatusListTool creates a StatusListTool.
func NewStatusListTool(s *store.Store) *StatusListTool {
	return &StatusListTool{store: s}
}

// Definition returns the MCP tool definition for status_list.
func (t *StatusListTool) Definition() mcp.Tool {
	return mcp.NewTool("status_list",
		mcp.WithDescription("List all workflow statuses with their IDs."),
	)
}

// Handle processes the status_list tool call.
func (t *StatusListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statuses, err := t.store.ListStatuses(ctx)
	if err != nil {
		return storeError("list statuses", err), nil
	}
	if len(statuses) == 0 {
		return mcp.NewToolResultText("No statuses defined. Use status_create to add one."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Statuses (%d):\n", len(statuses))
	for _, st := range statuses {
		fmt.Fprintf(&b, "  %d. %s", st.ID, st.Name)
		if st.IsClosed {
			b.WriteString(" (closed)")
		}
		if st.DefaultDoneRatio != nil {
			fmt.Fprintf(&b, " default=%d%%", *st.DefaultDoneRatio)
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}
