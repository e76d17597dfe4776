package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── GetTool ─────────────────────────────────────────────────────────────────

// GetTool handles the wp_get MCP tool.
type GetTool struct {
	store *store.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(s *store.Store) *GetTool {
	return &GetTool{store: s}
}

// Definition returns the MCP tool definition for wp_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_get",
		mcp.WithDescription("Show one work package with its ancestor chain and direct children."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the work package"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Level of detail: summary, standard (default), full"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the wp_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	level := ParseDetailLevel(req.GetString("detail_level", ""))

	it, err := t.store.GetItem(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("load work package #%d", id), err), nil
	}
	chain, err := t.store.Ancestors(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("load ancestors of #%d", id), err), nil
	}
	kids, err := t.store.Children(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("load children of #%d", id), err), nil
	}

	var b strings.Builder
	b.WriteString(itemLine(it, DetailFull))
	b.WriteByte('\n')
	if len(chain) > 0 {
		refs := make([]string, 0, len(chain))
		for _, a := range chain {
			refs = append(refs, a.Ref())
		}
		fmt.Fprintf(&b, "Ancestors: %s\n", strings.Join(refs, " › "))
	}
	if len(kids) == 0 {
		b.WriteString("Children: none (leaf)")
	} else {
		fmt.Fprintf(&b, "Children (%d):", len(kids))
		for _, k := range kids {
			fmt.Fprintf(&b, "\n  - %s", itemLine(k, level))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── TreeTool ────────────────────────────────────────────────────────────────

// TreeTool handles the wp_tree MCP tool.
type TreeTool struct {
	store    *store.Store
	maxDepth int
}

// NewTreeTool creates a TreeTool. maxDepth caps the depth argument.
func NewTreeTool(s *store.Store, maxDepth int) *TreeTool {
	return &TreeTool{store: s, maxDepth: maxDepth}
}

// Definition returns the MCP tool definition for wp_tree.
func (t *TreeTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_tree",
		mcp.WithDescription(
			"Show the work package hierarchy as an outline with done ratios and derived estimates. "+
				"Without id, every top-level work package is listed.",
		),
		mcp.WithNumber("id",
			mcp.Description("Root of the subtree (omit for all roots)"),
		),
		mcp.WithNumber("depth",
			mcp.Description(fmt.Sprintf("Levels below the root to show (default and max: %d)", t.maxDepth)),
		),
		mcp.WithString("detail_level",
			mcp.Description("Level of detail: summary, standard (default), full"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the wp_tree tool call.
func (t *TreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level := ParseDetailLevel(req.GetString("detail_level", ""))
	depth := intArg(req, "depth", t.maxDepth)
	if depth < 0 || depth > t.maxDepth {
		depth = t.maxDepth
	}

	rootID, err := optID(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var roots []int64
	if rootID != nil {
		roots = []int64{*rootID}
	} else {
		items, err := t.store.Roots(ctx)
		if err != nil {
			return storeError("list roots", err), nil
		}
		if len(items) == 0 {
			return mcp.NewToolResultText("No work packages yet. Use wp_create to add one."), nil
		}
		for _, it := range items {
			roots = append(roots, it.ID)
		}
	}

	var b strings.Builder
	for _, id := range roots {
		nodes, err := t.store.Subtree(ctx, id, depth)
		if err != nil {
			return storeError(fmt.Sprintf("load subtree of #%d", id), err), nil
		}
		b.WriteString(formatTree(nodes, level))
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

// ─── HistoryTool ─────────────────────────────────────────────────────────────

// HistoryTool handles the wp_history MCP tool.
type HistoryTool struct {
	store *store.Store
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(s *store.Store) *HistoryTool {
	return &HistoryTool{store: s}
}

// Definition returns the MCP tool definition for wp_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_history",
		mcp.WithDescription(
			"Show the journal of a work package: direct edits and automatic updates cascaded from its children.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the work package"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Most recent entries to show (default: 20)"),
		),
		mcp.WithBoolean("cascade_only",
			mcp.Description("Only show automatic ancestor updates"),
		),
	)
}

// Handle processes the wp_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := intArg(req, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	cascadeOnly := boolArg(req, "cascade_only", false)

	if _, err := t.store.GetItem(ctx, id); err != nil {
		return storeError(fmt.Sprintf("load work package #%d", id), err), nil
	}
	all, err := t.store.Journals(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("load journal of #%d", id), err), nil
	}

	var entries []store.Journal
	for _, j := range all {
		if cascadeOnly && !j.Cascade {
			continue
		}
		entries = append(entries, j)
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No journal entries for #%d.", id)), nil
	}

	total := len(entries)
	if total > limit {
		entries = entries[total-limit:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Journal of #%d:\n", id)
	for _, j := range entries {
		b.WriteString(formatJournal(j))
		b.WriteByte('\n')
	}
	b.WriteString(NavigationHint(len(entries), total, "Increase limit to see older entries."))
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}
