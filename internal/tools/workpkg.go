package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── CreateTool ──────────────────────────────────────────────────────────────

// CreateTool handles the wp_create MCP tool.
type CreateTool struct {
	store *store.Store
}

// NewCreateTool creates a CreateTool.
func NewCreateTool(s *store.Store) *CreateTool {
	return &CreateTool{store: s}
}

// Definition returns the MCP tool definition for wp_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_create",
		mcp.WithDescription(
			"Create a work package. When it has a parent, the done ratio and derived estimated hours "+
				"of every ancestor are recomputed from their leaves and reported back.",
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Short title of the work package"),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("ID of the parent work package (omit for a root)"),
		),
		mcp.WithNumber("status_id",
			mcp.Description("ID of the status (see status_list)"),
		),
		mcp.WithNumber("done_ratio",
			mcp.Description("Completion in percent, 0-100"),
		),
		mcp.WithNumber("estimated_hours",
			mcp.Description("Estimated effort in hours, >= 0"),
		),
		mcp.WithNumber("story_points",
			mcp.Description("Story points, >= 0. When any leaf has points, points weight the parent's ratio."),
		),
		mcp.WithString("notes",
			mcp.Description("Journal note for this edit"),
		),
	)
}

// Handle processes the wp_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subject := req.GetString("subject", "")
	if strings.TrimSpace(subject) == "" {
		return mcp.NewToolResultError("'subject' is required"), nil
	}

	p := store.CreateItemParams{Subject: subject, Notes: req.GetString("notes", "")}
	var err error
	if p.ParentID, err = optID(req, "parent_id"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.StatusID, err = optID(req, "status_id"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.DoneRatio, err = optInt(req, "done_ratio"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.EstimatedHours, err = optFloat(req, "estimated_hours"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.StoryPoints, err = optInt(req, "story_points"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.store.CreateItem(ctx, p)
	if err != nil {
		return storeError("create work package", err), nil
	}
	return mcp.NewToolResultText(formatWrite("Created", res)), nil
}

// ─── UpdateTool ──────────────────────────────────────────────────────────────

// UpdateTool handles the wp_update MCP tool.
type UpdateTool struct {
	store *store.Store
}

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(s *store.Store) *UpdateTool {
	return &UpdateTool{store: s}
}

// Definition returns the MCP tool definition for wp_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_update",
		mcp.WithDescription(
			"Update fields of a work package. Only the given fields change. Changes to done ratio, "+
				"estimated hours, status or parent are rolled up into every ancestor; a parent change "+
				"also recomputes the former parent chain.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the work package"),
		),
		mcp.WithString("subject",
			mcp.Description("New title"),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("New parent ID (use clear=parent_id to make it a root)"),
		),
		mcp.WithNumber("status_id",
			mcp.Description("New status ID"),
		),
		mcp.WithNumber("done_ratio",
			mcp.Description("Completion in percent, 0-100"),
		),
		mcp.WithNumber("estimated_hours",
			mcp.Description("Estimated effort in hours, >= 0"),
		),
		mcp.WithNumber("story_points",
			mcp.Description("Story points, >= 0"),
		),
		mcp.WithString("clear",
			mcp.Description("Comma-separated fields to unset: "+strings.Join(store.Clearable, ", ")),
		),
		mcp.WithString("notes",
			mcp.Description("Journal note for this edit"),
		),
	)
}

// Handle processes the wp_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := store.UpdateItemParams{
		Subject: optString(req, "subject"),
		Clear:   listArg(req, "clear"),
		Notes:   req.GetString("notes", ""),
	}
	if p.ParentID, err = optID(req, "parent_id"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.StatusID, err = optID(req, "status_id"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.DoneRatio, err = optInt(req, "done_ratio"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.EstimatedHours, err = optFloat(req, "estimated_hours"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if p.StoryPoints, err = optInt(req, "story_points"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.store.UpdateItem(ctx, id, p)
	if err != nil {
		return storeError(fmt.Sprintf("update work package #%d", id), err), nil
	}
	return mcp.NewToolResultText(formatWrite("Updated", res)), nil
}

// ─── MoveTool ────────────────────────────────────────────────────────────────

// MoveTool handles the wp_move MCP tool.
type MoveTool struct {
	store *store.Store
}

// NewMoveTool creates a MoveTool.
func NewMoveTool(s *store.Store) *MoveTool {
	return &MoveTool{store: s}
}

// Definition returns the MCP tool definition for wp_move.
func (t *MoveTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_move",
		mcp.WithDescription(
			"Move a work package under a new parent, or to the top level when parent_id is omitted. "+
				"Both the new and the former ancestor chains are recomputed.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the work package to move"),
		),
		mcp.WithNumber("parent_id",
			mcp.Description("ID of the new parent (omit to make it a root)"),
		),
	)
}

// Handle processes the wp_move tool call.
func (t *MoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID, err := optID(req, "parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.store.MoveItem(ctx, id, parentID)
	if err != nil {
		return storeError(fmt.Sprintf("move work package #%d", id), err), nil
	}
	return mcp.NewToolResultText(formatWrite("Moved", res)), nil
}

// ─── DeleteTool ──────────────────────────────────────────────────────────────

// DeleteTool handles the wp_delete MCP tool.
type DeleteTool struct {
	store *store.Store
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(s *store.Store) *DeleteTool {
	return &DeleteTool{store: s}
}

// Definition returns the MCP tool definition for wp_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_delete",
		mcp.WithDescription(
			"Delete a work package without children. Its former ancestors are recomputed without it.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the work package to delete"),
		),
	)
}

// Handle processes the wp_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.store.DeleteItem(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("delete work package #%d", id), err), nil
	}
	return mcp.NewToolResultText(formatWrite("Deleted", res)), nil
}

// ─── RecomputeTool ───────────────────────────────────────────────────────────

// RecomputeTool handles the wp_recompute MCP tool.
type RecomputeTool struct {
	store *store.Store
}

// NewRecomputeTool creates a RecomputeTool.
func NewRecomputeTool(s *store.Store) *RecomputeTool {
	return &RecomputeTool{store: s}
}

// Definition returns the MCP tool definition for wp_recompute.
func (t *RecomputeTool) Definition() mcp.Tool {
	return mcp.NewTool("wp_recompute",
		mcp.WithDescription(
			"Recompute the done ratio and derived estimated hours of every ancestor of a work package. "+
				"Use after a partial failure or after changing the progress setting.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("ID of the work package whose ancestors are recomputed"),
		),
	)
}

// Handle processes the wp_recompute tool call.
func (t *RecomputeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArg(req, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.store.Recompute(ctx, id)
	if err != nil {
		return storeError(fmt.Sprintf("recompute ancestors of #%d", id), err), nil
	}
	return mcp.NewToolResultText(formatWrite("Recomputed ancestors of", res)), nil
}
