// Package resources implements MCP resource handlers for the work
// package hierarchy.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (wprollup://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/HendryAvila/wprollup/internal/workpkg"
	"github.com/mark3labs/mcp-go/mcp"
)

// URIs served by Handler.
const (
	HierarchyURI = "wprollup://hierarchy"
	StatusesURI  = "wprollup://statuses"
)

// Handler manages resource endpoints.
type Handler struct {
	store    *store.Store
	maxDepth int
}

// NewHandler creates a resource Handler. maxDepth bounds the hierarchy
// rendered per root.
func NewHandler(s *store.Store, maxDepth int) *Handler {
	return &Handler{store: s, maxDepth: maxDepth}
}

// Node is one work package with its children, as served by the
// hierarchy resource.
type Node struct {
	*workpkg.Item
	Children []*Node `json:"children,omitempty"`
}

// HierarchyResource returns the MCP resource definition for the tree.
func (h *Handler) HierarchyResource() mcp.Resource {
	return mcp.NewResource(
		HierarchyURI,
		"Work package hierarchy",
		mcp.WithResourceDescription("Every work package as a nested tree with done ratios and derived estimates"),
		mcp.WithMIMEType("application/json"),
	)
}

// StatusesResource returns the MCP resource definition for statuses.
func (h *Handler) StatusesResource() mcp.Resource {
	return mcp.NewResource(
		StatusesURI,
		"Workflow statuses",
		mcp.WithResourceDescription("All statuses with their closed flag and default done ratio"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleHierarchy returns the whole forest as JSON.
func (h *Handler) HandleHierarchy(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	roots, err := h.store.Roots(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	forest := make([]*Node, 0, len(roots))
	for _, r := range roots {
		nodes, err := h.store.Subtree(ctx, r.ID, h.maxDepth)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		forest = append(forest, nest(nodes))
	}
	return jsonResource(req.Params.URI, forest)
}

// HandleStatuses returns all statuses as JSON.
func (h *Handler) HandleStatuses(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	statuses, err := h.store.ListStatuses(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if statuses == nil {
		statuses = []workpkg.Status{}
	}
	return jsonResource(req.Params.URI, statuses)
}

// nest turns a depth-first node list into a tree. nodes[0] is the root.
func nest(nodes []store.TreeNode) *Node {
	root := &Node{Item: nodes[0].Item}
	stack := []*Node{root}
	for _, n := range nodes[1:] {
		node := &Node{Item: n.Item}
		stack = stack[:n.Depth]
		parent := stack[n.Depth-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack, node)
	}
	return root
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
