// Package tools provides the MCP tool handlers for work packages and
// statuses.
//
// Every tool follows the same pattern:
//   - a struct holding the store, injected via NewXTool
//   - Definition() returns the mcp.Tool schema
//   - Handle() validates arguments, calls the store and renders text
//
// Store errors come back as tool errors, never as Go errors, so the
// client sees the message and the session stays alive.
package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// idArg extracts a required positive ID.
func idArg(req mcp.CallToolRequest, key string) (int64, error) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, fmt.Errorf("'%s' is required", key)
	}
	if v < 1 || v != float64(int64(v)) {
		return 0, fmt.Errorf("'%s' must be a positive integer", key)
	}
	return int64(v), nil
}

// optID returns nil when key is absent.
func optID(req mcp.CallToolRequest, key string) (*int64, error) {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil, nil
	}
	id, err := idArg(req, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// optInt returns nil when key is absent.
func optInt(req mcp.CallToolRequest, key string) (*int, error) {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return nil, nil
	}
	v, ok := raw.(float64)
	if !ok || v != float64(int(v)) {
		return nil, fmt.Errorf("'%s' must be an integer", key)
	}
	n := int(v)
	return &n, nil
}

// optFloat returns nil when key is absent.
func optFloat(req mcp.CallToolRequest, key string) (*float64, error) {
	raw, ok := req.GetArguments()[key]
	if !ok {
		return nil, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("'%s' must be a number", key)
	}
	return &v, nil
}

// optString returns nil when key is absent.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// listArg splits a comma-separated string argument.
func listArg(req mcp.CallToolRequest, key string) []string {
	var out []string
	for _, part := range strings.Split(req.GetString(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// storeError renders a store error as a tool error with a short hint
// for the sentinel cases.
func storeError(action string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("failed to %s: %v", action, err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		msg += "\nUse wp_tree or status_list to find valid IDs."
	case errors.Is(err, store.ErrCycle):
		msg += "\nA work package cannot be moved below itself or one of its descendants."
	case errors.Is(err, store.ErrHasChildren):
		msg += "\nMove or delete its children first."
	}
	return mcp.NewToolResultError(msg)
}
