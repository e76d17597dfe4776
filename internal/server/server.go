// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it builds the store and the roll-up
// engine, then registers tools, prompts and resources. No business
// logic lives here.
package server

import (
	"fmt"

	"github.com/HendryAvila/wprollup/internal/config"
	"github.com/HendryAvila/wprollup/internal/prompts"
	"github.com/HendryAvila/wprollup/internal/resources"
	"github.com/HendryAvila/wprollup/internal/rollup"
	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/HendryAvila/wprollup/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call even if New failed.
func New(cfg config.Config, log *zap.Logger) (*server.MCPServer, func(), error) {
	engine := rollup.New(cfg.Policy(), rollup.WithLogger(log.Named("rollup")))

	st, err := store.New(
		store.Config{DataDir: cfg.DataDir},
		store.WithEngine(engine),
		store.WithLogger(log.Named("store")),
	)
	if err != nil {
		return nil, noop, fmt.Errorf("opening store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Warn("store close failed", zap.Error(err))
		}
	}

	s := server.NewMCPServer(
		"wprollup",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerTools(s, st, cfg.MaxTreeDepth)

	// --- Register prompts ---

	breakdown := prompts.NewBreakdownPrompt()
	s.AddPrompt(breakdown.Definition(), breakdown.Handle)

	progress := prompts.NewProgressPrompt()
	s.AddPrompt(progress.Definition(), progress.Handle)

	// --- Register resources ---

	res := resources.NewHandler(st, cfg.MaxTreeDepth)
	s.AddResource(res.HierarchyResource(), res.HandleHierarchy)
	s.AddResource(res.StatusesResource(), res.HandleStatuses)

	log.Info("server ready",
		zap.String("version", Version),
		zap.String("data_dir", cfg.DataDir),
		zap.String("done_ratio", cfg.DoneRatio),
	)
	return s, cleanup, nil
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// registerTools registers every work package and status tool.
func registerTools(s *server.MCPServer, st *store.Store, maxDepth int) {
	// --- Statuses ---

	statusCreate := tools.NewStatusCreateTool(st)
	s.AddTool(statusCreate.Definition(), statusCreate.Handle)

	statusList := tools.NewStatusListTool(st)
	s.AddTool(statusList.Definition(), statusList.Handle)

	// --- Work package writes (each one propagates to ancestors) ---

	create := tools.NewCreateTool(st)
	s.AddTool(create.Definition(), create.Handle)

	update := tools.NewUpdateTool(st)
	s.AddTool(update.Definition(), update.Handle)

	move := tools.NewMoveTool(st)
	s.AddTool(move.Definition(), move.Handle)

	del := tools.NewDeleteTool(st)
	s.AddTool(del.Definition(), del.Handle)

	recompute := tools.NewRecomputeTool(st)
	s.AddTool(recompute.Definition(), recompute.Handle)

	// --- Work package reads ---

	get := tools.NewGetTool(st)
	s.AddTool(get.Definition(), get.Handle)

	tree := tools.NewTreeTool(st, maxDepth)
	s.AddTool(tree.Definition(), tree.Handle)

	history := tools.NewHistoryTool(st)
	s.AddTool(history.Definition(), history.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how the work package tools behave.
func serverInstructions() string {
	return `You have access to wprollup, a work package tracker that keeps parent progress in sync.

## How it works

Work packages form a tree. Every parent's done ratio and derived estimated hours
are computed from its LEAF descendants (work packages without children):

- Done ratio is a weighted average of the leaves' done ratios. Leaves are weighted
  by story points when any leaf has points, else by estimated hours when any leaf
  has hours, else equally. A leaf in a closed status counts as 100%.
- Derived estimated hours is the sum of the leaves' estimates. It is unset, not 0,
  when no leaf has an estimate.

Whenever you change done_ratio, estimated_hours, status or parent of a work package,
every ancestor is recomputed in the same transaction. Moving a work package also
recomputes the chain it was moved away from. Write tools report each updated
ancestor with ✅ or ❌.

## Tools

- status_create / status_list — workflow statuses (closed statuses count as done)
- wp_create — new work package, optionally under a parent
- wp_update — change fields; use clear=... to unset them
- wp_move — re-parent, or omit parent_id to make it a root
- wp_delete — delete a work package without children
- wp_get / wp_tree — inspect one item or the outline
- wp_history — journal; cascaded updates are marked "cascade"
- wp_recompute — repair ancestors after a partial failure

## Rules

- Set done_ratio and estimated_hours on LEAVES. Values you set on a parent are
  overwritten by the next change below it.
- If a write reports a partial failure, call wp_recompute on the same work package.`
}
