package tools

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/HendryAvila/wprollup/internal/rollup"
	"github.com/HendryAvila/wprollup/internal/store"
	"github.com/HendryAvila/wprollup/internal/workpkg"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestStore creates a store.Store in a temp directory for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir()}, store.WithEngine(rollup.New(rollup.Policy{})))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func mustNotError(t *testing.T, r *mcp.CallToolResult, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
}

func mustToolError(t *testing.T, r *mcp.CallToolResult, err error, want string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !r.IsError {
		t.Fatalf("expected tool error, got: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), want) {
		t.Errorf("error %q does not contain %q", resultText(r), want)
	}
}

// seed creates a parent with one child and returns their IDs.
func seed(t *testing.T, s *store.Store) (parent, child int64) {
	t.Helper()
	ctx := context.Background()
	create := NewCreateTool(s)

	r, err := create.Handle(ctx, makeReq(map[string]interface{}{"subject": "Epic"}))
	mustNotError(t, r, err)
	r, err = create.Handle(ctx, makeReq(map[string]interface{}{
		"subject":         "Task",
		"parent_id":       float64(1),
		"done_ratio":      float64(40),
		"estimated_hours": float64(5),
	}))
	mustNotError(t, r, err)
	return 1, 2
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestDefinitions(t *testing.T) {
	s := newTestStore(t)
	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewStatusCreateTool(s).Definition(), "status_create", []string{"name"}},
		{NewStatusListTool(s).Definition(), "status_list", nil},
		{NewCreateTool(s).Definition(), "wp_create", []string{"subject"}},
		{NewUpdateTool(s).Definition(), "wp_update", []string{"id"}},
		{NewMoveTool(s).Definition(), "wp_move", []string{"id"}},
		{NewDeleteTool(s).Definition(), "wp_delete", []string{"id"}},
		{NewGetTool(s).Definition(), "wp_get", []string{"id"}},
		{NewTreeTool(s, 10).Definition(), "wp_tree", nil},
		{NewHistoryTool(s).Definition(), "wp_history", []string{"id"}},
		{NewRecomputeTool(s).Definition(), "wp_recompute", []string{"id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.def.Name != tt.name {
				t.Errorf("tool name = %q, want %q", tt.def.Name, tt.name)
			}
			for _, req := range tt.required {
				found := false
				for _, r := range tt.def.InputSchema.Required {
					if r == req {
						found = true
					}
				}
				if !found {
					t.Errorf("%q should be required", req)
				}
				if _, ok := tt.def.InputSchema.Properties[req]; !ok {
					t.Errorf("missing %q parameter", req)
				}
			}
		})
	}
}

// ─── Write tools ─────────────────────────────────────────────────────────────

func TestCreateTool_ReportsAncestors(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	r, err := NewCreateTool(s).Handle(context.Background(), makeReq(map[string]interface{}{
		"subject":         "Second task",
		"parent_id":       float64(1),
		"done_ratio":      float64(100),
		"estimated_hours": float64(5),
	}))
	mustNotError(t, r, err)

	text := resultText(r)
	for _, want := range []string{"Created #3 Second task", "Ancestors updated (1)", "✅ #1 Epic [70%]", "derived=10h", "Status: ok", "Run: "} {
		if !strings.Contains(text, want) {
			t.Errorf("response missing %q:\n%s", want, text)
		}
	}
}

func TestCreateTool_Validation(t *testing.T) {
	s := newTestStore(t)
	tool := NewCreateTool(s)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing subject", map[string]interface{}{}, "'subject' is required"},
		{"fractional ratio", map[string]interface{}{"subject": "x", "done_ratio": 12.5}, "'done_ratio' must be an integer"},
		{"ratio out of range", map[string]interface{}{"subject": "x", "done_ratio": float64(101)}, "invalid"},
		{"string hours", map[string]interface{}{"subject": "x", "estimated_hours": "3"}, "'estimated_hours' must be a number"},
		{"unknown parent", map[string]interface{}{"subject": "x", "parent_id": float64(77)}, "not found"},
		{"zero parent", map[string]interface{}{"subject": "x", "parent_id": float64(0)}, "positive integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tool.Handle(ctx, makeReq(tt.args))
			mustToolError(t, r, err, tt.want)
		})
	}
}

func TestUpdateTool_RollsUp(t *testing.T) {
	s := newTestStore(t)
	parent, child := seed(t, s)

	r, err := NewUpdateTool(s).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":         float64(child),
		"done_ratio": float64(90),
		"notes":      "almost there",
	}))
	mustNotError(t, r, err)

	if text := resultText(r); !strings.Contains(text, "Changed: done_ratio") {
		t.Errorf("response should list the changed attribute:\n%s", text)
	}
	got, err := s.GetItem(context.Background(), parent)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.DoneRatio == nil || *got.DoneRatio != 90 {
		t.Errorf("parent done_ratio = %v, want 90", got.DoneRatio)
	}
}

func TestUpdateTool_ClearParent(t *testing.T) {
	s := newTestStore(t)
	_, child := seed(t, s)

	r, err := NewUpdateTool(s).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":    float64(child),
		"clear": "parent_id, estimated_hours",
	}))
	mustNotError(t, r, err)

	got, err := s.GetItem(context.Background(), child)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !got.IsRoot() || got.EstimatedHours != nil {
		t.Errorf("child = %+v, want root without estimate", got)
	}
}

func TestUpdateTool_MissingID(t *testing.T) {
	s := newTestStore(t)
	r, err := NewUpdateTool(s).Handle(context.Background(), makeReq(map[string]interface{}{"done_ratio": float64(1)}))
	mustToolError(t, r, err, "'id' is required")
}

func TestMoveTool_CycleHint(t *testing.T) {
	s := newTestStore(t)
	parent, child := seed(t, s)

	r, err := NewMoveTool(s).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":        float64(parent),
		"parent_id": float64(child),
	}))
	mustToolError(t, r, err, "below itself or one of its descendants")
}

func TestMoveTool_ToRoot(t *testing.T) {
	s := newTestStore(t)
	parent, child := seed(t, s)

	r, err := NewMoveTool(s).Handle(context.Background(), makeReq(map[string]interface{}{"id": float64(child)}))
	mustNotError(t, r, err)

	if text := resultText(r); !strings.Contains(text, "#"+itoa(parent)) {
		t.Errorf("former parent should be reported:\n%s", text)
	}
}

func TestDeleteTool(t *testing.T) {
	s := newTestStore(t)
	parent, child := seed(t, s)
	tool := NewDeleteTool(s)
	ctx := context.Background()

	r, err := tool.Handle(ctx, makeReq(map[string]interface{}{"id": float64(parent)}))
	mustToolError(t, r, err, "Move or delete its children first")

	r, err = tool.Handle(ctx, makeReq(map[string]interface{}{"id": float64(child)}))
	mustNotError(t, r, err)
	if text := resultText(r); !strings.HasPrefix(text, "Deleted #2 Task") {
		t.Errorf("unexpected response:\n%s", text)
	}
}

func TestRecomputeTool(t *testing.T) {
	s := newTestStore(t)
	_, child := seed(t, s)

	r, err := NewRecomputeTool(s).Handle(context.Background(), makeReq(map[string]interface{}{"id": float64(child)}))
	mustNotError(t, r, err)
	if text := resultText(r); !strings.Contains(text, "Ancestors updated: none") {
		t.Errorf("consistent tree should need no writes:\n%s", text)
	}
}

// ─── Read tools ──────────────────────────────────────────────────────────────

func TestTreeTool(t *testing.T) {
	s := newTestStore(t)
	tool := NewTreeTool(s, 10)
	ctx := context.Background()

	r, err := tool.Handle(ctx, makeReq(map[string]interface{}{}))
	mustNotError(t, r, err)
	if !strings.Contains(resultText(r), "No work packages yet") {
		t.Errorf("empty tree message missing: %s", resultText(r))
	}

	seed(t, s)
	r, err = tool.Handle(ctx, makeReq(map[string]interface{}{"detail_level": "summary"}))
	mustNotError(t, r, err)
	want := "- #1 Epic [40%]\n  - #2 Task [40%]"
	if got := resultText(r); got != want {
		t.Errorf("tree =\n%s\nwant\n%s", got, want)
	}

	r, err = tool.Handle(ctx, makeReq(map[string]interface{}{"id": float64(1), "depth": float64(0)}))
	mustNotError(t, r, err)
	if strings.Contains(resultText(r), "#2") {
		t.Errorf("depth 0 should hide children: %s", resultText(r))
	}
}

func TestGetTool(t *testing.T) {
	s := newTestStore(t)
	_, child := seed(t, s)

	r, err := NewGetTool(s).Handle(context.Background(), makeReq(map[string]interface{}{"id": float64(child)}))
	mustNotError(t, r, err)
	text := resultText(r)
	for _, want := range []string{"#2 Task [40%]", "parent=#1", "Ancestors: #1", "Children: none (leaf)"} {
		if !strings.Contains(text, want) {
			t.Errorf("response missing %q:\n%s", want, text)
		}
	}
}

func TestHistoryTool(t *testing.T) {
	s := newTestStore(t)
	parent, _ := seed(t, s)
	tool := NewHistoryTool(s)
	ctx := context.Background()

	r, err := tool.Handle(ctx, makeReq(map[string]interface{}{"id": float64(parent), "cascade_only": true}))
	mustNotError(t, r, err)
	text := resultText(r)
	if !strings.Contains(text, "cascade") || !strings.Contains(text, "child work package #2") {
		t.Errorf("cascade entry missing:\n%s", text)
	}
	if strings.Contains(text, "] edit") {
		t.Errorf("cascade_only should hide direct edits:\n%s", text)
	}

	r, err = tool.Handle(ctx, makeReq(map[string]interface{}{"id": float64(parent), "limit": float64(1)}))
	mustNotError(t, r, err)
	if !strings.Contains(resultText(r), "Showing 1 of 2") {
		t.Errorf("navigation hint missing:\n%s", resultText(r))
	}

	r, err = tool.Handle(ctx, makeReq(map[string]interface{}{"id": float64(99)}))
	mustToolError(t, r, err, "not found")
}

// ─── Statuses ────────────────────────────────────────────────────────────────

func TestStatusTools(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	create := NewStatusCreateTool(s)
	list := NewStatusListTool(s)

	r, err := list.Handle(ctx, makeReq(nil))
	mustNotError(t, r, err)
	if !strings.Contains(resultText(r), "No statuses defined") {
		t.Errorf("empty list message missing: %s", resultText(r))
	}

	r, err = create.Handle(ctx, makeReq(map[string]interface{}{"name": "Done", "is_closed": true, "default_done_ratio": float64(100)}))
	mustNotError(t, r, err)
	if text := resultText(r); !strings.Contains(text, `"Done" (ID: 1)`) || !strings.Contains(text, "Closed: yes") {
		t.Errorf("unexpected response: %s", text)
	}

	r, err = create.Handle(ctx, makeReq(map[string]interface{}{"name": "Done"}))
	mustToolError(t, r, err, "failed to create status")

	r, err = list.Handle(ctx, makeReq(nil))
	mustNotError(t, r, err)
	if text := resultText(r); !strings.Contains(text, "1. Done (closed) default=100%") {
		t.Errorf("unexpected list: %s", text)
	}
}

// ─── Rendering ───────────────────────────────────────────────────────────────

func TestFormatWrite_PartialFailure(t *testing.T) {
	res := &store.WriteResult{
		Change: workpkg.NewChange(workpkg.AttrDoneRatio),
		Propagation: &rollup.Result{
			Subject: &workpkg.Item{ID: 3, Subject: "Leaf", DoneRatio: workpkg.Int(10)},
			Dependents: []rollup.Dependent{
				{Item: &workpkg.Item{ID: 1, Subject: "Root", DoneRatio: workpkg.Int(10)}, Success: true},
				{Item: &workpkg.Item{ID: 2, Subject: "Mid", DoneRatio: workpkg.Int(10)}, Err: errors.New("locked")},
			},
		},
	}

	text := formatWrite("Updated", res)
	for _, want := range []string{"✅ #1 Root", "❌ #2 Mid [10%] error: locked", "partial failure (1 of 2", "wp_recompute"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestParseDetailLevel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", DetailStandard},
		{"summary", DetailSummary},
		{"full", DetailFull},
		{"verbose", DetailStandard},
	}
	for _, tt := range tests {
		if got := ParseDetailLevel(tt.in); got != tt.want {
			t.Errorf("ParseDetailLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNavigationHint(t *testing.T) {
	tests := []struct {
		showing, total int
		hint, want     string
	}{
		{5, 5, "", ""},
		{0, 0, "x", ""},
		{2, 5, "", "\n📊 Showing 2 of 5."},
		{2, 5, "More.", "\n📊 Showing 2 of 5. More."},
	}
	for _, tt := range tests {
		if got := NavigationHint(tt.showing, tt.total, tt.hint); got != tt.want {
			t.Errorf("NavigationHint(%d, %d, %q) = %q, want %q", tt.showing, tt.total, tt.hint, got, tt.want)
		}
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
