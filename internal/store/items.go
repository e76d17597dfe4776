package store

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/HendryAvila/wprollup/internal/rollup"
	"github.com/HendryAvila/wprollup/internal/workpkg"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateItemParams holds input for a new work package.
type CreateItemParams struct {
	Subject        string   `json:"subject"`
	ParentID       *int64   `json:"parent_id,omitempty"`
	StatusID       *int64   `json:"status_id,omitempty"`
	DoneRatio      *int     `json:"done_ratio,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	StoryPoints    *int     `json:"story_points,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// UpdateItemParams holds partial update fields. Nil fields are left
// unchanged; attributes listed in Clear are reset to NULL.
type UpdateItemParams struct {
	Subject        *string  `json:"subject,omitempty"`
	ParentID       *int64   `json:"parent_id,omitempty"`
	StatusID       *int64   `json:"status_id,omitempty"`
	DoneRatio      *int     `json:"done_ratio,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	StoryPoints    *int     `json:"story_points,omitempty"`
	Clear          []string `json:"clear,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// Clearable lists the attributes UpdateItemParams.Clear accepts.
var Clearable = []string{
	workpkg.AttrParentID,
	workpkg.AttrStatusID,
	workpkg.AttrDoneRatio,
	workpkg.AttrEstimatedHours,
	workpkg.AttrStoryPoints,
}

// WriteResult is the outcome of one write: the change applied to the
// subject and the propagation to its ancestors.
type WriteResult struct {
	RunID       string
	Change      workpkg.Change
	Propagation *rollup.Result
}

// TreeNode is one row of a rendered subtree.
type TreeNode struct {
	Depth int
	Item  *workpkg.Item
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// GetItem returns a work package with its status.
func (s *Store) GetItem(ctx context.Context, id int64) (*workpkg.Item, error) {
	it, err := getItem(ctx, s.db, id)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return it, nil
}

// Children returns the direct children of a work package.
func (s *Store) Children(ctx context.Context, id int64) ([]*workpkg.Item, error) {
	return childrenOf(ctx, s.db, id)
}

// Ancestors returns the ancestor chain of a work package, root first.
func (s *Store) Ancestors(ctx context.Context, id int64) ([]*workpkg.Item, error) {
	return ancestorsOf(ctx, s.db, id, s.cfg.MaxDepth)
}

// Leaves returns the childless descendants of a work package.
func (s *Store) Leaves(ctx context.Context, id int64) ([]*workpkg.Item, error) {
	return leavesOf(ctx, s.db, id)
}

// Roots returns every work package without a parent.
func (s *Store) Roots(ctx context.Context) ([]*workpkg.Item, error) {
	items, err := queryItems(ctx, s.db, `SELECT `+itemColumns+itemJoin+` WHERE w.parent_id IS NULL ORDER BY w.id`)
	if err != nil {
		return nil, fmt.Errorf("store: querying roots: %w", err)
	}
	return items, nil
}

// Subtree returns id and its descendants down to maxDepth levels, in
// depth-first order.
func (s *Store) Subtree(ctx context.Context, id int64, maxDepth int) ([]TreeNode, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE tree(id, depth, path) AS (
			SELECT id, 0, printf('%012d', id) FROM work_packages WHERE id = ?
			UNION ALL
			SELECT w.id, t.depth + 1, t.path || '/' || printf('%012d', w.id)
			FROM work_packages w
			JOIN tree t ON w.parent_id = t.id
			WHERE t.depth < ?
		)
		SELECT t.depth, `+itemColumns+`
		FROM tree t
		JOIN work_packages w ON w.id = t.id
		LEFT JOIN statuses s ON s.id = w.status_id
		ORDER BY t.path`,
		id, maxDepth,
	)
	if err != nil {
		return nil, fmt.Errorf("store: querying subtree of #%d: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	var out []TreeNode
	for rows.Next() {
		var depth int
		it, err := scanItem(rows, &depth)
		if err != nil {
			return nil, fmt.Errorf("store: scanning subtree: %w", err)
		}
		out = append(out, TreeNode{Depth: depth, Item: it})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("store: work package #%d: %w", id, ErrNotFound)
	}
	return out, nil
}

// ─── Writes ──────────────────────────────────────────────────────────────────

// write runs fn in a transaction and commits when fn succeeds. Every
// journal row written by fn carries the same run ID.
func (s *Store) write(ctx context.Context, op string, fn func(v *txView) (*WriteResult, error)) (*WriteResult, error) {
	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: %s: begin transaction: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	v := &txView{s: s, tx: tx, runID: uuid.NewString()}
	res, err := fn(v)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", op, err)
	}

	if err := s.commitHook(tx); err != nil {
		return nil, fmt.Errorf("store: %s: commit transaction: %w", op, err)
	}
	res.RunID = v.runID

	if p := res.Propagation; p != nil {
		s.log.Info("work package saved",
			zap.String("op", op),
			zap.String("run_id", v.runID),
			zap.Int64("id", p.Subject.ID),
			zap.Strings("changed", res.Change.Attributes.Names()),
			zap.Int64s("ancestors", p.DependentIDs()),
			zap.Bool("success", p.Success),
		)
	}
	return res, nil
}

// CreateItem inserts a work package and rolls its values up into the
// new parent chain.
func (s *Store) CreateItem(ctx context.Context, p CreateItemParams) (*WriteResult, error) {
	return s.write(ctx, "create work package", func(v *txView) (*WriteResult, error) {
		blank := &workpkg.Item{}
		after, err := s.apply(ctx, v, blank, UpdateItemParams{
			Subject:        &p.Subject,
			ParentID:       p.ParentID,
			StatusID:       p.StatusID,
			DoneRatio:      p.DoneRatio,
			EstimatedHours: p.EstimatedHours,
			StoryPoints:    p.StoryPoints,
		})
		if err != nil {
			return nil, err
		}

		res, err := s.execHook(ctx, v.tx,
			`INSERT INTO work_packages (parent_id, subject, status_id, done_ratio, estimated_hours, story_points)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			nullInt64(after.ParentID), after.Subject, nullInt64(after.StatusID),
			nullInt(after.DoneRatio), nullFloat(after.EstimatedHours), nullInt(after.StoryPoints),
		)
		if err != nil {
			return nil, fmt.Errorf("inserting work package: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("inserting work package: %w", err)
		}
		after.ID = id

		// A new item has no "before": every set attribute counts as changed.
		change := workpkg.Diff(blank, after)
		return s.finishSave(ctx, v, after, change, p.Notes)
	})
}

// UpdateItem applies a partial update and propagates it to the current
// and, on a move, the former ancestor chain.
func (s *Store) UpdateItem(ctx context.Context, id int64, p UpdateItemParams) (*WriteResult, error) {
	return s.write(ctx, "update work package", func(v *txView) (*WriteResult, error) {
		before, err := v.Item(ctx, id)
		if err != nil {
			return nil, err
		}
		after, err := s.apply(ctx, v, before, p)
		if err != nil {
			return nil, err
		}

		change := workpkg.Diff(before, after)
		if len(change.Attributes) == 0 {
			return &WriteResult{Change: change, Propagation: &rollup.Result{Success: true, Subject: before}}, nil
		}

		if _, err := s.execHook(ctx, v.tx,
			`UPDATE work_packages
			 SET parent_id = ?,
			     subject = ?,
			     status_id = ?,
			     done_ratio = ?,
			     estimated_hours = ?,
			     story_points = ?,
			     lock_version = lock_version + 1,
			     updated_at = datetime('now')
			 WHERE id = ?`,
			nullInt64(after.ParentID), after.Subject, nullInt64(after.StatusID),
			nullInt(after.DoneRatio), nullFloat(after.EstimatedHours), nullInt(after.StoryPoints),
			id,
		); err != nil {
			return nil, fmt.Errorf("updating work package #%d: %w", id, err)
		}

		return s.finishSave(ctx, v, after, change, p.Notes)
	})
}

// MoveItem attaches a work package to a new parent, or makes it a root
// when parentID is nil.
func (s *Store) MoveItem(ctx context.Context, id int64, parentID *int64) (*WriteResult, error) {
	p := UpdateItemParams{ParentID: parentID}
	if parentID == nil {
		p.Clear = []string{workpkg.AttrParentID}
	}
	return s.UpdateItem(ctx, id, p)
}

// DeleteItem removes a childless work package and recomputes the chain
// it was attached to.
func (s *Store) DeleteItem(ctx context.Context, id int64) (*WriteResult, error) {
	return s.write(ctx, "delete work package", func(v *txView) (*WriteResult, error) {
		it, err := v.Item(ctx, id)
		if err != nil {
			return nil, err
		}
		kids, err := childrenOf(ctx, v.tx, id)
		if err != nil {
			return nil, err
		}
		if len(kids) > 0 {
			return nil, fmt.Errorf("work package #%d: %w (%d)", id, ErrHasChildren, len(kids))
		}

		if _, err := s.execHook(ctx, v.tx, `DELETE FROM work_packages WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("deleting work package #%d: %w", id, err)
		}

		// The row is gone but the former parent is known: walk that chain.
		subject := it.Clone()
		subject.ParentID = nil
		change := workpkg.Change{
			Attributes: workpkg.NewAttrSet(workpkg.AttrParent, workpkg.AttrParentID),
			ParentWas:  it.ParentID,
		}
		prop, err := s.engine.Propagate(ctx, v, v, subject, change)
		if err != nil {
			return nil, err
		}
		return &WriteResult{Change: change, Propagation: prop}, nil
	})
}

// Recompute rebuilds the derived fields of every ancestor of id.
func (s *Store) Recompute(ctx context.Context, id int64) (*WriteResult, error) {
	return s.write(ctx, "recompute ancestors", func(v *txView) (*WriteResult, error) {
		it, err := v.Item(ctx, id)
		if err != nil {
			return nil, err
		}
		prop, err := s.engine.Recompute(ctx, v, v, it)
		if err != nil {
			return nil, err
		}
		return &WriteResult{Change: workpkg.NewChange(workpkg.AttrParent), Propagation: prop}, nil
	})
}

// finishSave journals the subject and runs the roll-up inside v.
func (s *Store) finishSave(ctx context.Context, v *txView, after *workpkg.Item, change workpkg.Change, notes string) (*WriteResult, error) {
	if err := s.insertJournal(ctx, v.tx, Journal{
		WorkPackageID: after.ID,
		RunID:         v.runID,
		Notes:         notes,
		Changes:       strings.Join(change.Attributes.Names(), ", "),
	}); err != nil {
		return nil, err
	}

	prop, err := s.engine.Propagate(ctx, v, v, after, change)
	if err != nil {
		return nil, err
	}

	saved, err := v.Item(ctx, after.ID)
	if err != nil {
		return nil, err
	}
	prop.Subject = saved
	return &WriteResult{Change: change, Propagation: prop}, nil
}

// apply returns a copy of before with p applied and validated.
func (s *Store) apply(ctx context.Context, v *txView, before *workpkg.Item, p UpdateItemParams) (*workpkg.Item, error) {
	after := before.Clone()
	cleared := workpkg.NewAttrSet(p.Clear...)
	for name := range cleared {
		if !workpkg.NewAttrSet(Clearable...).Has(name) {
			return nil, fmt.Errorf("%w: cannot clear %q", ErrInvalid, name)
		}
	}

	if p.Subject != nil {
		subject := strings.TrimSpace(*p.Subject)
		if subject == "" {
			return nil, fmt.Errorf("%w: subject is required", ErrInvalid)
		}
		after.Subject = subject
	}

	switch {
	case cleared.Has(workpkg.AttrParentID):
		after.ParentID = nil
	case p.ParentID != nil:
		if err := s.checkParent(ctx, v, before.ID, *p.ParentID); err != nil {
			return nil, err
		}
		after.ParentID = workpkg.Int64(*p.ParentID)
	}

	statusChanged := false
	switch {
	case cleared.Has(workpkg.AttrStatusID):
		after.StatusID, after.Status, after.Closed = nil, nil, false
		statusChanged = before.StatusID != nil
	case p.StatusID != nil:
		st, err := getStatus(ctx, v.tx, *p.StatusID)
		if err != nil {
			return nil, err
		}
		after.StatusID, after.Status, after.Closed = workpkg.Int64(st.ID), st, st.IsClosed
		statusChanged = !workpkg.EqualInt64(before.StatusID, after.StatusID)
	}

	switch {
	case cleared.Has(workpkg.AttrDoneRatio):
		after.DoneRatio = nil
	case p.DoneRatio != nil:
		if err := checkRatio(p.DoneRatio); err != nil {
			return nil, err
		}
		after.DoneRatio = workpkg.Int(*p.DoneRatio)
	}

	// In status mode a status with a default ratio sets the item's ratio.
	policy := s.engine.Policy()
	if statusChanged && p.DoneRatio == nil && policy.UseStatusForDoneRatio &&
		after.Status != nil && after.Status.DefaultDoneRatio != nil {
		after.DoneRatio = workpkg.Int(*after.Status.DefaultDoneRatio)
	}

	switch {
	case cleared.Has(workpkg.AttrEstimatedHours):
		after.EstimatedHours = nil
	case p.EstimatedHours != nil:
		h := *p.EstimatedHours
		if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: estimated_hours %v", ErrInvalid, h)
		}
		after.EstimatedHours = workpkg.Float(h)
	}

	switch {
	case cleared.Has(workpkg.AttrStoryPoints):
		after.StoryPoints = nil
	case p.StoryPoints != nil:
		if *p.StoryPoints < 0 {
			return nil, fmt.Errorf("%w: story_points %d", ErrInvalid, *p.StoryPoints)
		}
		after.StoryPoints = workpkg.Int(*p.StoryPoints)
	}

	return after, nil
}

// checkParent rejects unknown parents and moves below the item itself.
// id is 0 for items that do not exist yet.
func (s *Store) checkParent(ctx context.Context, v *txView, id, parentID int64) error {
	if id != 0 && parentID == id {
		return fmt.Errorf("work package #%d: %w", id, ErrCycle)
	}
	if _, err := v.Item(ctx, parentID); err != nil {
		return err
	}
	if id == 0 {
		return nil
	}
	chain, err := v.Ancestors(ctx, parentID)
	if err != nil {
		return err
	}
	for _, a := range chain {
		if a.ID == id {
			return fmt.Errorf("work package #%d under #%d: %w", id, parentID, ErrCycle)
		}
	}
	return nil
}

func checkRatio(v *int) error {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > workpkg.MaxDoneRatio {
		return fmt.Errorf("%w: done_ratio %d out of range 0..%d", ErrInvalid, *v, workpkg.MaxDoneRatio)
	}
	return nil
}
