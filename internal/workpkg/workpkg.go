// Package workpkg defines the work package model shared by the store,
// the roll-up engine and the MCP tools.
//
// A work package belongs to at most one parent. Completion (done ratio)
// and derived estimated hours of a parent are computed from its leaf
// descendants by package rollup; everything here is plain data.
package workpkg

import "fmt"

// ─── Attribute names ─────────────────────────────────────────────────────────

// Attribute names reported in a Change. They match the column names of
// the work_packages table.
const (
	AttrSubject        = "subject"
	AttrParent         = "parent"
	AttrParentID       = "parent_id"
	AttrStatus         = "status"
	AttrStatusID       = "status_id"
	AttrDoneRatio      = "done_ratio"
	AttrEstimatedHours = "estimated_hours"
	AttrStoryPoints    = "story_points"
)

// MaxDoneRatio is the upper bound of a done ratio (percent).
const MaxDoneRatio = 100

// ─── Types ───────────────────────────────────────────────────────────────────

// Status is a workflow state. A status may pin the done ratio of every
// work package in it when the progress policy is "status".
type Status struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	IsClosed         bool   `json:"is_closed"`
	DefaultDoneRatio *int   `json:"default_done_ratio,omitempty"`
}

// Item is a single work package.
//
// DerivedEstimatedHours is nil when nothing below the item carries an
// estimate; it is never stored as 0.
type Item struct {
	ID                    int64    `json:"id"`
	ParentID              *int64   `json:"parent_id,omitempty"`
	Subject               string   `json:"subject"`
	StatusID              *int64   `json:"status_id,omitempty"`
	Status                *Status  `json:"status,omitempty"`
	DoneRatio             *int     `json:"done_ratio,omitempty"`
	EstimatedHours        *float64 `json:"estimated_hours,omitempty"`
	DerivedEstimatedHours *float64 `json:"derived_estimated_hours,omitempty"`
	StoryPoints           *int     `json:"story_points,omitempty"`
	Closed                bool     `json:"closed"`
	CreatedAt             string   `json:"created_at,omitempty"`
	UpdatedAt             string   `json:"updated_at,omitempty"`

	// JournalNotes is the audit note attached on the next save.
	JournalNotes string `json:"-"`
}

// Clone returns a deep copy of the item. Pointer fields are copied so
// the clone can be mutated without touching the original.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	c.ParentID = cloneInt64(it.ParentID)
	c.StatusID = cloneInt64(it.StatusID)
	c.DoneRatio = cloneInt(it.DoneRatio)
	c.EstimatedHours = cloneFloat(it.EstimatedHours)
	c.DerivedEstimatedHours = cloneFloat(it.DerivedEstimatedHours)
	c.StoryPoints = cloneInt(it.StoryPoints)
	if it.Status != nil {
		st := *it.Status
		st.DefaultDoneRatio = cloneInt(it.Status.DefaultDoneRatio)
		c.Status = &st
	}
	return &c
}

// IsRoot reports whether the item has no parent.
func (it *Item) IsRoot() bool {
	return it.ParentID == nil
}

// Ref renders the item as "#<id>", the form used in journal notes.
func (it *Item) Ref() string {
	return fmt.Sprintf("#%d", it.ID)
}

// ─── Pointer helpers ─────────────────────────────────────────────────────────

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// EqualInt reports whether two nullable ints hold the same value.
func EqualInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// EqualInt64 reports whether two nullable int64s hold the same value.
func EqualInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// EqualFloat reports whether two nullable floats hold the same value.
func EqualFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return Int(*v)
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	return Int64(*v)
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
