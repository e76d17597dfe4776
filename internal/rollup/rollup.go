// Package rollup keeps the derived fields of parent work packages in
// sync with their leaves.
//
// When a work package is saved, every ancestor gets its done ratio and
// derived estimated hours recomputed from its own leaf descendants. When
// the save moved the work package, the former parent chain is
// recomputed as well. The engine only reads through Hierarchy and only
// writes through Persister; callers run one propagation inside a single
// transaction so that concurrent saves cannot interleave with a
// half-read ancestor chain.
package rollup

import (
	"context"

	"github.com/HendryAvila/wprollup/internal/workpkg"
)

// Hierarchy is the read side of the work package store.
type Hierarchy interface {
	// Item returns a single work package with its status loaded.
	Item(ctx context.Context, id int64) (*workpkg.Item, error)

	// Ancestors returns the ancestor chain of id, root first, excluding
	// id itself.
	Ancestors(ctx context.Context, id int64) ([]*workpkg.Item, error)

	// Leaves returns the childless descendants of id, distinct by ID.
	Leaves(ctx context.Context, id int64) ([]*workpkg.Item, error)
}

// Persister writes the derived fields of one ancestor together with its
// journal note. Implementations must not send notifications for these
// writes.
type Persister interface {
	SaveDerived(ctx context.Context, item *workpkg.Item) error
}

// Policy holds the instance-wide progress settings.
type Policy struct {
	// DoneRatioDisabled turns done ratio aggregation off entirely.
	DoneRatioDisabled bool

	// UseStatusForDoneRatio lets a status with a default done ratio
	// govern the ratio of every work package in it.
	UseStatusForDoneRatio bool
}

// Attributes that justify touching ancestors at all.
var inheritanceTriggers = []string{
	workpkg.AttrEstimatedHours,
	workpkg.AttrDoneRatio,
	workpkg.AttrParent,
	workpkg.AttrParentID,
	workpkg.AttrStatus,
	workpkg.AttrStatusID,
}

// JournalNote is the audit note stamped on ancestors updated because of
// a change to subject.
func JournalNote(subject *workpkg.Item) string {
	return "Updated automatically by changing values within child work package " + subject.Ref()
}
