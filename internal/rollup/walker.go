package rollup

import (
	"context"
	"fmt"

	"github.com/HendryAvila/wprollup/internal/workpkg"
	"go.uber.org/zap"
)

// unitOfWork tracks the working copies of every ancestor visited during
// one propagation. An ancestor reached by both the current and the
// former parent chain shares one working copy, so the two walks never
// propose conflicting writes for the same row.
type unitOfWork struct {
	order   []int64
	entries map[int64]*tracked
}

type tracked struct {
	original *workpkg.Item
	working  *workpkg.Item
}

func newUnitOfWork() *unitOfWork {
	return &unitOfWork{entries: make(map[int64]*tracked)}
}

// track returns the working copy for it, creating one on first visit.
func (u *unitOfWork) track(it *workpkg.Item) *tracked {
	if t, ok := u.entries[it.ID]; ok {
		return t
	}
	t := &tracked{original: it.Clone(), working: it.Clone()}
	u.entries[it.ID] = t
	u.order = append(u.order, it.ID)
	return t
}

// modified returns the working copies whose derived values differ from
// what was loaded, in first-visit order.
func (u *unitOfWork) modified() []*workpkg.Item {
	var out []*workpkg.Item
	for _, id := range u.order {
		t := u.entries[id]
		if t.changed() {
			out = append(out, t.working)
		}
	}
	return out
}

// overlay swaps loaded leaves for their pending working copies. A former
// parent left without children is a leaf of its own ancestors, and
// those must see its recomputed values, not the stored ones.
func (u *unitOfWork) overlay(leaves []*workpkg.Item) []*workpkg.Item {
	for i, leaf := range leaves {
		if t, ok := u.entries[leaf.ID]; ok {
			leaves[i] = t.working
		}
	}
	return leaves
}

func (t *tracked) changed() bool {
	return !workpkg.EqualInt(t.original.DoneRatio, t.working.DoneRatio) ||
		!workpkg.EqualFloat(t.original.DerivedEstimatedHours, t.working.DerivedEstimatedHours)
}

// walker recomputes the derived fields of a chain of ancestors.
type walker struct {
	hierarchy Hierarchy
	policy    Policy
	uow       *unitOfWork
	log       *zap.Logger
}

// walk recomputes every ancestor in chain according to attrs and returns
// the ancestors of this chain that ended up with different values.
func (w *walker) walk(ctx context.Context, chain []*workpkg.Item, attrs workpkg.AttrSet) ([]*workpkg.Item, error) {
	if !attrs.HasAny(inheritanceTriggers...) {
		return nil, nil
	}

	// A parent change replaces the leaf set itself, so it forces both.
	ratio := attrs.HasAny(workpkg.AttrDoneRatio, workpkg.AttrParent)
	hours := attrs.HasAny(workpkg.AttrEstimatedHours, workpkg.AttrParent)
	if !ratio && !hours {
		return nil, nil
	}

	var modified []*workpkg.Item
	for _, ancestor := range chain {
		leaves, err := w.hierarchy.Leaves(ctx, ancestor.ID)
		if err != nil {
			return nil, fmt.Errorf("rollup: leaves of %s: %w", ancestor.Ref(), err)
		}
		leaves = w.uow.overlay(distinctLeaves(leaves))

		t := w.uow.track(ancestor)
		w.inherit(t.working, leaves, ratio, hours)

		if t.changed() {
			modified = append(modified, t.working)
		}
	}
	return modified, nil
}

// inherit applies the aggregated values to the working copy.
func (w *walker) inherit(ancestor *workpkg.Item, leaves []*workpkg.Item, ratio, hours bool) {
	if ratio {
		if v := DoneRatio(ancestor, leaves, w.policy); v != nil {
			ancestor.DoneRatio = v
		}
	}
	if hours {
		ancestor.DerivedEstimatedHours = DerivedEstimatedHours(leaves)
	}

	w.log.Debug("ancestor recomputed",
		zap.Int64("ancestor_id", ancestor.ID),
		zap.Int("leaves", len(leaves)),
		zap.Bool("done_ratio", ratio),
		zap.Bool("estimated_hours", hours),
	)
}

// distinctLeaves drops repeated IDs, keeping the first occurrence.
func distinctLeaves(leaves []*workpkg.Item) []*workpkg.Item {
	seen := make(map[int64]struct{}, len(leaves))
	out := leaves[:0:0]
	for _, leaf := range leaves {
		if _, dup := seen[leaf.ID]; dup {
			continue
		}
		seen[leaf.ID] = struct{}{}
		out = append(out, leaf)
	}
	return out
}
