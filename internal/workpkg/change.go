package workpkg

import "sort"

// AttrSet is the set of attribute names touched by a save.
type AttrSet map[string]struct{}

// NewAttrSet builds a set from the given names.
func NewAttrSet(names ...string) AttrSet {
	s := make(AttrSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s AttrSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether at least one of names is in the set.
func (s AttrSet) HasAny(names ...string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// Add inserts names into the set.
func (s AttrSet) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Names returns the sorted attribute names.
func (s AttrSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Change describes one save of a work package: which attributes changed
// and where the item was attached before the save.
type Change struct {
	Attributes AttrSet

	// ParentWas is the parent stored before an edit that has not been
	// written yet, e.g. an item being deleted.
	ParentWas *int64

	// ParentBefore is the parent recorded by change tracking for this
	// save (the value before the change, not after).
	ParentBefore *int64
}

// NewChange returns a Change touching the given attributes only.
func NewChange(names ...string) Change {
	return Change{Attributes: NewAttrSet(names...)}
}

// ParentChanged reports whether the save moved the item.
func (c Change) ParentChanged() bool {
	return c.Attributes.HasAny(AttrParent, AttrParentID)
}

// Diff compares two snapshots of the same work package and returns the
// resulting Change. A parent change is reported as both parent and
// parent_id; likewise for status.
//
// A status change that closes or reopens the item also reports
// done_ratio: the item's effective completion changes even when the
// stored ratio does not.
func Diff(before, after *Item) Change {
	c := Change{Attributes: AttrSet{}}

	if before.Subject != after.Subject {
		c.Attributes.Add(AttrSubject)
	}
	if !EqualInt64(before.ParentID, after.ParentID) {
		c.Attributes.Add(AttrParent, AttrParentID)
		c.ParentBefore = cloneInt64(before.ParentID)
	}
	if !EqualInt64(before.StatusID, after.StatusID) {
		c.Attributes.Add(AttrStatus, AttrStatusID)
		if before.Closed != after.Closed {
			c.Attributes.Add(AttrDoneRatio)
		}
	}
	if !EqualInt(before.DoneRatio, after.DoneRatio) {
		c.Attributes.Add(AttrDoneRatio)
	}
	if !EqualFloat(before.EstimatedHours, after.EstimatedHours) {
		c.Attributes.Add(AttrEstimatedHours)
	}
	if !EqualInt(before.StoryPoints, after.StoryPoints) {
		c.Attributes.Add(AttrStoryPoints)
	}
	return c
}
