package rollup

import (
	"context"
	"fmt"

	"github.com/HendryAvila/wprollup/internal/workpkg"
	"go.uber.org/zap"
)

// Engine propagates a work package change to its ancestors.
// An Engine holds no per-call state and is safe for concurrent use;
// isolation between calls is the caller's transaction.
type Engine struct {
	policy Policy
	log    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Engine for the given progress policy.
func New(policy Policy, opts ...Option) *Engine {
	e := &Engine{policy: policy, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the progress policy the engine was built with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Plan computes the ancestors whose derived fields change because of
// change to subject, stamped with the audit note. Nothing is written.
//
// The subject's current ancestor chain is walked with change's
// attributes. If the save moved the subject and the former parent can
// be resolved, the former parent and its ancestors are walked as well
// with the attributes forced to {parent}.
func (e *Engine) Plan(ctx context.Context, h Hierarchy, subject *workpkg.Item, change workpkg.Change) ([]*workpkg.Item, error) {
	uow := newUnitOfWork()
	w := &walker{hierarchy: h, policy: e.policy, uow: uow, log: e.log}

	ancestors, err := h.Ancestors(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("rollup: ancestors of %s: %w", subject.Ref(), err)
	}
	if _, err := w.walk(ctx, ancestors, change.Attributes); err != nil {
		return nil, err
	}

	if change.ParentChanged() {
		if prev := previousParentID(subject, change); prev != nil {
			chain, err := formerChain(ctx, h, *prev)
			if err != nil {
				return nil, err
			}
			if _, err := w.walk(ctx, chain, workpkg.NewAttrSet(workpkg.AttrParent)); err != nil {
				return nil, err
			}
		}
	}

	modified := uow.modified()
	note := JournalNote(subject)
	for _, it := range modified {
		it.JournalNotes = note
	}
	return modified, nil
}

// Propagate plans the change and persists every modified ancestor.
// A failed save does not stop the remaining ones; the result carries
// one entry per ancestor and succeeds only if all of them did.
func (e *Engine) Propagate(ctx context.Context, h Hierarchy, p Persister, subject *workpkg.Item, change workpkg.Change) (*Result, error) {
	modified, err := e.Plan(ctx, h, subject, change)
	if err != nil {
		return nil, err
	}
	return e.persist(ctx, p, subject, modified), nil
}

// Recompute rebuilds the derived fields of every ancestor of subject as
// if subject had just been attached to its parent.
func (e *Engine) Recompute(ctx context.Context, h Hierarchy, p Persister, subject *workpkg.Item) (*Result, error) {
	return e.Propagate(ctx, h, p, subject, workpkg.NewChange(workpkg.AttrParent))
}

func (e *Engine) persist(ctx context.Context, p Persister, subject *workpkg.Item, modified []*workpkg.Item) *Result {
	res := &Result{Success: true, Subject: subject}
	for _, it := range modified {
		dep := Dependent{Item: it, Success: true}
		if err := p.SaveDerived(ctx, it); err != nil {
			dep.Success = false
			dep.Err = err
			res.Success = false
			e.log.Warn("ancestor save failed",
				zap.Int64("ancestor_id", it.ID),
				zap.Int64("subject_id", subject.ID),
				zap.Error(err),
			)
		}
		res.Dependents = append(res.Dependents, dep)
	}
	return res
}

// previousParentID resolves where subject hung before this save. A
// detached subject with a stored parent wins over change tracking.
func previousParentID(subject *workpkg.Item, change workpkg.Change) *int64 {
	if subject.ParentID == nil && change.ParentWas != nil {
		return change.ParentWas
	}
	return change.ParentBefore
}

// formerChain is the former parent followed by its own ancestors.
func formerChain(ctx context.Context, h Hierarchy, parentID int64) ([]*workpkg.Item, error) {
	parent, err := h.Item(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("rollup: former parent #%d: %w", parentID, err)
	}
	ancestors, err := h.Ancestors(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("rollup: ancestors of former parent #%d: %w", parentID, err)
	}
	return append([]*workpkg.Item{parent}, ancestors...), nil
}
