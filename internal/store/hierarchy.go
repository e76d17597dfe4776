package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/wprollup/internal/workpkg"
)

const itemColumns = `
	w.id, w.parent_id, w.subject, w.status_id, w.done_ratio, w.estimated_hours,
	w.derived_estimated_hours, w.story_points, w.created_at, w.updated_at,
	s.id, s.name, s.is_closed, s.default_done_ratio`

const itemJoin = `
	FROM work_packages w
	LEFT JOIN statuses s ON s.id = w.status_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner, extra ...any) (*workpkg.Item, error) {
	var (
		it      workpkg.Item
		sID     *int64
		sName   *string
		sClosed *bool
		sRatio  *int
	)
	dest := append(extra,
		&it.ID, &it.ParentID, &it.Subject, &it.StatusID, &it.DoneRatio, &it.EstimatedHours,
		&it.DerivedEstimatedHours, &it.StoryPoints, &it.CreatedAt, &it.UpdatedAt,
		&sID, &sName, &sClosed, &sRatio,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if sID != nil {
		it.Status = &workpkg.Status{ID: *sID, DefaultDoneRatio: sRatio}
		if sName != nil {
			it.Status.Name = *sName
		}
		if sClosed != nil {
			it.Status.IsClosed = *sClosed
		}
		it.Closed = it.Status.IsClosed
	}
	return &it, nil
}

func queryItems(ctx context.Context, q queryer, query string, args ...any) ([]*workpkg.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*workpkg.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ─── Hierarchy queries ──────────────────────────────────────────────────────

func getItem(ctx context.Context, q queryer, id int64) (*workpkg.Item, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+itemJoin+` WHERE w.id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work package #%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading work package #%d: %w", id, err)
	}
	return it, nil
}

// ancestorsOf returns the ancestor chain of id, root first.
func ancestorsOf(ctx context.Context, q queryer, id int64, maxDepth int) ([]*workpkg.Item, error) {
	items, err := queryItems(ctx, q, `
		WITH RECURSIVE chain(id, parent_id, depth) AS (
			SELECT id, parent_id, 0 FROM work_packages WHERE id = ?
			UNION ALL
			SELECT p.id, p.parent_id, c.depth + 1
			FROM work_packages p
			JOIN chain c ON p.id = c.parent_id
			WHERE c.depth < ?
		)
		SELECT `+itemColumns+`
		FROM chain c
		JOIN work_packages w ON w.id = c.id
		LEFT JOIN statuses s ON s.id = w.status_id
		WHERE c.depth > 0
		ORDER BY c.depth DESC`,
		id, maxDepth,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ancestors of #%d: %w", id, err)
	}
	return items, nil
}

// leavesOf returns the childless descendants of id. The recursive UNION
// deduplicates by ID, so a leaf reachable twice is returned once.
func leavesOf(ctx context.Context, q queryer, id int64) ([]*workpkg.Item, error) {
	items, err := queryItems(ctx, q, `
		WITH RECURSIVE descendants(id) AS (
			SELECT id FROM work_packages WHERE parent_id = ?
			UNION
			SELECT w.id FROM work_packages w JOIN descendants d ON w.parent_id = d.id
		)
		SELECT DISTINCT `+itemColumns+`
		FROM descendants d
		JOIN work_packages w ON w.id = d.id
		LEFT JOIN statuses s ON s.id = w.status_id
		WHERE NOT EXISTS (SELECT 1 FROM work_packages c WHERE c.parent_id = w.id)
		ORDER BY w.id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying leaves of #%d: %w", id, err)
	}
	return items, nil
}

func childrenOf(ctx context.Context, q queryer, id int64) ([]*workpkg.Item, error) {
	items, err := queryItems(ctx, q, `SELECT `+itemColumns+itemJoin+` WHERE w.parent_id = ? ORDER BY w.id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying children of #%d: %w", id, err)
	}
	return items, nil
}

// ─── Transaction view ───────────────────────────────────────────────────────

// txView is the hierarchy as seen from inside one write transaction. It
// implements rollup.Hierarchy and rollup.Persister.
type txView struct {
	s     *Store
	tx    *sql.Tx
	runID string
}

func (v *txView) Item(ctx context.Context, id int64) (*workpkg.Item, error) {
	return getItem(ctx, v.tx, id)
}

func (v *txView) Ancestors(ctx context.Context, id int64) ([]*workpkg.Item, error) {
	return ancestorsOf(ctx, v.tx, id, v.s.cfg.MaxDepth)
}

func (v *txView) Leaves(ctx context.Context, id int64) ([]*workpkg.Item, error) {
	return leavesOf(ctx, v.tx, id)
}

// SaveDerived writes one cascaded ancestor inside its own savepoint, so
// a failure rolls back that ancestor only.
func (v *txView) SaveDerived(ctx context.Context, it *workpkg.Item) error {
	if _, err := v.s.execHook(ctx, v.tx, `SAVEPOINT cascade_write`); err != nil {
		return fmt.Errorf("savepoint for #%d: %w", it.ID, err)
	}
	if err := v.writeDerived(ctx, it); err != nil {
		if _, rbErr := v.s.execHook(ctx, v.tx, `ROLLBACK TO cascade_write`); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback savepoint for #%d: %w", it.ID, rbErr))
		}
		if _, relErr := v.s.execHook(ctx, v.tx, `RELEASE cascade_write`); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release savepoint for #%d: %w", it.ID, relErr))
		}
		return err
	}
	if _, err := v.s.execHook(ctx, v.tx, `RELEASE cascade_write`); err != nil {
		return fmt.Errorf("release savepoint for #%d: %w", it.ID, err)
	}
	return nil
}

func (v *txView) writeDerived(ctx context.Context, it *workpkg.Item) error {
	var (
		prevRatio *int
		prevHours *float64
	)
	err := v.tx.QueryRowContext(ctx,
		`SELECT done_ratio, derived_estimated_hours FROM work_packages WHERE id = ?`, it.ID,
	).Scan(&prevRatio, &prevHours)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("work package #%d: %w", it.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading work package #%d: %w", it.ID, err)
	}

	var changed []string
	if !workpkg.EqualInt(prevRatio, it.DoneRatio) {
		changed = append(changed, workpkg.AttrDoneRatio)
	}
	if !workpkg.EqualFloat(prevHours, it.DerivedEstimatedHours) {
		changed = append(changed, "derived_estimated_hours")
	}

	if _, err := v.s.execHook(ctx, v.tx,
		`UPDATE work_packages
		 SET done_ratio = ?,
		     derived_estimated_hours = ?,
		     lock_version = lock_version + 1,
		     updated_at = datetime('now')
		 WHERE id = ?`,
		nullInt(it.DoneRatio), nullFloat(it.DerivedEstimatedHours), it.ID,
	); err != nil {
		return fmt.Errorf("updating work package #%d: %w", it.ID, err)
	}

	return v.s.insertJournal(ctx, v.tx, Journal{
		WorkPackageID: it.ID,
		RunID:         v.runID,
		Notes:         it.JournalNotes,
		Changes:       strings.Join(changed, ", "),
		Cascade:       true,
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
