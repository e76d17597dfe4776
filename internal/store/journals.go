package store

import (
	"context"
	"fmt"
)

// Journal is one audit entry of a work package.
type Journal struct {
	ID            int64  `json:"id"`
	WorkPackageID int64  `json:"work_package_id"`
	RunID         string `json:"run_id"`
	Notes         string `json:"notes,omitempty"`
	Changes       string `json:"changes,omitempty"`
	Cascade       bool   `json:"cascade"`
	Notified      bool   `json:"notified"`
	CreatedAt     string `json:"created_at"`
}

func (s *Store) insertJournal(ctx context.Context, db execer, j Journal) error {
	// Direct edits notify watchers; cascaded ancestor writes never do.
	notified := !j.Cascade
	if _, err := s.execHook(ctx, db,
		`INSERT INTO journals (work_package_id, run_id, notes, changes, is_cascade, notified)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		j.WorkPackageID, j.RunID, j.Notes, j.Changes, j.Cascade, notified,
	); err != nil {
		return fmt.Errorf("writing journal for #%d: %w", j.WorkPackageID, err)
	}
	return nil
}

// Journals returns the journal of a work package, oldest first.
func (s *Store) Journals(ctx context.Context, workPackageID int64) ([]Journal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, work_package_id, run_id, notes, changes, is_cascade, notified, created_at
		 FROM journals
		 WHERE work_package_id = ?
		 ORDER BY id ASC`,
		workPackageID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: querying journals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Journal
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.ID, &j.WorkPackageID, &j.RunID, &j.Notes, &j.Changes, &j.Cascade, &j.Notified, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning journal: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// RunJournals returns every journal written by one propagation run.
func (s *Store) RunJournals(ctx context.Context, runID string) ([]Journal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, work_package_id, run_id, notes, changes, is_cascade, notified, created_at
		 FROM journals
		 WHERE run_id = ?
		 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: querying run journals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Journal
	for rows.Next() {
		var j Journal
		if err := rows.Scan(&j.ID, &j.WorkPackageID, &j.RunID, &j.Notes, &j.Changes, &j.Cascade, &j.Notified, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scanning journal: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
