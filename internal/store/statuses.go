package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/wprollup/internal/workpkg"
)

// CreateStatusParams holds input for a new status.
type CreateStatusParams struct {
	Name             string `json:"name"`
	IsClosed         bool   `json:"is_closed"`
	DefaultDoneRatio *int   `json:"default_done_ratio,omitempty"`
}

// CreateStatus inserts a status and returns it.
func (s *Store) CreateStatus(ctx context.Context, p CreateStatusParams) (*workpkg.Status, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("store: create status: %w: name is required", ErrInvalid)
	}
	if err := checkRatio(p.DefaultDoneRatio); err != nil {
		return nil, fmt.Errorf("store: create status: %w", err)
	}

	res, err := s.execHook(ctx, s.db,
		`INSERT INTO statuses (name, is_closed, default_done_ratio) VALUES (?, ?, ?)`,
		name, p.IsClosed, nullInt(p.DefaultDoneRatio),
	)
	if err != nil {
		return nil, fmt.Errorf("store: create status %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: create status %q: %w", name, err)
	}
	return s.GetStatus(ctx, id)
}

// GetStatus returns one status by ID.
func (s *Store) GetStatus(ctx context.Context, id int64) (*workpkg.Status, error) {
	return getStatus(ctx, s.db, id)
}

func getStatus(ctx context.Context, q queryer, id int64) (*workpkg.Status, error) {
	var st workpkg.Status
	err := q.QueryRowContext(ctx,
		`SELECT id, name, is_closed, default_done_ratio FROM statuses WHERE id = ?`, id,
	).Scan(&st.ID, &st.Name, &st.IsClosed, &st.DefaultDoneRatio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("status %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading status %d: %w", id, err)
	}
	return &st, nil
}

// ListStatuses returns all statuses ordered by ID.
func (s *Store) ListStatuses(ctx context.Context) ([]workpkg.Status, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_closed, default_done_ratio FROM statuses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: querying statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []workpkg.Status
	for rows.Next() {
		var st workpkg.Status
		if err := rows.Scan(&st.ID, &st.Name, &st.IsClosed, &st.DefaultDoneRatio); err != nil {
			return nil, fmt.Errorf("store: scanning status: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
