package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/agent-backlog/internal/core"
	"github.com/valter-silva-au/agent-backlog/pkg/models"
)

// InsertProject inserts a project row and returns the assigned ID.
func (s *Store) InsertProject(ctx context.Context, p *models.Project) (int64, error) {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO projects (name, prefix, description, created_at)
		VALUES (?, ?, ?, ?)
	`, p.Name, p.Prefix, p.Description, formatTime(p.Created))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, fmt.Errorf("inserting project %s: %w", p.Prefix, core.ErrDuplicatePrefix)
		}
		return 0, fmt.Errorf("inserting project %s: %w", p.Prefix, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inserting project %s: %w", p.Prefix, err)
	}
	return id, nil
}

// GetProjectByPrefix looks up a project by its uppercase prefix.
func (s *Store) GetProjectByPrefix(ctx context.Context, prefix string) (*models.Project, error) {
	var (
		p       models.Project
		desc    sql.NullString
		created string
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT id, name, prefix, description, created_at
		FROM projects
		WHERE prefix = ?
	`, prefix).Scan(&p.ID, &p.Name, &p.Prefix, &desc, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", prefix, core.ErrProjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %s: %w", prefix, err)
	}

	p.Description = desc.String
	p.Created = parseTime(created)
	return &p, nil
}

// ListProjects returns all projects ordered by prefix.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, prefix, description, created_at
		FROM projects
		ORDER BY prefix
	`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var (
			p       models.Project
			desc    sql.NullString
			created string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Prefix, &desc, &created); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Description = desc.String
		p.Created = parseTime(created)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// Timestamps are stored as fixed-width RFC 3339 strings so lexical ordering
// matches chronological ordering in SQL. RFC3339Nano would drop trailing
// zeros and break that.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
