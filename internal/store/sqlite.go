package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mini-jira/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Timestamps are stored as RFC 3339 strings; empty means unknown.

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseDBTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type userRow struct {
	ID         string `db:"id"`
	Email      string `db:"email"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	FullName   string `db:"full_name"`
	IsActive   bool   `db:"is_active"`
	DateJoined string `db:"date_joined"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:         r.ID,
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		FullName:   r.FullName,
		IsActive:   r.IsActive,
		DateJoined: parseDBTime(r.DateJoined),
	}
}

type projectRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	TaskCount   int    `db:"task_count"`
	OwnerID     string `db:"owner_id"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

type taskRow struct {
	ID          string `db:"id"`
	ProjectID   string `db:"project_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Status      string `db:"status"`
	Priority    string `db:"priority"`
	AssigneeID  string `db:"assignee_id"`
	Position    int    `db:"position"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

const upsertUserSQL = `
	INSERT OR REPLACE INTO users (
		id, email, first_name, last_name, full_name, is_active, date_joined
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

const upsertProjectSQL = `
	INSERT OR REPLACE INTO projects (
		id, name, description, task_count, owner_id, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

const insertTaskSQL = `
	INSERT OR REPLACE INTO tasks (
		id, project_id, title, description, status, priority,
		assignee_id, position, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func upsertUserTx(ctx context.Context, tx *sqlx.Tx, u model.User) error {
	_, err := tx.ExecContext(ctx, upsertUserSQL,
		u.ID, u.Email, u.FirstName, u.LastName, u.FullName,
		u.IsActive, fmtTime(u.DateJoined),
	)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", u.ID, err)
	}
	return nil
}

func upsertProjectTx(ctx context.Context, tx *sqlx.Tx, p model.Project) error {
	ownerID := ""
	if p.Owner != nil {
		ownerID = p.Owner.ID
		if err := upsertUserTx(ctx, tx, *p.Owner); err != nil {
			return err
		}
	}

	_, err := tx.ExecContext(ctx, upsertProjectSQL,
		p.ID, p.Name, p.Description, p.TaskCount, ownerID,
		fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting project %s: %w", p.ID, err)
	}
	return nil
}

// ReplaceProjects swaps the cached project list wholesale.
func (s *SQLiteStore) ReplaceProjects(
	ctx context.Context,
	projects []model.Project,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}

	for _, p := range projects {
		if err := upsertProjectTx(ctx, tx, p); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpsertProject inserts or replaces a single project row.
func (s *SQLiteStore) UpsertProject(ctx context.Context, p model.Project) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertProjectTx(ctx, tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// GetProjects returns the cached project list with owners resolved.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	var rows []projectRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM projects ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}

	projects := make([]model.Project, 0, len(rows))
	for _, r := range rows {
		p := model.Project{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			TaskCount:   r.TaskCount,
			CreatedAt:   parseDBTime(r.CreatedAt),
			UpdatedAt:   parseDBTime(r.UpdatedAt),
		}
		if r.OwnerID != "" {
			owner, err := s.getUser(ctx, r.OwnerID)
			if err != nil {
				return nil, err
			}
			p.Owner = owner
		}
		projects = append(projects, p)
	}

	return projects, nil
}

// GetProject returns one cached project with its task list in server
// order, or nil when not cached.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var row projectRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM projects WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying project %s: %w", id, err)
	}

	p := model.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		TaskCount:   row.TaskCount,
		CreatedAt:   parseDBTime(row.CreatedAt),
		UpdatedAt:   parseDBTime(row.UpdatedAt),
	}
	if row.OwnerID != "" {
		owner, err := s.getUser(ctx, row.OwnerID)
		if err != nil {
			return nil, err
		}
		p.Owner = owner
	}

	var taskRows []taskRow
	err = s.db.SelectContext(ctx, &taskRows,
		"SELECT * FROM tasks WHERE project_id = ? ORDER BY position", id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for project %s: %w", id, err)
	}

	for _, tr := range taskRows {
		t := model.Task{
			ID:          tr.ID,
			ProjectID:   tr.ProjectID,
			Title:       tr.Title,
			Description: tr.Description,
			Status:      model.Status(tr.Status),
			Priority:    model.Priority(tr.Priority),
			CreatedAt:   parseDBTime(tr.CreatedAt),
			UpdatedAt:   parseDBTime(tr.UpdatedAt),
		}
		if tr.AssigneeID != "" {
			assignee, err := s.getUser(ctx, tr.AssigneeID)
			if err != nil {
				return nil, err
			}
			t.Assignee = assignee
		}
		p.Tasks = append(p.Tasks, t)
	}

	return &p, nil
}

// ReplaceProjectTasks swaps the cached task set of one project. The
// insert order records the server-returned order.
func (s *SQLiteStore) ReplaceProjectTasks(
	ctx context.Context,
	projectID string,
	tasks []model.Task,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tasks WHERE project_id = ?", projectID,
	); err != nil {
		return fmt.Errorf("clearing tasks for project %s: %w", projectID, err)
	}

	for i, t := range tasks {
		assigneeID := ""
		if t.Assignee != nil {
			assigneeID = t.Assignee.ID
			if err := upsertUserTx(ctx, tx, *t.Assignee); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, insertTaskSQL,
			t.ID, projectID, t.Title, t.Description,
			string(t.Status), string(t.Priority),
			assigneeID, i, fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// UpsertUsers inserts or replaces user rows by id.
func (s *SQLiteStore) UpsertUsers(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range users {
		if err := upsertUserTx(ctx, tx, u); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetUsers returns all cached users ordered by email.
func (s *SQLiteStore) GetUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows, "SELECT * FROM users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

func (s *SQLiteStore) getUser(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}
	u := row.toModel()
	return &u, nil
}

// Reset wipes the entire cache.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tasks", "projects", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return tx.Commit()
}
