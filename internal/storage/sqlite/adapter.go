package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
	apperrors "github.com/kurihiro0119/opendata-harvester/internal/errors"
	"github.com/kurihiro0119/opendata-harvester/internal/storage"
)

// sqliteStore implements the Store interface for SQLite
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string) (storage.Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStore{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		config TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP,
		finished_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_source ON jobs(source_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL,
		remote_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		stage TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL DEFAULT '',
		payload BLOB,
		dataset_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_job ON items(job_id);
	CREATE INDEX IF NOT EXISTS idx_items_job_status ON items(job_id, status);
	CREATE INDEX IF NOT EXISTS idx_items_remote ON items(remote_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveSource inserts or replaces a source configuration
func (s *sqliteStore) SaveSource(ctx context.Context, src *domain.Source) error {
	config, err := json.Marshal(src)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sources (id, title, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			config = excluded.config,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		src.ID,
		src.Title,
		string(config),
		src.CreatedAt,
		src.UpdatedAt,
	)
	return err
}

// GetSource retrieves one source configuration by id
func (s *sqliteStore) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	var config string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM sources WHERE id = ?`, id).Scan(&config)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("source " + id)
	}
	if err != nil {
		return nil, err
	}

	var src domain.Source
	if err := json.Unmarshal([]byte(config), &src); err != nil {
		return nil, err
	}
	return &src, nil
}

// ListSources retrieves all registered sources
func (s *sqliteStore) ListSources(ctx context.Context) ([]*domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT config FROM sources ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		var config string
		if err := rows.Scan(&config); err != nil {
			return nil, err
		}
		var src domain.Source
		if err := json.Unmarshal([]byte(config), &src); err != nil {
			return nil, err
		}
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source configuration
func (s *sqliteStore) DeleteSource(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("source " + id)
	}
	return nil
}

// CreateJob inserts a new harvest job
func (s *sqliteStore) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (id, source_id, status, error, started_at, finished_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.SourceID,
		string(job.Status),
		job.Error,
		nullableTime(job.StartedAt),
		job.FinishedAt,
		job.CreatedAt,
	)
	return err
}

// UpdateJob updates a job's mutable fields
func (s *sqliteStore) UpdateJob(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs SET status = ?, error = ?, started_at = ?, finished_at = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		string(job.Status),
		job.Error,
		nullableTime(job.StartedAt),
		job.FinishedAt,
		job.ID,
	)
	return err
}

// GetJob retrieves one job by id
func (s *sqliteStore) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, source_id, status, error, started_at, finished_at, created_at
		FROM jobs WHERE id = ?
	`
	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("job " + id)
	}
	return job, err
}

// ListJobs retrieves all jobs for a source, newest first
func (s *sqliteStore) ListJobs(ctx context.Context, sourceID string) ([]*domain.Job, error) {
	query := `
		SELECT id, source_id, status, error, started_at, finished_at, created_at
		FROM jobs WHERE source_id = ? ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CreateItem inserts a new harvest item
func (s *sqliteStore) CreateItem(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (id, job_id, remote_id, title, status, stage, error, action, payload, dataset_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		item.JobID,
		item.RemoteID,
		item.Title,
		string(item.Status),
		string(item.Stage),
		item.Error,
		string(item.Action),
		item.Payload,
		item.DatasetID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return err
}

// UpdateItem updates an item's mutable fields
func (s *sqliteStore) UpdateItem(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items SET status = ?, stage = ?, error = ?, action = ?, payload = ?, dataset_id = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		string(item.Status),
		string(item.Stage),
		item.Error,
		string(item.Action),
		item.Payload,
		item.DatasetID,
		item.UpdatedAt,
		item.ID,
	)
	return err
}

// ListItems retrieves all items for a job in gather order
func (s *sqliteStore) ListItems(ctx context.Context, jobID string) ([]*domain.Item, error) {
	query := itemSelect + ` WHERE job_id = ? ORDER BY created_at`
	return s.queryItems(ctx, query, jobID)
}

// ListItemsByStatus retrieves items for a job filtered by status
func (s *sqliteStore) ListItemsByStatus(ctx context.Context, jobID string, status domain.ItemStatus) ([]*domain.Item, error) {
	query := itemSelect + ` WHERE job_id = ? AND status = ? ORDER BY created_at`
	return s.queryItems(ctx, query, jobID, string(status))
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

const itemSelect = `
	SELECT id, job_id, remote_id, title, status, stage, error, action, payload, dataset_id, created_at, updated_at
	FROM items
`

func (s *sqliteStore) queryItems(ctx context.Context, query string, args ...interface{}) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
