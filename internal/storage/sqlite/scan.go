package sqlite

import (
	"database/sql"
	"time"

	"github.com/kurihiro0119/opendata-harvester/internal/domain"
)

// rowScanner abstracts *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job      domain.Job
		status   string
		started  sql.NullTime
		finished sql.NullTime
	)
	err := row.Scan(&job.ID, &job.SourceID, &status, &job.Error, &started, &finished, &job.CreatedAt)
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if started.Valid {
		job.StartedAt = started.Time
	}
	if finished.Valid {
		t := finished.Time
		job.FinishedAt = &t
	}
	return &job, nil
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item   domain.Item
		status string
		stage  string
		action string
	)
	err := row.Scan(&item.ID, &item.JobID, &item.RemoteID, &item.Title, &status, &stage,
		&item.Error, &action, &item.Payload, &item.DatasetID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Status = domain.ItemStatus(status)
	item.Stage = domain.Stage(stage)
	item.Action = domain.Action(action)
	return &item, nil
}

// nullableTime renders the zero time as NULL
func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
