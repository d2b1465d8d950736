package domain

import "time"

// JobStatus represents the lifecycle state of a harvest job
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusFinished JobStatus = "finished"
	JobStatusErrored  JobStatus = "errored"
)

// ItemStatus represents the lifecycle state of one harvested record
type ItemStatus string

const (
	ItemStatusGathered ItemStatus = "gathered"
	ItemStatusFetched  ItemStatus = "fetched"
	ItemStatusImported ItemStatus = "imported"
	ItemStatusFailed   ItemStatus = "failed"
)

// Stage identifies which part of the pipeline an item was in
type Stage string

const (
	StageGather Stage = "gather"
	StageFetch  Stage = "fetch"
	StageImport Stage = "import"
)

// Action is the outcome of reconciling one dataset against the catalog
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Job is one harvest execution against a source. It owns its items.
type Job struct {
	ID         string     `json:"id"`
	SourceID   string     `json:"source_id"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"` // job-level error (pagination)
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Item tracks one remote record through gather, fetch and import.
type Item struct {
	ID        string     `json:"id"`
	JobID     string     `json:"job_id"`
	RemoteID  string     `json:"remote_id"`
	Title     string     `json:"title,omitempty"`
	Status    ItemStatus `json:"status"`
	Stage     Stage      `json:"stage,omitempty"` // stage of failure
	Error     string     `json:"error,omitempty"`
	Action    Action     `json:"action,omitempty"` // set once imported
	Payload   []byte     `json:"-"`                // raw fetched body, set once
	DatasetID string     `json:"dataset_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// JobReport summarizes a job for the control surface.
type JobReport struct {
	Job          *Job          `json:"job"`
	Gathered     int           `json:"gathered"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	Failed       int           `json:"failed"`
	NotAttempted int           `json:"not_attempted"`
	Failures     []ItemFailure `json:"failures,omitempty"`
}

// BuildJobReport tallies items into a JobReport. Non-terminal items
// count as not attempted only once the job itself has stopped; while
// the job is still running they are simply in flight.
func BuildJobReport(job *Job, items []*Item) *JobReport {
	report := &JobReport{Job: job, Gathered: len(items)}
	terminal := job.Status == JobStatusFinished || job.Status == JobStatusErrored

	for _, item := range items {
		switch item.Status {
		case ItemStatusImported:
			if item.Action == ActionCreated {
				report.Created++
			} else {
				report.Updated++
			}
		case ItemStatusFailed:
			report.Failed++
			report.Failures = append(report.Failures, ItemFailure{
				RemoteID: item.RemoteID,
				Stage:    item.Stage,
				Error:    item.Error,
			})
		default:
			if terminal {
				report.NotAttempted++
			}
		}
	}
	return report
}

// ItemFailure is one failed item's stage and message.
type ItemFailure struct {
	RemoteID string `json:"remote_id"`
	Stage    Stage  `json:"stage"`
	Error    string `json:"error"`
}

// Summary is one (identifier, minimal summary) pair produced by a paginator.
type Summary struct {
	ID    string
	Title string
}
