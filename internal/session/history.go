package session

import "time"

// A Record is the persisted summary of a finished job.
type Record struct {
	ID          JobID     `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Dir         string    `json:"dir"`
	Mode        Mode      `json:"mode"`
	Status      Status    `json:"status"`
	Path        string    `json:"path,omitempty"`
	Retained    []string  `json:"retained,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

type History interface {
	List() ([]Record, error)
	Write(*Record) error
	Delete(*Record) error
}

type NilHistory struct{}

func (h NilHistory) List() ([]Record, error) {
	return nil, nil
}

func (h NilHistory) Write(_ *Record) error {
	return nil
}

func (h NilHistory) Delete(_ *Record) error {
	return nil
}
