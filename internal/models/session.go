package models

import "time"

// Stage is the position of a pipeline session in its state machine.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageValidating     Stage = "validating"
	StageReading        Stage = "reading"
	StageConsolidating  Stage = "consolidating"
	StageSampling       Stage = "sampling"
	StageParsing        Stage = "parsing"
	StageComputingStats Stage = "computing_stats"
	StageReady          Stage = "ready"
	StageFailed         Stage = "failed"
)

// Terminal reports whether a run has ended in this stage.
func (s Stage) Terminal() bool {
	return s == StageReady || s == StageFailed
}

// SessionError is the latest error surfaced by a session.
type SessionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionInfo is a point-in-time view of a pipeline session.
type SessionInfo struct {
	ID          string        `json:"id"`
	Stage       Stage         `json:"stage"`
	SampleRate  int           `json:"sampleRate"`
	Files       []FileInfo    `json:"files"`
	FileIndex   int           `json:"fileIndex"`
	TotalRows   int           `json:"totalRows"`
	SampledRows int           `json:"sampledRows"`
	ColumnCount int           `json:"columnCount"`
	Error       *SessionError `json:"error,omitempty"`
	Issues      []ParseError  `json:"issues,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Snapshot is a column set persisted to a named slot.
type Snapshot struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
	Columns ColumnSet `json:"columns"`
}
