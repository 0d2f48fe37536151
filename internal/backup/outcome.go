package backup

import (
	"fmt"
	"time"
)

// Trigger identifies what started a run.
type Trigger string

// Triggers.
const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

// Status is the terminal state of a run.
type Status string

// Statuses.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Reason classifies a failed run.
type Reason string

// Failure reasons.
const (
	ReasonNone                 Reason = ""
	ReasonConfigurationMissing Reason = "configuration_missing"
	ReasonArchiveFailure       Reason = "archive_failure"
	ReasonTransportFailure     Reason = "transport_failure"
	ReasonPanic                Reason = "panic"
	ReasonAlreadyRunning       Reason = "already_running"
)

// Outcome describes one run.
type Outcome struct {
	Trigger      Trigger       `json:"trigger"`
	Status       Status        `json:"status"`
	Reason       Reason        `json:"reason,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	Recipient    string        `json:"recipient,omitempty"`
	ArchiveBytes int64         `json:"archive_bytes,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// String renders the outcome as a one-line status message.
func (o Outcome) String() string {
	switch o.Status {
	case StatusSuccess:
		return fmt.Sprintf("backup sent to %s (%d bytes)", o.Recipient, o.ArchiveBytes)
	case StatusSkipped:
		return "backup skipped: another run is in progress"
	default:
		return fmt.Sprintf("backup failed (%s): %s", o.Reason, o.Detail)
	}
}
