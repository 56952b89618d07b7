package report

import "time"

// ItemFailure records one member-level mutation that failed during a
// reconciliation pass. Item failures never abort the pass.
type ItemFailure struct {
	MemberID string
	Reason   string
}

// TeamSyncResult is the outcome of reconciling one team's tag against the
// reference set. A fatal error for one team never affects the others.
type TeamSyncResult struct {
	TeamID       string
	TeamName     string
	TagID        string
	CreatedTag   bool
	RecoveredTag bool

	Added          []string
	Removed        []string
	AddFailures    []ItemFailure
	RemoveFailures []ItemFailure

	FatalCode    string
	FatalMessage string
}

func (r TeamSyncResult) Fatal() bool {
	return r.FatalCode != ""
}

// SyncRun aggregates one full pass over all matched teams.
type SyncRun struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	TeamsTotal  int
	TeamsFailed int
	Teams       []TeamSyncResult
}

type StepStatus string

const (
	StepOK      StepStatus = "OK"
	StepFailed  StepStatus = "FAILED"
	StepSkipped StepStatus = "SKIPPED"
	StepAborted StepStatus = "ABORTED"
)

// StepResult records one step of an offboarding run.
type StepResult struct {
	Step   string
	Status StepStatus
	Detail string
	Error  string
}

// OffboardRun is the full record of one offboarding workflow execution.
// Succeeded means every executed step finished without failures; a fatal
// step sets FatalCode and marks the remaining steps aborted.
type OffboardRun struct {
	ID         string
	UserID     string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  bool
	FatalCode  string
	Steps      []StepResult
}
