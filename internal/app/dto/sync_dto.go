package dto

import "time"

type ItemFailure struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

type TeamSyncResult struct {
	TeamID         string        `json:"team_id"`
	TeamName       string        `json:"team_name"`
	TagID          string        `json:"tag_id,omitempty"`
	CreatedTag     bool          `json:"created_tag"`
	RecoveredTag   bool          `json:"recovered_tag"`
	Added          []string      `json:"added,omitempty"`
	Removed        []string      `json:"removed,omitempty"`
	AddFailures    []ItemFailure `json:"add_failures,omitempty"`
	RemoveFailures []ItemFailure `json:"remove_failures,omitempty"`
	FatalCode      string        `json:"fatal_code,omitempty"`
	FatalMessage   string        `json:"fatal_message,omitempty"`
}

type SyncRun struct {
	RunID       string           `json:"run_id"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	TeamsTotal  int              `json:"teams_total"`
	TeamsFailed int              `json:"teams_failed"`
	Teams       []TeamSyncResult `json:"teams,omitempty"`
}
