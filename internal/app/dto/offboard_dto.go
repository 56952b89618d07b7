package dto

import "time"

type StepResult struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type OffboardRun struct {
	RunID      string       `json:"run_id"`
	UserID     string       `json:"user_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Succeeded  bool         `json:"succeeded"`
	FatalCode  string       `json:"fatal_code,omitempty"`
	Steps      []StepResult `json:"steps,omitempty"`
}
