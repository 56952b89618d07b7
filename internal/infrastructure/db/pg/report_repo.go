package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"adminservice/internal/domain"
	"adminservice/internal/domain/report"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// teamDetailJSON is the JSONB payload of one per-team result. Counts and
// fatal codes live in their own columns; the member lists only matter for
// operators reading a single run, so they stay in the document.
type teamDetailJSON struct {
	Added          []string          `json:"added,omitempty"`
	Removed        []string          `json:"removed,omitempty"`
	AddFailures    []itemFailureJSON `json:"add_failures,omitempty"`
	RemoveFailures []itemFailureJSON `json:"remove_failures,omitempty"`
}

type itemFailureJSON struct {
	MemberID string `json:"member_id"`
	Reason   string `json:"reason"`
}

type stepJSON struct {
	Step   string `json:"step"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r *ReportRepository) SaveSyncRun(ctx context.Context, run report.SyncRun) error {
	_, err := exec(ctx, r.db,
		`INSERT INTO sync_runs (run_id, started_at, finished_at, teams_total, teams_failed)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.StartedAt, run.FinishedAt, run.TeamsTotal, run.TeamsFailed,
	)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}

	for _, t := range run.Teams {
		detail, err := json.Marshal(teamDetailJSON{
			Added:          t.Added,
			Removed:        t.Removed,
			AddFailures:    failuresToJSON(t.AddFailures),
			RemoveFailures: failuresToJSON(t.RemoveFailures),
		})
		if err != nil {
			return fmt.Errorf("marshal team detail: %w", err)
		}
		if _, err := exec(ctx, r.db,
			`INSERT INTO sync_run_teams
			   (run_id, team_id, team_name, tag_id, created_tag, recovered_tag, fatal_code, fatal_message, detail)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)`,
			run.ID, t.TeamID, t.TeamName, t.TagID, t.CreatedTag, t.RecoveredTag,
			t.FatalCode, t.FatalMessage, string(detail),
		); err != nil {
			return fmt.Errorf("insert team result: %w", err)
		}
	}
	return nil
}

func (r *ReportRepository) GetSyncRun(ctx context.Context, id string) (report.SyncRun, error) {
	var run report.SyncRun
	err := queryRow(ctx, r.db,
		`SELECT run_id, started_at, finished_at, teams_total, teams_failed
		   FROM sync_runs
		  WHERE run_id = $1`,
		id,
	).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.TeamsTotal, &run.TeamsFailed)

	if errors.Is(err, sql.ErrNoRows) {
		return report.SyncRun{}, &domain.DomainError{
			Code:       domain.ErrorCodeNotFound,
			Message:    "sync run not found",
			HTTPStatus: 404,
		}
	}
	if err != nil {
		return report.SyncRun{}, err
	}

	rows, err := query(ctx, r.db,
		`SELECT team_id, team_name, tag_id, created_tag, recovered_tag, fatal_code, fatal_message, detail
		   FROM sync_run_teams
		  WHERE run_id = $1
		  ORDER BY team_id`,
		id,
	)
	if err != nil {
		return report.SyncRun{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t      report.TeamSyncResult
			detail []byte
		)
		if err := rows.Scan(&t.TeamID, &t.TeamName, &t.TagID, &t.CreatedTag, &t.RecoveredTag,
			&t.FatalCode, &t.FatalMessage, &detail); err != nil {
			return report.SyncRun{}, err
		}
		var d teamDetailJSON
		if err := json.Unmarshal(detail, &d); err != nil {
			return report.SyncRun{}, fmt.Errorf("unmarshal team detail: %w", err)
		}
		t.Added = d.Added
		t.Removed = d.Removed
		t.AddFailures = failuresFromJSON(d.AddFailures)
		t.RemoveFailures = failuresFromJSON(d.RemoveFailures)
		run.Teams = append(run.Teams, t)
	}
	if err := rows.Err(); err != nil {
		return report.SyncRun{}, err
	}
	return run, nil
}

func (r *ReportRepository) ListSyncRuns(ctx context.Context, limit int) ([]report.SyncRun, error) {
	rows, err := query(ctx, r.db,
		`SELECT run_id, started_at, finished_at, teams_total, teams_failed
		   FROM sync_runs
		  ORDER BY started_at DESC
		  LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []report.SyncRun
	for rows.Next() {
		var run report.SyncRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.TeamsTotal, &run.TeamsFailed); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *ReportRepository) SaveOffboardRun(ctx context.Context, run report.OffboardRun) error {
	steps := make([]stepJSON, 0, len(run.Steps))
	for _, st := range run.Steps {
		steps = append(steps, stepJSON{
			Step:   st.Step,
			Status: string(st.Status),
			Detail: st.Detail,
			Error:  st.Error,
		})
	}
	encoded, err := json.Marshal(steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	_, err = exec(ctx, r.db,
		`INSERT INTO offboard_runs (run_id, user_id, started_at, finished_at, succeeded, fatal_code, steps)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
		run.ID, run.UserID, run.StartedAt, run.FinishedAt, run.Succeeded, run.FatalCode, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("insert offboard run: %w", err)
	}
	return nil
}

func (r *ReportRepository) ListOffboardRuns(ctx context.Context, userID string, limit int) ([]report.OffboardRun, error) {
	rows, err := query(ctx, r.db,
		`SELECT run_id, user_id, started_at, finished_at, succeeded, fatal_code, steps
		   FROM offboard_runs
		  WHERE ($1 = '' OR user_id = $1)
		  ORDER BY started_at DESC
		  LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []report.OffboardRun
	for rows.Next() {
		var (
			run     report.OffboardRun
			encoded []byte
		)
		if err := rows.Scan(&run.ID, &run.UserID, &run.StartedAt, &run.FinishedAt,
			&run.Succeeded, &run.FatalCode, &encoded); err != nil {
			return nil, err
		}
		var steps []stepJSON
		if err := json.Unmarshal(encoded, &steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
		for _, st := range steps {
			run.Steps = append(run.Steps, report.StepResult{
				Step:   st.Step,
				Status: report.StepStatus(st.Status),
				Detail: st.Detail,
				Error:  st.Error,
			})
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func failuresToJSON(failures []report.ItemFailure) []itemFailureJSON {
	if len(failures) == 0 {
		return nil
	}
	res := make([]itemFailureJSON, 0, len(failures))
	for _, f := range failures {
		res = append(res, itemFailureJSON{MemberID: f.MemberID, Reason: f.Reason})
	}
	return res
}

func failuresFromJSON(failures []itemFailureJSON) []report.ItemFailure {
	if len(failures) == 0 {
		return nil
	}
	res := make([]report.ItemFailure, 0, len(failures))
	for _, f := range failures {
		res = append(res, report.ItemFailure{MemberID: f.MemberID, Reason: f.Reason})
	}
	return res
}
