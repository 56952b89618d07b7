package report

import "context"

type Repository interface {
	SaveSyncRun(ctx context.Context, run SyncRun) error
	// GetSyncRun returns the run with its per-team results.
	GetSyncRun(ctx context.Context, id string) (SyncRun, error)
	// ListSyncRuns returns run summaries only, newest first; Teams is not
	// populated.
	ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error)

	SaveOffboardRun(ctx context.Context, run OffboardRun) error
	// ListOffboardRuns returns runs newest first, optionally filtered by
	// the offboarded user's id.
	ListOffboardRuns(ctx context.Context, userID string, limit int) ([]OffboardRun, error)
}
