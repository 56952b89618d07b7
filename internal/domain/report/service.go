package report

import "context"

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service interface {
	GetSyncRun(ctx context.Context, id string) (SyncRun, error)
	ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error)
	ListOffboardRuns(ctx context.Context, userID string, limit int) ([]OffboardRun, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetSyncRun(ctx context.Context, id string) (SyncRun, error) {
	return s.repo.GetSyncRun(ctx, id)
}

func (s *service) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	return s.repo.ListSyncRuns(ctx, clampLimit(limit))
}

func (s *service) ListOffboardRuns(ctx context.Context, userID string, limit int) ([]OffboardRun, error) {
	return s.repo.ListOffboardRuns(ctx, userID, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
