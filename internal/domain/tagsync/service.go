package tagsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"adminservice/internal/domain"
	"adminservice/internal/domain/report"
)

var (
	errTagNotVisible   = errors.New("tag not yet visible")
	errTagStillPresent = errors.New("tag still present")
)

// Config carries the reconciler's operating parameters. Tag creation and
// deletion settle asynchronously upstream, so both are polled with a
// backoff starting at the corresponding settle duration and bounded by
// SettleTimeout.
type Config struct {
	TagName        string
	TagDescription string
	ControlGroupID string
	SeedMemberID   string
	TeamFilter     string
	Parallelism    int
	CreateSettle   time.Duration
	DeleteSettle   time.Duration
	SettleTimeout  time.Duration
}

type Service interface {
	// SyncAll reconciles every matched team's tag against the control
	// group and persists the resulting run report. Per-team failures are
	// recorded in the report and never abort the pass.
	SyncAll(ctx context.Context) (report.SyncRun, error)
	// Reconcile brings one team's tag in line with the reference user ids.
	Reconcile(ctx context.Context, team Team, reference []string) report.TeamSyncResult
}

type service struct {
	cfg     Config
	dir     Directory
	reports report.Repository
	uow     domain.UnitOfWork
	events  domain.EventBus
}

func NewService(
	cfg Config,
	dir Directory,
	reports report.Repository,
	uow domain.UnitOfWork,
	events domain.EventBus,
) Service {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &service{
		cfg:     cfg,
		dir:     dir,
		reports: reports,
		uow:     uow,
		events:  events,
	}
}

func (s *service) SyncAll(ctx context.Context) (report.SyncRun, error) {
	run := report.SyncRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	reference, err := s.dir.ListGroupMembers(ctx, s.cfg.ControlGroupID)
	if err != nil {
		return report.SyncRun{}, err
	}

	teams, err := s.dir.ListTeams(ctx)
	if err != nil {
		return report.SyncRun{}, err
	}

	matched := make([]Team, 0, len(teams))
	for _, t := range teams {
		if strings.Contains(t.Description, s.cfg.TeamFilter) {
			matched = append(matched, t)
		}
	}

	results := make([]report.TeamSyncResult, len(matched))
	if s.cfg.Parallelism > 1 {
		var g errgroup.Group
		g.SetLimit(s.cfg.Parallelism)
		for i, t := range matched {
			g.Go(func() error {
				results[i] = s.Reconcile(ctx, t, reference)
				return nil
			})
		}
		// Workers report through results, never through errors.
		_ = g.Wait()
	} else {
		for i, t := range matched {
			results[i] = s.Reconcile(ctx, t, reference)
		}
	}

	run.FinishedAt = time.Now().UTC()
	run.Teams = results
	run.TeamsTotal = len(results)
	for _, r := range results {
		if r.Fatal() {
			run.TeamsFailed++
		}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.reports.SaveSyncRun(ctx, run); err != nil {
			return err
		}
		if s.events != nil {
			s.events.Publish(ctx, domain.Event{
				Type: "sync.completed",
				Payload: map[string]any{
					"run_id":       run.ID,
					"teams_total":  run.TeamsTotal,
					"teams_failed": run.TeamsFailed,
				},
			})
		}
		return nil
	})
	if err != nil {
		return run, fmt.Errorf("save sync run: %w", err)
	}

	return run, nil
}

func (s *service) Reconcile(ctx context.Context, team Team, reference []string) report.TeamSyncResult {
	res := report.TeamSyncResult{TeamID: team.ID, TeamName: team.Name}

	tag, created, err := s.resolveTag(ctx, team.ID)
	if err != nil {
		return fatal(res, err)
	}
	res.TagID = tag.ID
	res.CreatedTag = created
	if created && s.events != nil {
		s.events.Publish(ctx, domain.Event{
			Type: "tag.created",
			Payload: map[string]any{
				"team_id": team.ID,
				"tag_id":  tag.ID,
			},
		})
	}

	members, err := s.dir.ListTagMembers(ctx, team.ID, tag.ID)
	if errors.Is(err, ErrMemberUnresolvable) {
		tag, members, err = s.recoverTag(ctx, team.ID, tag.ID)
		if err != nil {
			return fatal(res, err)
		}
		res.TagID = tag.ID
		res.RecoveredTag = true
		if s.events != nil {
			s.events.Publish(ctx, domain.Event{
				Type: "tag.recovered",
				Payload: map[string]any{
					"team_id": team.ID,
					"tag_id":  tag.ID,
				},
			})
		}
	} else if err != nil {
		return fatal(res, err)
	}

	delta := ComputeDelta(reference, members)

	entryByUser := make(map[string]string, len(members))
	for _, m := range members {
		entryByUser[m.UserID] = m.EntryID
	}

	for _, userID := range delta.ToAdd {
		if err := s.dir.AddTagMember(ctx, team.ID, tag.ID, userID); err != nil {
			res.AddFailures = append(res.AddFailures, report.ItemFailure{
				MemberID: userID,
				Reason:   err.Error(),
			})
			continue
		}
		res.Added = append(res.Added, userID)
	}

	for _, userID := range delta.ToRemove {
		entryID, ok := entryByUser[userID]
		if !ok {
			res.RemoveFailures = append(res.RemoveFailures, report.ItemFailure{
				MemberID: userID,
				Reason:   "membership entry not found",
			})
			continue
		}
		if err := s.dir.RemoveTagMember(ctx, team.ID, tag.ID, entryID); err != nil {
			res.RemoveFailures = append(res.RemoveFailures, report.ItemFailure{
				MemberID: userID,
				Reason:   err.Error(),
			})
			continue
		}
		res.Removed = append(res.Removed, userID)
	}

	return res
}

// resolveTag finds the team's managed tag or creates it. A created tag is
// seeded with one member because the upstream API rejects empty tags; the
// seed is removed by the regular delta pass when it is not in the
// reference set.
func (s *service) resolveTag(ctx context.Context, teamID string) (Tag, bool, error) {
	existing, err := s.dir.FindTag(ctx, teamID, s.cfg.TagName)
	if err != nil {
		return Tag{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	tag, err := s.createTag(ctx, teamID)
	if err != nil {
		return Tag{}, false, err
	}
	return tag, true, nil
}

func (s *service) createTag(ctx context.Context, teamID string) (Tag, error) {
	tagID, err := s.dir.CreateTag(ctx, teamID, s.cfg.TagName, s.cfg.TagDescription, s.cfg.SeedMemberID)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return Tag{}, err
		}
		return Tag{}, &domain.DomainError{
			Code:       domain.ErrorCodeTagCreateFailed,
			Message:    fmt.Sprintf("create tag for team %s: %v", teamID, err),
			HTTPStatus: http.StatusBadGateway,
		}
	}
	if err := s.waitTagVisible(ctx, teamID, tagID); err != nil {
		return Tag{}, err
	}
	return Tag{ID: tagID, DisplayName: s.cfg.TagName}, nil
}

// recoverTag handles an unresolvable membership entry by deleting the tag
// and recreating it from scratch. The recovery runs at most once per pass;
// if the fresh tag's membership read fails the same way, the team is given
// up on.
func (s *service) recoverTag(ctx context.Context, teamID, tagID string) (Tag, []TagMember, error) {
	if err := s.dir.DeleteTag(ctx, teamID, tagID); err != nil {
		return Tag{}, nil, err
	}
	if err := s.waitTagGone(ctx, teamID, tagID); err != nil {
		return Tag{}, nil, err
	}

	tag, err := s.createTag(ctx, teamID)
	if err != nil {
		return Tag{}, nil, err
	}

	members, err := s.dir.ListTagMembers(ctx, teamID, tag.ID)
	if err != nil {
		if errors.Is(err, ErrMemberUnresolvable) {
			return Tag{}, nil, &domain.DomainError{
				Code:       domain.ErrorCodeMemberFaultPersists,
				Message:    fmt.Sprintf("tag for team %s unreadable after recreation: %v", teamID, err),
				HTTPStatus: http.StatusBadGateway,
			}
		}
		return Tag{}, nil, err
	}
	return tag, members, nil
}

func (s *service) waitTagVisible(ctx context.Context, teamID, tagID string) error {
	b := retry.WithMaxDuration(s.cfg.SettleTimeout, retry.NewFibonacci(s.cfg.CreateSettle))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		tag, err := s.dir.GetTag(ctx, teamID, tagID)
		if err != nil {
			return err
		}
		if tag == nil {
			return retry.RetryableError(errTagNotVisible)
		}
		return nil
	})
	if errors.Is(err, errTagNotVisible) {
		return &domain.DomainError{
			Code:       domain.ErrorCodeSettleTimeout,
			Message:    fmt.Sprintf("tag %s not visible after %s", tagID, s.cfg.SettleTimeout),
			HTTPStatus: http.StatusBadGateway,
		}
	}
	return err
}

func (s *service) waitTagGone(ctx context.Context, teamID, tagID string) error {
	b := retry.WithMaxDuration(s.cfg.SettleTimeout, retry.NewFibonacci(s.cfg.DeleteSettle))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		tag, err := s.dir.GetTag(ctx, teamID, tagID)
		if err != nil {
			return err
		}
		if tag != nil {
			return retry.RetryableError(errTagStillPresent)
		}
		return nil
	})
	if errors.Is(err, errTagStillPresent) {
		return &domain.DomainError{
			Code:       domain.ErrorCodeSettleTimeout,
			Message:    fmt.Sprintf("tag %s still present after %s", tagID, s.cfg.SettleTimeout),
			HTTPStatus: http.StatusBadGateway,
		}
	}
	return err
}

func fatal(res report.TeamSyncResult, err error) report.TeamSyncResult {
	var de *domain.DomainError
	if errors.As(err, &de) {
		res.FatalCode = string(de.Code)
		res.FatalMessage = de.Message
		return res
	}
	res.FatalCode = string(domain.ErrorCodeUpstreamFailed)
	res.FatalMessage = err.Error()
	return res
}
