package offboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"adminservice/internal/domain"
	"adminservice/internal/domain/report"
)

const (
	StepResolveUser       = "resolve-user"
	StepDisableSignIn     = "disable-signin"
	StepRevokeSessions    = "revoke-sessions"
	StepRemoveAuthMethods = "remove-auth-methods"
	StepRemoveGroups      = "remove-groups"
	StepConvertMailbox    = "convert-mailbox"
	StepDisableRules      = "disable-mailbox-rules"
	StepClearForwarding   = "clear-forwarding"
	StepWipeDevices       = "wipe-devices"
)

type Service interface {
	// Run executes the offboarding workflow for one user and persists the
	// run report. Failing to resolve the user aborts before anything is
	// touched; failing to disable sign-in aborts the remaining steps. All
	// other step failures are recorded and the workflow continues.
	Run(ctx context.Context, userID string, opts Options) (report.OffboardRun, error)
}

type service struct {
	dir     Directory
	mail    Mailbox
	reports report.Repository
	uow     domain.UnitOfWork
	events  domain.EventBus
}

func NewService(
	dir Directory,
	mail Mailbox,
	reports report.Repository,
	uow domain.UnitOfWork,
	events domain.EventBus,
) Service {
	return &service{
		dir:     dir,
		mail:    mail,
		reports: reports,
		uow:     uow,
		events:  events,
	}
}

func (s *service) Run(ctx context.Context, userID string, opts Options) (report.OffboardRun, error) {
	target, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		return report.OffboardRun{}, err
	}

	run := report.OffboardRun{
		ID:        uuid.NewString(),
		UserID:    target.ID,
		StartedAt: time.Now().UTC(),
	}
	run.Steps = append(run.Steps, report.StepResult{
		Step:   StepResolveUser,
		Status: report.StepOK,
		Detail: fmt.Sprintf("%s (%s)", target.DisplayName, target.PrincipalName),
	})

	disable := s.disableSignIn(ctx, target.ID)
	run.Steps = append(run.Steps, disable)
	if disable.Status == report.StepFailed {
		run.FatalCode = string(domain.ErrorCodeDisableFailed)
		run.Steps = append(run.Steps, abortedRemainder(opts)...)
		return s.finish(ctx, run)
	}

	run.Steps = append(run.Steps, s.revokeSessions(ctx, target.ID))
	run.Steps = append(run.Steps, s.removeAuthMethods(ctx, target.ID))
	run.Steps = append(run.Steps, s.removeGroups(ctx, target.ID))
	run.Steps = append(run.Steps, s.convertMailbox(ctx, target.ID))
	run.Steps = append(run.Steps, s.disableMailboxRules(ctx, target.ID))
	run.Steps = append(run.Steps, s.clearForwarding(ctx, target.ID))
	if opts.WipeDevices {
		run.Steps = append(run.Steps, s.wipeDevices(ctx, target.ID))
	} else {
		run.Steps = append(run.Steps, report.StepResult{
			Step:   StepWipeDevices,
			Status: report.StepSkipped,
			Detail: "not requested",
		})
	}

	return s.finish(ctx, run)
}

func (s *service) finish(ctx context.Context, run report.OffboardRun) (report.OffboardRun, error) {
	run.FinishedAt = time.Now().UTC()
	run.Succeeded = run.FatalCode == ""
	for _, st := range run.Steps {
		if st.Status == report.StepFailed {
			run.Succeeded = false
		}
	}

	err := s.uow.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.reports.SaveOffboardRun(ctx, run); err != nil {
			return err
		}
		if s.events != nil {
			s.events.Publish(ctx, domain.Event{
				Type: "offboard.completed",
				Payload: map[string]any{
					"run_id":    run.ID,
					"user_id":   run.UserID,
					"succeeded": run.Succeeded,
				},
			})
		}
		return nil
	})
	if err != nil {
		return run, fmt.Errorf("save offboard run: %w", err)
	}
	return run, nil
}

func (s *service) disableSignIn(ctx context.Context, userID string) report.StepResult {
	if err := s.dir.DisableUser(ctx, userID); err != nil {
		return report.StepResult{Step: StepDisableSignIn, Status: report.StepFailed, Error: err.Error()}
	}
	return report.StepResult{Step: StepDisableSignIn, Status: report.StepOK, Detail: "sign-in blocked"}
}

func (s *service) revokeSessions(ctx context.Context, userID string) report.StepResult {
	if err := s.dir.RevokeSessions(ctx, userID); err != nil {
		return report.StepResult{Step: StepRevokeSessions, Status: report.StepFailed, Error: err.Error()}
	}
	return report.StepResult{Step: StepRevokeSessions, Status: report.StepOK, Detail: "sessions revoked"}
}

func (s *service) removeAuthMethods(ctx context.Context, userID string) report.StepResult {
	res := report.StepResult{Step: StepRemoveAuthMethods, Status: report.StepOK}

	methods, err := s.dir.ListAuthMethods(ctx, userID)
	if err != nil {
		res.Status = report.StepFailed
		res.Error = err.Error()
		return res
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].ID < methods[j].ID })

	var removed int
	var kept, failures []string
	for _, m := range methods {
		if !m.Removable() {
			kept = append(kept, m.Describe())
			continue
		}
		if err := s.dir.DeleteAuthMethod(ctx, userID, m.ID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", m.Describe(), err))
			continue
		}
		removed++
	}

	res.Detail = fmt.Sprintf("removed %d of %d", removed, len(methods))
	if len(kept) > 0 {
		res.Detail += "; kept " + strings.Join(kept, ", ")
	}
	if len(failures) > 0 {
		res.Status = report.StepFailed
		res.Error = strings.Join(failures, "; ")
	}
	return res
}

func (s *service) removeGroups(ctx context.Context, userID string) report.StepResult {
	res := report.StepResult{Step: StepRemoveGroups, Status: report.StepOK}

	groups, err := s.dir.ListUserGroups(ctx, userID)
	if err != nil {
		res.Status = report.StepFailed
		res.Error = err.Error()
		return res
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })

	var removed, dynamic int
	var failures []string
	for _, g := range groups {
		if g.Dynamic {
			dynamic++
			continue
		}
		if err := s.dir.RemoveGroupMember(ctx, g.GroupID, userID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", g.GroupName, err))
			continue
		}
		removed++
	}

	res.Detail = fmt.Sprintf("left %d of %d groups", removed, len(groups))
	if dynamic > 0 {
		res.Detail += fmt.Sprintf("; %d dynamic skipped", dynamic)
	}
	if len(failures) > 0 {
		res.Status = report.StepFailed
		res.Error = strings.Join(failures, "; ")
	}
	return res
}

func (s *service) convertMailbox(ctx context.Context, userID string) report.StepResult {
	if err := s.mail.ConvertToShared(ctx, userID); err != nil {
		return report.StepResult{Step: StepConvertMailbox, Status: report.StepFailed, Error: err.Error()}
	}
	return report.StepResult{Step: StepConvertMailbox, Status: report.StepOK, Detail: "converted to shared"}
}

func (s *service) disableMailboxRules(ctx context.Context, userID string) report.StepResult {
	res := report.StepResult{Step: StepDisableRules, Status: report.StepOK}

	rules, err := s.mail.ListRules(ctx, userID)
	if err != nil {
		res.Status = report.StepFailed
		res.Error = err.Error()
		return res
	}

	var enabled []MailboxRule
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		res.Detail = "no active rules"
		return res
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].ID < enabled[j].ID })

	var disabled int
	var failures []string
	for _, r := range enabled {
		if err := s.mail.DisableRule(ctx, userID, r.ID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.Name, err))
			continue
		}
		disabled++
	}

	res.Detail = fmt.Sprintf("disabled %d of %d rules", disabled, len(enabled))
	if len(failures) > 0 {
		res.Status = report.StepFailed
		res.Error = strings.Join(failures, "; ")
	}
	return res
}

func (s *service) clearForwarding(ctx context.Context, userID string) report.StepResult {
	if err := s.mail.ClearForwarding(ctx, userID); err != nil {
		return report.StepResult{Step: StepClearForwarding, Status: report.StepFailed, Error: err.Error()}
	}
	return report.StepResult{Step: StepClearForwarding, Status: report.StepOK, Detail: "forwarding cleared"}
}

func (s *service) wipeDevices(ctx context.Context, userID string) report.StepResult {
	res := report.StepResult{Step: StepWipeDevices, Status: report.StepOK}

	devices, err := s.dir.ListUserDevices(ctx, userID)
	if err != nil {
		res.Status = report.StepFailed
		res.Error = err.Error()
		return res
	}
	if len(devices) == 0 {
		res.Detail = "no devices"
		return res
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })

	var wiped int
	var failures []string
	for _, d := range devices {
		if err := s.dir.WipeDevice(ctx, d.ID); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", d.DisplayName, err))
			continue
		}
		wiped++
	}

	res.Detail = fmt.Sprintf("wiped %d of %d devices", wiped, len(devices))
	if len(failures) > 0 {
		res.Status = report.StepFailed
		res.Error = strings.Join(failures, "; ")
	}
	return res
}

func abortedRemainder(opts Options) []report.StepResult {
	names := []string{
		StepRevokeSessions,
		StepRemoveAuthMethods,
		StepRemoveGroups,
		StepConvertMailbox,
		StepDisableRules,
		StepClearForwarding,
		StepWipeDevices,
	}
	res := make([]report.StepResult, 0, len(names))
	for _, name := range names {
		status := report.StepAborted
		if name == StepWipeDevices && !opts.WipeDevices {
			status = report.StepSkipped
		}
		res = append(res, report.StepResult{Step: name, Status: status})
	}
	return res
}
