package offboard_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"adminservice/internal/domain"
	"adminservice/internal/domain/offboard"
	"adminservice/internal/domain/report"
)

type uowStub struct{}

func (uowStub) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type eventBusFake struct {
	events []domain.Event
}

func (e *eventBusFake) Publish(ctx context.Context, ev domain.Event) {
	e.events = append(e.events, ev)
}

type reportRepoFake struct {
	offboardRuns []report.OffboardRun
}

func (r *reportRepoFake) SaveSyncRun(ctx context.Context, run report.SyncRun) error { return nil }
func (r *reportRepoFake) GetSyncRun(ctx context.Context, id string) (report.SyncRun, error) {
	return report.SyncRun{}, &domain.DomainError{Code: domain.ErrorCodeNotFound, Message: "run not found", HTTPStatus: 404}
}
func (r *reportRepoFake) ListSyncRuns(ctx context.Context, limit int) ([]report.SyncRun, error) {
	return nil, nil
}
func (r *reportRepoFake) SaveOffboardRun(ctx context.Context, run report.OffboardRun) error {
	r.offboardRuns = append(r.offboardRuns, run)
	return nil
}
func (r *reportRepoFake) ListOffboardRuns(ctx context.Context, userID string, limit int) ([]report.OffboardRun, error) {
	return append([]report.OffboardRun{}, r.offboardRuns...), nil
}

type dirFake struct {
	users map[string]offboard.User

	disableErr error
	disabled   []string

	revokeErr error
	revoked   []string

	methods        map[string][]offboard.AuthMethod
	methodErr      map[string]error
	deletedMethods []string

	groups         map[string][]offboard.GroupMembership
	removeGroupErr map[string]error
	removedGroups  []string

	devices map[string][]offboard.Device
	wiped   []string
}

func newOffboardDirFake() *dirFake {
	return &dirFake{
		users:          map[string]offboard.User{},
		methods:        map[string][]offboard.AuthMethod{},
		methodErr:      map[string]error{},
		groups:         map[string][]offboard.GroupMembership{},
		removeGroupErr: map[string]error{},
		devices:        map[string][]offboard.Device{},
	}
}

func (f *dirFake) GetUser(ctx context.Context, userID string) (offboard.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return offboard.User{}, &domain.DomainError{Code: domain.ErrorCodeUserNotFound, Message: "user not found", HTTPStatus: 404}
	}
	return u, nil
}
func (f *dirFake) DisableUser(ctx context.Context, userID string) error {
	if f.disableErr != nil {
		return f.disableErr
	}
	f.disabled = append(f.disabled, userID)
	return nil
}
func (f *dirFake) RevokeSessions(ctx context.Context, userID string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, userID)
	return nil
}
func (f *dirFake) ListAuthMethods(ctx context.Context, userID string) ([]offboard.AuthMethod, error) {
	return append([]offboard.AuthMethod{}, f.methods[userID]...), nil
}
func (f *dirFake) DeleteAuthMethod(ctx context.Context, userID, methodID string) error {
	if err := f.methodErr[methodID]; err != nil {
		return err
	}
	f.deletedMethods = append(f.deletedMethods, methodID)
	return nil
}
func (f *dirFake) ListUserGroups(ctx context.Context, userID string) ([]offboard.GroupMembership, error) {
	return append([]offboard.GroupMembership{}, f.groups[userID]...), nil
}
func (f *dirFake) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	if err := f.removeGroupErr[groupID]; err != nil {
		return err
	}
	f.removedGroups = append(f.removedGroups, groupID)
	return nil
}
func (f *dirFake) ListUserDevices(ctx context.Context, userID string) ([]offboard.Device, error) {
	return append([]offboard.Device{}, f.devices[userID]...), nil
}
func (f *dirFake) WipeDevice(ctx context.Context, deviceID string) error {
	f.wiped = append(f.wiped, deviceID)
	return nil
}

type mailFake struct {
	convertErr error
	converted  []string

	rules          map[string][]offboard.MailboxRule
	disableRuleErr map[string]error
	disabledRules  []string

	forwardErr     error
	forwardCleared []string
}

func newMailFake() *mailFake {
	return &mailFake{
		rules:          map[string][]offboard.MailboxRule{},
		disableRuleErr: map[string]error{},
	}
}

func (f *mailFake) ConvertToShared(ctx context.Context, userID string) error {
	if f.convertErr != nil {
		return f.convertErr
	}
	f.converted = append(f.converted, userID)
	return nil
}
func (f *mailFake) ListRules(ctx context.Context, userID string) ([]offboard.MailboxRule, error) {
	return append([]offboard.MailboxRule{}, f.rules[userID]...), nil
}
func (f *mailFake) DisableRule(ctx context.Context, userID, ruleID string) error {
	if err := f.disableRuleErr[ruleID]; err != nil {
		return err
	}
	f.disabledRules = append(f.disabledRules, ruleID)
	return nil
}
func (f *mailFake) ClearForwarding(ctx context.Context, userID string) error {
	if f.forwardErr != nil {
		return f.forwardErr
	}
	f.forwardCleared = append(f.forwardCleared, userID)
	return nil
}

func stepNames(run report.OffboardRun) []string {
	var names []string
	for _, st := range run.Steps {
		names = append(names, st.Step)
	}
	return names
}

func stepByName(t *testing.T, run report.OffboardRun, name string) report.StepResult {
	t.Helper()
	for _, st := range run.Steps {
		if st.Step == name {
			return st
		}
	}
	t.Fatalf("step %s missing from %v", name, stepNames(run))
	return report.StepResult{}
}

func TestService_Run_ExecutesStepsInOrder(t *testing.T) {
	dir := newOffboardDirFake()
	mail := newMailFake()
	reports := &reportRepoFake{}
	events := &eventBusFake{}

	dir.users["u1"] = offboard.User{ID: "u1", DisplayName: "Alice Doe", PrincipalName: "alice@corp.example", AccountEnabled: true}
	dir.methods["u1"] = []offboard.AuthMethod{
		{ID: "am-2", Kind: offboard.MethodPhone, Phone: &offboard.PhoneDetail{Number: "+15550100", Type: "mobile"}},
		{ID: "am-1", Kind: offboard.MethodFIDO2, FIDO2: &offboard.FIDO2Detail{Model: "YubiKey 5"}},
		{ID: "am-3", Kind: offboard.MethodPassword},
	}
	dir.groups["u1"] = []offboard.GroupMembership{
		{GroupID: "g2", GroupName: "Staff", Dynamic: false},
		{GroupID: "g1", GroupName: "All Employees", Dynamic: true},
		{GroupID: "g3", GroupName: "Project X", Dynamic: false},
	}
	dir.devices["u1"] = []offboard.Device{{ID: "d1", DisplayName: "LAPTOP-01"}}
	mail.rules["u1"] = []offboard.MailboxRule{
		{ID: "r1", Name: "archive", Enabled: false},
		{ID: "r2", Name: "forward-to-personal", Enabled: true},
	}

	svc := offboard.NewService(dir, mail, reports, uowStub{}, events)
	run, err := svc.Run(context.Background(), "u1", offboard.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		offboard.StepResolveUser,
		offboard.StepDisableSignIn,
		offboard.StepRevokeSessions,
		offboard.StepRemoveAuthMethods,
		offboard.StepRemoveGroups,
		offboard.StepConvertMailbox,
		offboard.StepDisableRules,
		offboard.StepClearForwarding,
		offboard.StepWipeDevices,
	}
	if !reflect.DeepEqual(stepNames(run), want) {
		t.Fatalf("step order mismatch: %v", stepNames(run))
	}
	if !run.Succeeded {
		t.Fatalf("want success, got %+v", run)
	}

	if !reflect.DeepEqual(dir.deletedMethods, []string{"am-1", "am-2"}) {
		t.Fatalf("want methods [am-1 am-2] deleted in id order, got %v", dir.deletedMethods)
	}
	methods := stepByName(t, run, offboard.StepRemoveAuthMethods)
	if !strings.Contains(methods.Detail, "kept password") {
		t.Fatalf("password must be reported as kept: %q", methods.Detail)
	}

	if !reflect.DeepEqual(dir.removedGroups, []string{"g2", "g3"}) {
		t.Fatalf("want assigned groups removed in id order, got %v", dir.removedGroups)
	}
	groupsStep := stepByName(t, run, offboard.StepRemoveGroups)
	if !strings.Contains(groupsStep.Detail, "1 dynamic skipped") {
		t.Fatalf("dynamic membership must be skipped: %q", groupsStep.Detail)
	}

	if !reflect.DeepEqual(mail.disabledRules, []string{"r2"}) {
		t.Fatalf("want only enabled rule disabled, got %v", mail.disabledRules)
	}
	if len(mail.converted) != 1 || len(mail.forwardCleared) != 1 {
		t.Fatalf("mailbox cleanup incomplete: %v %v", mail.converted, mail.forwardCleared)
	}

	if len(dir.wiped) != 0 {
		t.Fatalf("wipe must not run unless requested, got %v", dir.wiped)
	}
	if st := stepByName(t, run, offboard.StepWipeDevices); st.Status != report.StepSkipped {
		t.Fatalf("want wipe SKIPPED, got %s", st.Status)
	}

	if len(reports.offboardRuns) != 1 || reports.offboardRuns[0].ID != run.ID {
		t.Fatalf("run not persisted: %+v", reports.offboardRuns)
	}
	if len(events.events) != 1 || events.events[0].Type != "offboard.completed" {
		t.Fatalf("want offboard.completed event, got %+v", events.events)
	}
}

func TestService_Run_UnknownUserAbortsBeforeMutations(t *testing.T) {
	dir := newOffboardDirFake()
	mail := newMailFake()
	reports := &reportRepoFake{}
	svc := offboard.NewService(dir, mail, reports, uowStub{}, &eventBusFake{})

	_, err := svc.Run(context.Background(), "nope", offboard.Options{})
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Code != domain.ErrorCodeUserNotFound {
		t.Fatalf("want USER_NOT_FOUND, got %v", err)
	}
	if len(dir.disabled) != 0 || len(reports.offboardRuns) != 0 {
		t.Fatal("nothing may be touched when the user cannot be resolved")
	}
}

func TestService_Run_DisableFailureAbortsRemainder(t *testing.T) {
	dir := newOffboardDirFake()
	mail := newMailFake()
	reports := &reportRepoFake{}
	dir.users["u1"] = offboard.User{ID: "u1", DisplayName: "Alice", PrincipalName: "alice@corp.example"}
	dir.disableErr = errors.New("directory rejected update")

	svc := offboard.NewService(dir, mail, reports, uowStub{}, &eventBusFake{})
	run, err := svc.Run(context.Background(), "u1", offboard.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Succeeded {
		t.Fatal("want failed run")
	}
	if run.FatalCode != string(domain.ErrorCodeDisableFailed) {
		t.Fatalf("want DISABLE_FAILED, got %q", run.FatalCode)
	}
	for _, name := range []string{
		offboard.StepRevokeSessions,
		offboard.StepRemoveAuthMethods,
		offboard.StepRemoveGroups,
		offboard.StepConvertMailbox,
		offboard.StepDisableRules,
		offboard.StepClearForwarding,
	} {
		if st := stepByName(t, run, name); st.Status != report.StepAborted {
			t.Fatalf("want %s ABORTED, got %s", name, st.Status)
		}
	}
	if len(dir.revoked) != 0 || len(mail.converted) != 0 {
		t.Fatal("aborted steps must not execute")
	}
	if len(reports.offboardRuns) != 1 {
		t.Fatal("aborted run must still be persisted")
	}
}

func TestService_Run_StepFailuresAreBestEffort(t *testing.T) {
	dir := newOffboardDirFake()
	mail := newMailFake()
	reports := &reportRepoFake{}
	dir.users["u1"] = offboard.User{ID: "u1", DisplayName: "Alice", PrincipalName: "alice@corp.example"}
	dir.revokeErr = errors.New("revoke endpoint down")
	dir.groups["u1"] = []offboard.GroupMembership{
		{GroupID: "g1", GroupName: "Staff"},
		{GroupID: "g2", GroupName: "Locked"},
	}
	dir.removeGroupErr["g2"] = errors.New("owner approval required")

	svc := offboard.NewService(dir, mail, reports, uowStub{}, &eventBusFake{})
	run, err := svc.Run(context.Background(), "u1", offboard.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Succeeded {
		t.Fatal("failed steps must mark the run unsuccessful")
	}
	if run.FatalCode != "" {
		t.Fatalf("best-effort failures are not fatal, got %q", run.FatalCode)
	}
	if st := stepByName(t, run, offboard.StepRevokeSessions); st.Status != report.StepFailed {
		t.Fatalf("want revoke FAILED, got %s", st.Status)
	}
	groupsStep := stepByName(t, run, offboard.StepRemoveGroups)
	if groupsStep.Status != report.StepFailed || !strings.Contains(groupsStep.Error, "Locked") {
		t.Fatalf("want partial group failure recorded, got %+v", groupsStep)
	}
	if !reflect.DeepEqual(dir.removedGroups, []string{"g1"}) {
		t.Fatalf("other groups must still be removed, got %v", dir.removedGroups)
	}
	if st := stepByName(t, run, offboard.StepConvertMailbox); st.Status != report.StepOK {
		t.Fatalf("later steps must still run, got %s", st.Status)
	}
}

func TestService_Run_WipesDevicesWhenRequested(t *testing.T) {
	dir := newOffboardDirFake()
	mail := newMailFake()
	dir.users["u1"] = offboard.User{ID: "u1", DisplayName: "Alice", PrincipalName: "alice@corp.example"}
	dir.devices["u1"] = []offboard.Device{
		{ID: "d2", DisplayName: "PHONE-02"},
		{ID: "d1", DisplayName: "LAPTOP-01"},
	}

	svc := offboard.NewService(dir, mail, &reportRepoFake{}, uowStub{}, &eventBusFake{})
	run, err := svc.Run(context.Background(), "u1", offboard.Options{WipeDevices: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !reflect.DeepEqual(dir.wiped, []string{"d1", "d2"}) {
		t.Fatalf("want devices wiped in id order, got %v", dir.wiped)
	}
	st := stepByName(t, run, offboard.StepWipeDevices)
	if st.Status != report.StepOK || !strings.Contains(st.Detail, "wiped 2 of 2") {
		t.Fatalf("want wipe OK, got %+v", st)
	}
}

func TestAuthMethod_RemovableAndDescribe(t *testing.T) {
	password := offboard.AuthMethod{ID: "am-1", Kind: offboard.MethodPassword}
	if password.Removable() {
		t.Fatal("password must never be removable")
	}
	unknown := offboard.AuthMethod{ID: "am-2", Kind: "hardwareToken"}
	if unknown.Removable() {
		t.Fatal("unknown kinds must not be removed blind")
	}
	phone := offboard.AuthMethod{ID: "am-3", Kind: offboard.MethodPhone, Phone: &offboard.PhoneDetail{Number: "+15550100", Type: "mobile"}}
	if !phone.Removable() {
		t.Fatal("phone must be removable")
	}
	if got := phone.Describe(); got != "phone +15550100 (mobile)" {
		t.Fatalf("describe mismatch: %q", got)
	}
	if got := unknown.Describe(); !strings.Contains(got, "hardwareToken") {
		t.Fatalf("unknown kind must surface its raw kind: %q", got)
	}
}
