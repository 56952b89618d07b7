package offboard

import "context"

// Directory is the slice of the directory service the workflow needs.
type Directory interface {
	GetUser(ctx context.Context, userID string) (User, error)
	DisableUser(ctx context.Context, userID string) error
	RevokeSessions(ctx context.Context, userID string) error

	ListAuthMethods(ctx context.Context, userID string) ([]AuthMethod, error)
	DeleteAuthMethod(ctx context.Context, userID, methodID string) error

	ListUserGroups(ctx context.Context, userID string) ([]GroupMembership, error)
	RemoveGroupMember(ctx context.Context, groupID, userID string) error

	ListUserDevices(ctx context.Context, userID string) ([]Device, error)
	WipeDevice(ctx context.Context, deviceID string) error
}

// Mailbox covers the mail-side cleanup of an offboarded account.
type Mailbox interface {
	ConvertToShared(ctx context.Context, userID string) error
	ListRules(ctx context.Context, userID string) ([]MailboxRule, error)
	DisableRule(ctx context.Context, userID, ruleID string) error
	ClearForwarding(ctx context.Context, userID string) error
}
