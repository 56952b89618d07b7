package tagsync

import (
	"context"
	"errors"
)

// ErrMemberUnresolvable signals that reading a tag's membership failed
// because an entry references a principal the directory can no longer
// resolve. The tag is unusable in this state and has to be recreated.
// Implementations wrap this sentinel so callers can match with errors.Is.
var ErrMemberUnresolvable = errors.New("tag member unresolvable")

// Directory is the slice of the directory service the reconciler needs.
type Directory interface {
	ListTeams(ctx context.Context) ([]Team, error)
	// ListGroupMembers returns the user ids of the control group's direct
	// members. An empty group is a valid result, not an error.
	ListGroupMembers(ctx context.Context, groupID string) ([]string, error)

	// FindTag looks up a team's tag by exact display name. A nil tag with
	// a nil error means no such tag exists.
	FindTag(ctx context.Context, teamID, displayName string) (*Tag, error)
	// GetTag fetches a tag by id. A nil tag with a nil error means the tag
	// is not (or not yet) visible.
	GetTag(ctx context.Context, teamID, tagID string) (*Tag, error)
	// CreateTag creates the tag with a single seed member and returns the
	// new tag's id. Creation is asynchronous upstream; the tag may not be
	// readable immediately.
	CreateTag(ctx context.Context, teamID, displayName, description, seedMemberID string) (string, error)
	DeleteTag(ctx context.Context, teamID, tagID string) error

	ListTagMembers(ctx context.Context, teamID, tagID string) ([]TagMember, error)
	AddTagMember(ctx context.Context, teamID, tagID, userID string) error
	RemoveTagMember(ctx context.Context, teamID, tagID, entryID string) error
}
