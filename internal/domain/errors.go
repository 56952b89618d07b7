package domain

import "fmt"

type ErrorCode string

const (
	ErrorCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrorCodeInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeTeamNotFound        ErrorCode = "TEAM_NOT_FOUND"
	ErrorCodeGroupNotFound       ErrorCode = "GROUP_NOT_FOUND"
	ErrorCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrorCodeTagCreateFailed     ErrorCode = "TAG_CREATE_FAILED"
	ErrorCodeMemberFaultPersists ErrorCode = "MEMBER_FAULT_PERSISTS"
	ErrorCodeSettleTimeout       ErrorCode = "SETTLE_TIMEOUT"
	ErrorCodeDisableFailed       ErrorCode = "DISABLE_FAILED"
	ErrorCodeUpstreamFailed      ErrorCode = "UPSTREAM_FAILED"
)

// DomainError carries a stable error code for API clients alongside the
// HTTP status the handler layer should answer with.
type DomainError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
