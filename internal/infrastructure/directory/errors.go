package directory

import (
	"errors"
	"fmt"
)

// APIError is the structured error envelope the directory service returns.
// Callers can use errors.As to extract it:
//
//	var apiErr *directory.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == directory.CodeNotFound { ... }
//	}
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Error codes the client reacts to. The service emits more; unrecognized
// codes pass through unchanged.
const (
	CodeNotFound           = "NotFound"
	CodeConflict           = "Conflict"
	CodeMemberUnresolvable = "MemberUnresolvable"
	CodeThrottled          = "Throttled"
)

// IsCode checks whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
