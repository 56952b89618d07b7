package mailbox

import (
	"errors"
	"fmt"
)

// APIError is the structured error envelope the mailbox service returns.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailbox: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

const (
	CodeNotFound = "NotFound"
	CodeConflict = "Conflict"
)

// IsCode checks whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
