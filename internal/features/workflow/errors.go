package workflow

import "fmt"

// Stable error codes surfaced to callers
const (
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeConfigurationRequired = "CONFIGURATION_REQUIRED"
	CodeAlreadyTreated        = "ALREADY_TREATED"
	CodeReconstructionFailure = "RECONSTRUCTION_FAILURE"
	CodeOperationFailure      = "OPERATION_FAILURE"
	CodeNotFound              = "NOT_FOUND"
)

// Error is the engine's error type. Errors with the same code compare
// equal under errors.Is, so the exported sentinels double as targets.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrUnauthorized          = &Error{Code: CodeUnauthorized, Message: "caller is not permitted to perform this action"}
	ErrConfigurationRequired = &Error{Code: CodeConfigurationRequired, Message: "no approval rule matches this request"}
	ErrAlreadyTreated        = &Error{Code: CodeAlreadyTreated, Message: "approval request has already been treated"}
	ErrRequestNotFound       = &Error{Code: CodeNotFound, Message: "approval request not found"}
	ErrReconstructionFailure = &Error{Code: CodeReconstructionFailure, Message: "could not reconstruct payload"}
	ErrOperationFailure      = &Error{Code: CodeOperationFailure, Message: "underlying operation failed"}
)

func reconstructionFailure(payloadType string, err error) *Error {
	return &Error{
		Code:    CodeReconstructionFailure,
		Message: fmt.Sprintf("could not reconstruct payload %q", payloadType),
		Err:     err,
	}
}

func operationFailure(operation string, err error) *Error {
	return &Error{
		Code:    CodeOperationFailure,
		Message: fmt.Sprintf("operation %q failed", operation),
		Err:     err,
	}
}
