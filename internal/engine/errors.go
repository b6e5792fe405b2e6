package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/fascicolo/internal/workflow"
)

// DispatchError is returned by Dispatch and Create when a command could
// not be applied.
//
// A permitted action that leaves the case unchanged is not an error; it
// yields a Result with Applied false.
type DispatchError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// CaseID identifies the affected case.
	CaseID string

	// Action is the requested action, empty for Create.
	Action workflow.Action

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes dispatch errors.
type ErrorCode string

const (
	// ErrCodeCaseNotFound indicates the case id is not in the collection.
	ErrCodeCaseNotFound ErrorCode = "CASE_NOT_FOUND"

	// ErrCodeCaseExists indicates Create was given an id already in use.
	ErrCodeCaseExists ErrorCode = "CASE_EXISTS"

	// ErrCodeInvalidCase indicates Create was given an unusable record.
	ErrCodeInvalidCase ErrorCode = "INVALID_CASE"

	// ErrCodePermissionDenied indicates the permission oracle refused.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeUnknownAction indicates the action is not a transition.
	ErrCodeUnknownAction ErrorCode = "UNKNOWN_ACTION"

	// ErrCodeEngineStopped indicates the Run loop is not accepting work.
	ErrCodeEngineStopped ErrorCode = "ENGINE_STOPPED"

	// ErrCodePersistFailed indicates the store rejected the write. The
	// in-memory record is left unchanged.
	ErrCodePersistFailed ErrorCode = "PERSIST_FAILED"
)

// Error implements the error interface.
func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.CaseID != "" && e.Action != "":
		msg = fmt.Sprintf("%s (case=%s, action=%s)", msg, e.CaseID, e.Action)
	case e.CaseID != "":
		msg = fmt.Sprintf("%s (case=%s)", msg, e.CaseID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of a DispatchError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsDenied returns true if the permission oracle refused the command.
func IsDenied(err error) bool {
	return CodeOf(err) == ErrCodePermissionDenied
}

// IsNotFound returns true if the command named an unknown case.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeCaseNotFound
}

// IsStopped returns true if the engine was not accepting work.
func IsStopped(err error) bool {
	return CodeOf(err) == ErrCodeEngineStopped
}

func newNotFoundError(caseID string, action workflow.Action) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeCaseNotFound,
		Message: "no such case",
		CaseID:  caseID,
		Action:  action,
	}
}

func newDeniedError(cmd Command) *DispatchError {
	return &DispatchError{
		Code:    ErrCodePermissionDenied,
		Message: fmt.Sprintf("role %q may not perform this action now", cmd.Actor.Role),
		CaseID:  cmd.CaseID,
		Action:  cmd.Action,
	}
}

func newUnknownActionError(cmd Command) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeUnknownAction,
		Message: "not a transition action",
		CaseID:  cmd.CaseID,
		Action:  cmd.Action,
	}
}

func newStoppedError(caseID string, action workflow.Action) *DispatchError {
	return &DispatchError{
		Code:    ErrCodeEngineStopped,
		Message: "engine is not running",
		CaseID:  caseID,
		Action:  action,
	}
}

func newPersistError(caseID string, action workflow.Action, err error) *DispatchError {
	return &DispatchError{
		Code:    ErrCodePersistFailed,
		Message: "store write failed",
		CaseID:  caseID,
		Action:  action,
		Err:     err,
	}
}
