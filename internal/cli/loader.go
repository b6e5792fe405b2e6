package cli

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/fascicolo/internal/compiler"
	"github.com/roach88/fascicolo/internal/workflow"
)

// Error codes for command-level failures. Fixture validation uses the
// compiler's E1xx codes and dispatch uses the engine's codes.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeNotFound      = "E005" // Path or case not found
	ErrCodeCompileFailed = "E006" // Fixture schema or syntax error
	ErrCodeStore         = "E007" // Database error
	ErrCodeInvalidArgs   = "E008" // Bad action, role, state or user
	ErrCodeInvalid       = "E100" // Fixture validation failed
	ErrCodeReplay        = "E200" // Replay diverged from stored records
)

// LoadResult contains compiled fixtures and their validation errors.
type LoadResult struct {
	Path   string
	Cases  []*workflow.Case
	Errors []compiler.ValidationError
}

// Valid reports whether no validation errors were found.
func (r *LoadResult) Valid() bool {
	return len(r.Errors) == 0
}

// LoadError represents an error that stopped fixture loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Details returns the position of e for error output, or nil.
func (e *LoadError) Details() any {
	if !e.Pos.IsValid() {
		return nil
	}
	return map[string]any{
		"file":   e.Pos.Filename(),
		"line":   e.Pos.Line(),
		"column": e.Pos.Column(),
	}
}

// LoadFixtures compiles a fixture file or directory and validates the
// resulting cases. Compilation problems are returned as *LoadError;
// invariant violations are collected in the result.
func LoadFixtures(path string) (*LoadResult, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("fixtures not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing fixtures: %v", err)}
	}

	c, err := compiler.New()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}

	cases, err := c.LoadPath(path)
	if err != nil {
		var ce *compiler.CompileError
		if errors.As(err, &ce) {
			return nil, &LoadError{Code: ErrCodeCompileFailed, Message: fmt.Sprintf("%s: %s", ce.Field, ce.Message), Pos: ce.Pos}
		}
		return nil, &LoadError{Code: ErrCodeCompileFailed, Message: err.Error()}
	}

	return &LoadResult{
		Path:   path,
		Cases:  cases,
		Errors: compiler.Validate(cases),
	}, nil
}

// reportLoadError prints a LoadError and returns the matching ExitError.
// A missing path is a command error; bad fixture content is a failure.
func reportLoadError(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	exit := ExitFailure
	if le.Code == ErrCodeNotFound {
		exit = ExitCommandError
	}
	return f.Fail(exit, le.Code, le.Message, le.Details())
}

// reportValidationErrors prints fixture invariant violations.
func reportValidationErrors(f *OutputFormatter, res *LoadResult) error {
	msg := fmt.Sprintf("%d validation error(s) in %s", len(res.Errors), res.Path)
	if f.IsJSON() {
		return f.Fail(ExitFailure, ErrCodeInvalid, msg, res.Errors)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e.Error())
	}
	return f.Fail(ExitFailure, ErrCodeInvalid, msg, nil)
}
