package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the submit, poll, fetch, parse or persist stage failed
	ExitCommandError = 2 // bad flags, unreadable input or a bad config file
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError with no underlying cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors without an
// ExitError in their chain count as run failures.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// Response is the envelope printed with --format json. RunID is set by
// commands that stored a run.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	RunID  string         `json:"run_id,omitempty"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes why a command failed. Code is a pipeline stage
// name or one of the ErrCode constants.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter prints command results to Writer, as text or as a
// Response envelope, and verbose notes to ErrWriter.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // falls back to Writer when nil
	Verbose   bool
}

// Success prints data. Text output relies on data's String method.
func (f *OutputFormatter) Success(data any) error {
	return f.success("", data)
}

// RunSuccess prints the result of a stored run; the JSON envelope carries
// its run ID.
func (f *OutputFormatter) RunSuccess(runID string, data any) error {
	return f.success(runID, data)
}

func (f *OutputFormatter) success(runID string, data any) error {
	if f.Format == "json" {
		return f.encode(Response{Status: "ok", RunID: runID, Data: data})
	}
	_, err := fmt.Fprint(f.Writer, data)
	return err
}

// Error prints a failure. Details are shown in text mode only with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		})
	}

	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

// Notef prints one line of diagnostics when --verbose is set. Notes never
// go to Writer while ErrWriter is set, so JSON output stays parseable.
func (f *OutputFormatter) Notef(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encode(r Response) error {
	return json.NewEncoder(f.Writer).Encode(r)
}
