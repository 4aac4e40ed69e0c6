package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	dErrors "sidesa/pkg/domain-errors"
)

// Exit codes for disclosurectl.
const (
	ExitSuccess      = 0
	ExitRefused      = 1 // the disclosure engine refused the operation
	ExitCommandError = 2 // bad arguments, unreachable database
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err, defaulting to ExitRefused.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitRefused
}

// Response is the JSON envelope written with --format json.
type Response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// Formatter writes command results as text or JSON.
type Formatter struct {
	Format string
	Writer io.Writer
}

// Success writes data. text renders it with the given function.
func (f *Formatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Refused reports a service refusal and returns the matching ExitError.
func (f *Formatter) Refused(op string, err error) error {
	code := string(dErrors.CodeOf(err))
	reason := dErrors.ReasonOf(err)
	message := err.Error()
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Reason: reason, Message: message},
		})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	}
	return WrapExitError(ExitRefused, op+" refused", err)
}
