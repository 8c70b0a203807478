// Package errors defines the error taxonomy for svgs2fonts builds.
//
// Configuration problems surface synchronously as *ConfigurationError before
// any file is read or written. Everything that happens after validation is
// reported as a value: pipeline stages wrap their causes in *StageError and
// return them, they never panic across a package boundary. Callers decide
// between a concise one-line report and verbose cause chains by unwrapping.
package errors

import (
	"errors"
	"fmt"
)

// Stage identifies the pipeline stage an error originated from.
type Stage int

const (
	StageSVG Stage = iota
	StageFont
	StageDemo
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageSVG:
		return "svg"
	case StageFont:
		return "font"
	case StageDemo:
		return "demo"
	default:
		return "unknown"
	}
}

// message returns the user-facing failure line for the stage. These strings
// are the documented contract surfaced to callers; tests depend on them.
func (s Stage) message() string {
	switch s {
	case StageSVG:
		return "SVG processing failed"
	case StageFont:
		return "Font generation failed"
	case StageDemo:
		return "Demo generation failed"
	default:
		return "Build stage failed"
	}
}

// StageError reports the failure of one pipeline stage, carrying the
// underlying cause when one is available.
type StageError struct {
	Stage Stage
	Cause error
}

// NewStageError wraps cause as a failure of the given stage.
func NewStageError(stage Stage, cause error) *StageError {
	return &StageError{Stage: stage, Cause: cause}
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Stage.message(), e.Cause)
	}
	return e.Stage.message()
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Cause
}

// Is matches stage errors by stage, so errors.Is can classify failures
// without string comparison.
func (e *StageError) Is(target error) bool {
	var t *StageError
	if errors.As(target, &t) {
		return e.Stage == t.Stage
	}
	return false
}

// ConfigurationError reports an invalid or missing configuration value. It is
// the only error raised before pipeline work begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

// NewConfigurationError builds a ConfigurationError for a named option.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// StageOf returns the stage of err when it is (or wraps) a StageError.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return 0, false
}
