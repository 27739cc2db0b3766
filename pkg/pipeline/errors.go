package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the step of a run in which a failure happened.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageDecode    Stage = "decode"
	StageTransform Stage = "transform"
	StageEncode    Stage = "encode"
)

// UnknownOperationError reports an operation name missing from the registry.
type UnknownOperationError struct {
	Name  string
	Known []string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// InvalidConfigurationError reports an option value outside the operation's closed set.
type InvalidConfigurationError struct {
	Operation Operation
	Value     string
	Allowed   []string
}

func (e *InvalidConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: missing option (allowed: %s)", e.Operation, strings.Join(e.Allowed, ", "))
	}
	return fmt.Sprintf("%s: invalid option %q (allowed: %s)", e.Operation, e.Value, strings.Join(e.Allowed, ", "))
}

// TransformError wraps a failure raised by a transform.
type TransformError struct {
	Operation Operation
	Err       error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// StageError records the stage a run failed in. The typed cause is reachable
// with errors.As.
type StageError struct {
	Stage     Stage
	Operation string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage a run error happened in, or "" for foreign errors.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
