package client

import (
	"fmt"

	"github.com/litetable/widecolumn/pkg/model"
)

// Conditions reported by every operation. Match them with errors.Is.
var (
	ErrTableNotFound    = model.ErrTableNotFound
	ErrTableExists      = model.ErrTableExists
	ErrTableDisabled    = model.ErrTableDisabled
	ErrTableEnabled     = model.ErrTableEnabled
	ErrFamilyNotFound   = model.ErrFamilyNotFound
	ErrFamilyExists     = model.ErrFamilyExists
	ErrNoFamilies       = model.ErrNoFamilies
	ErrDuplicateFamily  = model.ErrDuplicateFamily
	ErrLastFamily       = model.ErrLastFamily
	ErrInvalidName      = model.ErrInvalidName
	ErrLengthMismatch   = model.ErrLengthMismatch
	ErrNoColumns        = model.ErrNoColumns
	ErrHandleClosed     = model.ErrHandleClosed
	ErrMasterMismatch   = model.ErrMasterMismatch
	ErrUnsupportedStore = model.ErrUnsupportedStore
)

// ConfigurationError reports missing or malformed settings, or a connection that could not be
// established with them.
type ConfigurationError struct {
	// Setting names the offending setting, or "connection" for a failed connect.
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %v", e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Step names the stage of a multi-step schema operation.
type Step string

const (
	StepDisable Step = "disable"
	StepDrop    Step = "drop"
	StepEnable  Step = "enable"
	// StepRelease is a failure to close the admin handle after the operation itself succeeded.
	StepRelease Step = "release"
)

// SchemaError reports a failed schema operation.
type SchemaError struct {
	Op     string
	Table  string
	Family string
	// Step is set for operations that disable, drop and enable in sequence, and for a failed
	// handle release.
	Step Step
	Err  error
}

func (e *SchemaError) Error() string {
	msg := e.Op + " " + e.Table
	if e.Family != "" {
		msg += ":" + e.Family
	}
	if e.Step != "" {
		msg += " (" + string(e.Step) + ")"
	}
	return fmt.Sprintf("schema: %s: %v", msg, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// DataError reports a failed put, get, delete or scan.
type DataError struct {
	Op    string
	Table string
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// DeleteOutcome tells how far DeleteTable got.
type DeleteOutcome int

const (
	// DeleteNotStarted leaves the table unchanged.
	DeleteNotStarted DeleteOutcome = iota
	// DeleteDisabledOnly leaves the table disabled; the drop failed.
	DeleteDisabledOnly
	// DeleteCompleted means the table is gone.
	DeleteCompleted
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteNotStarted:
		return "not started"
	case DeleteDisabledOnly:
		return "disabled only"
	case DeleteCompleted:
		return "completed"
	}
	return fmt.Sprintf("DeleteOutcome(%d)", int(o))
}
