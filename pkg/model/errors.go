package model

import "errors"

// Conditions reported by every driver. Callers match them with errors.Is.
var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTableExists      = errors.New("table already exists")
	ErrTableDisabled    = errors.New("table is disabled")
	ErrTableEnabled     = errors.New("table is enabled")
	ErrFamilyNotFound   = errors.New("column family not found")
	ErrFamilyExists     = errors.New("column family already exists")
	ErrNoFamilies       = errors.New("at least one column family is required")
	ErrDuplicateFamily  = errors.New("duplicate column family")
	ErrLastFamily       = errors.New("cannot remove the last column family of a table")
	ErrInvalidName      = errors.New("invalid name")
	ErrLengthMismatch   = errors.New("columns and values have different lengths")
	ErrNoColumns        = errors.New("at least one column is required")
	ErrHandleClosed     = errors.New("handle is closed")
	ErrMasterMismatch   = errors.New("master address does not match the cluster")
	ErrUnsupportedStore = errors.New("unsupported store driver")
)
