package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts
	FieldCount = "count"

	// Files and positions
	FieldFile   = "file"
	FieldLine   = "line"
	FieldRecord = "record"

	// HIRM-specific
	FieldDatasetID  = "dataset_id"
	FieldLayout     = "layout"
	FieldViolations = "violations"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Parser struct {
//	    log *zap.SugaredLogger
//	}
//
//	func New() *Parser {
//	    return &Parser{log: logger.ComponentLogger("parser")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	loadLogger := logger.ChildLogger(baseLogger, logger.FieldDatasetID, ds.ID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
