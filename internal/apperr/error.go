// Package apperr collects the sentinel errors shared across the analyzer's
// ambient layers (config, server, agent sources). Core query and ingest
// operations never return these; they are for the boundary surfaces only.
package apperr

import "errors"

var (
	ErrNilContext       = errors.New("context must not be nil")
	ErrNilAnalyzer      = errors.New("analyzer must not be nil")
	ErrAlreadyRunning   = errors.New("analyzer is already registered and running")
	ErrNoLiveAnalyzer   = errors.New("no live analyzer registered")
	ErrEmptySourcePath  = errors.New("source path must not be empty")
	ErrInvalidFixture   = errors.New("fixture document failed schema validation")
	ErrUnknownMonitor   = errors.New("unknown monitor backend")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
