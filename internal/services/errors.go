package services

import "errors"

// Analysis service errors
var (
	// Upload errors
	ErrNoDataset     = errors.New("no dataset supplied")
	ErrUnknownSource = errors.New("unknown dataset kind")

	// Result errors
	ErrNoResult       = errors.New("no analysis has been computed yet")
	ErrNoProductivity = errors.New("no productivity figure computed")

	// Inbox errors
	ErrNoFilesFound = errors.New("no files found")
)
