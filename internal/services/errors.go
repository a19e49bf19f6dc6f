package services

import "errors"

// Service errors
var (
	// Ingestion errors
	ErrNoDataLoaded    = errors.New("no release data loaded")
	ErrEmptyExport     = errors.New("export contains no extractable releases")
	ErrIngestionFailed = errors.New("ingestion failed")
	ErrInvalidInput    = errors.New("invalid input")

	// Export errors
	ErrNoReleasesToExport = errors.New("no releases to export")
)
