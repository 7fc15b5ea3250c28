package services

import "errors"

// Run service errors
var (
	ErrDataDirNotFound     = errors.New("data directory not found")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrInvalidArtifactPath = errors.New("artifact path escapes the run directory")
)
