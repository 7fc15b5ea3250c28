package http

import (
	"context"

	"ecompulse/internal/operations"
	"ecompulse/internal/services"
)

// RunServiceInterface defines the run service surface the handlers depend on.
type RunServiceInterface interface {
	Launch(ctx context.Context, dataDir string, stages []string) (operations.RunSnapshot, error)
	RerunStage(ctx context.Context, runID, stageID string) (operations.RunSnapshot, error)
	Cancel(ctx context.Context, runID string) error
	ListRuns(ctx context.Context) ([]*operations.Manifest, error)
	GetManifest(ctx context.Context, runID string) (*operations.Manifest, error)
	Artifacts(ctx context.Context, runID string) ([]services.Artifact, error)
	ResolveArtifact(runID, name string) (string, error)
	StageIDs() []string
	DataDir() string
}
