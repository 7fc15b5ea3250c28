// Package services implements the business logic layer between the HTTP
// handlers and the pipeline. Handlers stay thin; path resolution, manifest
// access, and run lifecycle rules live here.
//
// # Services
//
//   - RunService wraps the pipeline manager: starting and cancelling runs,
//     re-running single stages, and reading run manifests and artifact
//     inventories from the output root.
//   - HealthService reports process health, version, and runtime statistics.
//
// Services receive their dependencies through constructors and log through
// a contextual slog.Logger, so they can be exercised in tests with temp
// directories and a quiet logger.
package services
