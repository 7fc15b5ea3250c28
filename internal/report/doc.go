// Package report assembles the final executive report from the artifacts
// the earlier stages wrote. Every upstream artifact is optional: a missing
// or unreadable file turns into a reader-visible note and an omitted
// section, never a failure; only a run with no artifacts at all is an
// error. The assembled document is rendered twice, as a styled standalone
// HTML page and as a Markdown mirror, and the run directory is walked into
// an artifact index.
//
// Layout:
//   - builder.go: artifact loading, executive summary, key findings
//   - view.go: render model shared by both output formats
//   - html.go: HTML template and renderer
//   - markdown.go: Markdown renderer
//   - persist.go: report writers and the artifact index
package report
