// Package operations orchestrates the analysis pipeline.
//
// A pipeline run executes a fixed sequence of steps (quality, explore,
// hypotheses, visualize, codegen, report) against one directory of CSV
// datasets. Steps never share in-memory state: every step reads its inputs
// from disk and persists its results into the run directory, so any stage
// can be re-run in isolation against an existing run.
//
// Core components:
//
// Manager: executes steps strictly in order. A step failure marks the run
// failed and halts; the remaining steps are marked skipped. Runs are
// single-flight per manager.
//
// Step: one unit of work. Implementations wrap the stage engines and declare
// the artifacts they require and produce.
//
// RunState: mutex-guarded runtime state of a run and its steps, snapshotted
// for the progress hub and the web API.
//
// Manifest: the on-disk record (run_manifest.json) of a run, rewritten
// atomically after every state transition.
package operations
