// Package visualize renders the chart gallery and the self-contained HTML
// dashboard. Fourteen named PNG charts are drawn with gonum/plot into the
// run's charts directory; charts whose source dataset or columns are
// missing are skipped and logged, never failed. The dashboard embeds every
// rendered chart as a base64 data URI so the file travels alone.
//
// Layout:
//   - renderer.go: render loop, headline metrics, plot helpers
//   - charts.go: one builder per chart
//   - dashboard.go: HTML template and assembly
//   - persist.go: visualization index JSON and dashboard writer
package visualize
