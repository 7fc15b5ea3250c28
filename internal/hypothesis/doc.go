// Package hypothesis derives testable research hypotheses from the loaded
// datasets. Fourteen trigger rules inspect column availability and simple
// statistics; each rule that fires emits one hypothesis record carrying the
// observed statistic, a suggested test method and a business impact rank.
//
// Layout:
//   - generator.go: trigger rules and the statistics they interpolate
//   - types.go: hypothesis records, impact ranking and result accessors
//   - persist.go: JSON list, Markdown report and experimental design doc
package hypothesis
