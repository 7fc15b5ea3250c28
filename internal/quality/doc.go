// Package quality scores datasets along four dimensions and blends them
// into an overall data quality score.
//
// Each dataset in the catalog is assessed independently:
//
//  1. Completeness: share of non-missing cells, with per-column breakdowns
//  2. Accuracy: IQR outlier counts plus negative-value and date-type checks
//  3. Consistency: full-row duplicates and identifier column integrity
//  4. Timeliness: date column coverage and recency
//
// The four dimension scores (0-100) are combined with configurable weights
// into an overall score per dataset. The run-level summary averages scores
// across datasets, buckets them into quality tiers and applies the quality
// gate that downstream analysis stages depend on.
//
// Layout:
//
//   - types.go: assessment result structures and tier constants
//   - assessor.go: the Assessor and per-dimension scoring
//   - persist.go: JSON, CSV, text, log and Markdown artifact writers
package quality
