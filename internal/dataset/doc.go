// Package dataset loads the CSV catalog that every pipeline stage analyzes.
//
// A Catalog is built by scanning the data directory for *.csv files; each file
// becomes a Dataset keyed by its file name (for example "Orders.csv"). Frames
// are parsed by gota with header detection, type inference and a shared set of
// missing-value tokens, then every column is classified as numeric,
// categorical or temporal.
//
// Temporal classification needs both a name hint (suffix _date, _timestamp,
// _at, or the name "date") and an 80% parse rate over a 50-value sample, so
// free-text columns that merely mention dates stay categorical.
//
// Extraction helpers return clean slices ready for gonum: Floats drops
// missing values, PairedFloats keeps pairwise-complete rows for correlation,
// Times parses timestamps, ValueCounts tallies categories deterministically.
package dataset
