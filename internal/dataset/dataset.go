package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Dataset is one loaded CSV file: the parsed frame plus column classification.
type Dataset struct {
	Name    string
	Frame   dataframe.DataFrame
	Rows    int
	Cols    int
	Columns []Column
}

// Catalog holds every dataset found in the data directory, keyed by file name.
type Catalog struct {
	datasets map[string]*Dataset
	names    []string
	logger   *slog.Logger
}

// nanTokens are the raw CSV values treated as missing.
var nanTokens = []string{"", "NA", "NaN", "null", "NULL"}

// Load scans dir for *.csv files and parses each into a typed frame.
// A file that fails to parse is logged and skipped so one corrupt dataset
// does not abort the run. The catalog iterates datasets in name order.
func Load(ctx context.Context, dir string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dataset"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory %s: %w", dir, err)
	}

	catalog := &Catalog{
		datasets: make(map[string]*Dataset),
		logger:   logger,
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		ds, err := loadFile(filepath.Join(dir, name), name)
		if err != nil {
			logger.WarnContext(ctx, "Skipping unreadable dataset",
				slog.String("dataset", name),
				slog.String("error", err.Error()))
			continue
		}

		catalog.datasets[name] = ds
		catalog.names = append(catalog.names, name)
		logger.InfoContext(ctx, "Loaded dataset",
			slog.String("dataset", name),
			slog.Int("rows", ds.Rows),
			slog.Int("columns", ds.Cols))
	}

	sort.Strings(catalog.names)

	if len(catalog.names) == 0 {
		return nil, fmt.Errorf("no CSV datasets found in %s", dir)
	}

	return catalog, nil
}

func loadFile(path, name string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanTokens),
	)
	if df.Error() != nil {
		return nil, fmt.Errorf("parse CSV: %w", df.Error())
	}

	ds := &Dataset{
		Name:  name,
		Frame: df,
		Rows:  df.Nrow(),
		Cols:  df.Ncol(),
	}
	ds.Columns = classifyColumns(df)

	return ds, nil
}

// Get returns the dataset with the given file name.
func (c *Catalog) Get(name string) (*Dataset, bool) {
	ds, ok := c.datasets[name]
	return ds, ok
}

// Names returns the dataset names in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of loaded datasets.
func (c *Catalog) Len() int {
	return len(c.names)
}

// TotalRows sums the row counts of all datasets.
func (c *Catalog) TotalRows() int {
	total := 0
	for _, name := range c.names {
		total += c.datasets[name].Rows
	}
	return total
}

// HasColumn reports whether the dataset contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, col := range d.Frame.Names() {
		if col == name {
			return true
		}
	}
	return false
}

// Column returns the classification entry for a column, if present.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, col := range d.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// NumericColumns returns the names of numeric columns, in frame order.
func (d *Dataset) NumericColumns() []string {
	return d.columnsOfKind(KindNumeric)
}

// CategoricalColumns returns the names of categorical columns, in frame order.
func (d *Dataset) CategoricalColumns() []string {
	return d.columnsOfKind(KindCategorical)
}

// TemporalColumns returns the names of temporal columns, in frame order.
func (d *Dataset) TemporalColumns() []string {
	return d.columnsOfKind(KindTemporal)
}

func (d *Dataset) columnsOfKind(kind Kind) []string {
	var names []string
	for _, col := range d.Columns {
		if col.Kind == kind {
			names = append(names, col.Name)
		}
	}
	return names
}

// Floats extracts a numeric column with missing values removed.
func (d *Dataset) Floats(column string) []float64 {
	if !d.HasColumn(column) {
		return nil
	}
	raw := d.Frame.Col(column).Float()
	values := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			values = append(values, v)
		}
	}
	return values
}

// FloatsWithNaN extracts a numeric column keeping NaN placeholders, so the
// caller can align values against row indexes.
func (d *Dataset) FloatsWithNaN(column string) []float64 {
	if !d.HasColumn(column) {
		return nil
	}
	return d.Frame.Col(column).Float()
}

// PairedFloats extracts two columns restricted to rows where both are
// present. Correlation runs on pairwise-complete observations.
func (d *Dataset) PairedFloats(xCol, yCol string) ([]float64, []float64) {
	if !d.HasColumn(xCol) || !d.HasColumn(yCol) {
		return nil, nil
	}
	xs := d.Frame.Col(xCol).Float()
	ys := d.Frame.Col(yCol).Float()

	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	px := make([]float64, 0, n)
	py := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	return px, py
}

// Strings extracts a column as raw string values with missing entries removed.
func (d *Dataset) Strings(column string) []string {
	if !d.HasColumn(column) {
		return nil
	}
	col := d.Frame.Col(column)
	records := col.Records()
	nan := col.IsNaN()

	values := make([]string, 0, len(records))
	for i, v := range records {
		if i < len(nan) && nan[i] {
			continue
		}
		if isMissingToken(v) {
			continue
		}
		values = append(values, v)
	}
	return values
}

// Records extracts a column as raw row-aligned strings, keeping missing
// markers in place so callers can align against other columns.
func (d *Dataset) Records(column string) []string {
	if !d.HasColumn(column) {
		return nil
	}
	return d.Frame.Col(column).Records()
}

// MissingByColumn counts missing cells per column.
func (d *Dataset) MissingByColumn() map[string]int {
	missing := make(map[string]int, d.Cols)
	for _, name := range d.Frame.Names() {
		count := 0
		for _, isNaN := range d.Frame.Col(name).IsNaN() {
			if isNaN {
				count++
			}
		}
		missing[name] = count
	}
	return missing
}

// MissingCells counts missing cells across the whole frame.
func (d *Dataset) MissingCells() int {
	total := 0
	for _, count := range d.MissingByColumn() {
		total += count
	}
	return total
}

// SelectFrame returns a projection of the frame onto the named columns.
func (d *Dataset) SelectFrame(columns ...string) (dataframe.DataFrame, error) {
	for _, col := range columns {
		if !d.HasColumn(col) {
			return dataframe.DataFrame{}, fmt.Errorf("dataset %s has no column %s", d.Name, col)
		}
	}
	selected := d.Frame.Select(columns)
	if selected.Error() != nil {
		return dataframe.DataFrame{}, fmt.Errorf("select columns from %s: %w", d.Name, selected.Error())
	}
	return selected, nil
}

func isMissingToken(v string) bool {
	for _, token := range nanTokens {
		if v == token {
			return true
		}
	}
	return false
}
