package dataset

import (
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind is the analysis role of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindTemporal    Kind = "temporal"
)

// Column is a classified dataset column.
type Column struct {
	Name string      `json:"name"`
	Kind Kind        `json:"kind"`
	Type series.Type `json:"type"`
}

// timeLayouts are the accepted timestamp formats, most specific first.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// temporalNameSuffixes mark columns that may carry timestamps. Name matching
// alone is not enough: the sampled values must actually parse.
var temporalNameSuffixes = []string{"_date", "_timestamp", "_at"}

const (
	temporalSampleSize = 50
	temporalParseRatio = 0.8
)

// classifyColumns assigns each frame column its analysis kind. Temporal
// detection wins over the gota type because timestamp columns parse as
// strings; numeric detection follows the frame's own type inference.
func classifyColumns(df dataframe.DataFrame) []Column {
	names := df.Names()
	types := df.Types()

	columns := make([]Column, 0, len(names))
	for i, name := range names {
		col := Column{Name: name, Type: types[i]}

		switch {
		case isTemporalColumn(name, df.Col(name)):
			col.Kind = KindTemporal
		case types[i] == series.Int || types[i] == series.Float:
			col.Kind = KindNumeric
		default:
			col.Kind = KindCategorical
		}

		columns = append(columns, col)
	}
	return columns
}

func isTemporalColumn(name string, s series.Series) bool {
	if !hasTemporalName(name) {
		return false
	}

	records := s.Records()
	nan := s.IsNaN()

	sampled, parsed := 0, 0
	for i := 0; i < len(records) && sampled < temporalSampleSize; i++ {
		if i < len(nan) && nan[i] {
			continue
		}
		if isMissingToken(records[i]) {
			continue
		}
		sampled++
		if _, ok := ParseTime(records[i]); ok {
			parsed++
		}
	}

	if sampled == 0 {
		return false
	}
	return float64(parsed)/float64(sampled) >= temporalParseRatio
}

func hasTemporalName(name string) bool {
	lower := strings.ToLower(name)
	if lower == "date" {
		return true
	}
	for _, suffix := range temporalNameSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// ParseTime parses a raw cell using the accepted layouts.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Times extracts a temporal column as parsed timestamps, skipping
// missing and unparseable entries.
func (d *Dataset) Times(column string) []time.Time {
	if !d.HasColumn(column) {
		return nil
	}
	col := d.Frame.Col(column)
	records := col.Records()
	nan := col.IsNaN()

	times := make([]time.Time, 0, len(records))
	for i, v := range records {
		if i < len(nan) && nan[i] {
			continue
		}
		if t, ok := ParseTime(v); ok {
			times = append(times, t)
		}
	}
	return times
}

// PairedTimes extracts two columns restricted to rows where both parse as
// timestamps. Duration analysis needs row-aligned pairs.
func (d *Dataset) PairedTimes(aCol, bCol string) ([]time.Time, []time.Time) {
	if !d.HasColumn(aCol) || !d.HasColumn(bCol) {
		return nil, nil
	}
	aRecs := d.Frame.Col(aCol).Records()
	bRecs := d.Frame.Col(bCol).Records()

	n := len(aRecs)
	if len(bRecs) < n {
		n = len(bRecs)
	}

	as := make([]time.Time, 0, n)
	bs := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		at, aok := ParseTime(aRecs[i])
		bt, bok := ParseTime(bRecs[i])
		if !aok || !bok {
			continue
		}
		as = append(as, at)
		bs = append(bs, bt)
	}
	return as, bs
}

// TimeRange returns the earliest and latest parseable timestamps of a column.
func (d *Dataset) TimeRange(column string) (time.Time, time.Time, bool) {
	times := d.Times(column)
	if len(times) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return min, max, true
}
