package dataset

import "sort"

// ValueCount pairs a categorical value with its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ValueCounts tallies the non-missing values of a column, most frequent
// first. Ties break alphabetically so artifacts stay deterministic.
func (d *Dataset) ValueCounts(column string) []ValueCount {
	values := d.Strings(column)
	if len(values) == 0 {
		return nil
	}

	tally := make(map[string]int, len(values))
	for _, v := range values {
		tally[v]++
	}

	counts := make([]ValueCount, 0, len(tally))
	for v, n := range tally {
		counts = append(counts, ValueCount{Value: v, Count: n})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})

	return counts
}

// UniqueCount returns the number of distinct non-missing values in a column.
func (d *Dataset) UniqueCount(column string) int {
	values := d.Strings(column)
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// TopValues keeps the first n value counts.
func TopValues(counts []ValueCount, n int) []ValueCount {
	if len(counts) <= n {
		return counts
	}
	return counts[:n]
}

// DuplicateCount counts how many entries of a column repeat an earlier value.
// Missing entries are ignored.
func (d *Dataset) DuplicateCount(column string) int {
	values := d.Strings(column)
	seen := make(map[string]struct{}, len(values))
	duplicates := 0
	for _, v := range values {
		if _, ok := seen[v]; ok {
			duplicates++
			continue
		}
		seen[v] = struct{}{}
	}
	return duplicates
}

// DuplicateRowCount counts fully identical rows in the frame.
func (d *Dataset) DuplicateRowCount() int {
	records := d.Frame.Records()
	if len(records) <= 1 {
		return 0
	}

	seen := make(map[string]struct{}, len(records)-1)
	duplicates := 0
	for _, row := range records[1:] { // skip header row
		key := joinRow(row)
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

func joinRow(row []string) string {
	// \x1f (unit separator) cannot appear in CSV cell values parsed by gota
	key := ""
	for i, cell := range row {
		if i > 0 {
			key += "\x1f"
		}
		key += cell
	}
	return key
}
