package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, dir, "Orders.csv",
		"order_id,customer_id,order_status,order_purchase_timestamp,price\n"+
			"o1,c1,delivered,2017-10-02 10:56:33,35.90\n"+
			"o2,c2,delivered,2017-10-03 11:12:05,89.90\n"+
			"o3,c1,shipped,2017-10-04 09:00:00,\n"+
			"o4,c3,delivered,2017-11-18 19:28:06,45.00\n")

	writeCSV(t, dir, "Customers.csv",
		"customer_id,customer_state\n"+
			"c1,SP\n"+
			"c2,RJ\n"+
			"c3,SP\n")

	catalog, err := Load(context.Background(), dir, slog.Default())
	require.NoError(t, err)
	return catalog
}

func TestLoad(t *testing.T) {
	catalog := testCatalog(t)

	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, []string{"Customers.csv", "Orders.csv"}, catalog.Names())
	assert.Equal(t, 7, catalog.TotalRows())

	orders, ok := catalog.Get("Orders.csv")
	require.True(t, ok)
	assert.Equal(t, 4, orders.Rows)
	assert.Equal(t, 5, orders.Cols)
}

func TestLoadSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Good.csv", "a,b\n1,2\n")
	writeCSV(t, dir, "Bad.csv", "a,b\n1,2,3,4,\"unclosed\n")
	writeCSV(t, dir, "notes.txt", "not a csv")

	catalog, err := Load(context.Background(), dir, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"Good.csv"}, catalog.Names())
}

func TestLoadEmptyDir(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir(), slog.Default())
	assert.Error(t, err)
}

func TestColumnClassification(t *testing.T) {
	catalog := testCatalog(t)
	orders, _ := catalog.Get("Orders.csv")

	assert.Equal(t, []string{"price"}, orders.NumericColumns())
	assert.Equal(t, []string{"order_purchase_timestamp"}, orders.TemporalColumns())
	assert.ElementsMatch(t, []string{"order_id", "customer_id", "order_status"}, orders.CategoricalColumns())

	col, ok := orders.Column("order_purchase_timestamp")
	require.True(t, ok)
	assert.Equal(t, KindTemporal, col.Kind)
}

func TestTemporalNeedsParseableValues(t *testing.T) {
	dir := t.TempDir()
	// Name hints temporal but values do not parse
	writeCSV(t, dir, "Notes.csv",
		"created_at,text\n"+
			"sometime,x\n"+
			"later,y\n")

	catalog, err := Load(context.Background(), dir, slog.Default())
	require.NoError(t, err)

	notes, _ := catalog.Get("Notes.csv")
	assert.Empty(t, notes.TemporalColumns())
	assert.ElementsMatch(t, []string{"created_at", "text"}, notes.CategoricalColumns())
}

func TestFloats(t *testing.T) {
	catalog := testCatalog(t)
	orders, _ := catalog.Get("Orders.csv")

	values := orders.Floats("price")
	assert.Len(t, values, 3) // one missing dropped
	assert.InDelta(t, 35.90, values[0], 1e-9)

	withNaN := orders.FloatsWithNaN("price")
	assert.Len(t, withNaN, 4)

	assert.Nil(t, orders.Floats("no_such_column"))
}

func TestPairedFloats(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Items.csv",
		"price,freight_value\n"+
			"10.0,2.0\n"+
			"20.0,\n"+
			",4.0\n"+
			"30.0,6.0\n")

	catalog, err := Load(context.Background(), dir, slog.Default())
	require.NoError(t, err)
	items, _ := catalog.Get("Items.csv")

	xs, ys := items.PairedFloats("price", "freight_value")
	assert.Equal(t, []float64{10.0, 30.0}, xs)
	assert.Equal(t, []float64{2.0, 6.0}, ys)
}

func TestMissingCounts(t *testing.T) {
	catalog := testCatalog(t)
	orders, _ := catalog.Get("Orders.csv")

	missing := orders.MissingByColumn()
	assert.Equal(t, 1, missing["price"])
	assert.Equal(t, 0, missing["order_id"])
	assert.Equal(t, 1, orders.MissingCells())
}

func TestTimes(t *testing.T) {
	catalog := testCatalog(t)
	orders, _ := catalog.Get("Orders.csv")

	times := orders.Times("order_purchase_timestamp")
	require.Len(t, times, 4)
	assert.Equal(t, 2017, times[0].Year())

	min, max, ok := orders.TimeRange("order_purchase_timestamp")
	require.True(t, ok)
	assert.Equal(t, time.October, min.Month())
	assert.Equal(t, time.November, max.Month())
}

func TestPairedTimes(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Orders.csv",
		"order_purchase_timestamp,order_delivered_customer_date\n"+
			"2024-01-01 10:00:00,2024-01-03 10:00:00\n"+
			"2024-01-02 10:00:00,\n"+
			",2024-01-05 10:00:00\n"+
			"2024-01-04 08:00:00,2024-01-06 20:00:00\n")

	catalog, err := Load(context.Background(), dir, slog.Default())
	require.NoError(t, err)
	orders, _ := catalog.Get("Orders.csv")

	purchases, deliveries := orders.PairedTimes("order_purchase_timestamp", "order_delivered_customer_date")
	require.Len(t, purchases, 2)
	require.Len(t, deliveries, 2)
	assert.Equal(t, 1, purchases[0].Day())
	assert.Equal(t, 3, deliveries[0].Day())
	assert.Equal(t, 4, purchases[1].Day())
	assert.Equal(t, 6, deliveries[1].Day())

	xs, ys := orders.PairedTimes("order_purchase_timestamp", "no_such_column")
	assert.Nil(t, xs)
	assert.Nil(t, ys)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"datetime", "2017-10-02 10:56:33", true},
		{"iso datetime", "2017-10-02T10:56:33", true},
		{"date only", "2017-10-02", true},
		{"garbage", "next tuesday", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseTime(tt.value)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestValueCounts(t *testing.T) {
	catalog := testCatalog(t)
	orders, _ := catalog.Get("Orders.csv")

	counts := orders.ValueCounts("order_status")
	require.Len(t, counts, 2)
	assert.Equal(t, ValueCount{Value: "delivered", Count: 3}, counts[0])
	assert.Equal(t, ValueCount{Value: "shipped", Count: 1}, counts[1])

	top := TopValues(counts, 1)
	assert.Len(t, top, 1)

	assert.Equal(t, 2, orders.UniqueCount("order_status"))
}

func TestDuplicateCounts(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Dup.csv",
		"id,v\n"+
			"a,1\n"+
			"a,1\n"+
			"b,2\n"+
			"a,3\n")

	catalog, err := Load(context.Background(), dir, slog.Default())
	require.NoError(t, err)
	dup, _ := catalog.Get("Dup.csv")

	assert.Equal(t, 2, dup.DuplicateCount("id"))
	assert.Equal(t, 1, dup.DuplicateRowCount())
}

func TestSelectFrame(t *testing.T) {
	catalog := testCatalog(t)
	orders, _ := catalog.Get("Orders.csv")

	frame, err := orders.SelectFrame("order_id", "price")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "price"}, frame.Names())

	_, err = orders.SelectFrame("missing")
	assert.Error(t, err)
}
