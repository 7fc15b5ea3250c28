package visualize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
	"ecompulse/internal/exporter"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// fixtureCatalog builds all seven datasets so every chart has a source.
// Order item totals are 11, 22, 33, 44 and 550, which makes revenue
// 660.00 and average order value 132.00.
func fixtureCatalog(t *testing.T) *dataset.Catalog {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, dir, "Orders.csv",
		"order_id,customer_id,order_purchase_timestamp,order_status\n"+
			"1,C1,2024-01-01 10:00:00,delivered\n"+
			"2,C2,2024-01-02 10:30:00,delivered\n"+
			"3,C1,2024-02-08 14:00:00,shipped\n"+
			"4,C3,2024-02-10 10:00:00,delivered\n")

	writeCSV(t, dir, "Order Items.csv",
		"order_id,order_item_id,price,freight_value\n"+
			"1,1,10.00,1.00\n"+
			"2,1,20.00,2.00\n"+
			"3,1,30.00,3.00\n"+
			"4,1,40.00,4.00\n"+
			"5,1,500.00,50.00\n")

	writeCSV(t, dir, "Customers.csv",
		"customer_id,customer_unique_id,customer_state\n"+
			"C1,U1,SP\n"+
			"C2,U1,SP\n"+
			"C3,U2,RJ\n"+
			"C4,U3,MG\n"+
			"C5,U4,BA\n"+
			"C6,U5,SP\n")

	writeCSV(t, dir, "Products.csv",
		"product_id,product_category_name,product_weight_g\n"+
			"P1,electronics,100\n"+
			"P2,electronics,200\n"+
			"P3,toys,300\n")

	writeCSV(t, dir, "Sellers.csv",
		"seller_id,seller_state\n"+
			"S1,SP\n"+
			"S2,SP\n"+
			"S3,PR\n")

	writeCSV(t, dir, "Reviews.csv",
		"review_id,review_score\n"+
			"R1,5\n"+
			"R2,1\n"+
			"R3,4\n"+
			"R4,5\n")

	writeCSV(t, dir, "Order Payments.csv",
		"order_id,payment_type,payment_installments,payment_value\n"+
			"1,credit_card,1,50.00\n"+
			"2,credit_card,3,100.00\n"+
			"3,boleto,2,30.00\n"+
			"4,credit_card,2,80.00\n")

	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)
	return catalog
}

func renderFixture(t *testing.T) (*Result, string) {
	t.Helper()
	chartsDir := filepath.Join(t.TempDir(), "charts")
	result, err := NewRenderer(nil).Render(context.Background(), fixtureCatalog(t), chartsDir)
	require.NoError(t, err)
	return result, chartsDir
}

func TestRenderAllCharts(t *testing.T) {
	result, chartsDir := renderFixture(t)

	require.Len(t, result.Charts, 14)
	for _, chart := range result.Charts {
		assert.NotEmpty(t, chart.Title)
		assert.NotEmpty(t, chart.Dataset)
		assert.NotEmpty(t, chart.Category)

		info, err := os.Stat(filepath.Join(chartsDir, chart.File))
		require.NoError(t, err, "chart file %s should exist", chart.File)
		assert.Greater(t, info.Size(), int64(0), "chart file %s should not be empty", chart.File)
	}

	first, ok := result.Chart(ChartDailyOrders)
	require.True(t, ok)
	assert.Equal(t, "Daily Orders Trend", first.Title)
	assert.Equal(t, CategoryTrends, first.Category)

	assert.Len(t, result.InCategory(CategoryGeography), 2)
	assert.Len(t, result.InCategory(CategoryPayments), 3)
}

func TestRenderSkipsMissingSources(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Sellers.csv",
		"seller_id,seller_state\n"+
			"S1,SP\n"+
			"S2,PR\n")
	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)

	chartsDir := filepath.Join(t.TempDir(), "charts")
	result, err := NewRenderer(nil).Render(context.Background(), catalog, chartsDir)
	require.NoError(t, err)

	require.Len(t, result.Charts, 1)
	assert.Equal(t, ChartSellerStates, result.Charts[0].File)

	require.Len(t, result.Metrics, 1)
	assert.Equal(t, "Total Sellers", result.Metrics[0].Label)
	assert.Equal(t, "2", result.Metrics[0].Value)
}

func TestRenderSkipsDegenerateHistogram(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Order Items.csv",
		"order_id,price,freight_value\n"+
			"1,5.00,1.00\n"+
			"2,5.00,2.00\n"+
			"3,5.00,3.00\n")
	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)

	chartsDir := filepath.Join(t.TempDir(), "charts")
	result, err := NewRenderer(nil).Render(context.Background(), catalog, chartsDir)
	require.NoError(t, err)

	_, ok := result.Chart(ChartPriceDistribution)
	assert.False(t, ok, "constant prices cannot be binned")

	_, ok = result.Chart(ChartPriceBoxplot)
	assert.True(t, ok)
	_, ok = result.Chart(ChartPriceVsFreight)
	assert.True(t, ok)
}

func TestRenderEmptyCatalog(t *testing.T) {
	_, err := NewRenderer(nil).Render(context.Background(), nil, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no datasets")
}

func TestMetrics(t *testing.T) {
	result, _ := renderFixture(t)

	require.Len(t, result.Metrics, 6)
	labels := make([]string, len(result.Metrics))
	values := make(map[string]string, len(result.Metrics))
	for i, card := range result.Metrics {
		labels[i] = card.Label
		values[card.Label] = card.Value
	}

	assert.Equal(t, []string{
		"Total Orders", "Total Customers", "Total Products",
		"Total Sellers", "Total Revenue", "Avg Order Value",
	}, labels)

	assert.Equal(t, "4", values["Total Orders"])
	assert.Equal(t, "6", values["Total Customers"])
	assert.Equal(t, "3", values["Total Products"])
	assert.Equal(t, "3", values["Total Sellers"])
	assert.Equal(t, "660.00", values["Total Revenue"])
	assert.Equal(t, "132.00", values["Avg Order Value"])
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
	assert.Equal(t, "1,234,567", formatCount(1234567))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "660.00", formatAmount(660))
	assert.Equal(t, "1,234.50", formatAmount(1234.5))
	assert.Equal(t, "-1,234.56", formatAmount(-1234.56))
}

func TestSaveArtifacts(t *testing.T) {
	catalog := fixtureCatalog(t)
	paths := config.NewRunPaths(t.TempDir(), t.TempDir(), "run-test")
	require.NoError(t, paths.EnsureDirectories())

	result, err := NewRenderer(nil).Render(context.Background(), catalog, paths.ChartsDir)
	require.NoError(t, err)
	require.NoError(t, SaveAll(result, *paths))

	var index struct {
		Metadata exporter.Meta `json:"metadata"`
		Charts   []Chart       `json:"charts"`
		Metrics  []MetricCard  `json:"metrics"`
	}
	require.NoError(t, exporter.ReadJSON(paths.VisualizationIndex, &index))
	assert.Equal(t, "visualization-creator", index.Metadata.Generator)
	assert.Equal(t, 14, index.Metadata.RecordCount)
	require.Len(t, index.Charts, 14)
	assert.Equal(t, ChartDailyOrders, index.Charts[0].File)
	assert.Len(t, index.Metrics, 6)

	raw, err := os.ReadFile(paths.Dashboard)
	require.NoError(t, err)
	html := string(raw)

	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "E-Commerce Analysis Dashboard")
	assert.Contains(t, html, "Trend Analysis")
	assert.Contains(t, html, "660.00")
	assert.Equal(t, 14, strings.Count(html, "data:image/png;base64,"),
		"every chart should be embedded inline")
	assert.NotContains(t, html, "ZgotmplZ")
}

func TestSaveIndexEmpty(t *testing.T) {
	err := SaveIndex(&Result{}, filepath.Join(t.TempDir(), "index.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no visualizations")
}
