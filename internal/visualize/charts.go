package visualize

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

func dailyOrdersTrend(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetOrders)
	if !ok {
		return Chart{}, false, nil
	}
	times := ds.Times(colPurchaseTS)
	if len(times) == 0 {
		return Chart{}, false, nil
	}

	perDay := make(map[int64]float64)
	for _, t := range times {
		day := t.Truncate(24 * time.Hour)
		perDay[day.Unix()]++
	}
	days := make([]int64, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	pts := make(plotter.XYs, len(days))
	for i, d := range days {
		pts[i].X = float64(d)
		pts[i].Y = perDay[d]
	}

	p := newPlot("Daily Orders Trend", "Date", "Orders")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	line, err := plotter.NewLine(pts)
	if err != nil {
		return Chart{}, false, fmt.Errorf("build line: %w", err)
	}
	line.Color = colorBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	if err := savePlot(p, filepath.Join(dir, ChartDailyOrders)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartDailyOrders,
		Title:    "Daily Orders Trend",
		Dataset:  config.DatasetOrders,
		Category: CategoryTrends,
	}, true, nil
}

func monthlyOrders(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetOrders)
	if !ok {
		return Chart{}, false, nil
	}
	times := ds.Times(colPurchaseTS)
	if len(times) == 0 {
		return Chart{}, false, nil
	}

	perMonth := make(map[string]float64)
	for _, t := range times {
		perMonth[t.Format("2006-01")]++
	}
	months := make([]string, 0, len(perMonth))
	for m := range perMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	values := make(plotter.Values, len(months))
	for i, m := range months {
		values[i] = perMonth[m]
	}

	p := newPlot("Monthly Orders", "Month", "Orders")
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build bars: %w", err)
	}
	bars.Color = colorBlue
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(months...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := savePlot(p, filepath.Join(dir, ChartMonthlyOrders)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartMonthlyOrders,
		Title:    "Monthly Orders",
		Dataset:  config.DatasetOrders,
		Category: CategoryTrends,
	}, true, nil
}

func ordersByWeekday(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetOrders)
	if !ok {
		return Chart{}, false, nil
	}
	times := ds.Times(colPurchaseTS)
	if len(times) == 0 {
		return Chart{}, false, nil
	}

	perDay := make(map[string]float64)
	for _, t := range times {
		perDay[t.Weekday().String()]++
	}
	values := make(plotter.Values, len(weekdayOrder))
	for i, day := range weekdayOrder {
		values[i] = perDay[day]
	}

	p := newPlot("Orders by Weekday", "Weekday", "Orders")
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build bars: %w", err)
	}
	bars.Color = colorGreen
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(weekdayOrder...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := savePlot(p, filepath.Join(dir, ChartOrdersByWeekday)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartOrdersByWeekday,
		Title:    "Orders by Weekday",
		Dataset:  config.DatasetOrders,
		Category: CategoryTrends,
	}, true, nil
}

func priceDistribution(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetOrderItems)
	if !ok {
		return Chart{}, false, nil
	}
	prices := ds.Floats(colPrice)
	if len(prices) == 0 {
		return Chart{}, false, nil
	}
	capped := capAtPercentile(prices, percentileCap)

	p := newPlot("Price Distribution (to 99th Percentile)", "Price", "Count")
	h, err := newHistogram(capped, colorBlue)
	if err != nil {
		return Chart{}, false, err
	}
	p.Add(h)

	if err := savePlot(p, filepath.Join(dir, ChartPriceDistribution)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartPriceDistribution,
		Title:    "Price Distribution",
		Dataset:  config.DatasetOrderItems,
		Category: CategoryDistributions,
	}, true, nil
}

func priceBoxplot(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetOrderItems)
	if !ok {
		return Chart{}, false, nil
	}
	prices := ds.Floats(colPrice)
	if len(prices) == 0 {
		return Chart{}, false, nil
	}

	p := newPlot("Price Boxplot", "", "Price")
	box, err := plotter.NewBoxPlot(vg.Points(50), 0, plotter.Values(prices))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build boxplot: %w", err)
	}
	p.Add(box)
	p.NominalX("price")

	if err := savePlot(p, filepath.Join(dir, ChartPriceBoxplot)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartPriceBoxplot,
		Title:    "Price Boxplot",
		Dataset:  config.DatasetOrderItems,
		Category: CategoryDistributions,
	}, true, nil
}

func priceVsFreight(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetOrderItems)
	if !ok {
		return Chart{}, false, nil
	}
	xs, ys := ds.PairedFloats(colPrice, colFreight)
	if len(xs) < 2 {
		return Chart{}, false, nil
	}

	// Deterministic stride sampling keeps dense scatters readable.
	if len(xs) > scatterSampleCap {
		stride := (len(xs) + scatterSampleCap - 1) / scatterSampleCap
		sx := make([]float64, 0, scatterSampleCap)
		sy := make([]float64, 0, scatterSampleCap)
		for i := 0; i < len(xs); i += stride {
			sx = append(sx, xs[i])
			sy = append(sy, ys[i])
		}
		xs, ys = sx, sy
	}

	pts := make(plotter.XYs, len(xs))
	minX, maxX := xs[0], xs[0]
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
		if xs[i] < minX {
			minX = xs[i]
		}
		if xs[i] > maxX {
			maxX = xs[i]
		}
	}

	p := newPlot("Price vs Freight Value", "Price", "Freight Value")
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return Chart{}, false, fmt.Errorf("build scatter: %w", err)
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 0xA2, G: 0x3B, B: 0x72, A: 0x66}
	scatter.GlyphStyle.Radius = vg.Points(2)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	// Zero variance in x leaves the regression undefined; draw the
	// scatter without a trend line rather than poisoning the axis range.
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !math.IsNaN(alpha) && !math.IsNaN(beta) {
		trend := plotter.XYs{
			{X: minX, Y: alpha + beta*minX},
			{X: maxX, Y: alpha + beta*maxX},
		}
		line, err := plotter.NewLine(trend)
		if err != nil {
			return Chart{}, false, fmt.Errorf("build trend line: %w", err)
		}
		line.Color = colorRed
		line.Width = vg.Points(1.5)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(line)
		p.Legend.Add("Trend Line", line)
		p.Legend.Top = true
	}

	if err := savePlot(p, filepath.Join(dir, ChartPriceVsFreight)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartPriceVsFreight,
		Title:    "Price vs Freight Value",
		Dataset:  config.DatasetOrderItems,
		Category: CategoryDistributions,
	}, true, nil
}

func reviewScores(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetReviews)
	if !ok {
		return Chart{}, false, nil
	}
	scores := ds.Floats(colReviewScore)
	if len(scores) == 0 {
		return Chart{}, false, nil
	}

	var counts [5]float64
	total := 0.0
	for _, s := range scores {
		bucket := int(math.Round(s))
		if bucket < 1 || bucket > 5 {
			continue
		}
		counts[bucket-1]++
		total++
	}
	if total == 0 {
		return Chart{}, false, nil
	}

	title := fmt.Sprintf("Review Scores (1: %.1f%%, 2: %.1f%%, 3: %.1f%%, 4: %.1f%%, 5: %.1f%%)",
		counts[0]/total*100, counts[1]/total*100, counts[2]/total*100,
		counts[3]/total*100, counts[4]/total*100)

	p := newPlot(title, "Score", "Reviews")
	bars, err := plotter.NewBarChart(plotter.Values(counts[:]), vg.Points(30))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build bars: %w", err)
	}
	bars.Color = colorOrange
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX("1", "2", "3", "4", "5")

	if err := savePlot(p, filepath.Join(dir, ChartReviewScores)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartReviewScores,
		Title:    "Review Score Distribution",
		Dataset:  config.DatasetReviews,
		Category: CategoryDistributions,
	}, true, nil
}

func customerStates(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	return horizontalTopChart(catalog, config.DatasetCustomers, colCustomerState,
		ChartCustomerStates, "Top Customer States", "Customers", CategoryGeography, colorBlue, dir)
}

func sellerStates(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	return horizontalTopChart(catalog, config.DatasetSellers, colSellerState,
		ChartSellerStates, "Top Seller States", "Sellers", CategoryGeography, colorMagenta, dir)
}

func productCategories(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	return horizontalTopChart(catalog, config.DatasetProducts, colProductCategory,
		ChartProductCategories, "Top Product Categories", "Products", CategoryProducts, colorGreen, dir)
}

// horizontalTopChart draws the top categorical values as horizontal bars,
// largest at the top.
func horizontalTopChart(catalog *dataset.Catalog, datasetName, column, file, title, countLabel, category string, fill color.Color, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(datasetName)
	if !ok {
		return Chart{}, false, nil
	}
	counts := dataset.TopValues(ds.ValueCounts(column), topEntryCount)
	if len(counts) == 0 {
		return Chart{}, false, nil
	}

	// NominalY places the first label at the bottom, so reverse for a
	// largest-first read from the top.
	labels := make([]string, len(counts))
	values := make(plotter.Values, len(counts))
	for i, vc := range counts {
		j := len(counts) - 1 - i
		labels[j] = vc.Value
		values[j] = float64(vc.Count)
	}

	p := newPlot(title, countLabel, "")
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build bars: %w", err)
	}
	bars.Horizontal = true
	bars.Color = fill
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalY(labels...)

	if err := savePlot(p, filepath.Join(dir, file)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     file,
		Title:    title,
		Dataset:  datasetName,
		Category: category,
	}, true, nil
}

func paymentTypes(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetPayments)
	if !ok {
		return Chart{}, false, nil
	}
	counts := ds.ValueCounts(colPaymentType)
	if len(counts) == 0 {
		return Chart{}, false, nil
	}

	total := 0
	for _, vc := range counts {
		total += vc.Count
	}
	labels := make([]string, len(counts))
	values := make(plotter.Values, len(counts))
	for i, vc := range counts {
		labels[i] = vc.Value
		values[i] = float64(vc.Count) / float64(total) * 100
	}

	p := newPlot("Payment Types by Share", "Payment Type", "Share (%)")
	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build bars: %w", err)
	}
	bars.Color = colorGreen
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := savePlot(p, filepath.Join(dir, ChartPaymentTypes)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartPaymentTypes,
		Title:    "Payment Types by Share",
		Dataset:  config.DatasetPayments,
		Category: CategoryPayments,
	}, true, nil
}

func paymentInstallments(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetPayments)
	if !ok {
		return Chart{}, false, nil
	}
	raw := ds.Floats(colInstallments)
	if len(raw) == 0 {
		return Chart{}, false, nil
	}

	perCount := make(map[int]float64)
	for _, v := range raw {
		perCount[int(math.Round(v))]++
	}
	buckets := make([]int, 0, len(perCount))
	for b := range perCount {
		buckets = append(buckets, b)
	}
	sort.Ints(buckets)

	labels := make([]string, len(buckets))
	values := make(plotter.Values, len(buckets))
	for i, b := range buckets {
		labels[i] = fmt.Sprintf("%d", b)
		values[i] = perCount[b]
	}

	p := newPlot("Payment Installments", "Installments", "Payments")
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return Chart{}, false, fmt.Errorf("build bars: %w", err)
	}
	bars.Color = colorOrange
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	if err := savePlot(p, filepath.Join(dir, ChartPaymentInstallments)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartPaymentInstallments,
		Title:    "Payment Installments",
		Dataset:  config.DatasetPayments,
		Category: CategoryPayments,
	}, true, nil
}

func paymentValueDistribution(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetPayments)
	if !ok {
		return Chart{}, false, nil
	}
	values := ds.Floats(colPaymentValue)
	if len(values) == 0 {
		return Chart{}, false, nil
	}
	capped := capAtPercentile(values, percentileCap)

	p := newPlot("Payment Value Distribution (to 99th Percentile)", "Payment Value", "Count")
	h, err := newHistogram(capped, colorMagenta)
	if err != nil {
		return Chart{}, false, err
	}
	p.Add(h)

	if err := savePlot(p, filepath.Join(dir, ChartPaymentValues)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartPaymentValues,
		Title:    "Payment Value Distribution",
		Dataset:  config.DatasetPayments,
		Category: CategoryPayments,
	}, true, nil
}

func productWeightDistribution(catalog *dataset.Catalog, dir string) (Chart, bool, error) {
	ds, ok := catalog.Get(config.DatasetProducts)
	if !ok {
		return Chart{}, false, nil
	}
	weights := ds.Floats(colProductWeight)
	if len(weights) == 0 {
		return Chart{}, false, nil
	}

	p := newPlot("Product Weight Distribution", "Weight (g)", "Count")
	h, err := newHistogram(weights, colorOrange)
	if err != nil {
		return Chart{}, false, err
	}
	p.Add(h)

	median := sortedQuantile(weights, 0.5)
	maxWeight := 0.0
	for _, bin := range h.Bins {
		if bin.Weight > maxWeight {
			maxWeight = bin.Weight
		}
	}
	marker, err := plotter.NewLine(plotter.XYs{
		{X: median, Y: 0},
		{X: median, Y: maxWeight},
	})
	if err != nil {
		return Chart{}, false, fmt.Errorf("build median line: %w", err)
	}
	marker.Color = colorRed
	marker.Width = vg.Points(1.5)
	marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf("Median: %.0fg", median), marker)
	p.Legend.Top = true

	if err := savePlot(p, filepath.Join(dir, ChartProductWeights)); err != nil {
		return Chart{}, false, err
	}
	return Chart{
		File:     ChartProductWeights,
		Title:    "Product Weight Distribution",
		Dataset:  config.DatasetProducts,
		Category: CategoryProducts,
	}, true, nil
}
