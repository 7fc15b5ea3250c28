package visualize

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

// Source columns for the chart builders.
const (
	colOrderID         = "order_id"
	colPurchaseTS      = "order_purchase_timestamp"
	colPrice           = "price"
	colFreight         = "freight_value"
	colReviewScore     = "review_score"
	colCustomerState   = "customer_state"
	colSellerState     = "seller_state"
	colPaymentType     = "payment_type"
	colInstallments    = "payment_installments"
	colPaymentValue    = "payment_value"
	colProductCategory = "product_category_name"
	colProductWeight   = "product_weight_g"
)

// Render geometry and caps.
const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 6 * vg.Inch

	histogramBins    = 50
	percentileCap    = 0.99
	topEntryCount    = 15
	scatterSampleCap = 2000
)

// House palette.
var (
	colorBlue    = color.RGBA{R: 0x2E, G: 0x86, B: 0xAB, A: 0xFF}
	colorMagenta = color.RGBA{R: 0xA2, G: 0x3B, B: 0x72, A: 0xFF}
	colorOrange  = color.RGBA{R: 0xF1, G: 0x8F, B: 0x01, A: 0xFF}
	colorGreen   = color.RGBA{R: 0x6A, G: 0x99, B: 0x4E, A: 0xFF}
	colorRed     = color.RGBA{R: 0xC7, G: 0x3E, B: 0x1D, A: 0xFF}
)

var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// chartBuilder renders one chart into dir. ok reports whether the source
// data was present; errors are per-chart and never abort the run.
type chartBuilder func(catalog *dataset.Catalog, dir string) (Chart, bool, error)

// Renderer draws the chart gallery and computes the headline metrics.
type Renderer struct {
	logger *slog.Logger
}

// NewRenderer creates a renderer. A nil logger falls back to the default.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logger: logger}
}

// Render draws every chart whose source data exists into chartsDir and
// assembles the headline metric cards.
func (r *Renderer) Render(ctx context.Context, catalog *dataset.Catalog, chartsDir string) (*Result, error) {
	start := time.Now()

	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("no datasets to visualize")
	}
	if err := os.MkdirAll(chartsDir, 0755); err != nil {
		return nil, fmt.Errorf("create charts directory: %w", err)
	}

	r.logger.InfoContext(ctx, "starting visualization",
		"datasets", catalog.Len(),
		"charts_dir", chartsDir,
	)

	builders := []struct {
		file  string
		build chartBuilder
	}{
		{ChartDailyOrders, dailyOrdersTrend},
		{ChartMonthlyOrders, monthlyOrders},
		{ChartOrdersByWeekday, ordersByWeekday},
		{ChartPriceDistribution, priceDistribution},
		{ChartPriceBoxplot, priceBoxplot},
		{ChartPriceVsFreight, priceVsFreight},
		{ChartReviewScores, reviewScores},
		{ChartCustomerStates, customerStates},
		{ChartSellerStates, sellerStates},
		{ChartPaymentTypes, paymentTypes},
		{ChartPaymentInstallments, paymentInstallments},
		{ChartPaymentValues, paymentValueDistribution},
		{ChartProductCategories, productCategories},
		{ChartProductWeights, productWeightDistribution},
	}

	result := &Result{GeneratedAt: time.Now()}

	for _, entry := range builders {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("visualization cancelled: %w", ctx.Err())
		default:
		}

		chart, ok, err := entry.build(catalog, chartsDir)
		if err != nil {
			r.logger.WarnContext(ctx, "chart skipped",
				"file", entry.file,
				"error", err,
			)
			continue
		}
		if !ok {
			r.logger.InfoContext(ctx, "chart source missing",
				"file", entry.file,
			)
			continue
		}

		result.Charts = append(result.Charts, chart)
		r.logger.InfoContext(ctx, "chart rendered",
			"file", chart.File,
			"dataset", chart.Dataset,
		)
	}

	result.Metrics = buildMetrics(catalog)

	r.logger.InfoContext(ctx, "visualization completed",
		"charts", len(result.Charts),
		"metrics", len(result.Metrics),
		"duration", time.Since(start),
	)

	return result, nil
}

// buildMetrics computes the dashboard headline cards from whichever
// datasets are present. Revenue sums price plus freight per order item;
// average order value divides revenue by distinct orders.
func buildMetrics(catalog *dataset.Catalog) []MetricCard {
	var cards []MetricCard
	add := func(label, value string) {
		cards = append(cards, MetricCard{Label: label, Value: value})
	}

	if orders, ok := catalog.Get(config.DatasetOrders); ok {
		add("Total Orders", formatCount(orders.Rows))
	}
	if customers, ok := catalog.Get(config.DatasetCustomers); ok {
		add("Total Customers", formatCount(customers.Rows))
	}
	if products, ok := catalog.Get(config.DatasetProducts); ok {
		add("Total Products", formatCount(products.Rows))
	}
	if sellers, ok := catalog.Get(config.DatasetSellers); ok {
		add("Total Sellers", formatCount(sellers.Rows))
	}

	if items, ok := catalog.Get(config.DatasetOrderItems); ok {
		ids := items.Records(colOrderID)
		prices := items.FloatsWithNaN(colPrice)
		freights := items.FloatsWithNaN(colFreight)

		perOrder := make(map[string]float64)
		for i, id := range ids {
			if i >= len(prices) || math.IsNaN(prices[i]) {
				continue
			}
			v := prices[i]
			if i < len(freights) && !math.IsNaN(freights[i]) {
				v += freights[i]
			}
			perOrder[id] += v
		}

		if len(perOrder) > 0 {
			revenue := 0.0
			for _, v := range perOrder {
				revenue += v
			}
			add("Total Revenue", formatAmount(revenue))
			add("Avg Order Value", formatAmount(revenue/float64(len(perOrder))))
		}
	}

	return cards
}

// newPlot builds a plot with the shared styling applied.
func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func savePlot(p *plot.Plot, path string) error {
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

// newHistogram guards gonum's histogram against degenerate inputs.
func newHistogram(values []float64, fill color.Color) (*plotter.Histogram, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("no values to bin")
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return nil, fmt.Errorf("constant values cannot be binned")
	}

	h, err := plotter.NewHist(plotter.Values(values), histogramBins)
	if err != nil {
		return nil, fmt.Errorf("build histogram: %w", err)
	}
	h.FillColor = fill
	return h, nil
}

// capAtPercentile drops values above the given percentile so long-tail
// histograms stay readable.
func capAtPercentile(values []float64, pct float64) []float64 {
	if len(values) == 0 {
		return values
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	limit := stat.Quantile(pct, stat.LinInterp, sorted, nil)

	capped := make([]float64, 0, len(values))
	for _, v := range values {
		if v <= limit {
			capped = append(capped, v)
		}
	}
	return capped
}

// sortedQuantile computes a quantile without mutating the input.
func sortedQuantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatAmount renders a monetary value with separators and two decimals.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}

	n, err := strconv.Atoi(whole)
	if err != nil {
		return s
	}
	grouped := formatCount(n)
	if neg {
		grouped = "-" + grouped
	}
	return grouped + frac
}
