package visualize

import "time"

// Chart file names, fixed so the dashboard and final report can reference
// them without probing the directory.
const (
	ChartDailyOrders         = "daily_orders_trend.png"
	ChartMonthlyOrders       = "monthly_orders.png"
	ChartOrdersByWeekday     = "orders_by_weekday.png"
	ChartPriceDistribution   = "price_distribution.png"
	ChartPriceBoxplot        = "price_boxplot.png"
	ChartPriceVsFreight      = "price_vs_freight.png"
	ChartReviewScores        = "review_scores.png"
	ChartCustomerStates      = "customer_states.png"
	ChartSellerStates        = "seller_states.png"
	ChartPaymentTypes        = "payment_types.png"
	ChartPaymentInstallments = "payment_installments.png"
	ChartPaymentValues       = "payment_value_distribution.png"
	ChartProductCategories   = "product_categories.png"
	ChartProductWeights      = "product_weight_distribution.png"
)

// Chart categories group the dashboard sections.
const (
	CategoryTrends        = "trends"
	CategoryDistributions = "distributions"
	CategoryGeography     = "geography"
	CategoryPayments      = "payments"
	CategoryProducts      = "products"
)

// Chart describes one rendered PNG.
type Chart struct {
	File     string `json:"file"`
	Title    string `json:"title"`
	Dataset  string `json:"dataset"`
	Category string `json:"category"`
}

// MetricCard is one dashboard headline figure, value already formatted.
type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Result is the output of one visualization run.
type Result struct {
	Charts      []Chart      `json:"charts"`
	Metrics     []MetricCard `json:"metrics"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Chart looks up a rendered chart by file name.
func (r *Result) Chart(file string) (Chart, bool) {
	for _, c := range r.Charts {
		if c.File == file {
			return c, true
		}
	}
	return Chart{}, false
}

// InCategory returns the rendered charts of one category, in render order.
func (r *Result) InCategory(category string) []Chart {
	var charts []Chart
	for _, c := range r.Charts {
		if c.Category == category {
			charts = append(charts, c)
		}
	}
	return charts
}
