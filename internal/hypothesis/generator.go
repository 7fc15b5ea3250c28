package hypothesis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

// Trigger columns. A rule fires only when its columns exist in the
// expected dataset.
const (
	colPrice           = "price"
	colFreight         = "freight_value"
	colPurchaseTS      = "order_purchase_timestamp"
	colDeliveredTS     = "order_delivered_customer_date"
	colCustomerState   = "customer_state"
	colUniqueCustomer  = "customer_unique_id"
	colProductCategory = "product_category_name"
	colReviewScore     = "review_score"
	colReviewComment   = "review_comment_message"
	colPaymentType     = "payment_type"
	colInstallments    = "payment_installments"
	colSellerState     = "seller_state"
)

// dimensionColumns are the physical product measurements behind the
// logistics rule. At least two must be present for the rule to fire.
var dimensionColumns = []string{
	"product_weight_g",
	"product_length_cm",
	"product_height_cm",
	"product_width_cm",
}

// weekdayOrder breaks peak-day ties deterministically, Monday first.
var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

const (
	minDimensionColumns  = 2
	skewedPriceThreshold = 1.0
	topStateCount        = 3
)

// ruleFunc inspects the catalog and either produces a hypothesis or
// reports that its trigger is absent.
type ruleFunc func(*dataset.Catalog) (Hypothesis, bool)

// Generator derives research hypotheses from a dataset catalog.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil logger falls back to the default.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate evaluates every trigger rule in ID order. Rules whose columns
// are missing are skipped, not failed, so partial catalogs still yield
// whatever hypotheses the data supports.
func (g *Generator) Generate(ctx context.Context, catalog *dataset.Catalog) (*Result, error) {
	start := time.Now()

	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("no datasets to generate hypotheses from")
	}

	g.logger.InfoContext(ctx, "starting hypothesis generation",
		"datasets", catalog.Len(),
	)

	rules := []ruleFunc{
		priceFreightRule,
		productDimensionsRule,
		weekdayPatternRule,
		hourlyPatternRule,
		deliveryTimeRule,
		customerGeographyRule,
		repeatPurchaseRule,
		categoryConcentrationRule,
		priceSkewRule,
		reviewScoreRule,
		commentLengthRule,
		paymentTypeRule,
		installmentRule,
		sellerGeographyRule,
	}

	result := &Result{
		Categories:   make(map[string]int),
		DatasetCount: catalog.Len(),
		GeneratedAt:  time.Now(),
	}

	for _, rule := range rules {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("hypothesis generation cancelled: %w", ctx.Err())
		default:
		}

		hyp, ok := rule(catalog)
		if !ok {
			continue
		}
		hyp.ValidationPlan = validationSteps()
		result.Hypotheses = append(result.Hypotheses, hyp)
		result.Categories[hyp.Category]++

		g.logger.InfoContext(ctx, "hypothesis generated",
			"id", hyp.ID,
			"category", hyp.Category,
			"impact", hyp.BusinessImpact,
		)
	}

	g.logger.InfoContext(ctx, "hypothesis generation completed",
		"hypotheses", len(result.Hypotheses),
		"categories", len(result.Categories),
		"duration", time.Since(start),
	)

	return result, nil
}

// priceFreightRule emits HYP_001 when order items carry enough paired
// price and freight observations for a correlation.
func priceFreightRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	items, ok := catalog.Get(config.DatasetOrderItems)
	if !ok {
		return Hypothesis{}, false
	}
	prices, freights := items.PairedFloats(colPrice, colFreight)
	if len(prices) < 2 {
		return Hypothesis{}, false
	}
	r := stat.Correlation(prices, freights, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return Hypothesis{}, false
	}

	direction := "positive"
	if r < 0 {
		direction = "negative"
	}

	return Hypothesis{
		ID:       "HYP_001",
		Category: CategoryPricing,
		Title:    "Product Price and Shipping Cost Relationship",
		Hypothesis: fmt.Sprintf(
			"Product price and freight value move together in a %s direction across order items.", direction),
		Rationale: fmt.Sprintf(
			"Observed Pearson correlation between price and freight_value is r=%.3f over %d order items.",
			r, len(prices)),
		TestMethod:      "Pearson correlation test with significance testing",
		ExpectedOutcome: "Statistically significant correlation (p < 0.05)",
		BusinessImpact:  ImpactHigh,
		Datasets:        []string{config.DatasetOrderItems},
	}, true
}

// productDimensionsRule emits HYP_002 when the products dataset carries at
// least two physical dimension columns.
func productDimensionsRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	products, ok := catalog.Get(config.DatasetProducts)
	if !ok {
		return Hypothesis{}, false
	}

	present := 0
	for _, col := range dimensionColumns {
		if products.HasColumn(col) {
			present++
		}
	}
	if present < minDimensionColumns {
		return Hypothesis{}, false
	}

	return Hypothesis{
		ID:         "HYP_002",
		Category:   CategoryLogistics,
		Title:      "Product Dimensions Drive Shipping Cost",
		Hypothesis: "Product weight and size are the primary drivers of freight cost variation.",
		Rationale: fmt.Sprintf(
			"The products dataset carries %d of %d physical dimension columns suitable for freight modelling.",
			present, len(dimensionColumns)),
		TestMethod:      "Multiple regression of freight value on product dimensions",
		ExpectedOutcome: "Dimensions explain a significant share of freight variance",
		BusinessImpact:  ImpactMedium,
		Datasets:        []string{config.DatasetProducts, config.DatasetOrderItems},
	}, true
}

// weekdayPatternRule emits HYP_003 from the purchase timestamp weekday
// distribution.
func weekdayPatternRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	orders, ok := catalog.Get(config.DatasetOrders)
	if !ok {
		return Hypothesis{}, false
	}
	times := orders.Times(colPurchaseTS)
	if len(times) == 0 {
		return Hypothesis{}, false
	}

	counts := make(map[string]int, len(weekdayOrder))
	for _, t := range times {
		counts[t.Weekday().String()]++
	}

	peakDay, peakCount := "", 0
	for _, day := range weekdayOrder {
		if counts[day] > peakCount {
			peakDay, peakCount = day, counts[day]
		}
	}
	share := float64(peakCount) / float64(len(times)) * 100

	return Hypothesis{
		ID:       "HYP_003",
		Category: CategoryTemporal,
		Title:    "Weekly Purchase Pattern Variation",
		Hypothesis: fmt.Sprintf(
			"Purchase volume varies significantly by day of week, with peak activity on %s.", peakDay),
		Rationale: fmt.Sprintf(
			"%s holds the largest share of observed orders at %.1f%%; weekly cycles track work schedules and weekend leisure.",
			peakDay, share),
		TestMethod:      "Chi-square test for independence across weekdays",
		ExpectedOutcome: "Significant variation in purchase volume across days",
		BusinessImpact:  ImpactMedium,
		Datasets:        []string{config.DatasetOrders},
	}, true
}

// hourlyPatternRule emits HYP_004 from the purchase hour distribution.
func hourlyPatternRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	orders, ok := catalog.Get(config.DatasetOrders)
	if !ok {
		return Hypothesis{}, false
	}
	times := orders.Times(colPurchaseTS)
	if len(times) == 0 {
		return Hypothesis{}, false
	}

	var counts [24]int
	for _, t := range times {
		counts[t.Hour()]++
	}

	peakHour, peakCount := 0, 0
	for hour, count := range counts {
		if count > peakCount {
			peakHour, peakCount = hour, count
		}
	}
	share := float64(peakCount) / float64(len(times)) * 100

	return Hypothesis{
		ID:       "HYP_004",
		Category: CategoryTemporal,
		Title:    "Daily Purchase Time Distribution",
		Hypothesis: fmt.Sprintf(
			"Purchase activity peaks at hour %d:00, following a clear daily rhythm.", peakHour),
		Rationale: fmt.Sprintf(
			"Hour %d:00 holds %.1f%% of observed orders; shopping follows daily routines with lunch and evening peaks.",
			peakHour, share),
		TestMethod:      "Time series analysis, hourly distribution comparison",
		ExpectedOutcome: "Significant hourly variation in purchase patterns",
		BusinessImpact:  ImpactLow,
		Datasets:        []string{config.DatasetOrders},
	}, true
}

// deliveryTimeRule emits HYP_005 from the purchase-to-delivery gap.
// Pandas-style day arithmetic floors each gap to whole days before
// averaging.
func deliveryTimeRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	orders, ok := catalog.Get(config.DatasetOrders)
	if !ok {
		return Hypothesis{}, false
	}
	purchases, deliveries := orders.PairedTimes(colPurchaseTS, colDeliveredTS)
	if len(purchases) == 0 {
		return Hypothesis{}, false
	}

	days := make([]float64, len(purchases))
	for i := range purchases {
		days[i] = math.Floor(deliveries[i].Sub(purchases[i]).Hours() / 24)
	}
	avgDays := stat.Mean(days, nil)

	return Hypothesis{
		ID:         "HYP_005",
		Category:   CategoryDelivery,
		Title:      "Delivery Time Consistency",
		Hypothesis: "Delivery times vary significantly across customer regions.",
		Rationale: fmt.Sprintf(
			"Average delivery time is %.1f days over %d delivered orders; distance and carrier coverage differ by region.",
			avgDays, len(days)),
		TestMethod:      "Descriptive statistics, regional comparison analysis",
		ExpectedOutcome: "Significant variation in delivery times by customer location",
		BusinessImpact:  ImpactHigh,
		Datasets:        []string{config.DatasetOrders, config.DatasetCustomers},
	}, true
}

// customerGeographyRule emits HYP_006 from the customer state distribution.
func customerGeographyRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	customers, ok := catalog.Get(config.DatasetCustomers)
	if !ok || customers.Rows == 0 {
		return Hypothesis{}, false
	}
	counts := customers.ValueCounts(colCustomerState)
	if len(counts) == 0 {
		return Hypothesis{}, false
	}

	top := dataset.TopValues(counts, topStateCount)
	topSum := 0
	for _, vc := range top {
		topSum += vc.Count
	}
	share := float64(topSum) / float64(customers.Rows) * 100

	return Hypothesis{
		ID:       "HYP_006",
		Category: CategoryGeography,
		Title:    "Geographic Customer Concentration",
		Hypothesis: fmt.Sprintf(
			"Customer distribution is heavily concentrated in a few states, led by %s.", counts[0].Value),
		Rationale: fmt.Sprintf(
			"The top %d states account for %.1f%% of customers; e-commerce adoption tracks infrastructure and regional economies.",
			len(top), share),
		TestMethod:      "Chi-square goodness-of-fit test against a uniform distribution",
		ExpectedOutcome: "Significant deviation from uniform distribution across states",
		BusinessImpact:  ImpactHigh,
		Datasets:        []string{config.DatasetCustomers},
	}, true
}

// repeatPurchaseRule emits HYP_007 from the share of unique customers that
// appear more than once.
func repeatPurchaseRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	customers, ok := catalog.Get(config.DatasetCustomers)
	if !ok {
		return Hypothesis{}, false
	}
	counts := customers.ValueCounts(colUniqueCustomer)
	if len(counts) == 0 {
		return Hypothesis{}, false
	}

	repeat := 0
	for _, vc := range counts {
		if vc.Count > 1 {
			repeat++
		}
	}
	rate := float64(repeat) / float64(len(counts)) * 100

	return Hypothesis{
		ID:         "HYP_007",
		Category:   CategoryRetention,
		Title:      "Customer Repeat Purchase Rate",
		Hypothesis: "Repeat purchase behavior marks a measurable customer loyalty segment.",
		Rationale: fmt.Sprintf(
			"%.1f%% of unique customers appear more than once in the customer records.", rate),
		TestMethod:      "Cohort analysis, retention rate calculation",
		ExpectedOutcome: "Repeat purchase rate varies by customer segment",
		BusinessImpact:  ImpactHigh,
		Datasets:        []string{config.DatasetCustomers},
	}, true
}

// categoryConcentrationRule emits HYP_008 from the dominant product category.
func categoryConcentrationRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	products, ok := catalog.Get(config.DatasetProducts)
	if !ok {
		return Hypothesis{}, false
	}
	counts := products.ValueCounts(colProductCategory)
	if len(counts) == 0 {
		return Hypothesis{}, false
	}
	top := counts[0]

	return Hypothesis{
		ID:         "HYP_008",
		Category:   CategoryCatalog,
		Title:      "Product Category Concentration",
		Hypothesis: fmt.Sprintf("The product catalog is dominated by the %q category.", top.Value),
		Rationale: fmt.Sprintf(
			"Category %q holds %d products, the largest single share of the catalog.", top.Value, top.Count),
		TestMethod:      "Category distribution analysis, Pareto analysis",
		ExpectedOutcome: "Top 20% of categories represent 80% of products",
		BusinessImpact:  ImpactMedium,
		Datasets:        []string{config.DatasetProducts},
	}, true
}

// priceSkewRule emits HYP_009 only when item prices are strongly
// right-skewed.
func priceSkewRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	items, ok := catalog.Get(config.DatasetOrderItems)
	if !ok {
		return Hypothesis{}, false
	}
	prices := items.Floats(colPrice)
	if len(prices) < 3 {
		return Hypothesis{}, false
	}

	skew := stat.Skew(prices, nil)
	if math.IsNaN(skew) || skew <= skewedPriceThreshold {
		return Hypothesis{}, false
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	mean := stat.Mean(prices, nil)

	return Hypothesis{
		ID:         "HYP_009",
		Category:   CategoryPricing,
		Title:      "Product Price Distribution Pattern",
		Hypothesis: "Product prices are right-skewed, with a long tail of high-priced items.",
		Rationale: fmt.Sprintf(
			"Price skewness is %.2f with median %.2f against mean %.2f, well outside the symmetric range.",
			skew, median, mean),
		TestMethod:      "Distribution analysis, skewness test, price segment analysis",
		ExpectedOutcome: "Right-skewed distribution with a long tail of high-priced items",
		BusinessImpact:  ImpactMedium,
		Datasets:        []string{config.DatasetOrderItems},
	}, true
}

// reviewScoreRule emits HYP_010 from the mean review score.
func reviewScoreRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	reviews, ok := catalog.Get(config.DatasetReviews)
	if !ok {
		return Hypothesis{}, false
	}
	scores := reviews.Floats(colReviewScore)
	if len(scores) == 0 {
		return Hypothesis{}, false
	}
	avg := stat.Mean(scores, nil)

	return Hypothesis{
		ID:         "HYP_010",
		Category:   CategorySatisfaction,
		Title:      "Customer Satisfaction Score Distribution",
		Hypothesis: "Review scores are polarized between very satisfied and very dissatisfied customers.",
		Rationale: fmt.Sprintf(
			"Average review score is %.2f/5.0 across %d scored reviews.", avg, len(scores)),
		TestMethod:      "Descriptive statistics, score distribution analysis",
		ExpectedOutcome: "Score distribution shows polarization between 1-2 and 4-5 stars",
		BusinessImpact:  ImpactHigh,
		Datasets:        []string{config.DatasetReviews},
	}, true
}

// commentLengthRule emits HYP_011 from the average review comment length.
// Missing comments count as zero length, so the average runs over all rows.
func commentLengthRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	reviews, ok := catalog.Get(config.DatasetReviews)
	if !ok || reviews.Rows == 0 || !reviews.HasColumn(colReviewComment) {
		return Hypothesis{}, false
	}

	totalLen := 0
	for _, comment := range reviews.Strings(colReviewComment) {
		totalLen += len([]rune(comment))
	}
	avgLen := float64(totalLen) / float64(reviews.Rows)

	return Hypothesis{
		ID:         "HYP_011",
		Category:   CategorySatisfaction,
		Title:      "Review Comment Length and Score Relationship",
		Hypothesis: "Customers leaving longer comments hold stronger opinions about their orders.",
		Rationale: fmt.Sprintf(
			"Average comment length is %.0f characters across all reviews; detailed comments often signal strong opinions.",
			avgLen),
		TestMethod:      "Correlation analysis between comment length and review score",
		ExpectedOutcome: "Negative reviews carry longer comments than positive reviews",
		BusinessImpact:  ImpactLow,
		Datasets:        []string{config.DatasetReviews},
	}, true
}

// paymentTypeRule emits HYP_012 from the dominant payment method.
func paymentTypeRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	payments, ok := catalog.Get(config.DatasetPayments)
	if !ok || payments.Rows == 0 {
		return Hypothesis{}, false
	}
	counts := payments.ValueCounts(colPaymentType)
	if len(counts) == 0 {
		return Hypothesis{}, false
	}
	top := counts[0]
	share := float64(top.Count) / float64(payments.Rows) * 100

	return Hypothesis{
		ID:         "HYP_012",
		Category:   CategoryPayments,
		Title:      "Payment Method Preference",
		Hypothesis: fmt.Sprintf("Payment method %q dominates checkout behavior.", top.Value),
		Rationale: fmt.Sprintf(
			"%q covers %.1f%% of all payment records; preferences track region, demographics and order value.",
			top.Value, share),
		TestMethod:      "Chi-square test, payment method versus order value analysis",
		ExpectedOutcome: "Significant preference for specific payment methods",
		BusinessImpact:  ImpactMedium,
		Datasets:        []string{config.DatasetPayments},
	}, true
}

// installmentRule emits HYP_013 from installment usage.
func installmentRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	payments, ok := catalog.Get(config.DatasetPayments)
	if !ok {
		return Hypothesis{}, false
	}
	installments := payments.Floats(colInstallments)
	if len(installments) == 0 {
		return Hypothesis{}, false
	}

	multi := 0
	for _, v := range installments {
		if v > 1 {
			multi++
		}
	}
	rate := float64(multi) / float64(len(installments)) * 100
	avg := stat.Mean(installments, nil)

	return Hypothesis{
		ID:         "HYP_013",
		Category:   CategoryPayments,
		Title:      "Installment Payment Usage",
		Hypothesis: "Higher order values push customers toward installment payments.",
		Rationale: fmt.Sprintf(
			"%.1f%% of payments use more than one installment, averaging %.1f installments per payment.",
			rate, avg),
		TestMethod:      "Correlation analysis between installment count and payment value",
		ExpectedOutcome: "Higher order values correlate with more installments",
		BusinessImpact:  ImpactMedium,
		Datasets:        []string{config.DatasetPayments, config.DatasetOrderItems},
	}, true
}

// sellerGeographyRule emits HYP_014 from the dominant seller state.
func sellerGeographyRule(catalog *dataset.Catalog) (Hypothesis, bool) {
	sellers, ok := catalog.Get(config.DatasetSellers)
	if !ok {
		return Hypothesis{}, false
	}
	counts := sellers.ValueCounts(colSellerState)
	if len(counts) == 0 {
		return Hypothesis{}, false
	}
	top := counts[0]

	return Hypothesis{
		ID:         "HYP_014",
		Category:   CategoryGeography,
		Title:      "Seller Geographic Distribution",
		Hypothesis: fmt.Sprintf("Sellers cluster in state %q, indicating regional business hubs.", top.Value),
		Rationale: fmt.Sprintf(
			"State %q hosts %d sellers, the largest regional concentration; commercial hubs attract logistics infrastructure.",
			top.Value, top.Count),
		TestMethod:      "Geographic concentration analysis, seller versus customer location comparison",
		ExpectedOutcome: "Significant seller concentration in specific states",
		BusinessImpact:  ImpactLow,
		Datasets:        []string{config.DatasetSellers, config.DatasetCustomers},
	}, true
}
