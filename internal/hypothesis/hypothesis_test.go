package hypothesis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
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

// fixtureCatalog builds all seven datasets so every trigger rule fires.
// The numbers are chosen to make each interpolated statistic easy to
// verify by hand: freight is exactly price/10 (r=1), the 500.00 price
// drives skewness above 1, Monday carries half the orders, and so on.
func fixtureCatalog(t *testing.T) *dataset.Catalog {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, dir, "Orders.csv",
		"order_id,customer_id,order_purchase_timestamp,order_delivered_customer_date,order_status\n"+
			"1,C1,2024-01-01 10:00:00,2024-01-03 10:00:00,delivered\n"+
			"2,C2,2024-01-02 10:30:00,2024-01-05 22:30:00,delivered\n"+
			"3,C1,2024-01-08 14:00:00,,shipped\n"+
			"4,C3,2024-01-10 10:00:00,2024-01-14 10:00:00,delivered\n")

	writeCSV(t, dir, "Order Items.csv",
		"order_id,order_item_id,price,freight_value\n"+
			"1,1,10.00,1.00\n"+
			"2,1,20.00,2.00\n"+
			"3,1,30.00,3.00\n"+
			"4,1,40.00,4.00\n"+
			"5,1,500.00,50.00\n")

	writeCSV(t, dir, "Customers.csv",
		"customer_id,customer_unique_id,customer_state,customer_city\n"+
			"C1,U1,SP,sao paulo\n"+
			"C2,U1,SP,campinas\n"+
			"C3,U2,RJ,rio\n"+
			"C4,U3,MG,belo horizonte\n"+
			"C5,U4,BA,salvador\n"+
			"C6,U5,SP,santos\n")

	writeCSV(t, dir, "Products.csv",
		"product_id,product_category_name,product_weight_g,product_length_cm\n"+
			"P1,electronics,100,10\n"+
			"P2,electronics,200,20\n"+
			"P3,toys,300,30\n")

	writeCSV(t, dir, "Sellers.csv",
		"seller_id,seller_state\n"+
			"S1,SP\n"+
			"S2,SP\n"+
			"S3,PR\n")

	writeCSV(t, dir, "Reviews.csv",
		"review_id,review_score,review_comment_message\n"+
			"R1,5,great product\n"+
			"R2,1,terrible experience with delivery\n"+
			"R3,4,\n"+
			"R4,5,ok\n")

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

func fixtureResult(t *testing.T) *Result {
	t.Helper()
	result, err := NewGenerator(nil).Generate(context.Background(), fixtureCatalog(t))
	require.NoError(t, err)
	return result
}

func TestGenerateAllRules(t *testing.T) {
	result := fixtureResult(t)

	require.Len(t, result.Hypotheses, 14)
	for i, h := range result.Hypotheses {
		assert.Equal(t, fmt.Sprintf("HYP_%03d", i+1), h.ID, "IDs are emitted in order")
		assert.Len(t, h.ValidationPlan, 5)
		assert.NotEmpty(t, h.Rationale)
	}

	assert.Equal(t, 7, result.DatasetCount)
	assert.Equal(t, map[string]int{
		CategoryPricing:      2,
		CategoryLogistics:    1,
		CategoryTemporal:     2,
		CategoryDelivery:     1,
		CategoryGeography:    2,
		CategoryRetention:    1,
		CategoryCatalog:      1,
		CategorySatisfaction: 2,
		CategoryPayments:     2,
	}, result.Categories)
}

func TestPriceFreightHypothesis(t *testing.T) {
	result := fixtureResult(t)

	h, ok := result.Hypothesis("HYP_001")
	require.True(t, ok)
	assert.Equal(t, CategoryPricing, h.Category)
	assert.Contains(t, h.Hypothesis, "positive direction")
	assert.Contains(t, h.Rationale, "r=1.000")
	assert.Contains(t, h.Rationale, "over 5 order items")
	assert.Equal(t, ImpactHigh, h.BusinessImpact)
	assert.Equal(t, []string{"Order Items.csv"}, h.Datasets)
	assert.Equal(t, "1. Data preparation and cleaning", h.ValidationPlan[0])
}

func TestTemporalHypotheses(t *testing.T) {
	result := fixtureResult(t)

	weekday, ok := result.Hypothesis("HYP_003")
	require.True(t, ok)
	assert.Contains(t, weekday.Hypothesis, "peak activity on Monday")
	assert.Contains(t, weekday.Rationale, "50.0%")

	hourly, ok := result.Hypothesis("HYP_004")
	require.True(t, ok)
	assert.Contains(t, hourly.Hypothesis, "hour 10:00")
	assert.Contains(t, hourly.Rationale, "75.0%")
}

func TestDeliveryHypothesis(t *testing.T) {
	result := fixtureResult(t)

	// Gaps are 2.0, 3.5 and 4.0 days; flooring gives 2, 3, 4 and a mean of 3.
	h, ok := result.Hypothesis("HYP_005")
	require.True(t, ok)
	assert.Equal(t, CategoryDelivery, h.Category)
	assert.Contains(t, h.Rationale, "3.0 days over 3 delivered orders")
	assert.Equal(t, []string{"Orders.csv", "Customers.csv"}, h.Datasets)
}

func TestGeographyHypotheses(t *testing.T) {
	result := fixtureResult(t)

	customers, ok := result.Hypothesis("HYP_006")
	require.True(t, ok)
	assert.Contains(t, customers.Hypothesis, "led by SP")
	assert.Contains(t, customers.Rationale, "top 3 states")
	assert.Contains(t, customers.Rationale, "83.3%")

	sellers, ok := result.Hypothesis("HYP_014")
	require.True(t, ok)
	assert.Contains(t, sellers.Hypothesis, `"SP"`)
	assert.Contains(t, sellers.Rationale, "hosts 2 sellers")
	assert.Equal(t, ImpactLow, sellers.BusinessImpact)
}

func TestRetentionHypothesis(t *testing.T) {
	result := fixtureResult(t)

	// Five distinct customer_unique_id values, one of them repeated: 20%.
	h, ok := result.Hypothesis("HYP_007")
	require.True(t, ok)
	assert.Equal(t, CategoryRetention, h.Category)
	assert.Contains(t, h.Rationale, "20.0%")
}

func TestProductHypotheses(t *testing.T) {
	result := fixtureResult(t)

	dimensions, ok := result.Hypothesis("HYP_002")
	require.True(t, ok)
	assert.Contains(t, dimensions.Rationale, "2 of 4 physical dimension columns")

	category, ok := result.Hypothesis("HYP_008")
	require.True(t, ok)
	assert.Contains(t, category.Hypothesis, `"electronics"`)
	assert.Contains(t, category.Rationale, "holds 2 products")

	skew, ok := result.Hypothesis("HYP_009")
	require.True(t, ok)
	assert.Contains(t, skew.Rationale, "median 30.00 against mean 120.00")
}

func TestSatisfactionHypotheses(t *testing.T) {
	result := fixtureResult(t)

	scores, ok := result.Hypothesis("HYP_010")
	require.True(t, ok)
	assert.Contains(t, scores.Rationale, "3.75/5.0 across 4 scored reviews")

	// 13 + 33 + 0 + 2 characters over 4 rows averages 12.
	comments, ok := result.Hypothesis("HYP_011")
	require.True(t, ok)
	assert.Contains(t, comments.Rationale, "12 characters")
}

func TestCommentRuleFiresWithoutComments(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Reviews.csv",
		"review_id,review_score,review_comment_message\n"+
			"R1,5,\n"+
			"R2,1,\n"+
			"R3,4,\n")

	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)

	result, err := NewGenerator(nil).Generate(context.Background(), catalog)
	require.NoError(t, err)

	// Blank comments count as zero length; the rule still fires as long
	// as the column exists.
	comments, ok := result.Hypothesis("HYP_011")
	require.True(t, ok)
	assert.Contains(t, comments.Rationale, "0 characters")
}

func TestPaymentHypotheses(t *testing.T) {
	result := fixtureResult(t)

	method, ok := result.Hypothesis("HYP_012")
	require.True(t, ok)
	assert.Contains(t, method.Hypothesis, `"credit_card"`)
	assert.Contains(t, method.Rationale, "75.0%")

	installments, ok := result.Hypothesis("HYP_013")
	require.True(t, ok)
	assert.Contains(t, installments.Rationale, "75.0% of payments")
	assert.Contains(t, installments.Rationale, "averaging 2.0 installments")
}

func TestSkewRuleRequiresLongTail(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Order Items.csv",
		"order_id,order_item_id,price,freight_value\n"+
			"1,1,10.00,1.00\n"+
			"2,1,20.00,2.00\n"+
			"3,1,30.00,3.00\n"+
			"4,1,40.00,4.00\n"+
			"5,1,50.00,5.00\n")

	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)

	result, err := NewGenerator(nil).Generate(context.Background(), catalog)
	require.NoError(t, err)

	_, ok := result.Hypothesis("HYP_009")
	assert.False(t, ok, "symmetric prices must not trigger the skew rule")

	_, ok = result.Hypothesis("HYP_001")
	assert.True(t, ok, "correlation rule still fires")
}

func TestPartialCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "Sellers.csv",
		"seller_id,seller_state\n"+
			"S1,RS\n")

	catalog, err := dataset.Load(context.Background(), dir, nil)
	require.NoError(t, err)

	result, err := NewGenerator(nil).Generate(context.Background(), catalog)
	require.NoError(t, err)

	require.Len(t, result.Hypotheses, 1)
	assert.Equal(t, "HYP_014", result.Hypotheses[0].ID)
	assert.Equal(t, map[string]int{CategoryGeography: 1}, result.Categories)
}

func TestGenerateEmptyCatalog(t *testing.T) {
	_, err := NewGenerator(nil).Generate(context.Background(), nil)
	assert.Error(t, err)
}

func TestPrioritized(t *testing.T) {
	result := fixtureResult(t)

	top := result.Prioritized(5)
	require.Len(t, top, 5)

	ids := make([]string, len(top))
	for i, h := range top {
		ids[i] = h.ID
		assert.Equal(t, ImpactHigh, h.BusinessImpact)
	}
	assert.Equal(t, []string{"HYP_001", "HYP_005", "HYP_006", "HYP_007", "HYP_010"}, ids)
}

func TestSampleSizeGuidance(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"Pearson correlation test with significance testing", "85"},
		{"Chi-square test for independence across weekdays", "88"},
		{"ANOVA across customer segments", "64"},
		{"Descriptive statistics, score distribution analysis", "100"},
	}
	for _, tt := range tests {
		assert.Contains(t, sampleSizeGuidance(tt.method), tt.want, tt.method)
	}
}

func TestSaveArtifacts(t *testing.T) {
	result := fixtureResult(t)

	dir := t.TempDir()
	paths := config.NewRunPaths(dir, filepath.Join(dir, "out"), "run1")
	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, SaveAll(result, *paths))

	var doc struct {
		Metadata   exporter.Meta  `json:"metadata"`
		Hypotheses []Hypothesis   `json:"hypotheses"`
		Categories map[string]int `json:"categories"`
	}
	require.NoError(t, exporter.ReadJSON(paths.Hypotheses, &doc))
	assert.Equal(t, "hypothesis-generator", doc.Metadata.Generator)
	assert.Equal(t, 14, doc.Metadata.RecordCount)
	require.Len(t, doc.Hypotheses, 14)
	assert.Equal(t, "HYP_001", doc.Hypotheses[0].ID)
	assert.Equal(t, 2, doc.Categories[CategoryPricing])

	md, err := os.ReadFile(paths.HypothesesMD)
	require.NoError(t, err)
	text := string(md)
	assert.Contains(t, text, "# Research Hypotheses Report")
	assert.Contains(t, text, "presents 14 testable research hypotheses")
	assert.Contains(t, text, "- **pricing**: 2 hypotheses")
	assert.Contains(t, text, "### HYP_001: Product Price and Shipping Cost Relationship")
	assert.Contains(t, text, "#### Validation Plan")

	design, err := os.ReadFile(paths.ExperimentalDesign)
	require.NoError(t, err)
	text = string(design)
	assert.Contains(t, text, "# Experimental Design Document")
	assert.Contains(t, text, "- Alpha: 0.05")
	assert.Contains(t, text, "- Confidence Level: 95%")
	assert.Contains(t, text, "- Power: 0.80")
	assert.Contains(t, text, "### Priority 1: HYP_001")
	assert.Contains(t, text, "At least 85 paired observations")
	assert.Contains(t, text, "4. **Week 4**")
}

func TestSaveJSONEmpty(t *testing.T) {
	err := SaveJSON(&Result{}, filepath.Join(t.TempDir(), "out.json"))
	assert.Error(t, err)
}
