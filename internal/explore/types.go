package explore

import (
	"time"

	"ecompulse/internal/dataset"
)

// Distribution shape classes assigned from sample skewness.
const (
	ShapeApproximatelyNormal = "approximately_normal"
	ShapeRightSkewed         = "right_skewed"
	ShapeLeftSkewed          = "left_skewed"
)

// Correlation strength labels.
const (
	StrengthStrongPositive   = "strong_positive"
	StrengthStrongNegative   = "strong_negative"
	StrengthModeratePositive = "moderate_positive"
	StrengthModerateNegative = "moderate_negative"
)

// BasicInfo describes dataset dimensions and column composition.
type BasicInfo struct {
	Rows               int `json:"rows"`
	Columns            int `json:"columns"`
	NumericColumns     int `json:"numeric_columns"`
	CategoricalColumns int `json:"categorical_columns"`
	TemporalColumns    int `json:"temporal_columns"`
}

// NumericStats summarizes one numeric column. Values are rounded to four
// decimals.
type NumericStats struct {
	Count    int     `json:"count"`
	Missing  int     `json:"missing"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// CategoricalStats summarizes one categorical column.
type CategoricalStats struct {
	UniqueCount int                  `json:"unique_count"`
	MostCommon  []dataset.ValueCount `json:"most_common"`
	Missing     int                  `json:"missing"`
}

// TemporalStats summarizes one temporal column.
type TemporalStats struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	SpanDays     int    `json:"span_days"`
	MissingCount int    `json:"missing_count"`
}

// StatisticalSummary groups the per-column summaries of one dataset.
type StatisticalSummary struct {
	BasicInfo        BasicInfo                   `json:"basic_info"`
	NumericStats     map[string]NumericStats     `json:"numeric_stats"`
	CategoricalStats map[string]CategoricalStats `json:"categorical_stats"`
	TemporalStats    map[string]TemporalStats    `json:"temporal_stats"`
}

// Trend is a year-over-year record count movement on a temporal column.
type Trend struct {
	Type         string      `json:"type"`
	Column       string      `json:"column"`
	GrowthRate   float64     `json:"growth_rate"`
	YearlyCounts map[int]int `json:"yearly_counts"`
}

// SeasonalPattern is a weekday distribution on a temporal column.
type SeasonalPattern struct {
	Type         string         `json:"type"`
	Column       string         `json:"column"`
	Distribution map[string]int `json:"distribution"`
}

// DistributionPattern classifies the shape of a numeric column.
type DistributionPattern struct {
	Column           string   `json:"column"`
	DistributionType string   `json:"distribution_type"`
	Skewness         float64  `json:"skewness"`
	Kurtosis         float64  `json:"kurtosis"`
	NormalityPValue  *float64 `json:"normality_p_value,omitempty"`
}

// Patterns collects the discovered patterns of one dataset.
type Patterns struct {
	Trends               []Trend               `json:"trends"`
	SeasonalPatterns     []SeasonalPattern     `json:"seasonal_patterns"`
	DistributionPatterns []DistributionPattern `json:"distribution_patterns"`
}

// Correlation is one scored column pair.
type Correlation struct {
	Variable1   string  `json:"variable_1"`
	Variable2   string  `json:"variable_2"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
}

// Correlations holds the bucketed pairs and the capped matrix.
type Correlations struct {
	Strong   []Correlation                 `json:"strong_correlations"`
	Moderate []Correlation                 `json:"moderate_correlations"`
	Matrix   map[string]map[string]float64 `json:"correlation_matrix"`
}

// OutlierReport describes IQR outliers found in one column.
type OutlierReport struct {
	Column            string  `json:"column"`
	OutlierCount      int     `json:"outlier_count"`
	OutlierPercentage float64 `json:"outlier_percentage"`
	LowerBound        float64 `json:"lower_bound"`
	UpperBound        float64 `json:"upper_bound"`
	MinOutlier        float64 `json:"min_outlier"`
	MaxOutlier        float64 `json:"max_outlier"`
}

// ExtremeValues describes z-score extremes found in one column.
type ExtremeValues struct {
	Column              string    `json:"column"`
	ExtremeOutlierCount int       `json:"extreme_outlier_count"`
	SampleValues        []float64 `json:"sample_values"`
}

// MissingPattern flags a column whose missing share crosses the threshold.
type MissingPattern struct {
	Column            string  `json:"column"`
	MissingPercentage float64 `json:"missing_percentage"`
	MissingCount      int     `json:"missing_count"`
}

// Anomalies collects the anomaly findings of one dataset.
type Anomalies struct {
	StatisticalOutliers []OutlierReport  `json:"statistical_outliers"`
	ValueAnomalies      []ExtremeValues  `json:"value_anomalies"`
	MissingDataPatterns []MissingPattern `json:"missing_data_patterns"`
}

// DatasetAnalysis is the full exploratory result for one dataset.
type DatasetAnalysis struct {
	StatisticalSummary StatisticalSummary `json:"statistical_summary"`
	Patterns           Patterns           `json:"patterns"`
	Correlations       Correlations       `json:"correlations"`
	Anomalies          Anomalies          `json:"anomalies"`
}

// Relationship records a successful cross-dataset join and its headline
// numbers.
type Relationship struct {
	Datasets      []string           `json:"datasets"`
	MergeKey      string             `json:"merge_key"`
	MergedRecords int                `json:"merged_records"`
	Insights      map[string]float64 `json:"insights"`
}

// MergedInsight is a derived observation from a join.
type MergedInsight struct {
	Analysis  string               `json:"analysis"`
	TopStates []dataset.ValueCount `json:"top_states"`
}

// CrossDataset groups the join-based findings.
type CrossDataset struct {
	Relationships  []Relationship  `json:"relationships"`
	MergedInsights []MergedInsight `json:"merged_insights"`
}

// Analysis is the complete stage output. Names preserves the catalog's
// sorted dataset order for deterministic artifacts.
type Analysis struct {
	Names       []string
	Datasets    map[string]*DatasetAnalysis
	Cross       CrossDataset
	GeneratedAt time.Time
}

// Dataset returns the analysis for the named dataset, or nil.
func (a *Analysis) Dataset(name string) *DatasetAnalysis {
	return a.Datasets[name]
}
