package quality

import (
	"time"
)

// Quality tiers bucket datasets by overall score.
const (
	TierExcellent        = "excellent"
	TierGood             = "good"
	TierNeedsImprovement = "needs_improvement"
)

// Tier thresholds on the overall quality score.
const (
	ExcellentThreshold = 90.0
	GoodThreshold      = 75.0
)

// TierFor returns the quality tier for an overall score.
func TierFor(score float64) string {
	switch {
	case score >= ExcellentThreshold:
		return TierExcellent
	case score >= GoodThreshold:
		return TierGood
	default:
		return TierNeedsImprovement
	}
}

// Shape records dataset dimensions.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// Completeness measures missing data across the dataset.
type Completeness struct {
	CompletenessScore  float64            `json:"completeness_score"`
	MissingCells       int                `json:"missing_cells"`
	TotalCells         int                `json:"total_cells"`
	MissingPercentage  float64            `json:"missing_percentage"`
	ColumnsWithMissing map[string]float64 `json:"columns_with_missing"`
	CriticalColumns    map[string]float64 `json:"critical_columns"`
}

// Accuracy measures outliers and value-level problems. OutlierCount is
// informational; only DataIssues and TypeIssues lower the score.
type Accuracy struct {
	AccuracyScore float64  `json:"accuracy_score"`
	OutlierCount  int      `json:"outlier_count"`
	DataIssues    []string `json:"data_issues"`
	TypeIssues    []string `json:"type_issues"`
}

// Consistency measures duplicate rows and identifier column integrity.
type Consistency struct {
	ConsistencyScore    float64  `json:"consistency_score"`
	DuplicateRows       int      `json:"duplicate_rows"`
	DuplicatePercentage float64  `json:"duplicate_percentage"`
	ConsistencyIssues   []string `json:"consistency_issues"`
}

// DateColumnInfo describes the coverage of a single date column.
type DateColumnInfo struct {
	DateRangeDays  int    `json:"date_range_days"`
	MostRecentDate string `json:"most_recent_date"`
	OldestDate     string `json:"oldest_date"`
	ValidDates     int    `json:"valid_dates"`
	MissingDates   int    `json:"missing_dates"`
}

// Timeliness measures how current the dataset is. The score starts at the
// timeliness base and gains a bonus for every date column whose most recent
// value falls within the recency window.
type Timeliness struct {
	TimelinessScore float64                   `json:"timeliness_score"`
	DateColumns     map[string]DateColumnInfo `json:"date_columns"`
}

// Report holds the full quality assessment for one dataset.
type Report struct {
	DatasetName         string       `json:"dataset_name"`
	Shape               Shape        `json:"shape"`
	Completeness        Completeness `json:"completeness"`
	Accuracy            Accuracy     `json:"accuracy"`
	Consistency         Consistency  `json:"consistency"`
	Timeliness          Timeliness   `json:"timeliness"`
	OverallQualityScore float64      `json:"overall_quality_score"`
	Tier                string       `json:"tier"`
}

// Summary aggregates per-dataset reports into run-level averages, tier
// counts and the quality gate verdict.
type Summary struct {
	DatasetsAssessed int     `json:"datasets_assessed"`
	AvgOverall       float64 `json:"avg_overall_quality"`
	AvgCompleteness  float64 `json:"avg_completeness"`
	AvgAccuracy      float64 `json:"avg_accuracy"`
	AvgConsistency   float64 `json:"avg_consistency"`
	AvgTimeliness    float64 `json:"avg_timeliness"`
	Excellent        int     `json:"excellent"`
	Good             int     `json:"good"`
	NeedsImprovement int     `json:"needs_improvement"`
	QualityGate      float64 `json:"quality_gate"`
	Acceptable       bool    `json:"acceptable"`
}

// Assessment is the result of assessing a whole catalog. Reports are
// ordered by dataset name for deterministic output.
type Assessment struct {
	Reports     []*Report
	Summary     Summary
	GeneratedAt time.Time
}

// Report returns the report for the named dataset, or nil.
func (a *Assessment) Report(name string) *Report {
	for _, r := range a.Reports {
		if r.DatasetName == name {
			return r
		}
	}
	return nil
}
