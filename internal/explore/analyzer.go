package explore

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

// Column caps beyond the configured numeric/categorical limits.
const (
	distributionColumnCap = 5
	anomalyColumnCap      = 8
	matrixColumnCap       = 8
	trendColumnCap        = 2
	topValueCount         = 5
	correlationKeep       = 10

	missingPatternThreshold = 10.0

	// normalityMinSamples is the smallest sample the chi-squared
	// approximation of the Jarque-Bera statistic is trusted for.
	normalityMinSamples = 20

	timestampLayout = "2006-01-02 15:04:05"
)

// weekdayNames orders weekday distributions Monday first.
var weekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Analyzer runs the exploratory analysis over a dataset catalog.
type Analyzer struct {
	cfg    config.AnalysisConfig
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given analysis configuration.
func NewAnalyzer(cfg config.AnalysisConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// Analyze summarizes, scans for patterns, correlates and anomaly-checks
// every dataset, then runs the cross-dataset joins.
func (a *Analyzer) Analyze(ctx context.Context, catalog *dataset.Catalog) (*Analysis, error) {
	start := time.Now()

	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("no datasets to analyze")
	}

	a.logger.InfoContext(ctx, "starting exploratory analysis",
		"datasets", catalog.Len(),
		"total_rows", catalog.TotalRows(),
	)

	analysis := &Analysis{
		Names:       catalog.Names(),
		Datasets:    make(map[string]*DatasetAnalysis, catalog.Len()),
		GeneratedAt: time.Now(),
	}

	for _, name := range catalog.Names() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("exploratory analysis cancelled: %w", ctx.Err())
		default:
		}

		d, ok := catalog.Get(name)
		if !ok {
			continue
		}

		result := &DatasetAnalysis{
			StatisticalSummary: a.statisticalSummary(d),
			Patterns:           a.discoverPatterns(d),
			Correlations:       a.analyzeCorrelations(d),
			Anomalies:          a.detectAnomalies(d),
		}
		analysis.Datasets[name] = result

		a.logger.InfoContext(ctx, "dataset analyzed",
			"dataset", name,
			"numeric_columns", len(result.StatisticalSummary.NumericStats),
			"trends", len(result.Patterns.Trends),
			"strong_correlations", len(result.Correlations.Strong),
			"outlier_columns", len(result.Anomalies.StatisticalOutliers),
		)
	}

	analysis.Cross = a.crossDataset(ctx, catalog)

	a.logger.InfoContext(ctx, "exploratory analysis completed",
		"datasets", len(analysis.Datasets),
		"relationships", len(analysis.Cross.Relationships),
		"duration", time.Since(start),
	)

	return analysis, nil
}

// statisticalSummary computes the numeric, categorical and temporal column
// summaries for one dataset.
func (a *Analyzer) statisticalSummary(d *dataset.Dataset) StatisticalSummary {
	summary := StatisticalSummary{
		BasicInfo: BasicInfo{
			Rows:               d.Rows,
			Columns:            d.Cols,
			NumericColumns:     len(d.NumericColumns()),
			CategoricalColumns: len(d.CategoricalColumns()),
			TemporalColumns:    len(d.TemporalColumns()),
		},
		NumericStats:     make(map[string]NumericStats),
		CategoricalStats: make(map[string]CategoricalStats),
		TemporalStats:    make(map[string]TemporalStats),
	}

	missingByColumn := d.MissingByColumn()

	for _, col := range capped(d.NumericColumns(), a.cfg.MaxNumericColumns) {
		xs := d.Floats(col)
		if len(xs) == 0 {
			continue
		}

		sorted := make([]float64, len(xs))
		copy(sorted, xs)
		sort.Float64s(sorted)

		summary.NumericStats[col] = NumericStats{
			Count:    len(xs),
			Missing:  missingByColumn[col],
			Mean:     round4(stat.Mean(xs, nil)),
			Median:   round4(stat.Quantile(0.5, stat.LinInterp, sorted, nil)),
			Std:      round4(sampleStd(xs)),
			Min:      round4(sorted[0]),
			Max:      round4(sorted[len(sorted)-1]),
			Q25:      round4(stat.Quantile(0.25, stat.LinInterp, sorted, nil)),
			Q75:      round4(stat.Quantile(0.75, stat.LinInterp, sorted, nil)),
			Skewness: round4(sampleSkew(xs)),
			Kurtosis: round4(sampleExKurtosis(xs)),
		}
	}

	for _, col := range capped(d.CategoricalColumns(), a.cfg.MaxCategoricalColumns) {
		summary.CategoricalStats[col] = CategoricalStats{
			UniqueCount: d.UniqueCount(col),
			MostCommon:  dataset.TopValues(d.ValueCounts(col), topValueCount),
			Missing:     missingByColumn[col],
		}
	}

	for _, col := range d.TemporalColumns() {
		earliest, latest, ok := d.TimeRange(col)
		if !ok {
			continue
		}
		summary.TemporalStats[col] = TemporalStats{
			StartDate:    earliest.Format(timestampLayout),
			EndDate:      latest.Format(timestampLayout),
			SpanDays:     int(latest.Sub(earliest).Hours() / 24),
			MissingCount: d.Rows - len(d.Times(col)),
		}
	}

	return summary
}

// discoverPatterns finds year-over-year trends and weekday distributions on
// temporal columns, and classifies numeric distribution shapes.
func (a *Analyzer) discoverPatterns(d *dataset.Dataset) Patterns {
	patterns := Patterns{
		Trends:               []Trend{},
		SeasonalPatterns:     []SeasonalPattern{},
		DistributionPatterns: []DistributionPattern{},
	}

	for _, col := range capped(d.TemporalColumns(), trendColumnCap) {
		times := d.Times(col)
		if len(times) == 0 {
			continue
		}

		yearly := make(map[int]int)
		weekdays := make(map[string]int, len(weekdayNames))
		for _, t := range times {
			yearly[t.Year()]++
			weekdays[t.Weekday().String()]++
		}

		if len(yearly) >= 2 {
			years := make([]int, 0, len(yearly))
			for y := range yearly {
				years = append(years, y)
			}
			sort.Ints(years)

			first := float64(yearly[years[0]])
			last := float64(yearly[years[len(years)-1]])
			patterns.Trends = append(patterns.Trends, Trend{
				Type:         "yearly_trend",
				Column:       col,
				GrowthRate:   round2((last - first) / first * 100),
				YearlyCounts: yearly,
			})
		}

		patterns.SeasonalPatterns = append(patterns.SeasonalPatterns, SeasonalPattern{
			Type:         "day_of_week_pattern",
			Column:       col,
			Distribution: weekdays,
		})
	}

	for _, col := range capped(d.NumericColumns(), distributionColumnCap) {
		xs := d.Floats(col)
		if len(xs) == 0 {
			continue
		}

		skewness := sampleSkew(xs)
		shape := ShapeApproximatelyNormal
		switch {
		case skewness > 0.5:
			shape = ShapeRightSkewed
		case skewness < -0.5:
			shape = ShapeLeftSkewed
		}

		patterns.DistributionPatterns = append(patterns.DistributionPatterns, DistributionPattern{
			Column:           col,
			DistributionType: shape,
			Skewness:         round3(skewness),
			Kurtosis:         round3(sampleExKurtosis(xs)),
			NormalityPValue:  normalityPValue(xs),
		})
	}

	return patterns
}

// analyzeCorrelations computes Pearson correlations over pairwise-complete
// rows for every numeric column pair, buckets them by the configured
// thresholds and retains a matrix capped to the first matrixColumnCap
// columns. Undefined correlations (constant columns) are skipped.
func (a *Analyzer) analyzeCorrelations(d *dataset.Dataset) Correlations {
	correlations := Correlations{
		Strong:   []Correlation{},
		Moderate: []Correlation{},
		Matrix:   map[string]map[string]float64{},
	}

	cols := d.NumericColumns()
	if len(cols) < 2 {
		return correlations
	}

	matrixCols := capped(cols, matrixColumnCap)
	for _, col := range matrixCols {
		correlations.Matrix[col] = map[string]float64{col: 1.0}
	}

	inMatrix := make(map[string]bool, len(matrixCols))
	for _, col := range matrixCols {
		inMatrix[col] = true
	}

	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			x, y := d.PairedFloats(cols[i], cols[j])
			if len(x) < 2 {
				continue
			}

			r := stat.Correlation(x, y, nil)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}

			if inMatrix[cols[i]] && inMatrix[cols[j]] {
				correlations.Matrix[cols[i]][cols[j]] = round3(r)
				correlations.Matrix[cols[j]][cols[i]] = round3(r)
			}

			abs := math.Abs(r)
			switch {
			case abs > a.cfg.StrongCorrelation:
				strength := StrengthStrongPositive
				if r < 0 {
					strength = StrengthStrongNegative
				}
				correlations.Strong = append(correlations.Strong, Correlation{
					Variable1:   cols[i],
					Variable2:   cols[j],
					Correlation: round3(r),
					Strength:    strength,
				})
			case abs > a.cfg.ModerateCorrelation:
				strength := StrengthModeratePositive
				if r < 0 {
					strength = StrengthModerateNegative
				}
				correlations.Moderate = append(correlations.Moderate, Correlation{
					Variable1:   cols[i],
					Variable2:   cols[j],
					Correlation: round3(r),
					Strength:    strength,
				})
			}
		}
	}

	sortByAbsCorrelation(correlations.Strong)
	sortByAbsCorrelation(correlations.Moderate)
	if len(correlations.Strong) > correlationKeep {
		correlations.Strong = correlations.Strong[:correlationKeep]
	}
	if len(correlations.Moderate) > correlationKeep {
		correlations.Moderate = correlations.Moderate[:correlationKeep]
	}

	return correlations
}

// detectAnomalies finds IQR outliers and z-score extremes in the first
// anomalyColumnCap numeric columns, and flags columns whose missing share
// exceeds missingPatternThreshold.
func (a *Analyzer) detectAnomalies(d *dataset.Dataset) Anomalies {
	anomalies := Anomalies{
		StatisticalOutliers: []OutlierReport{},
		ValueAnomalies:      []ExtremeValues{},
		MissingDataPatterns: []MissingPattern{},
	}

	for _, col := range capped(d.NumericColumns(), anomalyColumnCap) {
		xs := d.Floats(col)
		if len(xs) == 0 {
			continue
		}

		sorted := make([]float64, len(xs))
		copy(sorted, xs)
		sort.Float64s(sorted)

		q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
		q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
		iqr := q3 - q1
		lower := q1 - a.cfg.IQRMultiplier*iqr
		upper := q3 + a.cfg.IQRMultiplier*iqr

		var outliers []float64
		for _, x := range xs {
			if x < lower || x > upper {
				outliers = append(outliers, x)
			}
		}

		if len(outliers) > 0 {
			minOut, maxOut := outliers[0], outliers[0]
			for _, x := range outliers[1:] {
				minOut = math.Min(minOut, x)
				maxOut = math.Max(maxOut, x)
			}
			anomalies.StatisticalOutliers = append(anomalies.StatisticalOutliers, OutlierReport{
				Column:            col,
				OutlierCount:      len(outliers),
				OutlierPercentage: round2(float64(len(outliers)) / float64(len(xs)) * 100),
				LowerBound:        lower,
				UpperBound:        upper,
				MinOutlier:        minOut,
				MaxOutlier:        maxOut,
			})
		}

		mean := stat.Mean(xs, nil)
		std := stat.PopStdDev(xs, nil)
		if std > 0 {
			var extremes []float64
			for _, x := range xs {
				if math.Abs(x-mean)/std > a.cfg.ExtremeZScore {
					extremes = append(extremes, x)
				}
			}
			if len(extremes) > 0 {
				samples := extremes
				if len(samples) > 3 {
					samples = samples[:3]
				}
				anomalies.ValueAnomalies = append(anomalies.ValueAnomalies, ExtremeValues{
					Column:              col,
					ExtremeOutlierCount: len(extremes),
					SampleValues:        samples,
				})
			}
		}
	}

	if d.Rows > 0 {
		missingByColumn := d.MissingByColumn()
		for _, col := range d.Columns {
			missing := missingByColumn[col.Name]
			pct := float64(missing) / float64(d.Rows) * 100
			if pct > missingPatternThreshold {
				anomalies.MissingDataPatterns = append(anomalies.MissingDataPatterns, MissingPattern{
					Column:            col.Name,
					MissingPercentage: round2(pct),
					MissingCount:      missing,
				})
			}
		}
	}

	return anomalies
}

func sortByAbsCorrelation(pairs []Correlation) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation)
	})
}

func capped(names []string, n int) []string {
	if len(names) <= n {
		return names
	}
	return names[:n]
}

// sampleStd is the n-1 standard deviation, 0 for fewer than two values.
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// sampleSkew guards the bias-corrected skewness against short inputs.
func sampleSkew(xs []float64) float64 {
	if len(xs) < 3 {
		return 0
	}
	s := stat.Skew(xs, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0
	}
	return s
}

// normalityPValue runs a Jarque-Bera test against the chi-squared
// distribution with two degrees of freedom. Samples below
// normalityMinSamples return nil rather than an unreliable p-value.
func normalityPValue(xs []float64) *float64 {
	if len(xs) < normalityMinSamples {
		return nil
	}
	s := sampleSkew(xs)
	k := sampleExKurtosis(xs)
	jb := float64(len(xs)) / 6 * (s*s + k*k/4)
	p := round4(1 - distuv.ChiSquared{K: 2}.CDF(jb))
	return &p
}

// sampleExKurtosis guards the excess kurtosis against short inputs.
func sampleExKurtosis(xs []float64) float64 {
	if len(xs) < 4 {
		return 0
	}
	k := stat.ExKurtosis(xs, nil)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0
	}
	return k
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
func round3(x float64) float64 { return math.Round(x*1000) / 1000 }
func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
