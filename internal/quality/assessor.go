package quality

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

// Scoring constants. Dimension scores live on a 0-100 scale; issue
// penalties are fixed, only the blend weights and the IQR multiplier
// come from configuration.
const (
	criticalMissingPct      = 20.0
	dataIssuePenalty        = 5.0
	typeIssuePenalty        = 3.0
	consistencyIssuePenalty = 5.0
	timelinessBase          = 85.0
	recencyBonus            = 5.0
	recencyWindowDays       = 30

	timestampLayout = "2006-01-02 15:04:05"
)

// valueColumnHints mark numeric columns that must never hold negatives.
var valueColumnHints = []string{"price", "quantity", "amount", "value"}

// dateTimeHints mark columns expected to hold timestamps.
var dateTimeHints = []string{"date", "time"}

// Assessor scores datasets along the four quality dimensions.
type Assessor struct {
	cfg    config.AnalysisConfig
	logger *slog.Logger
}

// NewAssessor creates an assessor with the given analysis configuration.
func NewAssessor(cfg config.AnalysisConfig, logger *slog.Logger) *Assessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assessor{cfg: cfg, logger: logger}
}

// Assess scores every dataset in the catalog and aggregates the run-level
// summary. Datasets are processed in name order so artifacts are stable
// across runs.
func (a *Assessor) Assess(ctx context.Context, catalog *dataset.Catalog) (*Assessment, error) {
	start := time.Now()

	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("no datasets to assess")
	}

	a.logger.InfoContext(ctx, "starting quality assessment",
		"datasets", catalog.Len(),
		"total_rows", catalog.TotalRows(),
	)

	assessment := &Assessment{GeneratedAt: time.Now()}

	for _, name := range catalog.Names() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("quality assessment cancelled: %w", ctx.Err())
		default:
		}

		d, ok := catalog.Get(name)
		if !ok {
			continue
		}

		report := a.assessDataset(d)
		assessment.Reports = append(assessment.Reports, report)

		a.logger.InfoContext(ctx, "dataset assessed",
			"dataset", name,
			"overall_score", report.OverallQualityScore,
			"tier", report.Tier,
			"completeness", report.Completeness.CompletenessScore,
			"accuracy", report.Accuracy.AccuracyScore,
			"consistency", report.Consistency.ConsistencyScore,
			"timeliness", report.Timeliness.TimelinessScore,
		)
	}

	assessment.Summary = a.summarize(assessment.Reports)

	a.logger.InfoContext(ctx, "quality assessment completed",
		"datasets", len(assessment.Reports),
		"avg_overall", assessment.Summary.AvgOverall,
		"acceptable", assessment.Summary.Acceptable,
		"duration", time.Since(start),
	)

	return assessment, nil
}

func (a *Assessor) assessDataset(d *dataset.Dataset) *Report {
	completeness := a.assessCompleteness(d)
	accuracy := a.assessAccuracy(d)
	consistency := a.assessConsistency(d)
	timeliness := a.assessTimeliness(d)

	overall := a.overallScore(completeness, accuracy, consistency, timeliness)

	return &Report{
		DatasetName:         d.Name,
		Shape:               Shape{Rows: d.Rows, Columns: d.Cols},
		Completeness:        completeness,
		Accuracy:            accuracy,
		Consistency:         consistency,
		Timeliness:          timeliness,
		OverallQualityScore: overall,
		Tier:                TierFor(overall),
	}
}

// assessCompleteness scores the share of populated cells and reports the
// missing percentage per column. Columns above criticalMissingPct are
// surfaced separately.
func (a *Assessor) assessCompleteness(d *dataset.Dataset) Completeness {
	total := d.Rows * d.Cols
	missingByColumn := d.MissingByColumn()

	missing := 0
	for _, n := range missingByColumn {
		missing += n
	}

	columnsWithMissing := make(map[string]float64, d.Cols)
	critical := make(map[string]float64)
	for _, col := range d.Columns {
		pct := 0.0
		if d.Rows > 0 {
			pct = round2(float64(missingByColumn[col.Name]) / float64(d.Rows) * 100)
		}
		columnsWithMissing[col.Name] = pct
		if pct > criticalMissingPct {
			critical[col.Name] = pct
		}
	}

	score, missingPct := 100.0, 0.0
	if total > 0 {
		score = (1 - float64(missing)/float64(total)) * 100
		missingPct = float64(missing) / float64(total) * 100
	}

	return Completeness{
		CompletenessScore:  round2(score),
		MissingCells:       missing,
		TotalCells:         total,
		MissingPercentage:  round2(missingPct),
		ColumnsWithMissing: columnsWithMissing,
		CriticalColumns:    critical,
	}
}

// assessAccuracy counts IQR outliers across numeric columns and flags
// negative values in price/quantity/amount/value columns plus date-named
// columns that hold no parseable timestamps.
func (a *Assessor) assessAccuracy(d *dataset.Dataset) Accuracy {
	outliers := 0
	dataIssues := []string{}

	for _, col := range d.NumericColumns() {
		xs := d.Floats(col)
		if len(xs) == 0 {
			continue
		}

		sort.Float64s(xs)
		q1 := stat.Quantile(0.25, stat.LinInterp, xs, nil)
		q3 := stat.Quantile(0.75, stat.LinInterp, xs, nil)
		iqr := q3 - q1
		lower := q1 - a.cfg.IQRMultiplier*iqr
		upper := q3 + a.cfg.IQRMultiplier*iqr

		for _, x := range xs {
			if x < lower || x > upper {
				outliers++
			}
		}

		if nameContainsAny(col, valueColumnHints) {
			for _, x := range xs {
				if x < 0 {
					dataIssues = append(dataIssues, fmt.Sprintf("Negative values in %s", col))
					break
				}
			}
		}
	}

	typeIssues := []string{}
	for _, col := range d.Columns {
		// Numeric epoch-style columns always convert; only string columns
		// named like timestamps can fail.
		if col.Kind == dataset.KindNumeric || !nameContainsAny(col.Name, dateTimeHints) {
			continue
		}
		values := d.Strings(col.Name)
		if len(values) == 0 {
			continue
		}
		parsed := 0
		for _, v := range values {
			if _, ok := dataset.ParseTime(v); ok {
				parsed++
			}
		}
		if parsed == 0 {
			typeIssues = append(typeIssues, fmt.Sprintf("%s cannot be converted to datetime", col.Name))
		}
	}

	score := 100 - float64(len(dataIssues))*dataIssuePenalty - float64(len(typeIssues))*typeIssuePenalty

	return Accuracy{
		AccuracyScore: round2(math.Max(0, score)),
		OutlierCount:  outliers,
		DataIssues:    dataIssues,
		TypeIssues:    typeIssues,
	}
}

// assessConsistency scores full-row duplicates and identifier integrity.
// Every column whose name contains "id" is treated as an identifier.
func (a *Assessor) assessConsistency(d *dataset.Dataset) Consistency {
	duplicateRows := d.DuplicateRowCount()
	duplicatePct := 0.0
	if d.Rows > 0 {
		duplicatePct = float64(duplicateRows) / float64(d.Rows) * 100
	}

	missingByColumn := d.MissingByColumn()

	issues := []string{}
	for _, col := range d.Columns {
		if !strings.Contains(strings.ToLower(col.Name), "id") {
			continue
		}
		if missingByColumn[col.Name] > 0 {
			issues = append(issues, fmt.Sprintf("NULL values found in ID column: %s", col.Name))
		}
		if d.DuplicateCount(col.Name) > 0 {
			issues = append(issues, fmt.Sprintf("Duplicate IDs found in: %s", col.Name))
		}
	}

	score := math.Max(0, 100-duplicatePct-float64(len(issues))*consistencyIssuePenalty)

	return Consistency{
		ConsistencyScore:    round2(score),
		DuplicateRows:       duplicateRows,
		DuplicatePercentage: round2(duplicatePct),
		ConsistencyIssues:   issues,
	}
}

// assessTimeliness inspects every column whose name contains "date". Each
// column whose most recent value falls inside the recency window adds the
// recency bonus on top of the base score, capped at 100.
func (a *Assessor) assessTimeliness(d *dataset.Dataset) Timeliness {
	info := make(map[string]DateColumnInfo)
	score := timelinessBase
	now := time.Now()

	for _, col := range d.Columns {
		if !strings.Contains(strings.ToLower(col.Name), "date") {
			continue
		}

		times := d.Times(col.Name)
		if len(times) == 0 {
			continue
		}

		oldest, newest := times[0], times[0]
		for _, t := range times[1:] {
			if t.Before(oldest) {
				oldest = t
			}
			if t.After(newest) {
				newest = t
			}
		}

		info[col.Name] = DateColumnInfo{
			DateRangeDays:  int(newest.Sub(oldest).Hours() / 24),
			MostRecentDate: newest.Format(timestampLayout),
			OldestDate:     oldest.Format(timestampLayout),
			ValidDates:     len(times),
			MissingDates:   d.Rows - len(times),
		}

		if now.Sub(newest) < recencyWindowDays*24*time.Hour {
			score = math.Min(100, score+recencyBonus)
		}
	}

	return Timeliness{
		TimelinessScore: round2(score),
		DateColumns:     info,
	}
}

// overallScore blends the four dimension scores with the configured weights.
func (a *Assessor) overallScore(c Completeness, ac Accuracy, co Consistency, t Timeliness) float64 {
	w := a.cfg.Weights
	return round2(c.CompletenessScore*w.Completeness +
		ac.AccuracyScore*w.Accuracy +
		co.ConsistencyScore*w.Consistency +
		t.TimelinessScore*w.Timeliness)
}

func (a *Assessor) summarize(reports []*Report) Summary {
	s := Summary{
		DatasetsAssessed: len(reports),
		QualityGate:      a.cfg.QualityGate,
	}
	if len(reports) == 0 {
		return s
	}

	var completeness, accuracy, consistency, timeliness, overall float64
	for _, r := range reports {
		completeness += r.Completeness.CompletenessScore
		accuracy += r.Accuracy.AccuracyScore
		consistency += r.Consistency.ConsistencyScore
		timeliness += r.Timeliness.TimelinessScore
		overall += r.OverallQualityScore

		switch r.Tier {
		case TierExcellent:
			s.Excellent++
		case TierGood:
			s.Good++
		default:
			s.NeedsImprovement++
		}
	}

	n := float64(len(reports))
	s.AvgCompleteness = round2(completeness / n)
	s.AvgAccuracy = round2(accuracy / n)
	s.AvgConsistency = round2(consistency / n)
	s.AvgTimeliness = round2(timeliness / n)
	s.AvgOverall = round2(overall / n)
	s.Acceptable = s.AvgOverall >= a.cfg.QualityGate

	return s
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func nameContainsAny(name string, hints []string) bool {
	lower := strings.ToLower(name)
	for _, h := range hints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
