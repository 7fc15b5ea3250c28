package report

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"

	"ecompulse/internal/config"
	"ecompulse/internal/explore"
	"ecompulse/internal/hypothesis"
	"ecompulse/internal/quality"
	"ecompulse/internal/visualize"
)

const (
	timestampLayout     = "2006-01-02 15:04:05"
	topCorrelationCount = 10
	topOutlierCount     = 10
	topHypothesisCount  = 5
)

// gallerySections fixes the order and headings of the visualization
// gallery, matching the dashboard layout.
var gallerySections = []struct {
	Category string
	Title    string
}{
	{visualize.CategoryTrends, "Trend Analysis"},
	{visualize.CategoryDistributions, "Distribution Analysis"},
	{visualize.CategoryGeography, "Geographic Analysis"},
	{visualize.CategoryPayments, "Payment Analysis"},
	{visualize.CategoryProducts, "Product Analysis"},
}

// methodologyStep describes one pipeline stage for the methodology section.
type methodologyStep struct {
	Stage       string
	Description string
}

var methodologySteps = []methodologyStep{
	{"Data Quality Assessment", "Scores every dataset on completeness, accuracy, consistency and timeliness, then applies the quality gate."},
	{"Exploratory Analysis", "Summarizes distributions, correlations, temporal patterns and anomalies per dataset and across joined datasets."},
	{"Hypothesis Generation", "Derives testable research hypotheses with validation plans from the statistical triggers found during exploration."},
	{"Visualization", "Renders the chart gallery and the self-contained analysis dashboard."},
	{"Code Generation", "Emits a standalone analysis module reproducing the preprocessing and quality checks."},
	{"Report Generation", "Assembles this executive report and the run's artifact index."},
}

// reportView is the render model shared by the HTML and Markdown writers.
// Nil section pointers mean the backing artifact was unavailable.
type reportView struct {
	Title           string
	GeneratedAt     string
	Generator       string
	QualityHeadline string
	TotalRows       string
	Summary         ExecutiveSummary
	Metrics         []visualize.MetricCard
	Notes           []string
	Quality         *qualityView
	Statistics      *statisticsView
	Hypotheses      *hypothesesView
	Gallery         *galleryView
	Methodology     []methodologyStep
}

type qualityView struct {
	Rows       []qualityRow
	AvgOverall string
	Gate       string
	Verdict    string
	Acceptable bool
}

type qualityRow struct {
	Dataset string
	Rows    string
	Columns int
	Score   string
	Tier    string
}

type statisticsView struct {
	Correlations  []correlationRow
	Outliers      []outlierRow
	Trends        []trendRow
	Relationships []string
}

type correlationRow struct {
	Dataset  string
	Pair     string
	R        string
	Strength string
}

type outlierRow struct {
	Dataset string
	Column  string
	Count   string
	Share   string
	Bounds  string
}

type trendRow struct {
	Dataset string
	Column  string
	Growth  string
}

type hypothesesView struct {
	Total      int
	Categories []categoryCount
	Top        []hypothesisRow
}

type categoryCount struct {
	Category string
	Count    int
}

type hypothesisRow struct {
	ID     string
	Title  string
	Impact string
	Method string
}

type galleryView struct {
	Dashboard string
	Sections  []gallerySection
}

type gallerySection struct {
	Title  string
	Charts []galleryChart
}

type galleryChart struct {
	Title string
	Href  string
}

func buildView(doc *Document) reportView {
	view := reportView{
		Title:           "E-Commerce Data Analysis Report",
		GeneratedAt:     doc.GeneratedAt.Format(timestampLayout),
		Generator:       fmt.Sprintf("%s v%s", config.AppName, config.AppVersion),
		QualityHeadline: "n/a",
		TotalRows:       formatCount(doc.Summary.TotalRows),
		Summary:         doc.Summary,
		Notes:           doc.Inputs.Notes,
		Methodology:     methodologySteps,
	}

	if q := doc.Inputs.Quality; q != nil {
		view.QualityHeadline = fmt.Sprintf("%.1f / 100", q.Summary.AvgOverall)
		view.Quality = buildQualityView(q)
	}
	if e := doc.Inputs.Explore; e != nil {
		view.Statistics = buildStatisticsView(e)
	}
	if h := doc.Inputs.Hypotheses; h != nil && len(h.Hypotheses) > 0 {
		view.Hypotheses = buildHypothesesView(h)
	}
	if c := doc.Inputs.Charts; c != nil && len(c.Charts) > 0 {
		view.Metrics = c.Metrics
		view.Gallery = buildGalleryView(c)
	}

	return view
}

// buildQualityView orders datasets by score descending, matching the
// quality summary table.
func buildQualityView(art *QualityArtifact) *qualityView {
	rows := make([]qualityRow, 0, len(art.Datasets))
	for _, name := range sortedReportNames(art.Datasets) {
		r := art.Datasets[name]
		rows = append(rows, qualityRow{
			Dataset: name,
			Rows:    formatCount(r.Shape.Rows),
			Columns: r.Shape.Columns,
			Score:   fmt.Sprintf("%.1f", r.OverallQualityScore),
			Tier:    titleWords(r.Tier),
		})
	}

	verdict := "NEEDS ATTENTION"
	if art.Summary.Acceptable {
		verdict = "PASS"
	}

	return &qualityView{
		Rows:       rows,
		AvgOverall: fmt.Sprintf("%.1f", art.Summary.AvgOverall),
		Gate:       fmt.Sprintf("%.0f", art.Summary.QualityGate),
		Verdict:    verdict,
		Acceptable: art.Summary.Acceptable,
	}
}

func buildStatisticsView(art *ExploreArtifact) *statisticsView {
	view := &statisticsView{}
	names := sortedAnalysisNames(art.Datasets)

	type scoredPair struct {
		dataset string
		c       explore.Correlation
	}
	var pairs []scoredPair
	for _, name := range names {
		d := art.Datasets[name]
		for _, c := range d.Correlations.Strong {
			pairs = append(pairs, scoredPair{name, c})
		}
		for _, c := range d.Correlations.Moderate {
			pairs = append(pairs, scoredPair{name, c})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].c.Correlation) > math.Abs(pairs[j].c.Correlation)
	})
	if len(pairs) > topCorrelationCount {
		pairs = pairs[:topCorrelationCount]
	}
	for _, p := range pairs {
		view.Correlations = append(view.Correlations, correlationRow{
			Dataset:  p.dataset,
			Pair:     fmt.Sprintf("%s vs %s", p.c.Variable1, p.c.Variable2),
			R:        fmt.Sprintf("%.3f", p.c.Correlation),
			Strength: titleWords(p.c.Strength),
		})
	}

	type flaggedColumn struct {
		dataset string
		o       explore.OutlierReport
	}
	var flagged []flaggedColumn
	for _, name := range names {
		for _, o := range art.Datasets[name].Anomalies.StatisticalOutliers {
			flagged = append(flagged, flaggedColumn{name, o})
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].o.OutlierPercentage > flagged[j].o.OutlierPercentage
	})
	if len(flagged) > topOutlierCount {
		flagged = flagged[:topOutlierCount]
	}
	for _, f := range flagged {
		view.Outliers = append(view.Outliers, outlierRow{
			Dataset: f.dataset,
			Column:  f.o.Column,
			Count:   formatCount(f.o.OutlierCount),
			Share:   fmt.Sprintf("%.1f%%", f.o.OutlierPercentage),
			Bounds:  fmt.Sprintf("[%.2f, %.2f]", f.o.LowerBound, f.o.UpperBound),
		})
	}

	for _, name := range names {
		for _, t := range art.Datasets[name].Patterns.Trends {
			view.Trends = append(view.Trends, trendRow{
				Dataset: name,
				Column:  t.Column,
				Growth:  fmt.Sprintf("%+.1f%% year over year", t.GrowthRate),
			})
		}
	}

	for _, r := range art.Cross.Relationships {
		view.Relationships = append(view.Relationships, fmt.Sprintf(
			"%s joined on %s: %s records",
			strings.Join(r.Datasets, " + "), r.MergeKey, formatCount(r.MergedRecords)))
	}

	return view
}

func buildHypothesesView(art *HypothesesArtifact) *hypothesesView {
	view := &hypothesesView{Total: len(art.Hypotheses)}

	categories := make([]string, 0, len(art.Categories))
	for category := range art.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		view.Categories = append(view.Categories, categoryCount{
			Category: titleWords(category),
			Count:    art.Categories[category],
		})
	}

	ranked := hypothesis.Result{Hypotheses: art.Hypotheses}
	for _, h := range ranked.Prioritized(topHypothesisCount) {
		view.Top = append(view.Top, hypothesisRow{
			ID:     h.ID,
			Title:  h.Title,
			Impact: titleWords(h.BusinessImpact),
			Method: h.TestMethod,
		})
	}

	return view
}

func buildGalleryView(art *ChartsArtifact) *galleryView {
	view := &galleryView{Dashboard: config.DashboardFile}
	for _, section := range gallerySections {
		var charts []galleryChart
		for _, c := range art.Charts {
			if c.Category != section.Category {
				continue
			}
			charts = append(charts, galleryChart{
				Title: c.Title,
				Href:  path.Join(config.ChartsDirName, c.File),
			})
		}
		if len(charts) == 0 {
			continue
		}
		view.Sections = append(view.Sections, gallerySection{
			Title:  section.Title,
			Charts: charts,
		})
	}
	return view
}

// sortedReportNames orders datasets by overall score descending, name
// breaking ties.
func sortedReportNames(reports map[string]*quality.Report) []string {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := reports[names[i]].OverallQualityScore, reports[names[j]].OverallQualityScore
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})
	return names
}

// titleWords renders a snake_case label for display.
func titleWords(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// formatCount renders a non-negative integer with thousands separators.
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
