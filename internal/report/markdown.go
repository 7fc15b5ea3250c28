package report

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders the Markdown mirror of the HTML report, same
// sections in the same order.
func RenderMarkdown(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("no report to render")
	}
	view := buildView(doc)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", view.Title)
	fmt.Fprintf(&b, "Generated: %s\n\n", view.GeneratedAt)
	fmt.Fprintf(&b, "Overall Data Quality: **%s**\n\n", view.QualityHeadline)

	if len(view.Notes) > 0 {
		b.WriteString("> Notes:\n")
		for _, note := range view.Notes {
			fmt.Fprintf(&b, "> - %s\n", note)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "- Analysis date: %s\n", view.Summary.AnalysisDate)
	fmt.Fprintf(&b, "- Datasets analyzed: %d\n", view.Summary.DatasetsAnalyzed)
	fmt.Fprintf(&b, "- Total rows: %s\n\n", view.TotalRows)

	if len(view.Summary.KeyFindings) > 0 {
		b.WriteString("### Key Findings\n\n")
		for _, f := range view.Summary.KeyFindings {
			fmt.Fprintf(&b, "- **%s**: %s. %s\n", f.Metric, f.Value, f.Insight)
		}
		b.WriteString("\n")
	}

	if len(view.Metrics) > 0 {
		b.WriteString("### Headline Metrics\n\n")
		for _, m := range view.Metrics {
			fmt.Fprintf(&b, "- %s: %s\n", m.Label, m.Value)
		}
		b.WriteString("\n")
	}

	if q := view.Quality; q != nil {
		b.WriteString("## Data Quality\n\n")
		fmt.Fprintf(&b, "Average overall score %s against a gate of %s: **%s**\n\n", q.AvgOverall, q.Gate, q.Verdict)
		b.WriteString("| Dataset | Rows | Columns | Score | Tier |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, row := range q.Rows {
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n", row.Dataset, row.Rows, row.Columns, row.Score, row.Tier)
		}
		b.WriteString("\n")
	}

	if s := view.Statistics; s != nil {
		b.WriteString("## Key Statistics\n\n")
		if len(s.Correlations) > 0 {
			b.WriteString("### Top Correlations\n\n")
			b.WriteString("| Dataset | Pair | r | Strength |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, row := range s.Correlations {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Dataset, row.Pair, row.R, row.Strength)
			}
			b.WriteString("\n")
		}
		if len(s.Outliers) > 0 {
			b.WriteString("### Outlier Columns\n\n")
			b.WriteString("| Dataset | Column | Outliers | Share | IQR Fence |\n")
			b.WriteString("|---|---|---|---|---|\n")
			for _, row := range s.Outliers {
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", row.Dataset, row.Column, row.Count, row.Share, row.Bounds)
			}
			b.WriteString("\n")
		}
		if len(s.Trends) > 0 {
			b.WriteString("### Trends\n\n")
			for _, row := range s.Trends {
				fmt.Fprintf(&b, "- %s %s: %s\n", row.Dataset, row.Column, row.Growth)
			}
			b.WriteString("\n")
		}
		if len(s.Relationships) > 0 {
			b.WriteString("### Cross-Dataset Relationships\n\n")
			for _, rel := range s.Relationships {
				fmt.Fprintf(&b, "- %s\n", rel)
			}
			b.WriteString("\n")
		}
	}

	if h := view.Hypotheses; h != nil {
		b.WriteString("## Research Hypotheses\n\n")
		fmt.Fprintf(&b, "%d testable hypotheses generated.\n\n", h.Total)
		for _, c := range h.Categories {
			fmt.Fprintf(&b, "- %s: %d\n", c.Category, c.Count)
		}
		b.WriteString("\n### Priority Experiments\n\n")
		b.WriteString("| ID | Title | Impact | Test Method |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, row := range h.Top {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.ID, row.Title, row.Impact, row.Method)
		}
		b.WriteString("\n")
	}

	if g := view.Gallery; g != nil {
		b.WriteString("## Visualizations\n\n")
		fmt.Fprintf(&b, "Self-contained dashboard: [%s](%s)\n\n", g.Dashboard, g.Dashboard)
		for _, section := range g.Sections {
			fmt.Fprintf(&b, "### %s\n\n", section.Title)
			for _, chart := range section.Charts {
				fmt.Fprintf(&b, "- [%s](%s)\n", chart.Title, chart.Href)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Recommendations\n\n")
	for i, rec := range view.Summary.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	b.WriteString("\n## Methodology\n\n")
	for i, step := range view.Methodology {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, step.Stage, step.Description)
	}

	fmt.Fprintf(&b, "\n---\n\n%s\n", view.Generator)

	return []byte(b.String()), nil
}
