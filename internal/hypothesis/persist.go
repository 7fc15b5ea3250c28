package hypothesis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ecompulse/internal/config"
	"ecompulse/internal/exporter"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	priorityCount   = 5
)

// SaveAll writes the three hypothesis artifacts: the JSON list, the
// per-category Markdown report and the experimental design document.
func SaveAll(result *Result, paths config.RunPaths) error {
	if err := SaveJSON(result, paths.Hypotheses); err != nil {
		return fmt.Errorf("save hypotheses JSON: %w", err)
	}
	if err := SaveMarkdown(result, paths.HypothesesMD); err != nil {
		return fmt.Errorf("save hypotheses markdown: %w", err)
	}
	if err := SaveExperimentalDesign(result, paths.ExperimentalDesign); err != nil {
		return fmt.Errorf("save experimental design: %w", err)
	}
	return nil
}

// SaveJSON writes the hypothesis list and per-category counts under the
// standard metadata envelope.
func SaveJSON(result *Result, outputPath string) error {
	if result == nil || len(result.Hypotheses) == 0 {
		return fmt.Errorf("no hypotheses to save")
	}

	writer := exporter.NewJSONWriter()
	meta := exporter.NewMeta("hypothesis-generator", config.AppVersion, len(result.Hypotheses))
	return writer.WriteWithMeta(outputPath, meta, map[string]interface{}{
		"hypotheses": result.Hypotheses,
		"categories": result.Categories,
	})
}

// SaveMarkdown writes the research hypotheses report with one section per
// category, categories alphabetical and hypotheses in ID order inside each.
func SaveMarkdown(result *Result, outputPath string) error {
	if result == nil || len(result.Hypotheses) == 0 {
		return fmt.Errorf("no hypotheses to save")
	}

	var b strings.Builder
	b.WriteString("# Research Hypotheses Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", result.GeneratedAt.Format(timestampLayout))

	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This report presents %d testable research hypotheses generated from exploratory analysis of %d e-commerce datasets.\n\n",
		len(result.Hypotheses), result.DatasetCount)

	b.WriteString("## Hypothesis Categories\n\n")
	for _, category := range sortedCategories(result) {
		fmt.Fprintf(&b, "- **%s**: %d hypotheses\n", category, result.Categories[category])
	}
	b.WriteString("\n---\n\n")

	grouped := result.ByCategory()
	for _, category := range sortedCategories(result) {
		fmt.Fprintf(&b, "## %s\n\n", category)

		for _, hyp := range grouped[category] {
			fmt.Fprintf(&b, "### %s: %s\n\n", hyp.ID, hyp.Title)
			fmt.Fprintf(&b, "**Hypothesis**: %s\n\n", hyp.Hypothesis)
			fmt.Fprintf(&b, "**Rationale**: %s\n\n", hyp.Rationale)
			fmt.Fprintf(&b, "**Test Method**: %s\n\n", hyp.TestMethod)
			fmt.Fprintf(&b, "**Expected Outcome**: %s\n\n", hyp.ExpectedOutcome)
			fmt.Fprintf(&b, "**Business Impact**: %s\n\n", hyp.BusinessImpact)
			fmt.Fprintf(&b, "**Data Sources**: %s\n\n", strings.Join(hyp.Datasets, ", "))

			b.WriteString("#### Validation Plan\n\n")
			for _, step := range hyp.ValidationPlan {
				fmt.Fprintf(&b, "%s\n", step)
			}
			b.WriteString("\n---\n\n")
		}
	}

	return writeMarkdown(outputPath, b.String())
}

// SaveExperimentalDesign writes the statistical framework and the top
// priority experiments with sample size guidance.
func SaveExperimentalDesign(result *Result, outputPath string) error {
	if result == nil || len(result.Hypotheses) == 0 {
		return fmt.Errorf("no hypotheses to save")
	}

	var b strings.Builder
	b.WriteString("# Experimental Design Document\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", result.GeneratedAt.Format(timestampLayout))

	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This document outlines the experimental design for validating %d research hypotheses.\n\n",
		len(result.Hypotheses))

	b.WriteString("## Statistical Framework\n\n")
	fmt.Fprintf(&b, "- Alpha: %.2f\n", DesignAlpha)
	fmt.Fprintf(&b, "- Confidence Level: %.0f%%\n", DesignConfidence*100)
	fmt.Fprintf(&b, "- Power: %.2f\n\n", DesignPower)

	b.WriteString("## Test Selection Criteria\n\n")
	b.WriteString("- **Correlation tests**: Pearson (normal), Spearman (non-normal)\n")
	b.WriteString("- **Group comparisons**: t-test (2 groups), ANOVA (3+ groups)\n")
	b.WriteString("- **Categorical data**: Chi-square test\n")
	b.WriteString("- **Distribution analysis**: Shapiro-Wilk test\n\n")

	b.WriteString("## Priority Experiments\n\n")
	for i, hyp := range result.Prioritized(priorityCount) {
		fmt.Fprintf(&b, "### Priority %d: %s\n\n", i+1, hyp.ID)
		fmt.Fprintf(&b, "**Title**: %s\n\n", hyp.Title)
		fmt.Fprintf(&b, "**Hypothesis**: %s\n\n", hyp.Hypothesis)
		fmt.Fprintf(&b, "**Test**: %s\n\n", hyp.TestMethod)
		fmt.Fprintf(&b, "**Business Impact**: %s\n\n", hyp.BusinessImpact)
		fmt.Fprintf(&b, "**Sample Size**: %s\n\n", sampleSizeGuidance(hyp.TestMethod))
		b.WriteString("**Data Requirements**:\n")
		for _, ds := range hyp.Datasets {
			fmt.Fprintf(&b, "- %s\n", ds)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Validation Timeline\n\n")
	b.WriteString("1. **Week 1**: Data preparation and cleaning\n")
	b.WriteString("2. **Week 2**: Descriptive analysis and visualization\n")
	b.WriteString("3. **Week 3**: Statistical testing\n")
	b.WriteString("4. **Week 4**: Results interpretation and reporting\n")

	return writeMarkdown(outputPath, b.String())
}

// sampleSizeGuidance maps a test method onto the Cohen power-table minimum
// for a medium effect at the design alpha and power.
func sampleSizeGuidance(testMethod string) string {
	method := strings.ToLower(testMethod)
	switch {
	case strings.Contains(method, "correlation"):
		return "At least 85 paired observations to detect r = 0.3"
	case strings.Contains(method, "anova"), strings.Contains(method, "t-test"):
		return "At least 64 observations per group to detect d = 0.5"
	case strings.Contains(method, "chi-square"):
		return "At least 88 observations to detect w = 0.3"
	default:
		return "At least 100 observations for stable descriptive estimates"
	}
}

func sortedCategories(result *Result) []string {
	categories := make([]string, 0, len(result.Categories))
	for category := range result.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func writeMarkdown(outputPath, content string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(outputPath), err)
	}
	return nil
}
