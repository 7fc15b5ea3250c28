// Package explore implements the exploratory analysis stage: statistical
// summaries, pattern discovery, correlation analysis, anomaly detection and
// cross-dataset joins.
//
// Results are grouped per dataset and serialized to four artifacts: the
// nested JSON document, a long-form CSV of every computed statistic, a
// Markdown digest and an Excel workbook with one summary sheet per dataset.
package explore
