package report

import (
	"bytes"
	"fmt"
	"html/template"
)

var reportTmpl = template.Must(template.New("report").Parse(reportHTML))

// RenderHTML renders the standalone HTML report. Sections backed by missing
// artifacts are left out; the notes callout says why.
func RenderHTML(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("no report to render")
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, buildView(doc)); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    color: #333;
    padding: 20px;
}
.container { max-width: 1200px; margin: 0 auto; }
header {
    background: #fff;
    border-radius: 10px;
    padding: 30px;
    margin-bottom: 20px;
    text-align: center;
    box-shadow: 0 4px 6px rgba(0,0,0,0.1);
}
header h1 { color: #2E86AB; font-size: 2em; }
header p { color: #666; margin-top: 8px; }
.headline { font-size: 1.2em; }
.headline strong { color: #2E86AB; }
.notes {
    background: #fff8e1;
    border-left: 4px solid #F18F01;
    border-radius: 6px;
    padding: 15px 20px;
    margin-bottom: 20px;
}
.notes li { margin-left: 20px; color: #7a5c00; }
.metrics {
    display: grid;
    grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
    gap: 15px;
    margin-bottom: 20px;
}
.card {
    background: #fff;
    border-radius: 10px;
    padding: 20px;
    text-align: center;
    box-shadow: 0 4px 6px rgba(0,0,0,0.1);
}
.card .value { font-size: 1.6em; font-weight: bold; color: #2E86AB; }
.card .label { color: #666; margin-top: 5px; font-size: 0.9em; }
section.block {
    background: #fff;
    border-radius: 10px;
    padding: 25px;
    margin-bottom: 20px;
    box-shadow: 0 4px 6px rgba(0,0,0,0.1);
}
section.block h2 {
    color: #2E86AB;
    border-bottom: 2px solid #2E86AB;
    padding-bottom: 10px;
    margin-bottom: 20px;
}
section.block h3 { color: #444; margin: 18px 0 10px; }
table { width: 100%; border-collapse: collapse; margin-top: 10px; }
th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #e0e0e0; }
th { background: #f5f7fa; color: #2E86AB; }
.finding {
    border-left: 4px solid #2E86AB;
    background: #f5f7fa;
    border-radius: 6px;
    padding: 12px 16px;
    margin-bottom: 10px;
}
.finding .metric { font-weight: bold; color: #2E86AB; }
.finding .insight { color: #555; font-size: 0.95em; margin-top: 4px; }
.badge {
    display: inline-block;
    padding: 6px 14px;
    border-radius: 16px;
    color: #fff;
    font-weight: bold;
}
.badge.pass { background: #6A994E; }
.badge.fail { background: #C73E1D; }
.chip {
    display: inline-block;
    background: #f5f7fa;
    color: #2E86AB;
    border-radius: 14px;
    padding: 4px 12px;
    margin: 2px 4px 2px 0;
    font-size: 0.9em;
}
.links li { margin: 6px 0 6px 20px; }
.links a { color: #2E86AB; text-decoration: none; }
.links a:hover { text-decoration: underline; }
ol.plain li { margin: 8px 0 8px 20px; }
footer { text-align: center; color: #eee; padding: 10px; font-size: 0.9em; }
</style>
</head>
<body>
<div class="container">
    <header>
        <h1>{{.Title}}</h1>
        <p>Generated {{.GeneratedAt}}</p>
        <p class="headline">Overall Data Quality: <strong>{{.QualityHeadline}}</strong></p>
    </header>
{{- if .Notes}}
    <div class="notes">
        <ul>
{{- range .Notes}}
            <li>{{.}}</li>
{{- end}}
        </ul>
    </div>
{{- end}}
{{- if .Metrics}}
    <section class="metrics">
{{- range .Metrics}}
        <div class="card">
            <div class="value">{{.Value}}</div>
            <div class="label">{{.Label}}</div>
        </div>
{{- end}}
    </section>
{{- end}}
    <section class="block">
        <h2>Executive Summary</h2>
        <table>
            <tr><th>Analysis Date</th><td>{{.Summary.AnalysisDate}}</td></tr>
            <tr><th>Datasets Analyzed</th><td>{{.Summary.DatasetsAnalyzed}}</td></tr>
            <tr><th>Total Rows</th><td>{{.TotalRows}}</td></tr>
        </table>
{{- if .Summary.KeyFindings}}
        <h3>Key Findings</h3>
{{- range .Summary.KeyFindings}}
        <div class="finding">
            <div class="metric">{{.Metric}}: {{.Value}}</div>
            <div class="insight">{{.Insight}}</div>
        </div>
{{- end}}
{{- end}}
    </section>
{{- with .Quality}}
    <section class="block">
        <h2>Data Quality</h2>
        <p>Average overall score <strong>{{.AvgOverall}}</strong> against a gate of {{.Gate}}:
            <span class="badge {{if .Acceptable}}pass{{else}}fail{{end}}">{{.Verdict}}</span></p>
        <table>
            <tr><th>Dataset</th><th>Rows</th><th>Columns</th><th>Score</th><th>Tier</th></tr>
{{- range .Rows}}
            <tr><td>{{.Dataset}}</td><td>{{.Rows}}</td><td>{{.Columns}}</td><td>{{.Score}}</td><td>{{.Tier}}</td></tr>
{{- end}}
        </table>
    </section>
{{- end}}
{{- with .Statistics}}
    <section class="block">
        <h2>Key Statistics</h2>
{{- if .Correlations}}
        <h3>Top Correlations</h3>
        <table>
            <tr><th>Dataset</th><th>Pair</th><th>r</th><th>Strength</th></tr>
{{- range .Correlations}}
            <tr><td>{{.Dataset}}</td><td>{{.Pair}}</td><td>{{.R}}</td><td>{{.Strength}}</td></tr>
{{- end}}
        </table>
{{- end}}
{{- if .Outliers}}
        <h3>Outlier Columns</h3>
        <table>
            <tr><th>Dataset</th><th>Column</th><th>Outliers</th><th>Share</th><th>IQR Fence</th></tr>
{{- range .Outliers}}
            <tr><td>{{.Dataset}}</td><td>{{.Column}}</td><td>{{.Count}}</td><td>{{.Share}}</td><td>{{.Bounds}}</td></tr>
{{- end}}
        </table>
{{- end}}
{{- if .Trends}}
        <h3>Trends</h3>
        <ul class="links">
{{- range .Trends}}
            <li>{{.Dataset}} {{.Column}}: {{.Growth}}</li>
{{- end}}
        </ul>
{{- end}}
{{- if .Relationships}}
        <h3>Cross-Dataset Relationships</h3>
        <ul class="links">
{{- range .Relationships}}
            <li>{{.}}</li>
{{- end}}
        </ul>
{{- end}}
    </section>
{{- end}}
{{- with .Hypotheses}}
    <section class="block">
        <h2>Research Hypotheses</h2>
        <p><strong>{{.Total}}</strong> testable hypotheses generated.</p>
        <p>
{{- range .Categories}}
            <span class="chip">{{.Category}} ({{.Count}})</span>
{{- end}}
        </p>
        <h3>Priority Experiments</h3>
        <table>
            <tr><th>ID</th><th>Title</th><th>Impact</th><th>Test Method</th></tr>
{{- range .Top}}
            <tr><td>{{.ID}}</td><td>{{.Title}}</td><td>{{.Impact}}</td><td>{{.Method}}</td></tr>
{{- end}}
        </table>
    </section>
{{- end}}
{{- with .Gallery}}
    <section class="block">
        <h2>Visualizations</h2>
        <p>Self-contained dashboard: <a class="links" href="{{.Dashboard}}">{{.Dashboard}}</a></p>
{{- range .Sections}}
        <h3>{{.Title}}</h3>
        <ul class="links">
{{- range .Charts}}
            <li><a href="{{.Href}}">{{.Title}}</a></li>
{{- end}}
        </ul>
{{- end}}
    </section>
{{- end}}
    <section class="block">
        <h2>Recommendations</h2>
        <ol class="plain">
{{- range .Summary.Recommendations}}
            <li>{{.}}</li>
{{- end}}
        </ol>
    </section>
    <section class="block">
        <h2>Methodology</h2>
        <ol class="plain">
{{- range .Methodology}}
            <li><strong>{{.Stage}}</strong>: {{.Description}}</li>
{{- end}}
        </ol>
    </section>
    <footer>{{.Generator}}</footer>
</div>
</body>
</html>
`
