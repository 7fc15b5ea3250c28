package visualize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// dashboardSections maps chart categories onto named dashboard sections,
// in display order.
var dashboardSections = []struct {
	Category string
	Title    string
}{
	{CategoryTrends, "Trend Analysis"},
	{CategoryDistributions, "Distribution Analysis"},
	{CategoryGeography, "Geographic Analysis"},
	{CategoryPayments, "Payment Analysis"},
	{CategoryProducts, "Product Analysis"},
}

type dashboardChart struct {
	Title string
	Image template.URL
}

type dashboardSection struct {
	Title  string
	Charts []dashboardChart
}

type dashboardData struct {
	GeneratedAt string
	Metrics     []MetricCard
	Sections    []dashboardSection
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

// RenderDashboard builds the self-contained HTML dashboard. Every chart
// image is inlined as a base64 data URI so the file opens anywhere.
func RenderDashboard(result *Result, chartsDir string) ([]byte, error) {
	if result == nil || len(result.Charts) == 0 {
		return nil, fmt.Errorf("no charts to embed")
	}

	data := dashboardData{
		GeneratedAt: result.GeneratedAt.Format("2006-01-02 15:04:05"),
		Metrics:     result.Metrics,
	}

	for _, section := range dashboardSections {
		charts := result.InCategory(section.Category)
		if len(charts) == 0 {
			continue
		}
		sec := dashboardSection{Title: section.Title}
		for _, chart := range charts {
			img, err := encodeChartImage(filepath.Join(chartsDir, chart.File))
			if err != nil {
				return nil, fmt.Errorf("embed chart %s: %w", chart.File, err)
			}
			sec.Charts = append(sec.Charts, dashboardChart{
				Title: chart.Title,
				Image: img,
			})
		}
		data.Sections = append(data.Sections, sec)
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeChartImage reads a rendered PNG and wraps it in a data URI.
// html/template rewrites data: URLs unless they are typed template.URL.
func encodeChartImage(path string) (template.URL, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read chart image: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)), nil
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>E-Commerce Analysis Dashboard</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body {
    font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
    background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    color: #333;
    padding: 20px;
}
.container { max-width: 1400px; margin: 0 auto; }
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
.metrics {
    display: grid;
    grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
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
.card .value { font-size: 1.8em; font-weight: bold; color: #2E86AB; }
.card .label { color: #666; margin-top: 5px; font-size: 0.9em; }
.charts {
    background: #fff;
    border-radius: 10px;
    padding: 25px;
    margin-bottom: 20px;
    box-shadow: 0 4px 6px rgba(0,0,0,0.1);
}
.charts h2 {
    color: #2E86AB;
    border-bottom: 2px solid #2E86AB;
    padding-bottom: 10px;
    margin-bottom: 20px;
}
.grid {
    display: grid;
    grid-template-columns: repeat(auto-fit, minmax(450px, 1fr));
    gap: 20px;
}
figure { text-align: center; }
figure img {
    max-width: 100%;
    height: auto;
    border: 1px solid #e0e0e0;
    border-radius: 6px;
}
figcaption { color: #555; margin-top: 8px; font-size: 0.95em; }
</style>
</head>
<body>
<div class="container">
    <header>
        <h1>E-Commerce Analysis Dashboard</h1>
        <p>Generated {{.GeneratedAt}}</p>
    </header>
    <section class="metrics">
{{- range .Metrics}}
        <div class="card">
            <div class="value">{{.Value}}</div>
            <div class="label">{{.Label}}</div>
        </div>
{{- end}}
    </section>
{{- range .Sections}}
    <section class="charts">
        <h2>{{.Title}}</h2>
        <div class="grid">
{{- range .Charts}}
            <figure>
                <img src="{{.Image}}" alt="{{.Title}}">
                <figcaption>{{.Title}}</figcaption>
            </figure>
{{- end}}
        </div>
    </section>
{{- end}}
</div>
</body>
</html>
`
