package codegen

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"ecompulse/internal/config"
	"ecompulse/internal/dataset"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("codegen").Funcs(template.FuncMap{
	"quoteList": quoteList,
	"commaList": commaList,
}).ParseFS(templateFS, "templates/*.tmpl"))

// outputs maps each embedded template to the file it emits, in
// generation order.
var outputs = []struct {
	Template string
	File     string
}{
	{"preprocessing.go.tmpl", FilePreprocessing},
	{"quality_checks.go.tmpl", FileQualityChecks},
	{"analysis_functions.go.tmpl", FileAnalysis},
	{"pipeline.go.tmpl", FilePipeline},
	{"analysis_test.go.tmpl", FileTests},
	{"README.md.tmpl", FileReadme},
}

// Generator renders the analysis boilerplate for a catalog.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a code generator. A nil logger falls back to the
// default.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Generate renders every template against the catalog and writes the
// emitted files into outDir.
func (g *Generator) Generate(ctx context.Context, catalog *dataset.Catalog, outDir string) (*Result, error) {
	start := time.Now()

	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("no datasets to generate code for")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result := &Result{
		Module:      GeneratedModule,
		GeneratedAt: time.Now(),
	}
	data := buildTemplateData(catalog, result.GeneratedAt)

	g.logger.InfoContext(ctx, "starting code generation",
		"datasets", len(data.Datasets),
		"output_dir", outDir,
	)

	for _, out := range outputs {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("code generation cancelled: %w", ctx.Err())
		default:
		}

		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, out.Template, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", out.Template, err)
		}
		path := filepath.Join(outDir, out.File)
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("write %s: %w", out.File, err)
		}

		result.Files = append(result.Files, GeneratedFile{
			File:  out.File,
			Bytes: buf.Len(),
		})
		g.logger.InfoContext(ctx, "file generated",
			"file", out.File,
			"bytes", buf.Len(),
		)
	}

	g.logger.InfoContext(ctx, "code generation completed",
		"files", len(result.Files),
		"total_bytes", result.TotalBytes(),
		"duration", time.Since(start),
	)

	return result, nil
}

func buildTemplateData(catalog *dataset.Catalog, generatedAt time.Time) TemplateData {
	data := TemplateData{
		Generator:   config.AppName,
		Module:      GeneratedModule,
		GeneratedAt: generatedAt.Format("2006-01-02 15:04:05"),
	}
	for _, name := range catalog.Names() {
		ds, ok := catalog.Get(name)
		if !ok {
			continue
		}
		data.Datasets = append(data.Datasets, DatasetInfo{
			Name:        name,
			Ident:       exportedIdent(name),
			RowCount:    ds.Rows,
			Numeric:     ds.NumericColumns(),
			Categorical: ds.CategoricalColumns(),
			Temporal:    ds.TemporalColumns(),
		})
	}
	return data
}

// exportedIdent turns a dataset file name into an exported Go
// identifier: "Order Items.csv" becomes "OrderItems".
func exportedIdent(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.FieldsFunc(base, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	ident := b.String()
	if ident == "" {
		return "Dataset"
	}
	if !unicode.IsLetter(rune(ident[0])) {
		ident = "Dataset" + ident
	}
	return ident
}

// quoteList renders a string slice as comma-separated Go string literals.
func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

// commaList joins values for prose, with "none" for an empty list.
func commaList(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
