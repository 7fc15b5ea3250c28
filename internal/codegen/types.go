package codegen

import "time"

// Generated file names inside the generated_code directory.
const (
	FilePreprocessing = "preprocessing.go"
	FileQualityChecks = "quality_checks.go"
	FileAnalysis      = "analysis_functions.go"
	FilePipeline      = "pipeline.go"
	FileTests         = "analysis_test.go"
	FileReadme        = "README.md"
)

// GeneratedModule is the module path the generated README tells the
// reader to init before building the emitted code.
const GeneratedModule = "ecomanalysis"

// DatasetInfo is the per-dataset slice of the template data.
type DatasetInfo struct {
	Name        string
	Ident       string
	RowCount    int
	Numeric     []string
	Categorical []string
	Temporal    []string
}

// TemplateData is everything the templates can interpolate.
type TemplateData struct {
	Generator   string
	Module      string
	GeneratedAt string
	Datasets    []DatasetInfo
}

// GeneratedFile records one emitted file and its size.
type GeneratedFile struct {
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}

// Result is the outcome of one code generation pass.
type Result struct {
	Files       []GeneratedFile
	Module      string
	GeneratedAt time.Time
}

// TotalBytes sums the sizes of every emitted file.
func (r *Result) TotalBytes() int {
	total := 0
	for _, f := range r.Files {
		total += f.Bytes
	}
	return total
}
