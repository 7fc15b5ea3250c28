package config

import "time"

// Application constants shared across the pipeline stages and the web layer.
const (
	// Application Info
	AppName    = "ecompulse"
	AppVersion = "1.2.0"

	// Stage identifiers, in execution order
	StageQuality    = "quality"
	StageExplore    = "explore"
	StageHypotheses = "hypotheses"
	StageVisualize  = "visualize"
	StageCodegen    = "codegen"
	StageReport     = "report"

	// Well-known artifact files written into a run directory
	RunManifestFile        = "run_manifest.json"
	QualityAssessmentFile  = "quality_assessment.json"
	QualitySummaryCSV      = "quality_summary.csv"
	QualitySummaryText     = "quality_summary.txt"
	DataIssuesLog          = "data_issues.log"
	RecommendationsFile    = "quality_improvement_recommendations.md"
	ExploratoryFile        = "exploratory_analysis.json"
	StatisticalSummaryCSV  = "statistical_summary.csv"
	PatternAnalysisFile    = "pattern_analysis.md"
	EDAWorkbookFile        = "eda_workbook.xlsx"
	HypothesesFile         = "research_hypotheses.json"
	HypothesesMarkdown     = "research_hypotheses.md"
	ExperimentalDesignFile = "experimental_design.md"
	VisualizationIndexFile = "visualization_index.json"
	DashboardFile          = "dashboard.html"
	GenerationSummaryFile  = "generation_summary.json"
	FinalReportHTML        = "final_report.html"
	FinalReportMarkdown    = "final_report.md"
	AnalysisIndexFile      = "analysis_index.json"

	// Run directory subfolders
	ChartsDirName    = "charts"
	GeneratedDirName = "generated_code"

	// Dataset files with fixed cross-analysis roles
	DatasetOrders     = "Orders.csv"
	DatasetOrderItems = "Order Items.csv"
	DatasetCustomers  = "Customers.csv"
	DatasetProducts   = "Products.csv"
	DatasetSellers    = "Sellers.csv"
	DatasetReviews    = "Reviews.csv"
	DatasetPayments   = "Order Payments.csv"

	// Operation Timeouts
	DefaultStageTimeout = 10 * time.Minute
	DefaultRunTimeout   = 1 * time.Hour

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// API Endpoints (internal)
const (
	APIBasePath       = "/api"
	RunsEndpoint      = "/api/runs"
	HealthEndpoint    = "/healthz"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws/progress"
)
