package hypothesis

import (
	"sort"
	"time"
)

// Business impact ranks. Prioritization orders high before medium before
// low, with hypothesis ID breaking ties.
const (
	ImpactHigh   = "high"
	ImpactMedium = "medium"
	ImpactLow    = "low"
)

// Categories group related hypotheses in the Markdown report.
const (
	CategoryPricing      = "pricing"
	CategoryLogistics    = "logistics"
	CategoryTemporal     = "temporal"
	CategoryDelivery     = "delivery"
	CategoryGeography    = "geography"
	CategoryRetention    = "retention"
	CategoryCatalog      = "catalog"
	CategorySatisfaction = "satisfaction"
	CategoryPayments     = "payments"
)

// Experimental design parameters shared by every validation plan.
const (
	DesignAlpha      = 0.05
	DesignConfidence = 0.95
	DesignPower      = 0.80
)

// Hypothesis is one testable research claim derived from the data. The
// rationale embeds the statistic that triggered the rule.
type Hypothesis struct {
	ID              string   `json:"id"`
	Category        string   `json:"category"`
	Title           string   `json:"title"`
	Hypothesis      string   `json:"hypothesis"`
	Rationale       string   `json:"rationale"`
	TestMethod      string   `json:"test_method"`
	ExpectedOutcome string   `json:"expected_outcome"`
	BusinessImpact  string   `json:"business_impact"`
	Datasets        []string `json:"datasets"`
	ValidationPlan  []string `json:"validation_plan"`
}

// Result is the full output of one generation run.
type Result struct {
	Hypotheses   []Hypothesis   `json:"hypotheses"`
	Categories   map[string]int `json:"categories"`
	DatasetCount int            `json:"dataset_count"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// Hypothesis looks up a generated hypothesis by ID.
func (r *Result) Hypothesis(id string) (Hypothesis, bool) {
	for _, h := range r.Hypotheses {
		if h.ID == id {
			return h, true
		}
	}
	return Hypothesis{}, false
}

// ByCategory groups hypotheses under their category, preserving ID order
// within each group.
func (r *Result) ByCategory() map[string][]Hypothesis {
	grouped := make(map[string][]Hypothesis)
	for _, h := range r.Hypotheses {
		grouped[h.Category] = append(grouped[h.Category], h)
	}
	return grouped
}

// Prioritized returns up to n hypotheses ordered by business impact rank,
// high first, ties broken by ID.
func (r *Result) Prioritized(n int) []Hypothesis {
	ranked := make([]Hypothesis, len(r.Hypotheses))
	copy(ranked, r.Hypotheses)

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := impactRank(ranked[i].BusinessImpact), impactRank(ranked[j].BusinessImpact)
		if ri != rj {
			return ri < rj
		}
		return ranked[i].ID < ranked[j].ID
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func impactRank(impact string) int {
	switch impact {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	default:
		return 2
	}
}

// validationSteps is the plan attached to every hypothesis. Callers get a
// fresh copy so records never share the backing array.
func validationSteps() []string {
	return []string{
		"1. Data preparation and cleaning",
		"2. Descriptive statistics and visualization",
		"3. Statistical testing",
		"4. Effect size calculation",
		"5. Business impact assessment",
	}
}
