// Package tier holds the static engagement catalog: which analysis
// modules each sprint tier exposes, in what order, and at what price.
// Everything here is pure lookup, no I/O.
package tier

const (
	Discovery   = "discovery"
	Feasibility = "feasibility"
	Validation  = "validation"
)

// Module sections, used for grouping in the dashboard.
const (
	SectionSetup      = "Setup"
	SectionDiscovery  = "Discovery"
	SectionValidation = "Validation"
	SectionStrategic  = "Strategic"
	SectionDecision   = "Decision"
)

type ModuleDescriptor struct {
	Key          string
	Title        string
	Section      string
	RequiredTier string
	// Locked is filled by ModulesFor: visible but disabled at the
	// sprint's current tier.
	Locked bool
}

// catalog is ordered; the dashboard renders it top to bottom.
var catalog = []ModuleDescriptor{
	{Key: "intake", Title: "Business Intake", Section: SectionSetup, RequiredTier: Discovery},
	{Key: "market_sizing", Title: "Market Sizing", Section: SectionDiscovery, RequiredTier: Discovery},
	{Key: "risk_assessment", Title: "Risk Assessment", Section: SectionDiscovery, RequiredTier: Discovery},
	{Key: "assumption_mapping", Title: "Assumption Mapping", Section: SectionDiscovery, RequiredTier: Discovery},
	{Key: "competitor_scan", Title: "Competitor Scan", Section: SectionDiscovery, RequiredTier: Discovery},
	{Key: "assumption_playbook", Title: "Assumption Playbook", Section: SectionValidation, RequiredTier: Feasibility},
	{Key: "async_interviews", Title: "Async Customer Interviews", Section: SectionValidation, RequiredTier: Feasibility},
	{Key: "customer_voice", Title: "Customer Voice Simulation", Section: SectionValidation, RequiredTier: Feasibility},
	{Key: "demand_test", Title: "Demand Test", Section: SectionValidation, RequiredTier: Validation},
	{Key: "partnership_viability", Title: "Partnership Viability", Section: SectionStrategic, RequiredTier: Validation},
	{Key: "strategic_roadmap", Title: "Strategic Roadmap", Section: SectionStrategic, RequiredTier: Validation},
	{Key: "decision_engine", Title: "Decision Engine", Section: SectionDecision, RequiredTier: Discovery},
}

var rank = map[string]int{
	Discovery:   1,
	Feasibility: 2,
	Validation:  3,
}

var prices = map[string]int{
	Discovery:   7500,
	Feasibility: 15000,
	Validation:  30000,
}

var durationDays = map[string]int{
	Discovery:   7,
	Feasibility: 14,
	Validation:  28,
}

func IsTier(t string) bool { return rank[t] != 0 }

// Price returns the engagement price in the smallest currency unit,
// 0 for an unknown tier.
func Price(t string) int { return prices[t] }

func DurationDays(t string) int { return durationDays[t] }

// ModulesFor returns the full ordered catalog annotated for the given
// tier: Locked is true when the descriptor's required tier exceeds it.
// An unknown tier yields an empty list rather than an error; the
// caller renders "no modules to show".
func ModulesFor(t string) []ModuleDescriptor {
	r, ok := rank[t]
	if !ok {
		return nil
	}
	out := make([]ModuleDescriptor, len(catalog))
	for i, d := range catalog {
		d.Locked = rank[d.RequiredTier] > r
		out[i] = d
	}
	return out
}

// Find returns the descriptor for key annotated for tier t, or false
// when either the tier or the key is unknown.
func Find(t, key string) (ModuleDescriptor, bool) {
	for _, d := range ModulesFor(t) {
		if d.Key == key {
			return d, true
		}
	}
	return ModuleDescriptor{}, false
}
