package subscription

import "maps"

// Limits maps every metered resource to its quota. Unlimited means no cap.
type Limits map[Resource]int64

// Get returns the quota for r. Resources missing from the map have a zero quota.
func (l Limits) Get(r Resource) int64 {
	return l[r]
}

// Plan describes a subscription tier, its monthly price and its quotas.
type Plan struct {
	Type   PlanType `json:"type"`
	Name   string   `json:"name"`
	Price  Money    `json:"price"`
	Limits Limits   `json:"limits"`
}

// DefaultPlan is used for limits when a user holds no subscription.
// It never grants entitlement on its own.
const DefaultPlan = PlanSolo

var catalog = map[PlanType]Plan{
	PlanSolo: {
		Type:  PlanSolo,
		Name:  "Solo",
		Price: Money{Amount: 9700, Currency: "BRL"},
		Limits: Limits{
			ResourceTargetMarketAnalysis: 5,
			ResourceSearchFunnel:         5,
			ResourceKeywords:             20,
			ResourceLandingPageCopy:      15,
			ResourceProductCopy:          15,
			ResourceBlogCopy:             15,
			ResourceBlogTopicIdeas:       5,
			ResourceMetadata:             50,
		},
	},
	PlanDiscovery: {
		Type:  PlanDiscovery,
		Name:  "Discovery",
		Price: Money{Amount: 29700, Currency: "BRL"},
		Limits: Limits{
			ResourceTargetMarketAnalysis: 15,
			ResourceSearchFunnel:         15,
			ResourceKeywords:             60,
			ResourceLandingPageCopy:      60,
			ResourceProductCopy:          60,
			ResourceBlogCopy:             60,
			ResourceBlogTopicIdeas:       15,
			ResourceMetadata:             100,
		},
	},
	PlanEscala: {
		Type:  PlanEscala,
		Name:  "Escala",
		Price: Money{Amount: 99700, Currency: "BRL"},
		Limits: Limits{
			ResourceTargetMarketAnalysis: Unlimited,
			ResourceSearchFunnel:         Unlimited,
			ResourceKeywords:             Unlimited,
			ResourceLandingPageCopy:      Unlimited,
			ResourceProductCopy:          Unlimited,
			ResourceBlogCopy:             Unlimited,
			ResourceBlogTopicIdeas:       Unlimited,
			ResourceMetadata:             Unlimited,
		},
	},
}

// PlanTypes lists the plan tiers from cheapest to most expensive.
var PlanTypes = []PlanType{PlanSolo, PlanDiscovery, PlanEscala}

// Valid reports whether p is a known plan tier.
func (p PlanType) Valid() bool {
	_, ok := catalog[p]
	return ok
}

// LimitsFor returns a copy of the quotas for plan.
// Callers validate plan with ParsePlanType; an unknown plan yields the default plan's limits.
func LimitsFor(plan PlanType) Limits {
	p, ok := catalog[plan]
	if !ok {
		p = catalog[DefaultPlan]
	}
	return maps.Clone(p.Limits)
}

// PriceFor returns the monthly price of plan.
func PriceFor(plan PlanType) Money {
	return catalog[plan].Price
}

// PlanFor returns the full catalog entry for plan.
func PlanFor(plan PlanType) (Plan, bool) {
	p, ok := catalog[plan]
	if !ok {
		return Plan{}, false
	}
	p.Limits = maps.Clone(p.Limits)
	return p, true
}

// Plans returns the catalog in tier order.
func Plans() []Plan {
	out := make([]Plan, 0, len(PlanTypes))
	for _, t := range PlanTypes {
		p, _ := PlanFor(t)
		out = append(out, p)
	}
	return out
}

// UsagePercentage returns consumption as a percentage of limit, capped at 100.
// Returns -1 for unlimited resources and 100 when the quota is zero.
func UsagePercentage(used, limit int64) int {
	if limit == Unlimited {
		return -1
	}
	if limit <= 0 {
		return 100
	}
	pct := int(used * 100 / limit)
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
