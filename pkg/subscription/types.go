package subscription

// PlanType identifies a subscription tier.
type PlanType string

const (
	PlanSolo      PlanType = "solo"
	PlanDiscovery PlanType = "discovery"
	PlanEscala    PlanType = "escala"
)

// Resource represents a metered content-generation capability.
type Resource string

const (
	ResourceTargetMarketAnalysis Resource = "target-market-analysis"
	ResourceSearchFunnel         Resource = "search-funnel"
	ResourceKeywords             Resource = "keywords"
	ResourceLandingPageCopy      Resource = "landing-page-copy"
	ResourceProductCopy          Resource = "product-copy"
	ResourceBlogCopy             Resource = "blog-copy"
	ResourceBlogTopicIdeas       Resource = "blog-topic-ideas"
	ResourceMetadata             Resource = "metadata"
)

const (
	// Unlimited indicates no quota for a resource (-1 chosen for SQL compatibility)
	Unlimited int64 = -1
)

// Status represents the billing state of a subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// Money represents a monetary amount in the smallest currency unit.
// For example, R$ 97,00 would be Amount: 9700, Currency: "BRL".
type Money struct {
	Amount   int64  `json:"amount"`   // smallest currency unit (centavos for BRL)
	Currency string `json:"currency"` // ISO 4217 currency code
}

// Major returns the amount in major currency units (97 for 9700 centavos).
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// UsageInfo contains the current usage and quota of a single resource.
type UsageInfo struct {
	Resource   Resource `json:"resource"`
	Used       int64    `json:"used"`
	Limit      int64    `json:"limit"`
	Percentage int      `json:"percentage"` // 0-100, -1 for unlimited
	Available  bool     `json:"available"`
}

// NoticeKind classifies a user-facing notice raised by a session.
type NoticeKind string

const (
	NoticeLimitReached NoticeKind = "limit_reached"
	NoticeRemoteError  NoticeKind = "remote_error"
)
