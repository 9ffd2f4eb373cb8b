package subscription

import (
	"fmt"
	"strings"
)

// Resources lists every metered resource in catalog order.
var Resources = []Resource{
	ResourceTargetMarketAnalysis,
	ResourceSearchFunnel,
	ResourceKeywords,
	ResourceLandingPageCopy,
	ResourceProductCopy,
	ResourceBlogCopy,
	ResourceBlogTopicIdeas,
	ResourceMetadata,
}

// columns maps each resource to its usage storage column.
var columns = map[Resource]string{
	ResourceTargetMarketAnalysis: "target_market_analysis",
	ResourceSearchFunnel:         "search_funnel",
	ResourceKeywords:             "keywords",
	ResourceLandingPageCopy:      "landing_page_copy",
	ResourceProductCopy:          "product_copy",
	ResourceBlogCopy:             "blog_copy",
	ResourceBlogTopicIdeas:       "blog_topic_ideas",
	ResourceMetadata:             "metadata",
}

// Column returns the storage column holding the usage counter for r.
// Returns an empty string for unknown resources.
func (r Resource) Column() string {
	return columns[r]
}

// Valid reports whether r is a known metered resource.
func (r Resource) Valid() bool {
	_, ok := columns[r]
	return ok
}

func (r Resource) String() string {
	return string(r)
}

// Columns returns all usage storage columns in catalog order.
func Columns() []string {
	out := make([]string, 0, len(Resources))
	for _, r := range Resources {
		out = append(out, columns[r])
	}
	return out
}

// ResourceForColumn is the inverse of Resource.Column.
func ResourceForColumn(column string) (Resource, bool) {
	for r, c := range columns {
		if c == column {
			return r, true
		}
	}
	return "", false
}

// ParseResource validates a resource identifier coming from user input.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
	}
	return r, nil
}

// ParsePlanType validates a plan identifier coming from storage or user input.
func ParsePlanType(s string) (PlanType, error) {
	p := PlanType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlanType, s)
	}
	return p, nil
}

// ParseStatus validates a subscription status coming from storage.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}
