package tools

import (
	"time"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

// Config holds the webhook endpoint of every tool and call settings.
type Config struct {
	TargetMarketAnalysisURL string `env:"TOOLS_TARGET_MARKET_ANALYSIS_URL"`
	SearchFunnelURL         string `env:"TOOLS_SEARCH_FUNNEL_URL"`
	KeywordsURL             string `env:"TOOLS_KEYWORDS_URL"`
	LandingPageCopyURL      string `env:"TOOLS_LANDING_PAGE_COPY_URL"`
	ProductCopyURL          string `env:"TOOLS_PRODUCT_COPY_URL"`
	BlogCopyURL             string `env:"TOOLS_BLOG_COPY_URL"`
	BlogTopicIdeasURL       string `env:"TOOLS_BLOG_TOPIC_IDEAS_URL"`
	MetadataURL             string `env:"TOOLS_METADATA_URL"`

	SigningSecret    string        `env:"TOOLS_SIGNING_SECRET"`
	Timeout          time.Duration `env:"TOOLS_TIMEOUT" envDefault:"90s"`
	MaxRetries       int           `env:"TOOLS_MAX_RETRIES" envDefault:"1"`
	FailureThreshold int           `env:"TOOLS_CIRCUIT_FAILURES" envDefault:"5"`
	CircuitCooldown  time.Duration `env:"TOOLS_CIRCUIT_COOLDOWN" envDefault:"30s"`
}

// Endpoints maps each resource to its configured URL. Unset URLs are omitted.
func (c Config) Endpoints() map[subscription.Resource]string {
	all := map[subscription.Resource]string{
		subscription.ResourceTargetMarketAnalysis: c.TargetMarketAnalysisURL,
		subscription.ResourceSearchFunnel:         c.SearchFunnelURL,
		subscription.ResourceKeywords:             c.KeywordsURL,
		subscription.ResourceLandingPageCopy:      c.LandingPageCopyURL,
		subscription.ResourceProductCopy:          c.ProductCopyURL,
		subscription.ResourceBlogCopy:             c.BlogCopyURL,
		subscription.ResourceBlogTopicIdeas:       c.BlogTopicIdeasURL,
		subscription.ResourceMetadata:             c.MetadataURL,
	}
	for res, url := range all {
		if url == "" {
			delete(all, res)
		}
	}
	return all
}
