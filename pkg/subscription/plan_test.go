package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

func TestLimitsFor(t *testing.T) {
	t.Parallel()

	t.Run("every plan defines every resource", func(t *testing.T) {
		t.Parallel()

		for _, plan := range subscription.PlanTypes {
			limits := subscription.LimitsFor(plan)
			assert.Len(t, limits, len(subscription.Resources), "plan %s", plan)
			for _, res := range subscription.Resources {
				_, ok := limits[res]
				assert.True(t, ok, "plan %s misses resource %s", plan, res)
			}
		}
	})

	t.Run("escala is unlimited", func(t *testing.T) {
		t.Parallel()

		for res, limit := range subscription.LimitsFor(subscription.PlanEscala) {
			assert.Equal(t, subscription.Unlimited, limit, "resource %s", res)
		}
	})

	t.Run("quotas", func(t *testing.T) {
		t.Parallel()

		solo := subscription.LimitsFor(subscription.PlanSolo)
		assert.Equal(t, int64(5), solo[subscription.ResourceTargetMarketAnalysis])
		assert.Equal(t, int64(20), solo[subscription.ResourceKeywords])
		assert.Equal(t, int64(50), solo[subscription.ResourceMetadata])

		discovery := subscription.LimitsFor(subscription.PlanDiscovery)
		assert.Equal(t, int64(15), discovery[subscription.ResourceSearchFunnel])
		assert.Equal(t, int64(60), discovery[subscription.ResourceBlogCopy])
		assert.Equal(t, int64(100), discovery[subscription.ResourceMetadata])
	})

	t.Run("returns a copy", func(t *testing.T) {
		t.Parallel()

		limits := subscription.LimitsFor(subscription.PlanSolo)
		limits[subscription.ResourceKeywords] = 1000
		assert.Equal(t, int64(20), subscription.LimitsFor(subscription.PlanSolo)[subscription.ResourceKeywords])
	})
}

func TestPriceFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, subscription.Money{Amount: 9700, Currency: "BRL"}, subscription.PriceFor(subscription.PlanSolo))
	assert.Equal(t, 297.0, subscription.PriceFor(subscription.PlanDiscovery).Major())
	assert.Equal(t, 997.0, subscription.PriceFor(subscription.PlanEscala).Major())
}

func TestPlans(t *testing.T) {
	t.Parallel()

	plans := subscription.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, subscription.PlanSolo, plans[0].Type)
	assert.Equal(t, subscription.PlanEscala, plans[2].Type)
	assert.Less(t, plans[0].Price.Amount, plans[1].Price.Amount)
}

func TestResourceColumns(t *testing.T) {
	t.Parallel()

	expected := map[subscription.Resource]string{
		subscription.ResourceTargetMarketAnalysis: "target_market_analysis",
		subscription.ResourceSearchFunnel:         "search_funnel",
		subscription.ResourceKeywords:             "keywords",
		subscription.ResourceLandingPageCopy:      "landing_page_copy",
		subscription.ResourceProductCopy:          "product_copy",
		subscription.ResourceBlogCopy:             "blog_copy",
		subscription.ResourceBlogTopicIdeas:       "blog_topic_ideas",
		subscription.ResourceMetadata:             "metadata",
	}

	require.Len(t, subscription.Resources, len(expected))
	seen := make(map[string]bool)
	for _, res := range subscription.Resources {
		col := res.Column()
		assert.Equal(t, expected[res], col, "resource %s", res)
		assert.False(t, seen[col], "column %s mapped twice", col)
		seen[col] = true

		back, ok := subscription.ResourceForColumn(col)
		assert.True(t, ok)
		assert.Equal(t, res, back)
	}

	assert.Equal(t, "", subscription.Resource("unknown").Column())
	assert.Len(t, subscription.Columns(), len(expected))
}

func TestParseResource(t *testing.T) {
	t.Parallel()

	res, err := subscription.ParseResource(" Keywords ")
	require.NoError(t, err)
	assert.Equal(t, subscription.ResourceKeywords, res)

	_, err = subscription.ParseResource("keyword_research")
	assert.ErrorIs(t, err, subscription.ErrUnknownResource)
}

func TestParsePlanType(t *testing.T) {
	t.Parallel()

	plan, err := subscription.ParsePlanType("DISCOVERY")
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanDiscovery, plan)

	_, err = subscription.ParsePlanType("enterprise")
	assert.ErrorIs(t, err, subscription.ErrUnknownPlanType)
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	st, err := subscription.ParseStatus("canceled")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, st)

	_, err = subscription.ParseStatus("trialing")
	assert.ErrorIs(t, err, subscription.ErrUnknownStatus)
}

func TestUsagePercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		used  int64
		limit int64
		want  int
	}{
		{"unlimited", 500, subscription.Unlimited, -1},
		{"zero usage", 0, 20, 0},
		{"half", 10, 20, 50},
		{"rounds down", 19, 20, 95},
		{"at limit", 20, 20, 100},
		{"over limit capped", 30, 20, 100},
		{"zero quota", 0, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.UsagePercentage(tt.used, tt.limit))
		})
	}
}
