package api

import (
	"net/http"

	"github.com/dmitrymomot/seokit/handler"
	"github.com/dmitrymomot/seokit/pkg/logger"
)

// billingWebhook verifies and applies a billing provider notification.
// Processing failures answer 500 so the provider retries delivery.
func (s *server) billingWebhook(w http.ResponseWriter, r *http.Request) {
	hctx := handler.NewContext(w, r)
	if s.deps.Webhooks == nil || s.deps.Processor == nil {
		s.onError(hctx, handler.ErrServiceUnavailable)
		return
	}

	ev, err := s.deps.Webhooks.ParseWebhookRequest(r)
	if err != nil {
		s.metrics.BillingEvent("", "rejected")
		s.onError(hctx, err)
		return
	}

	if err := s.deps.Processor.Process(r.Context(), ev); err != nil {
		s.metrics.BillingEvent(string(ev.Type), "failed")
		s.onError(hctx, err)
		return
	}

	s.metrics.BillingEvent(string(ev.Type), "processed")
	s.log.DebugContext(r.Context(), "billing webhook accepted",
		logger.EventType(string(ev.Type)),
		logger.MessageID(ev.ID),
	)
	if err := handler.JSON(map[string]bool{"received": true}).Render(w, r); err != nil {
		s.onError(hctx, err)
	}
}
