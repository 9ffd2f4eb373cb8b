// Package webhook calls remote JSON webhooks and returns their response.
//
// A Caller marshals the payload, posts it with retries and optional
// HMAC signing, and hands back the raw JSON body:
//
//	caller := webhook.NewCaller()
//	resp, err := caller.Call(ctx, url, payload,
//		webhook.WithTimeout(90*time.Second),
//		webhook.WithCircuitBreaker(cb),
//	)
//
// Client errors (4xx other than 408, 425 and 429) are not retried.
// The request ID from the context is forwarded in X-Request-ID.
package webhook
