// Package api exposes sessions, checkout, billing webhooks and the content
// tools over HTTP.
//
// Every route under /api except /api/plans and /api/billing/webhook needs a
// bearer token. The first authenticated request of a user signs them in and
// loads their subscription and usage; later requests reuse the cached
// session. Tool calls are gated on the cached entitlement, then recorded
// against storage once the tool answered.
//
// Domain errors are mapped to stable error keys: limit_reached,
// no_active_subscription and subscription_expired answer 402,
// remote_fetch_failed answers 502.
package api
