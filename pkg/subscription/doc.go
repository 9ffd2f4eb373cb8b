// Package subscription implements plan-based usage metering and entitlement
// checks for the content tools.
//
// Each user holds at most one authoritative subscription (the most recently
// created active one) to a plan tier. A plan maps every metered resource to a
// monthly quota; Unlimited (-1) disables the cap. Usage counters live in
// storage and are incremented by a single storage-side operation that checks
// the quota and increments in one step.
//
// # Architecture
//
//   - Plan catalog: LimitsFor, PriceFor, Plans, UsagePercentage
//   - Entitlement: Evaluate and CheckAvailability, pure functions of cached state
//   - Session: per-user cache of subscription, limits, usage and payments
//   - Manager: session lifecycle driven by signed_in and signed_out events
//   - Checkout: CheckoutProvider with HTTPCheckout and PaddleProvider
//   - Billing: BillingProcessor applying provider webhooks to storage
//
// Storage is abstracted through SubscriptionStore, UsageStore and
// PaymentStore. MemoryStore implements all three for development and tests.
//
// # Usage
//
//	manager := subscription.NewManager(subStore, usageStore,
//		subscription.WithPaymentStore(paymentStore),
//		subscription.WithCheckout(provider),
//		subscription.WithLogger(log),
//	)
//
//	sess, err := manager.Resolve(ctx, userID)
//	if err != nil {
//		return err
//	}
//
//	if !sess.IsAvailable(subscription.ResourceKeywords) {
//		// show sess.Notice() and keep the tool disabled
//	}
//
//	// after the tool succeeded
//	if err := sess.Consume(ctx, subscription.ResourceKeywords); err != nil {
//		switch {
//		case errors.Is(err, subscription.ErrLimitExceeded):
//			// another tab used the last unit
//		case errors.Is(err, subscription.ErrRemoteFetch):
//			// storage failure, recorded in sess.LastError()
//		}
//	}
//
// # Concurrency
//
// Session state is guarded by a mutex for memory safety. Check and increment
// are not serialized inside a session; the local check only reduces wasted
// calls, and UsageStore.Increment is the authoritative check. The local usage
// cache is advisory between refreshes; call RefreshUsage when an exact value
// is needed.
//
// # Errors
//
// Storage failures are returned joined with ErrRemoteFetch and recorded as the
// session's last error together with a remote_error Notice. Entitlement
// denials are normal results: IsAvailable and Increment return false and a
// limit_reached Notice is raised. Consume returns the denial reason
// (ErrNoActiveSubscription, ErrSubscriptionExpired or ErrLimitExceeded).
package subscription
