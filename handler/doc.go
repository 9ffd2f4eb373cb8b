// Package handler provides typed HTTP handlers with a JSON response envelope.
//
// Handlers receive a bound request struct and return a Response:
//
//	type checkoutRequest struct {
//		PlanType subscription.PlanType `json:"planType"`
//	}
//
//	func checkout(ctx handler.Context, req checkoutRequest) handler.Response {
//		url, err := sess.InitiateCheckout(ctx, req.PlanType)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(map[string]string{"checkoutUrl": url})
//	}
//
//	r.Post("/checkout", handler.Wrap(checkout,
//		handler.WithBinder[handler.Context, checkoutRequest](binder.JSON()),
//		handler.WithErrorHandler[handler.Context, checkoutRequest](errHandler),
//	))
//
// Every response uses the envelope {"data":...,"meta":...,"error":...}.
// HTTPError carries a status code and a stable key; ValidationError
// renders as 422 with per-field details. NewErrorHandler logs failures and
// lets callers map domain errors through ErrorMapper functions.
package handler
