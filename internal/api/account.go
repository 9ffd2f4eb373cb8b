package api

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/handler"
	"github.com/dmitrymomot/seokit/pkg/jwt"
	"github.com/dmitrymomot/seokit/pkg/subscription"
)

type empty struct{}

func (s *server) listPlans(_ handler.Context, _ empty) handler.Response {
	return handler.JSON(subscription.Plans())
}

func (s *server) me(ctx handler.Context, _ empty) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(sess.Snapshot())
}

func (s *server) refresh(ctx handler.Context, _ empty) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if err := sess.Refresh(ctx); err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(sess.Snapshot())
}

func (s *server) signOut(ctx handler.Context, _ empty) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	s.deps.Manager.SignOut(ctx, sess.UserID())
	return handler.Empty()
}

func (s *server) clearNotice(ctx handler.Context, _ empty) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	sess.ClearNotice()
	return handler.Empty()
}

func (s *server) payments(ctx handler.Context, _ empty) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	list, err := sess.FetchPayments(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if list == nil {
		list = []subscription.Payment{}
	}
	return handler.JSON(list)
}

type checkoutRequest struct {
	PlanType subscription.PlanType `json:"planType"`
}

func (s *server) checkout(ctx handler.Context, req checkoutRequest) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if req.PlanType == "" {
		verr := handler.NewValidationError()
		verr.Add("planType", "is required")
		return handler.Fail(verr)
	}

	url, err := sess.InitiateCheckout(ctx, req.PlanType)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(subscription.CheckoutResponse{CheckoutURL: url})
}

// createCheckout is the backend checkout endpoint. userId may be omitted and
// defaults to the caller; naming another user is refused.
func (s *server) createCheckout(ctx handler.Context, req subscription.CheckoutRequest) handler.Response {
	if s.deps.Gateway == nil {
		return handler.Fail(subscription.ErrCheckoutUnavailable)
	}

	caller, _ := jwt.UserIDFromContext(ctx)
	switch req.UserID {
	case uuid.Nil:
		req.UserID = caller
	case caller:
	default:
		return handler.Fail(errForbiddenUser)
	}

	verr := handler.NewValidationError()
	if !req.PlanType.Valid() {
		verr.Add("planType", "must be one of solo, discovery, escala")
	}
	if req.Amount <= 0 {
		verr.Add("amount", "must be positive")
	}
	if err := verr.OrNil(); err != nil {
		return handler.Fail(err)
	}

	url, err := s.deps.Gateway.CreateCheckout(ctx, req)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(subscription.CheckoutResponse{CheckoutURL: url})
}
