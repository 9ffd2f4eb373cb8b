package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/handler"
	"github.com/dmitrymomot/seokit/internal/history"
	"github.com/dmitrymomot/seokit/pkg/logger"
	"github.com/dmitrymomot/seokit/pkg/subscription"
	"github.com/dmitrymomot/seokit/pkg/tools"
)

type toolRequest struct {
	Resource string          `path:"resource" json:"-"`
	Input    json.RawMessage `json:"input"`
}

type toolResponse struct {
	Resource subscription.Resource   `json:"resource"`
	Output   json.RawMessage         `json:"output"`
	Usage    *subscription.UsageInfo `json:"usage,omitempty"`
}

// invokeTool gates the call on the cached entitlement, runs the tool and
// records one unit of usage. When storage refuses the unit because a
// concurrent call took the last one, the output is withheld and 402 returned.
// Other recording failures still return the output with
// meta.usage_recorded=false.
func (s *server) invokeTool(ctx handler.Context, req toolRequest) handler.Response {
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	res, err := subscription.ParseResource(req.Resource)
	if err != nil {
		return handler.Fail(err)
	}
	if len(req.Input) == 0 || string(req.Input) == "null" {
		verr := handler.NewValidationError()
		verr.Add("input", "is required")
		return handler.Fail(verr)
	}

	// an unconfigured tool is an outage, not a denial
	if !s.deps.Tools.Configured(res) {
		s.metrics.ObserveTool(res.String(), "not_configured", 0)
		return handler.Fail(fmt.Errorf("%w: %s", tools.ErrToolNotConfigured, res))
	}
	if reason := sess.Authorize(ctx, res); reason != nil {
		s.metrics.ObserveTool(res.String(), "denied", 0)
		return handler.Fail(denial(reason, res))
	}

	result, err := s.deps.Tools.Invoke(ctx, res, req.Input)
	if err != nil {
		s.metrics.ObserveTool(res.String(), toolOutcome(err), 0)
		return handler.Fail(err)
	}
	s.metrics.ObserveTool(res.String(), "success", result.Duration)

	// the tool already ran; a disconnecting client must not skip the charge
	bg := context.WithoutCancel(ctx)
	meta := map[string]any{
		"attempts":       result.Attempts,
		"duration_ms":    result.Duration.Milliseconds(),
		"usage_recorded": true,
	}

	if err := sess.Consume(bg, res); err != nil {
		if errors.Is(err, subscription.ErrLimitExceeded) {
			return handler.Fail(denial(err, res))
		}
		meta["usage_recorded"] = false
		s.log.WarnContext(ctx, "tool output delivered without recording usage",
			logger.UserID(sess.UserID()),
			logger.Resource(res.String()),
			logger.Error(err),
		)
	} else {
		s.metrics.UsageRecorded(res.String())
	}

	if s.deps.History != nil {
		entry, err := s.deps.History.Save(bg, sess.UserID(), res, req.Input, result.Output)
		if err != nil {
			s.log.ErrorContext(ctx, "failed to save tool result",
				logger.UserID(sess.UserID()),
				logger.Resource(res.String()),
				logger.Error(err),
			)
		} else {
			meta["history_id"] = entry.ID
		}
	}

	return handler.JSON(toolResponse{
		Resource: res,
		Output:   result.Output,
		Usage:    usageOf(sess, res),
	}, handler.WithJSONMeta(meta))
}

func toolOutcome(err error) string {
	switch {
	case errors.Is(err, tools.ErrToolNotConfigured):
		return "not_configured"
	case errors.Is(err, tools.ErrToolUnavailable):
		return "circuit_open"
	case errors.Is(err, tools.ErrInvalidInput):
		return "invalid_input"
	default:
		return "failed"
	}
}

func usageOf(sess *subscription.Session, res subscription.Resource) *subscription.UsageInfo {
	for _, info := range sess.Snapshot().Resources {
		if info.Resource == res {
			return &info
		}
	}
	return nil
}

type historyRequest struct {
	Resource string `path:"resource" query:"-"`
	Limit    int    `query:"limit"`
}

func (s *server) listHistory(ctx handler.Context, req historyRequest) handler.Response {
	if s.deps.History == nil {
		return handler.Fail(errHistoryDisabled)
	}
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	res, err := subscription.ParseResource(req.Resource)
	if err != nil {
		return handler.Fail(err)
	}
	if req.Limit < 0 || req.Limit > history.MaxLimit {
		verr := handler.NewValidationError()
		verr.Add("limit", "must be between 0 and 200")
		return handler.Fail(verr)
	}

	entries, err := s.deps.History.ListByTool(ctx, sess.UserID(), res, req.Limit)
	if err != nil {
		return handler.Fail(err)
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return handler.JSON(entries)
}

type deleteHistoryRequest struct {
	ID uuid.UUID `path:"id"`
}

func (s *server) deleteHistory(ctx handler.Context, req deleteHistoryRequest) handler.Response {
	if s.deps.History == nil {
		return handler.Fail(errHistoryDisabled)
	}
	sess, err := sessionFrom(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	if req.ID == uuid.Nil {
		return handler.Fail(errHistoryNotFound)
	}
	if err := s.deps.History.Delete(ctx, sess.UserID(), req.ID); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}
