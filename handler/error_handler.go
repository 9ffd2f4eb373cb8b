package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/seokit/pkg/binder"
	"github.com/dmitrymomot/seokit/pkg/logger"
	"github.com/dmitrymomot/seokit/pkg/requestid"
)

// ErrorMapper translates domain errors into HTTPError or ValidationError.
// It returns err unchanged when it has no mapping.
type ErrorMapper func(err error) error

// MapBindingErrors maps binder failures to 400, 415 and 422.
func MapBindingErrors(err error) error {
	switch {
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return errors.Join(HTTPError{Code: http.StatusUnsupportedMediaType, Key: "unsupported_media_type"}, err)
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return errors.Join(HTTPError{Code: http.StatusBadRequest, Key: "invalid_json"}, err)
	case errors.Is(err, binder.ErrFailedToParseQuery), errors.Is(err, binder.ErrFailedToParsePath):
		return errors.Join(ErrBadRequest, err)
	}
	return err
}

// NewErrorHandler returns an ErrorHandler that logs err and renders it with
// JSONError after passing it through mappers. Client errors log at warn level,
// server errors at error level.
func NewErrorHandler(log *slog.Logger, mappers ...ErrorMapper) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	mappers = append([]ErrorMapper{MapBindingErrors}, mappers...)

	return func(ctx Context, err error) {
		mapped := err
		for _, m := range mappers {
			mapped = m(mapped)
		}

		resp := &jsonResponse{status: http.StatusInternalServerError}
		resp.body.Error = errorToDetail(mapped, &resp.status)

		r := ctx.Request()
		level := slog.LevelError
		if resp.status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			logger.StatusCode(resp.status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error response", logger.Error(renderErr))
		}
	}
}
