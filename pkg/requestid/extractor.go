package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/seokit/pkg/logger"
)

// LogExtractor returns a logger.ContextExtractor adding the request ID to log records.
func LogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if requestID := FromContext(ctx); requestID != "" {
			return logger.RequestID(requestID), true
		}
		return slog.Attr{}, false
	}
}
