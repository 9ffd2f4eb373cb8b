// Package logger builds context-aware *slog.Logger instances.
//
// New starts from JSON at info level on stdout. WithEnvironment switches to
// the development, staging or production preset and WithConfig applies the
// LOG_LEVEL and LOG_FORMAT overrides on top. Every record passes through a
// handler that appends attributes stored with ContextWithAttrs and those
// produced by registered ContextExtractor funcs, which is how request and
// user IDs reach log lines without being passed around.
//
// Attribute helpers in attr.go keep key names consistent. Error, UserID and
// the other ID helpers return an empty Attr for nil input so they can be
// passed unconditionally.
//
//	log := logger.New(
//		logger.WithEnvironment(app.Env, "seokit"),
//		logger.WithConfig(logCfg),
//		logger.WithContextExtractors(requestid.LogExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.ErrorContext(ctx, "increment failed",
//		logger.Resource("keywords"),
//		logger.Error(err),
//	)
package logger
