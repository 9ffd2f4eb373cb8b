// Package binder fills request structs from HTTP requests.
//
// Binders have the signature func(*http.Request, any) error and plug into
// handler.Wrap:
//
//	type historyRequest struct {
//		Resource subscription.Resource `path:"resource"`
//		Limit    int                   `query:"limit"`
//	}
//
//	handler.Wrap(listHistory,
//		handler.WithBinders[handler.Context, historyRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	)
//
// JSON is strict: unknown fields and trailing data are errors. Query and
// path binders only touch fields carrying their tag. Values
// are converted by kind, and types implementing
// encoding.TextUnmarshaler (such as uuid.UUID) decode themselves.
package binder
