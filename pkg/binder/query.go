package binder

import "net/http"

// Query binds URL query parameters to fields tagged `query:"name"`.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindFields(v, "query", func(name string) []string { return q[name] }, ErrFailedToParseQuery)
	}
}
