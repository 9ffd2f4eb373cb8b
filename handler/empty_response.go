package handler

import "net/http"

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

// Empty responds 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

func EmptyWithStatus(status int) Response {
	return emptyResponse{status: status}
}

type failure struct{ err error }

func (f failure) Render(http.ResponseWriter, *http.Request) error { return f.err }

// Fail hands err to the error handler of Wrap instead of rendering it
// directly, so it passes through the configured mappers and gets logged.
func Fail(err error) Response {
	return failure{err: err}
}
