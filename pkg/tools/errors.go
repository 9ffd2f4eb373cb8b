package tools

import "errors"

var (
	ErrToolNotConfigured = errors.New("tool webhook is not configured")
	ErrToolUnavailable   = errors.New("tool is temporarily unavailable")
	ErrToolFailed        = errors.New("tool call failed")
	ErrInvalidInput      = errors.New("invalid tool input")
)
