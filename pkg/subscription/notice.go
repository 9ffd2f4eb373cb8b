package subscription

import "time"

// Notice is a transient user-facing message about a denied or failed action.
type Notice struct {
	Kind     NoticeKind `json:"kind"`
	Resource Resource   `json:"resource,omitempty"`
	Message  string     `json:"message"`
	At       time.Time  `json:"at"`
}

const remoteErrorMessage = "Something went wrong while talking to the server. Please try again."
