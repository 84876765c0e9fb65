package api

import (
	"errors"
	"strings"
)

// DefaultNetworkMessage is shown when the API could not be reached
const DefaultNetworkMessage = "Unable to reach the API."

// FeedbackOptions tunes the user-facing message derived from an error
type FeedbackOptions struct {
	Fallback       string
	NetworkMessage string
	StatusMessages map[int]string
}

// FeedbackMessage picks the message to show for err: the API's own message
// first, then a per-status override, then the network message, then Fallback.
func FeedbackMessage(err error, opts FeedbackOptions) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return opts.Fallback
	}

	if apiErr.Kind == KindStatus {
		for _, candidate := range []string{apiErr.Text, apiErr.Message, apiErr.Code} {
			if msg := strings.TrimSpace(candidate); msg != "" {
				return msg
			}
		}
		if msg, ok := opts.StatusMessages[apiErr.Status]; ok && msg != "" {
			return msg
		}
	}

	if apiErr.Kind == KindNetwork {
		if opts.NetworkMessage != "" {
			return opts.NetworkMessage
		}
		return DefaultNetworkMessage
	}

	return opts.Fallback
}
