package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader correlates client requests with API logs
const RequestIDHeader = "X-Request-Id"

// RequestIDTransport stamps every request with a fresh request id
type RequestIDTransport struct {
	next http.RoundTripper
}

// NewRequestIDTransport creates a new request id transport
func NewRequestIDTransport(next http.RoundTripper) *RequestIDTransport {
	return &RequestIDTransport{next: next}
}

func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return t.next.RoundTrip(req)
}
