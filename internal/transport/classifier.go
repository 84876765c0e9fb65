package transport

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const authEndpointMarker = "/api/v1/auth/"

// Classifier decides which requests are API calls and which of them hit auth endpoints
type Classifier struct {
	scheme    string
	host      string
	apiPrefix string
}

// NewClassifier creates a classifier for the API served at baseURL
func NewClassifier(baseURL string) (*Classifier, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme and host are required", baseURL)
	}

	return &Classifier{
		scheme:    strings.ToLower(u.Scheme),
		host:      strings.ToLower(u.Host),
		apiPrefix: strings.TrimSuffix(u.Path, "/") + "/api/",
	}, nil
}

// IsAPIRequest reports whether req targets the API under the base URL
func (c *Classifier) IsAPIRequest(req *http.Request) bool {
	if req.URL == nil {
		return false
	}
	if !strings.EqualFold(req.URL.Scheme, c.scheme) || !strings.EqualFold(req.URL.Host, c.host) {
		return false
	}
	return strings.HasPrefix(req.URL.Path, c.apiPrefix)
}

// IsAuthEndpoint reports whether req targets login, register or refresh
func (c *Classifier) IsAuthEndpoint(req *http.Request) bool {
	return req.URL != nil && strings.Contains(req.URL.Path, authEndpointMarker)
}
