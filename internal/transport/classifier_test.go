package transport

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier(t *testing.T) {
	classifier, err := NewClassifier("https://tracker.example.com/backend/")
	require.NoError(t, err)

	tests := []struct {
		url     string
		api     bool
		authAPI bool
	}{
		{url: "https://tracker.example.com/backend/api/v1/pets", api: true},
		{url: "https://TRACKER.example.com/backend/api/v1/devices/3/info", api: true},
		{url: "https://tracker.example.com/backend/api/v1/auth/login", api: true, authAPI: true},
		{url: "https://tracker.example.com/api/v1/pets"},
		{url: "http://tracker.example.com/backend/api/v1/pets"},
		{url: "https://maps.example.com/backend/api/v1/pets"},
		{url: "https://tracker.example.com/backend/apix/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, tt.url, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.api, classifier.IsAPIRequest(req))
			if tt.api {
				assert.Equal(t, tt.authAPI, classifier.IsAuthEndpoint(req))
			}
		})
	}
}

func TestNewClassifier_RejectsRelativeURL(t *testing.T) {
	_, err := NewClassifier("/api")
	assert.Error(t, err)
}

func TestContextMarkers(t *testing.T) {
	ctx := context.Background()
	assert.False(t, SkipsAuth(ctx))
	assert.False(t, RetryAttempted(ctx))

	assert.True(t, SkipsAuth(WithSkipAuth(ctx)))
	assert.True(t, RetryAttempted(WithRetryAttempted(ctx)))
	assert.False(t, SkipsAuth(WithRetryAttempted(ctx)))
}
