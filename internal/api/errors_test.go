package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/transport"
)

func TestStatusError_Bodies(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantText    string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "json error body",
			contentType: "application/json",
			body:        `{"error":"Bad request","message":"breedId is required"}`,
			wantCode:    "Bad request",
			wantMessage: "breedId is required",
		},
		{
			name:        "json string",
			contentType: "application/json",
			body:        `"Device is offline"`,
			wantText:    "Device is offline",
		},
		{
			name:        "plain text",
			contentType: "text/plain",
			body:        "  upstream timeout \n",
			wantText:    "upstream timeout",
		},
		{
			name:        "empty body",
			contentType: "text/plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewPingService(NewClient(srv.URL, nil)).Ping(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, KindStatus, apiErr.Kind)
			assert.Equal(t, http.StatusBadGateway, apiErr.Status)
			assert.Equal(t, tt.wantText, apiErr.Text)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Contains(t, apiErr.Error(), "GET /api/v1/ping: status 502")
		})
	}
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":`))
	}))
	defer srv.Close()

	_, err := NewPingService(NewClient(srv.URL, nil)).Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindDecode, KindOf(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestLogin_MissingTokensIsInvalidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"login":"alice","role":"USER","tokens":{"accessToken":"a"}}`))
	}))
	defer srv.Close()

	_, err := NewAuthService(NewClient(srv.URL, nil)).Login(context.Background(), dto.LoginRequest{Login: "alice", Password: "secret"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Equal(t, KindDecode, KindOf(err))
}

func TestIsSessionEnded(t *testing.T) {
	assert.True(t, IsSessionEnded(transportError(http.MethodGet, "/api/v1/pets", fmt.Errorf("%w: refresh rejected", transport.ErrSessionExpired))))
	assert.True(t, IsSessionEnded(fmt.Errorf("wrapped: %w", transport.ErrSessionExpired)))
	assert.False(t, IsSessionEnded(transportError(http.MethodGet, "/api/v1/pets", errors.New("connection refused"))))
	assert.False(t, IsSessionEnded(&Error{Kind: KindStatus, Status: http.StatusUnauthorized}))
	assert.False(t, IsSessionEnded(nil))
}

func TestFeedbackMessage(t *testing.T) {
	opts := FeedbackOptions{
		Fallback:       "Something went wrong",
		NetworkMessage: "Check your connection",
		StatusMessages: map[int]string{http.StatusNotFound: "Pet not found"},
	}

	tests := []struct {
		name string
		err  error
		opts FeedbackOptions
		want string
	}{
		{
			name: "plain text body wins",
			err:  &Error{Kind: KindStatus, Status: http.StatusBadRequest, Text: "Name is taken", Message: "ignored"},
			opts: opts,
			want: "Name is taken",
		},
		{
			name: "json message",
			err:  &Error{Kind: KindStatus, Status: http.StatusBadRequest, Code: "Validation failed", Message: "name is required"},
			opts: opts,
			want: "name is required",
		},
		{
			name: "json error code",
			err:  &Error{Kind: KindStatus, Status: http.StatusConflict, Code: "Conflict"},
			opts: opts,
			want: "Conflict",
		},
		{
			name: "status override",
			err:  &Error{Kind: KindStatus, Status: http.StatusNotFound},
			opts: opts,
			want: "Pet not found",
		},
		{
			name: "status without override",
			err:  &Error{Kind: KindStatus, Status: http.StatusInternalServerError},
			opts: opts,
			want: "Something went wrong",
		},
		{
			name: "network with custom message",
			err:  &Error{Kind: KindNetwork, Err: errors.New("dial tcp")},
			opts: opts,
			want: "Check your connection",
		},
		{
			name: "network default message",
			err:  &Error{Kind: KindNetwork, Err: errors.New("dial tcp")},
			opts: FeedbackOptions{Fallback: "x"},
			want: DefaultNetworkMessage,
		},
		{
			name: "decode falls back",
			err:  &Error{Kind: KindDecode, Err: ErrInvalidResponse},
			opts: opts,
			want: "Something went wrong",
		},
		{
			name: "foreign error falls back",
			err:  errors.New("boom"),
			opts: opts,
			want: "Something went wrong",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FeedbackMessage(tt.err, tt.opts))
		})
	}
}

func TestNavigationURL(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&destination=55.7558,37.6173&travelmode=driving",
		NavigationURL(55.7558, 37.6173, false),
	)
	assert.Equal(t, "maps://maps.apple.com/?daddr=-33.8688,151.2093", NavigationURL(-33.8688, 151.2093, true))
}
