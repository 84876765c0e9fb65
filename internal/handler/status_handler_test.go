package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/tracker"
)

type fakeSession struct {
	state    domain.SessionState
	identity domain.Identity
}

func (f *fakeSession) State(context.Context) domain.SessionState { return f.state }

func (f *fakeSession) Identity(context.Context) domain.Identity { return f.identity }

type fakePositions []tracker.Position

func (f fakePositions) Positions() []tracker.Position { return f }

type StatusHandlerSuite struct {
	suite.Suite
	session   *fakeSession
	events    *authevents.Channel
	positions fakePositions
	router    *gin.Engine
}

func TestStatusHandlerSuite(t *testing.T) {
	suite.Run(t, new(StatusHandlerSuite))
}

func (s *StatusHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.session = &fakeSession{
		state:    domain.SessionActiveWithTimer,
		identity: domain.Identity{UserID: "42", Login: "alice", Role: domain.RoleUser},
	}
	s.events = authevents.NewChannel(nil)
	s.positions = fakePositions{{
		DeviceID:   7,
		DeviceName: "collar",
		PetName:    "Rex",
		Latitude:   55.75,
		Longitude:  37.61,
		ObservedAt: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
	}}

	s.router = gin.New()
	s.router.Use(LoggerMiddleware(zap.NewNop(), "/health"))
	s.router.Use(CORSMiddleware([]string{"http://map.local"}, []string{"GET", "DELETE"}, []string{"Content-Type"}))
	NewStatusHandler(s.session, s.events, s.positions).Register(s.router)
}

func (s *StatusHandlerSuite) do(method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *StatusHandlerSuite) TestSession_Active() {
	w := s.do(http.MethodGet, "/api/session", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.SessionStatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Active)
	s.Equal("active_with_timer", resp.State)
	s.Equal("alice", resp.Login)
	s.Equal("USER", resp.Role)
}

func (s *StatusHandlerSuite) TestSession_NoSessionHidesIdentity() {
	s.session.state = domain.SessionExpired

	w := s.do(http.MethodGet, "/api/session", nil)

	var resp dto.SessionStatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Active)
	s.Equal("expired", resp.State)
	s.Empty(resp.Login)
}

func (s *StatusHandlerSuite) TestLastEvent_AndAcknowledge() {
	w := s.do(http.MethodGet, "/api/events/last", nil)
	s.JSONEq(`{"code":null}`, w.Body.String())

	s.events.Emit(context.Background(), authevents.Forbidden)

	w = s.do(http.MethodGet, "/api/events/last", nil)
	s.JSONEq(`{"code":403,"message":"access denied"}`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/events/last", nil)
	s.Equal(http.StatusNoContent, w.Code)

	_, ok := s.events.Last()
	s.False(ok)
}

func (s *StatusHandlerSuite) TestPositions() {
	w := s.do(http.MethodGet, "/api/positions", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp struct {
		Items []dto.PositionResponse `json:"items"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Items, 1)
	s.Equal("Rex", resp.Items[0].PetName)
	s.Equal("2026-10-18T10:00:00Z", resp.Items[0].ObservedAt)
	s.Contains(resp.Items[0].NavigationURL, "google.com/maps")

	w = s.do(http.MethodGet, "/api/positions?ios=true", nil)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Contains(resp.Items[0].NavigationURL, "maps.apple.com")
}

func (s *StatusHandlerSuite) TestCORS() {
	w := s.do(http.MethodOptions, "/api/session", http.Header{"Origin": {"http://map.local"}})
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("http://map.local", w.Header().Get("Access-Control-Allow-Origin"))
	s.Equal("GET, DELETE", w.Header().Get("Access-Control-Allow-Methods"))

	w = s.do(http.MethodGet, "/api/session", http.Header{"Origin": {"http://evil.local"}})
	s.Equal(http.StatusOK, w.Code)
	s.Empty(w.Header().Get("Access-Control-Allow-Origin"))
}
