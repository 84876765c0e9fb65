// Package handler serves the local status API of watch mode.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prperemyshlev/pettracker-client/internal/authevents"
	"github.com/prperemyshlev/pettracker-client/internal/domain"
	"github.com/prperemyshlev/pettracker-client/internal/dto"
	"github.com/prperemyshlev/pettracker-client/internal/tracker"
)

// SessionReader exposes read-only session state
type SessionReader interface {
	State(ctx context.Context) domain.SessionState
	Identity(ctx context.Context) domain.Identity
}

// PositionSource returns the latest tracked positions
type PositionSource interface {
	Positions() []tracker.Position
}

type StatusHandler struct {
	session   SessionReader
	events    *authevents.Channel
	positions PositionSource
}

func NewStatusHandler(session SessionReader, events *authevents.Channel, positions PositionSource) *StatusHandler {
	return &StatusHandler{
		session:   session,
		events:    events,
		positions: positions,
	}
}

// Register mounts the status routes on r
func (h *StatusHandler) Register(r gin.IRoutes) {
	r.GET("/api/session", h.Session)
	r.GET("/api/events/last", h.LastEvent)
	r.DELETE("/api/events/last", h.AckEvent)
	r.GET("/api/positions", h.Positions)
}

// Session reports the session state and the persisted identity
func (h *StatusHandler) Session(c *gin.Context) {
	ctx := c.Request.Context()
	state := h.session.State(ctx)

	resp := dto.SessionStatusResponse{
		Active: state.Active(),
		State:  state.String(),
	}
	if state.Active() {
		identity := h.session.Identity(ctx)
		resp.UserID = identity.UserID
		resp.Login = identity.Login
		resp.Role = string(identity.Role)
	}

	c.JSON(http.StatusOK, resp)
}

// LastEvent reports the latest unacknowledged auth event; code is null when there is none
func (h *StatusHandler) LastEvent(c *gin.Context) {
	code, ok := h.events.Last()
	if !ok {
		c.JSON(http.StatusOK, dto.AuthEventResponse{})
		return
	}

	value := int(code)
	c.JSON(http.StatusOK, dto.AuthEventResponse{
		Code:    &value,
		Message: code.Message(),
	})
}

// AckEvent acknowledges the latest auth event
func (h *StatusHandler) AckEvent(c *gin.Context) {
	h.events.Clear()
	c.Status(http.StatusNoContent)
}

// Positions lists tracked positions. ?ios=true yields Apple Maps links.
func (h *StatusHandler) Positions(c *gin.Context) {
	ios, _ := strconv.ParseBool(c.Query("ios"))

	positions := h.positions.Positions()
	items := make([]dto.PositionResponse, 0, len(positions))
	for _, p := range positions {
		items = append(items, dto.PositionResponse{
			DeviceID:       p.DeviceID,
			DeviceName:     p.DeviceName,
			PetName:        p.PetName,
			Latitude:       p.Latitude,
			Longitude:      p.Longitude,
			Speed:          p.Speed,
			Address:        p.Address,
			FixTime:        p.FixTime,
			BatteryPercent: p.BatteryPercent,
			ObservedAt:     p.ObservedAt.UTC().Format(time.RFC3339),
			NavigationURL:  p.NavigationURL(ios),
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
