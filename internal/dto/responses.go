package dto

// PingResponse represents the API liveness response
type PingResponse struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse represents an error body returned by the API
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SessionStatusResponse is served by the local status server
type SessionStatusResponse struct {
	Active bool   `json:"active"`
	State  string `json:"state"`
	UserID string `json:"user_id,omitempty"`
	Login  string `json:"login,omitempty"`
	Role   string `json:"role,omitempty"`
}

// AuthEventResponse reports the latest unacknowledged auth event
type AuthEventResponse struct {
	Code    *int   `json:"code"`
	Message string `json:"message,omitempty"`
}

// PositionResponse is a tracked position served by the local status server
type PositionResponse struct {
	DeviceID       int64    `json:"device_id"`
	DeviceName     string   `json:"device_name"`
	PetName        string   `json:"pet_name,omitempty"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Speed          *float64 `json:"speed,omitempty"`
	Address        string   `json:"address,omitempty"`
	FixTime        string   `json:"fix_time,omitempty"`
	BatteryPercent *float64 `json:"battery_percent,omitempty"`
	ObservedAt     string   `json:"observed_at"`
	NavigationURL  string   `json:"navigation_url"`
}
