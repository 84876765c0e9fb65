package dto

// DeviceListItem represents a device in the list response
type DeviceListItem struct {
	ID         int64   `json:"id"`
	BusinessID *string `json:"businessId,omitempty"`
	Name       *string `json:"name,omitempty"`
}

// DeviceListResponse represents the device list
type DeviceListResponse struct {
	Items []DeviceListItem `json:"items"`
}

// DeviceAssignedPet is the pet a device is attached to
type DeviceAssignedPet struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DeviceLastPosition is the last GPS fix reported by the tracker
type DeviceLastPosition struct {
	TraccarPositionID int64    `json:"traccarPositionId"`
	DeviceTime        *string  `json:"deviceTime"`
	FixTime           *string  `json:"fixTime"`
	ServerTime        *string  `json:"serverTime"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	Speed             *float64 `json:"speed"`
	Course            *float64 `json:"course"`
	Address           *string  `json:"address"`
}

// HasFix reports whether the position carries coordinates
func (p *DeviceLastPosition) HasFix() bool {
	return p != nil && p.Latitude != nil && p.Longitude != nil
}

// DeviceInfoResponse represents device telemetry
type DeviceInfoResponse struct {
	ID              int64  `json:"id"`
	BusinessID      string `json:"businessId"`
	DisplayName     string `json:"displayName"`
	TraccarDeviceID *int64 `json:"traccarDeviceId"`

	ConnectivityStatus *string `json:"connectivityStatus"`
	SensorLive         *bool   `json:"sensorLive"`
	LocationStatus     *string `json:"locationStatus"`
	LocationLive       *bool   `json:"locationLive"`

	BatteryPercent      *float64 `json:"batteryPercent"`
	Charging            *bool    `json:"charging"`
	LiveTrackingEnabled *bool    `json:"liveTrackingEnabled"`

	TraccarLastUpdate *string `json:"traccarLastUpdate"`
	AttributesReadAt  *string `json:"attributesReadAt,omitempty"`

	AssignedPet  *DeviceAssignedPet  `json:"assignedPet"`
	LastPosition *DeviceLastPosition `json:"lastPosition"`

	RSSI          *float64 `json:"rssi"`
	Motion        *bool    `json:"motion"`
	Sat           *int     `json:"sat"`
	Distance      *float64 `json:"distance"`
	TotalDistance *float64 `json:"totalDistance"`
	Hours         *float64 `json:"hours"`
	HeartRate     *float64 `json:"heartRate"`
	IP            *string  `json:"ip"`
}
