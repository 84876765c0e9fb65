package api

import (
	"strconv"
)

// NavigationURL builds a turn-by-turn link to the coordinates without any
// paid maps API: Apple Maps on iOS devices, Google Maps elsewhere.
func NavigationURL(lat, lng float64, ios bool) string {
	destination := formatCoordinate(lat) + "," + formatCoordinate(lng)
	if ios {
		return "maps://maps.apple.com/?daddr=" + destination
	}
	return "https://www.google.com/maps/dir/?api=1&destination=" + destination + "&travelmode=driving"
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
