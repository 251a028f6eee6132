package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLatLng splits a "lat,lng" coordinate string.
func ParseLatLng(latLngStr string) (float64, float64) {
	parts := strings.Split(latLngStr, ",")
	if len(parts) != 2 {
		return 0, 0
	}
	lat, _ := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, _ := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return lat, lng
}

// FormatLatLng renders coordinates in the "lat,lng" wire format the
// reservation API expects.
func FormatLatLng(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// FallbackAddress is the human-readable stand-in used when reverse
// geocoding cannot name a point.
func FallbackAddress(lat, lng float64) string {
	return fmt.Sprintf("위도: %.6f, 경도: %.6f", lat, lng)
}
