package domain

import "time"

// Tracker statuses as reported by the platform.
const (
	TrackerActive  = "active"
	TrackerIdle    = "idle"
	TrackerOffline = "offline"
)

// Position is a single GPS fix.
type Position struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedKph   float64   `json:"speedKph"`
	Course     float64   `json:"course,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Tracker represents a GPS-equipped vehicle or device. The ID is the stable
// identifier used to key live subscriptions.
type Tracker struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Plate        string    `json:"plate,omitempty"`
	Status       string    `json:"status"`
	LastPosition *Position `json:"lastPosition,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
