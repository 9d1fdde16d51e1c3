package domain

import (
	"time"

	"github.com/google/uuid"
)

// Geofence is a circular virtual zone trackers are matched against.
type Geofence struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	RadiusM   float64   `json:"radiusM"`
	CreatedAt time.Time `json:"createdAt"`
}

// Alert is a notification raised by the platform for a tracker (speeding,
// geofence breach, low battery, ...).
type Alert struct {
	ID           uuid.UUID `json:"id"`
	TrackerID    string    `json:"trackerId"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"createdAt"`
}
