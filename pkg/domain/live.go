package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Live frame type tags. Older backends emit untagged frames; see
// ClassifyLiveMessage for the structural fallback.
const (
	LivePosition = "position"
	LiveGeofence = "geofence"
)

// Geofence event types.
const (
	GeofenceEnter = "enter"
	GeofenceExit  = "exit"
)

// LiveMessage is one message delivered over the live channel: either a
// PositionUpdate or a GeofenceEvent.
type LiveMessage interface {
	// Tracker returns the id of the tracker the message concerns.
	Tracker() string
}

// PositionUpdate is a live GPS fix for a tracker.
type PositionUpdate struct {
	TrackerID    string  `json:"trackerId"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	SpeedKph     float64 `json:"speedKph"`
	EventType    string  `json:"eventType,omitempty"`
	TimestampISO string  `json:"timestampIso"`
}

// Tracker implements LiveMessage.
func (p PositionUpdate) Tracker() string { return p.TrackerID }

// GeofenceEvent is a live enter/exit notification for a tracker relative to
// a geofence.
type GeofenceEvent struct {
	TrackerID    string `json:"trackerId"`
	GeofenceID   string `json:"geofenceId"`
	EventType    string `json:"eventType"`
	TimestampISO string `json:"timestampIso"`
}

// Tracker implements LiveMessage.
func (g GeofenceEvent) Tracker() string { return g.TrackerID }

// ErrUnclassifiableFrame is returned when a frame matches no known message
// shape. Callers drop such frames rather than propagating them.
var ErrUnclassifiableFrame = errors.New("unclassifiable live frame")

// liveProbe sniffs the discriminating fields of an inbound frame.
type liveProbe struct {
	Type       string   `json:"type"`
	Latitude   *float64 `json:"latitude"`
	GeofenceID *string  `json:"geofenceId"`
}

// ClassifyLiveMessage parses a raw live frame into the LiveMessage union.
// The explicit "type" tag wins; untagged frames fall back to structural
// detection, where a geofenceId outranks a latitude because it is the more
// specific shape.
func ClassifyLiveMessage(raw []byte) (LiveMessage, error) {
	var probe liveProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnclassifiableFrame, err)
	}

	kind := probe.Type
	if kind == "" {
		switch {
		case probe.GeofenceID != nil:
			kind = LiveGeofence
		case probe.Latitude != nil:
			kind = LivePosition
		default:
			return nil, ErrUnclassifiableFrame
		}
	}

	switch kind {
	case LivePosition:
		var p PositionUpdate
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnclassifiableFrame, err)
		}
		return p, nil
	case LiveGeofence:
		var g GeofenceEvent
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnclassifiableFrame, err)
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrUnclassifiableFrame, kind)
	}
}
