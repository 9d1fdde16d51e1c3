package domain

import (
	"errors"
	"testing"
)

func TestClassifyTaggedPosition(t *testing.T) {
	raw := []byte(`{"type":"position","trackerId":"car1","latitude":48.85,"longitude":2.35,"speedKph":42.5,"timestampIso":"2026-03-01T12:00:00Z"}`)
	msg, err := ClassifyLiveMessage(raw)
	if err != nil {
		t.Fatalf("ClassifyLiveMessage() error: %v", err)
	}
	p, ok := msg.(PositionUpdate)
	if !ok {
		t.Fatalf("got %T, want PositionUpdate", msg)
	}
	if p.TrackerID != "car1" {
		t.Errorf("TrackerID = %q, want %q", p.TrackerID, "car1")
	}
	if p.SpeedKph != 42.5 {
		t.Errorf("SpeedKph = %v, want 42.5", p.SpeedKph)
	}
}

func TestClassifyTaggedGeofence(t *testing.T) {
	raw := []byte(`{"type":"geofence","trackerId":"van7","geofenceId":"depot","eventType":"enter","timestampIso":"2026-03-01T12:00:00Z"}`)
	msg, err := ClassifyLiveMessage(raw)
	if err != nil {
		t.Fatalf("ClassifyLiveMessage() error: %v", err)
	}
	g, ok := msg.(GeofenceEvent)
	if !ok {
		t.Fatalf("got %T, want GeofenceEvent", msg)
	}
	if g.EventType != GeofenceEnter {
		t.Errorf("EventType = %q, want %q", g.EventType, GeofenceEnter)
	}
}

func TestClassifyUntaggedFallsBackToShape(t *testing.T) {
	pos, err := ClassifyLiveMessage([]byte(`{"trackerId":"car1","latitude":1.0,"longitude":2.0}`))
	if err != nil {
		t.Fatalf("position fallback error: %v", err)
	}
	if _, ok := pos.(PositionUpdate); !ok {
		t.Errorf("got %T, want PositionUpdate", pos)
	}

	geo, err := ClassifyLiveMessage([]byte(`{"trackerId":"car1","geofenceId":"zone9","eventType":"exit"}`))
	if err != nil {
		t.Fatalf("geofence fallback error: %v", err)
	}
	if _, ok := geo.(GeofenceEvent); !ok {
		t.Errorf("got %T, want GeofenceEvent", geo)
	}
}

func TestClassifyAmbiguousFramePrefersGeofence(t *testing.T) {
	// Untagged frame carrying both discriminating fields: the more specific
	// shape wins.
	raw := []byte(`{"trackerId":"car1","latitude":1.0,"geofenceId":"zone9","eventType":"enter"}`)
	msg, err := ClassifyLiveMessage(raw)
	if err != nil {
		t.Fatalf("ClassifyLiveMessage() error: %v", err)
	}
	if _, ok := msg.(GeofenceEvent); !ok {
		t.Errorf("got %T, want GeofenceEvent", msg)
	}
}

func TestClassifyRejectsUnknownFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no discriminant", `{"trackerId":"car1"}`},
		{"unknown tag", `{"type":"heartbeat"}`},
		{"not json", `ping`},
		{"json array", `[1,2,3]`},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifyLiveMessage([]byte(tt.raw))
			if !errors.Is(err, ErrUnclassifiableFrame) {
				t.Errorf("error = %v, want ErrUnclassifiableFrame", err)
			}
		})
	}
}
