package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fleetdeck/fleetdeck/pkg/client"
	"github.com/fleetdeck/fleetdeck/pkg/domain"
)

// feedCap bounds the in-memory geofence feed.
const feedCap = 100

type geofencesLoadedMsg struct {
	fences []domain.Geofence
	err    error
}

type alertsLoadedMsg struct {
	alerts []domain.Alert
	err    error
}

// eventsModel is the activity tab: the live geofence feed plus open alerts.
type eventsModel struct {
	client     *client.Client
	fenceNames map[string]string
	feed       []domain.GeofenceEvent
	alerts     []domain.Alert
	err        string
	width      int
	height     int
}

func newEventsModel(c *client.Client) eventsModel {
	return eventsModel{
		client:     c,
		fenceNames: make(map[string]string),
	}
}

func (m eventsModel) Init() tea.Cmd {
	return tea.Batch(m.loadGeofences(), m.loadAlerts())
}

func (m eventsModel) loadGeofences() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		fences, err := c.ListGeofences(ctx)
		return geofencesLoadedMsg{fences: fences, err: err}
	}
}

func (m eventsModel) loadAlerts() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		alerts, err := c.ListAlerts(ctx, client.Query{"acknowledged": false})
		return alertsLoadedMsg{alerts: alerts, err: err}
	}
}

func (m eventsModel) Update(msg tea.Msg) (eventsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case geofencesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		for _, f := range msg.fences {
			m.fenceNames[f.ID.String()] = f.Name
		}

	case alertsLoadedMsg:
		if msg.err == nil {
			m.alerts = msg.alerts
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, tea.Batch(m.loadGeofences(), m.loadAlerts())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// applyGeofence prepends a live event to the feed, newest first.
func (m eventsModel) applyGeofence(e domain.GeofenceEvent) eventsModel {
	feed := make([]domain.GeofenceEvent, 0, len(m.feed)+1)
	feed = append(feed, e)
	feed = append(feed, m.feed...)
	if len(feed) > feedCap {
		feed = feed[:feedCap]
	}
	m.feed = feed
	return m
}

// fenceName resolves a geofence id to its display name.
func (m eventsModel) fenceName(id string) string {
	if name, ok := m.fenceNames[id]; ok {
		return name
	}
	return id
}

func (m eventsModel) View() string {
	var sb strings.Builder

	if m.err != "" {
		sb.WriteString(" " + errStyle.Render("error: "+m.err) + "\n")
	}

	sb.WriteString(" " + dimStyle.Render("GEOFENCE ACTIVITY") + "\n")
	if len(m.feed) == 0 {
		sb.WriteString(" " + dimStyle.Render("no geofence events yet") + "\n")
	}
	maxFeed := m.height / 2
	if maxFeed < 5 {
		maxFeed = 5
	}
	for i, e := range m.feed {
		if i >= maxFeed {
			break
		}
		verb := enterStyle.Render("entered")
		if e.EventType == domain.GeofenceExit {
			verb = exitStyle.Render("left")
		}
		sb.WriteString(" " + dimStyle.Render(parseISO(e.TimestampISO)) + "  " +
			e.TrackerID + " " + verb + " " + m.fenceName(e.GeofenceID) + "\n")
	}

	sb.WriteString("\n " + dimStyle.Render("OPEN ALERTS") + "\n")
	if len(m.alerts) == 0 {
		sb.WriteString(" " + dimStyle.Render("nothing to acknowledge") + "\n")
		return sb.String()
	}
	for _, a := range m.alerts {
		sb.WriteString(" " + warnStyle.Render("!") + " " +
			a.TrackerID + " — " + truncStr(a.Message, 60) + " " +
			dimStyle.Render(formatAgo(a.CreatedAt)) + "\n")
	}
	return sb.String()
}
