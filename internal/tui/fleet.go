package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fleetdeck/fleetdeck/pkg/client"
	"github.com/fleetdeck/fleetdeck/pkg/domain"
	"github.com/fleetdeck/fleetdeck/pkg/live"
)

// trackersLoadedMsg carries the result of a fleet fetch.
type trackersLoadedMsg struct {
	trackers []domain.Tracker
	err      error
}

// fleetModel is the device-list tab: the fleet table plus the live
// positions streamed for it. Loading the list subscribes every tracker on
// the shared channel; positions then arrive without further requests.
type fleetModel struct {
	client     *client.Client
	channel    *live.Channel
	trackers   []domain.Tracker
	positions  map[string]domain.PositionUpdate
	subscribed map[string]bool
	cursor     int
	loading    bool
	copied     string
	err        string
	width      int
	height     int
}

func newFleetModel(c *client.Client, ch *live.Channel) fleetModel {
	return fleetModel{
		client:     c,
		channel:    ch,
		positions:  make(map[string]domain.PositionUpdate),
		subscribed: make(map[string]bool),
		loading:    true,
	}
}

func (m fleetModel) Init() tea.Cmd {
	return m.load()
}

func (m fleetModel) load() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		trackers, err := c.ListTrackers(ctx, nil)
		return trackersLoadedMsg{trackers: trackers, err: err}
	}
}

func (m fleetModel) Update(msg tea.Msg) (fleetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trackersLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.trackers = msg.trackers
		if m.cursor >= len(m.trackers) {
			m.cursor = 0
		}
		// Subscribe once per tracker; reloads only add what is new.
		if m.channel != nil {
			for _, t := range m.trackers {
				if !m.subscribed[t.ID] {
					m.subscribed[t.ID] = true
					m.channel.Subscribe(t.ID)
				}
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.copied = ""
		case "down", "j":
			if m.cursor < len(m.trackers)-1 {
				m.cursor++
			}
			m.copied = ""
		case "r":
			m.loading = true
			return m, m.load()
		case "c":
			if lat, lon, ok := m.selectedCoords(); ok {
				coord := formatCoord(lat, lon)
				if err := clipboard.WriteAll(coord); err == nil {
					m.copied = coord
				}
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// applyPosition folds a live fix into the table.
func (m fleetModel) applyPosition(p domain.PositionUpdate) fleetModel {
	m.positions[p.TrackerID] = p
	return m
}

// selectedCoords returns the freshest known coordinates of the tracker
// under the cursor: the live position if one arrived, else the last fix
// from the fleet fetch.
func (m fleetModel) selectedCoords() (lat, lon float64, ok bool) {
	if m.cursor >= len(m.trackers) {
		return 0, 0, false
	}
	t := m.trackers[m.cursor]
	if p, live := m.positions[t.ID]; live {
		return p.Latitude, p.Longitude, true
	}
	if t.LastPosition != nil {
		return t.LastPosition.Latitude, t.LastPosition.Longitude, true
	}
	return 0, 0, false
}

func (m fleetModel) View() string {
	if m.loading && len(m.trackers) == 0 {
		return " " + dimStyle.Render("loading fleet...")
	}
	if m.err != "" {
		return " " + errStyle.Render("error: "+m.err)
	}
	if len(m.trackers) == 0 {
		return " " + dimStyle.Render("no trackers yet")
	}

	var sb strings.Builder
	sb.WriteString(" " + dimStyle.Render(fmt.Sprintf("%-18s %-10s %-8s %-10s %-22s %s",
		"NAME", "PLATE", "STATUS", "SPEED", "POSITION", "SEEN")) + "\n")

	maxRows := m.height - 3
	if maxRows < 3 {
		maxRows = len(m.trackers)
	}
	for i, t := range m.trackers {
		if i >= maxRows {
			sb.WriteString(" " + dimStyle.Render(fmt.Sprintf("… %d more", len(m.trackers)-maxRows)) + "\n")
			break
		}

		speed := "—"
		coord := "—"
		seen := formatAgo(t.UpdatedAt)
		if t.LastPosition != nil {
			speed = formatSpeed(t.LastPosition.SpeedKph)
			coord = formatCoord(t.LastPosition.Latitude, t.LastPosition.Longitude)
		}
		if p, ok := m.positions[t.ID]; ok {
			speed = formatSpeed(p.SpeedKph)
			coord = formatCoord(p.Latitude, p.Longitude)
			seen = parseISO(p.TimestampISO)
		}

		row := fmt.Sprintf("%-18s %-10s %-8s %-10s %-22s %s",
			truncStr(t.Name, 18), t.Plate, t.Status, speed, coord, seen)
		if i == m.cursor {
			sb.WriteString(" " + selectedStyle.Render(row) + "\n")
		} else {
			sb.WriteString(" " + statusStyle(t.Status).Render(row) + "\n")
		}
	}

	if m.copied != "" {
		sb.WriteString(" " + okStyle.Render("copied "+m.copied) + "\n")
	}
	return sb.String()
}
