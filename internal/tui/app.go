package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fleetdeck/fleetdeck/pkg/client"
	"github.com/fleetdeck/fleetdeck/pkg/domain"
	"github.com/fleetdeck/fleetdeck/pkg/live"
	"github.com/fleetdeck/fleetdeck/pkg/session"
)

type view int

const (
	viewFleet view = iota
	viewEvents
)

// liveMsg carries one classified channel message into the Bubbletea world.
type liveMsg struct {
	msg domain.LiveMessage
}

// connStateMsg reflects the channel's open/close transitions.
type connStateMsg struct {
	connected bool
}

// App is the root model. It bridges the live channel's listener API into
// Bubbletea messages and fans them out to the tabs, which filter for the
// message shapes they care about.
type App struct {
	client  *client.Client
	session *session.Manager
	channel *live.Channel

	view      view
	fleet     fleetModel
	events    eventsModel
	connected bool
	width     int
	height    int

	updates chan tea.Msg
}

// NewApp wires the data layer into the dashboard. Channel listeners push
// into a buffered queue the Elm loop drains; a full queue drops the oldest
// signal rather than blocking the channel's reader.
func NewApp(c *client.Client, sess *session.Manager, ch *live.Channel) App {
	a := App{
		client:  c,
		session: sess,
		channel: ch,
		fleet:   newFleetModel(c, ch),
		events:  newEventsModel(c),
		updates: make(chan tea.Msg, 64),
	}
	if ch != nil {
		ch.OnMessage(func(m domain.LiveMessage) { a.push(liveMsg{msg: m}) })
		ch.OnOpen(func() { a.push(connStateMsg{connected: true}) })
		ch.OnClose(func() { a.push(connStateMsg{connected: false}) })
	}
	return a
}

func (a App) push(msg tea.Msg) {
	select {
	case a.updates <- msg:
	default:
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.fleet.Init(), a.events.Init(), waitForUpdate(a.updates))
}

// waitForUpdate blocks on the listener queue and re-arms after each message.
func waitForUpdate(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(1) + tabs(1) + help(1)
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 3}
		a.fleet, _ = a.fleet.Update(bodyMsg)
		a.events, _ = a.events.Update(bodyMsg)
		return a, nil

	case liveMsg:
		switch m := msg.msg.(type) {
		case domain.PositionUpdate:
			a.fleet = a.fleet.applyPosition(m)
		case domain.GeofenceEvent:
			a.events = a.events.applyGeofence(m)
		}
		return a, waitForUpdate(a.updates)

	case connStateMsg:
		a.connected = msg.connected
		return a, waitForUpdate(a.updates)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			a.view = (a.view + 1) % 2
			return a, nil
		case "1":
			a.view = viewFleet
			return a, nil
		case "2":
			a.view = viewEvents
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewFleet:
		a.fleet, cmd = a.fleet.Update(msg)
	case viewEvents:
		a.events, cmd = a.events.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	var sb strings.Builder

	sb.WriteString(" " + titleStyle.Render("FLEETDECK") + "  " + a.connIndicator())
	if a.session != nil {
		if cred := a.session.CurrentCredential(); cred != nil {
			sb.WriteString("  " + dimStyle.Render(cred.Profile.Email))
		}
	}
	sb.WriteString("\n")

	tabs := []struct {
		v     view
		label string
	}{
		{viewFleet, "1 fleet"},
		{viewEvents, "2 events"},
	}
	for i, t := range tabs {
		if i > 0 {
			sb.WriteString(metaStyle.Render(" · "))
		}
		if t.v == a.view {
			sb.WriteString(tabActiveStyle.Render(t.label))
		} else {
			sb.WriteString(tabInactiveStyle.Render(t.label))
		}
	}
	sb.WriteString("\n")

	switch a.view {
	case viewFleet:
		sb.WriteString(a.fleet.View())
	case viewEvents:
		sb.WriteString(a.events.View())
	}

	sb.WriteString("\n " + dimStyle.Render("tab switch · ↑/↓ select · c copy coords · r reload · q quit"))
	return sb.String()
}

// connIndicator is the connectivity dot the spec leaves to the UI.
func (a App) connIndicator() string {
	if a.connected {
		return okStyle.Render("●") + " " + dimStyle.Render("live")
	}
	if a.channel != nil && a.channel.State() == live.Reconnecting {
		return warnStyle.Render("●") + " " + dimStyle.Render("reconnecting")
	}
	return errStyle.Render("●") + " " + dimStyle.Render("offline")
}
