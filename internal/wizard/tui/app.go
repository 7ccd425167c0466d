package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/portalclient"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/supervisor"
	"github.com/muurk/wifiprov/internal/ui"
)

type screen int

const (
	screenDiscover screen = iota
	screenNetworks
	screenPassword
	screenConnecting
	screenResult
)

const (
	requestTimeout = 20 * time.Second
	pollInterval   = 500 * time.Millisecond
)

// Finder locates portals.
type Finder interface {
	Scan(ctx context.Context) ([]*discovery.Portal, error)
}

// Portal is the subset of portalclient.Client the wizard drives.
type Portal interface {
	Scan(ctx context.Context) ([]radio.AccessPointRecord, error)
	Configure(ctx context.Context, ssid, password string) (string, error)
	Status(ctx context.Context) (supervisor.Status, error)
}

// Options configures the wizard.
type Options struct {
	// PortalURL skips discovery when set
	PortalURL string
	Finder    Finder
	Dial      func(url string) Portal
}

type discoverMsg struct {
	portals []*discovery.Portal
	err     error
}

type networksMsg struct {
	networks []radio.AccessPointRecord
	hidden   int
	err      error
}

type submittedMsg struct{ err error }

type pollMsg struct{}

type statusMsg struct {
	status supervisor.Status
	err    error
}

// Model is the wizard's Bubble Tea model.
type Model struct {
	ctx    context.Context
	finder Finder
	dial   func(string) Portal

	screen  screen
	busy    bool
	manual  bool
	cursor  int
	err     error
	width   int
	spinner spinner.Model
	input   textinput.Model
	bar     progress.Model
	help    help.Model
	keys    keyMap

	portals   []*discovery.Portal
	portalURL string
	portal    Portal

	networks []radio.AccessPointRecord
	hidden   int
	selected radio.AccessPointRecord

	status     supervisor.Status
	connecting bool
	connected  bool
}

// New creates the wizard. ctx bounds every request it makes.
func New(ctx context.Context, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.WarningTitleStyle

	in := textinput.New()
	in.CharLimit = radio.MaxPassphraseLength

	m := Model{
		ctx:     ctx,
		finder:  opts.Finder,
		dial:    opts.Dial,
		spinner: s,
		input:   in,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		help:    help.New(),
		keys:    newKeyMap(),
		width:   ui.GetTerminalWidth(),
		busy:    true,
	}
	if opts.PortalURL != "" {
		m.usePortal(opts.PortalURL)
		m.screen = screenNetworks
	}
	return m
}

// PortalURL returns the portal the user worked with, if any.
func (m Model) PortalURL() string {
	return m.portalURL
}

// Status returns the last status seen from the portal.
func (m Model) Status() supervisor.Status {
	return m.status
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	if m.screen == screenNetworks {
		return tea.Batch(m.spinner.Tick, m.scanNetworks())
	}
	return tea.Batch(m.spinner.Tick, m.discover())
}

func (m *Model) usePortal(url string) {
	m.portalURL = url
	m.portal = m.dial(url)
	m.busy = true
	m.err = nil
	m.cursor = 0
}

func (m Model) discover() tea.Cmd {
	finder, ctx := m.finder, m.ctx
	return func() tea.Msg {
		portals, err := finder.Scan(ctx)
		return discoverMsg{portals: portals, err: err}
	}
}

func (m Model) scanNetworks() tea.Cmd {
	portal, ctx := m.portal, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		nets, err := portal.Scan(ctx)
		if err != nil {
			return networksMsg{err: err}
		}
		visible := make([]radio.AccessPointRecord, 0, len(nets))
		for _, n := range nets {
			if n.SSID != "" {
				visible = append(visible, n)
			}
		}
		return networksMsg{networks: visible, hidden: len(nets) - len(visible)}
	}
}

func (m Model) submit(ssid, password string) tea.Cmd {
	portal, ctx := m.portal, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		_, err := portal.Configure(ctx, ssid, password)
		return submittedMsg{err: err}
	}
}

func (m Model) poll() tea.Cmd {
	portal, ctx := m.portal, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		st, err := portal.Status(ctx)
		return statusMsg{status: st, err: err}
	}
}

func schedulePoll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case discoverMsg:
		m.busy = false
		m.portals, m.err = msg.portals, msg.err
		m.cursor = 0
		return m, nil

	case networksMsg:
		m.busy = false
		m.networks, m.hidden, m.err = msg.networks, msg.hidden, msg.err
		m.cursor = 0
		return m, nil

	case submittedMsg:
		if msg.err != nil {
			m.busy = false
			m.err = msg.err
			m.screen = screenResult
			return m, nil
		}
		return m, m.poll()

	case pollMsg:
		return m, m.poll()

	case statusMsg:
		return m.handleStatus(msg)
	}
	return m, nil
}

func (m Model) handleStatus(msg statusMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if portalclient.IsNetworkError(msg.err) {
			// the radio may be switching modes
			return m, schedulePoll()
		}
		m.busy = false
		m.err = msg.err
		m.screen = screenResult
		return m, nil
	}

	st := msg.status
	if st.SSID != m.selected.SSID {
		return m, schedulePoll()
	}
	m.status = st
	switch st.State {
	case supervisor.StateConnecting:
		m.connecting = true
	case supervisor.StateConnected:
		m.busy = false
		m.connected = true
		m.screen = screenResult
		return m, nil
	case supervisor.StateFailed:
		if m.connecting {
			m.busy = false
			m.screen = screenResult
			return m, nil
		}
	}
	return m, schedulePoll()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenDiscover:
		return m.handleDiscoverKey(msg)
	case screenNetworks:
		return m.handleNetworksKey(msg)
	case screenPassword:
		return m.handlePasswordKey(msg)
	case screenResult:
		switch {
		case key.Matches(msg, m.keys.Rescan):
			return m.openNetworks()
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Enter):
			return m, tea.Quit
		}
	case screenConnecting:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleDiscoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.manual {
		switch {
		case key.Matches(msg, m.keys.Enter):
			addr := strings.TrimSpace(m.input.Value())
			if addr == "" {
				return m, nil
			}
			m.manual = false
			m.input.Blur()
			return m.choosePortal(portalclient.New(addr).BaseURL)
		case key.Matches(msg, m.keys.Back):
			m.manual = false
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.busy {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.portals)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if len(m.portals) > 0 {
			return m.choosePortal(m.portals[m.cursor].BaseURL())
		}
	case key.Matches(msg, m.keys.Rescan):
		m.busy = true
		m.err = nil
		return m, m.discover()
	case key.Matches(msg, m.keys.Manual):
		m.manual = true
		m.input.Reset()
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "192.168.4.1"
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) choosePortal(url string) (tea.Model, tea.Cmd) {
	m.usePortal(url)
	m.screen = screenNetworks
	return m, m.scanNetworks()
}

func (m Model) openNetworks() (tea.Model, tea.Cmd) {
	m.screen = screenNetworks
	m.busy = true
	m.err = nil
	m.connecting, m.connected = false, false
	m.status = supervisor.Status{}
	return m, m.scanNetworks()
}

func (m Model) handleNetworksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.networks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if len(m.networks) == 0 {
			return m, nil
		}
		m.selected = m.networks[m.cursor]
		if m.selected.AuthMode == radio.AuthOpen {
			return m.startConnect("")
		}
		m.screen = screenPassword
		m.input.Reset()
		m.input.EchoMode = textinput.EchoPassword
		m.input.Placeholder = "password"
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Rescan):
		return m.openNetworks()
	case key.Matches(msg, m.keys.Back):
		m.screen = screenDiscover
		m.busy = true
		m.err = nil
		return m, m.discover()
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handlePasswordKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		pw := m.input.Value()
		m.input.Blur()
		return m.startConnect(pw)
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		m.screen = screenNetworks
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startConnect(password string) (tea.Model, tea.Cmd) {
	m.screen = screenConnecting
	m.busy = true
	m.err = nil
	m.connecting, m.connected = false, false
	m.status = supervisor.Status{}
	return m, m.submit(m.selected.SSID, password)
}
