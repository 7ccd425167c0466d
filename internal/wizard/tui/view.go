package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wifiprov/internal/portalclient"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/supervisor"
	"github.com/muurk/wifiprov/internal/ui"
	"github.com/muurk/wifiprov/internal/version"
)

// AppName is shown in the wizard banner.
const AppName = "WIFIPROV SETUP WIZARD"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ui.PrimaryColor).
			Padding(0, 1)
)

// View implements tea.Model
func (m Model) View() string {
	var body string
	switch m.screen {
	case screenDiscover:
		body = m.viewDiscover()
	case screenNetworks:
		body = m.viewNetworks()
	case screenPassword:
		body = m.viewPassword()
	case screenConnecting:
		body = m.viewConnecting()
	case screenResult:
		body = m.viewResult()
	}

	width := m.width
	if width < ui.MinTerminalWidth {
		width = ui.MinTerminalWidth
	}
	header := titleStyle.Render(AppName) + ui.MutedStyle.Render("  "+version.Version)
	if m.portalURL != "" {
		header += "\n" + ui.MutedStyle.Render("portal "+m.portalURL)
	}

	return containerStyle.Width(width-2).Render(
		header+"\n\n"+body+"\n\n"+m.help.View(m.helpKeys()),
	) + "\n"
}

func (m Model) viewError() string {
	if m.err == nil {
		return ""
	}
	return ui.ErrorMessageStyle.Render(ui.FailureMarker+" "+m.err.Error()) + "\n" +
		ui.MutedStyle.Render(portalclient.TroubleshootingHint(m.err))
}

func (m Model) viewDiscover() string {
	if m.manual {
		return "Portal address:\n\n" + m.input.View()
	}
	if m.busy {
		return m.spinner.View() + " Looking for provisioning portals..."
	}
	if m.err != nil {
		return m.viewError()
	}
	if len(m.portals) == 0 {
		return ui.WarningTitleStyle.Render(ui.WarningMarker+" No portals found.") + "\n\n" +
			ui.MutedStyle.Render("Join the device's setup network, then press r to rescan\nor m to enter the portal address.")
	}

	var b strings.Builder
	b.WriteString("Select a portal:\n\n")
	for i, p := range m.portals {
		line := fmt.Sprintf("%s  %s", p.Instance, ui.MutedStyle.Render(p.BaseURL()))
		if ap := p.AccessPoint(); ap != "" {
			line += ui.MutedStyle.Render("  ap=" + ap)
		}
		b.WriteString(m.row(i, line))
	}
	return b.String()
}

func (m Model) row(i int, line string) string {
	if i == m.cursor {
		return cursorStyle.Render("> ") + line + "\n"
	}
	return "  " + line + "\n"
}

func (m Model) viewNetworks() string {
	if m.busy {
		return m.spinner.View() + " Scanning for networks (this takes a few seconds)..."
	}
	if m.err != nil {
		return m.viewError()
	}
	if len(m.networks) == 0 {
		return ui.WarningTitleStyle.Render(ui.WarningMarker+" No networks found.") + "\n\n" +
			ui.MutedStyle.Render("Press r to scan again.")
	}

	var b strings.Builder
	b.WriteString("Select a network:\n\n")
	for i, n := range m.networks {
		security := ""
		if n.AuthMode != radio.AuthOpen {
			security = ui.MutedStyle.Render("  " + ui.LockMarker + " " + n.AuthMode.String())
		}
		b.WriteString(m.row(i, fmt.Sprintf("%s %-32s%s", ui.SignalBars(n.RSSI), n.SSID, security)))
	}
	if m.hidden > 0 {
		b.WriteString("\n" + ui.MutedStyle.Render(fmt.Sprintf("%d hidden network(s) not shown; use 'wifiprov-cfg configure --ssid'", m.hidden)))
	}
	return b.String()
}

func (m Model) viewPassword() string {
	return fmt.Sprintf("Password for %s (%s):\n\n%s", m.selected.SSID, m.selected.AuthMode, m.input.View())
}

func (m Model) viewConnecting() string {
	if m.status.State == "" {
		return m.spinner.View() + " Submitting credentials for " + m.selected.SSID + "..."
	}
	attempts := 0.0
	if m.status.MaxRetries > 0 {
		attempts = float64(m.status.RetryCount) / float64(m.status.MaxRetries)
	}
	return m.spinner.View() + " " + ui.FormatStatus(m.status) + "\n\n" + m.bar.ViewAs(attempts)
}

func (m Model) viewResult() string {
	switch {
	case m.err != nil:
		return m.viewError() + "\n\n" + ui.MutedStyle.Render("Press r to pick a network again.")
	case m.connected:
		return ui.SuccessTitleStyle.Render(ui.SuccessMarker+" Connected to "+m.status.SSID) + "\n\n" +
			"Address: " + m.status.IP + "\n" +
			ui.MutedStyle.Render("The device is online. Press q to exit.")
	default:
		msg := ui.ErrorTitleStyle.Render(ui.FailureMarker+" Could not join "+m.status.SSID) + "\n\n"
		if m.status.State == supervisor.StateFailed {
			msg += fmt.Sprintf("Gave up after %d retries (reason %d).\n", m.status.RetryCount, m.status.LastReason)
		}
		return msg + ui.MutedStyle.Render("Check the password and press r to try again.")
	}
}
