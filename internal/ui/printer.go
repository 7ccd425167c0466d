package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/radio"
	"github.com/muurk/wifiprov/internal/supervisor"
)

// Printer writes styled output for the CLI commands.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer that writes to w, or os.Stdout if w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	h := NewHeader(title, command, params...)
	h.Width = p.width
	p.Println(h.Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	r := NewSuccessResult(title, details...)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	r := NewWarningResult(title, details...)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintError prints a failure box with an optional multi-line hint.
func (p *Printer) PrintError(title string, err error, hint string) {
	r := NewFailureResult(title, err, hint)
	r.Width = p.width
	p.Println(r.Render())
}

// PrintNetworks prints scan results in the order the portal returned them.
func (p *Printer) PrintNetworks(nets []radio.AccessPointRecord) {
	if len(nets) == 0 {
		p.Println(MutedStyle.Render("  No networks found."))
		return
	}

	ssidWidth := len("SSID")
	for _, n := range nets {
		if w := lipgloss.Width(displaySSID(n.SSID)); w > ssidWidth {
			ssidWidth = w
		}
	}

	pad := func(s string, w int) string {
		if gap := w - lipgloss.Width(s); gap > 0 {
			return s + strings.Repeat(" ", gap)
		}
		return s
	}

	p.Println(TableHeaderStyle.Render(fmt.Sprintf("  %s  %-6s  %5s  %s", pad("SSID", ssidWidth), "SIGNAL", "RSSI", "SECURITY")))
	for _, n := range nets {
		security := n.AuthMode.String()
		if n.AuthMode != radio.AuthOpen {
			security = LockMarker + " " + security
		}
		p.Println(fmt.Sprintf("  %s  %s    %5d  %s", pad(displaySSID(n.SSID), ssidWidth), SignalBars(n.RSSI), n.RSSI, security))
	}
}

// PrintPortals prints discovered portals.
func (p *Printer) PrintPortals(portals []*discovery.Portal) {
	if len(portals) == 0 {
		p.Println(MutedStyle.Render("  No portals found."))
		return
	}
	for _, portal := range portals {
		line := fmt.Sprintf("  %s  %s", ResultValueStyle.Render(portal.Instance), MutedStyle.Render(portal.BaseURL()))
		if ap := portal.AccessPoint(); ap != "" {
			line += MutedStyle.Render("  ap=" + ap)
		}
		p.Println(line)
	}
}

// PrintStatus prints a one-line status summary.
func (p *Printer) PrintStatus(st supervisor.Status) {
	p.Println("  " + FormatStatus(st))
}

// FormatStatus renders a status as a single styled line.
func FormatStatus(st supervisor.Status) string {
	switch st.State {
	case supervisor.StateConnected:
		return SuccessTitleStyle.Render(SuccessMarker+" connected") + " to " + st.SSID + MutedStyle.Render(" ("+st.IP+")")
	case supervisor.StateConnecting:
		line := WarningTitleStyle.Render("● connecting") + " to " + st.SSID
		if st.RetryCount > 0 {
			line += MutedStyle.Render(fmt.Sprintf(" (retry %d/%d)", st.RetryCount, st.MaxRetries))
		}
		return line
	case supervisor.StateFailed:
		line := ErrorTitleStyle.Render(FailureMarker+" failed") + " to join " + st.SSID
		if st.LastReason != 0 {
			line += MutedStyle.Render(fmt.Sprintf(" (reason %d)", st.LastReason))
		}
		return line
	default:
		return MutedStyle.Render("· disconnected")
	}
}

func displaySSID(ssid string) string {
	if ssid == "" {
		return "<hidden>"
	}
	return ssid
}
