// Package tui implements the interactive setup wizard of wifiprov-cfg.
//
// The wizard walks through four screens: pick a portal (found over mDNS or
// typed in), pick a network from the device's scan, enter its password, and
// watch the device join. Open networks skip the password screen. Status is
// polled from /status every half second while connecting; network errors
// during that phase are expected while the device's radio changes mode and
// are retried.
//
//	m := tui.New(ctx, tui.Options{
//	    Finder: discovery.NewScanner(),
//	    Dial:   func(url string) tui.Portal { return portalclient.New(url) },
//	})
//	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
package tui
