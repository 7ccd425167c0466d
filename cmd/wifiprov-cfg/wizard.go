package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/wifiprov/internal/discovery"
	"github.com/muurk/wifiprov/internal/portalclient"
	"github.com/muurk/wifiprov/internal/wizard/tui"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long: `Launch the full-screen wizard: pick a portal, pick a network, enter its
password and watch the device join.`,
	RunE: runWizard,
}

func init() {
	rootCmd.AddCommand(wizardCmd)
}

func runWizard(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	scanner := discovery.NewScanner()
	if cfg.Client.DiscoverTimeout > 0 {
		scanner.Timeout = secondsOf(cfg.Client.DiscoverTimeout)
	}

	start := portalURL
	if start == "" {
		start = cfg.Client.Portal
	}

	m := tui.New(cmd.Context(), tui.Options{
		PortalURL: start,
		Finder:    scanner,
		Dial: func(url string) tui.Portal {
			return portalclient.New(url)
		},
	})

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	if fm, ok := final.(tui.Model); ok && fm.PortalURL() != "" {
		rememberPortal(cfg, fm.PortalURL())
		if st := fm.Status(); st.SSID != "" {
			fmt.Println(st.SSID + ": " + string(st.State))
		}
	}
	return nil
}
