// Package tui provides an interactive display picker: browse what macOS
// currently reports, select one, and save it as target_display.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/rawdigits/sunshine-macos-displayupdater/internal/config"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/display"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/reconcile"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// displaysMsg carries a finished enumeration into the model.
type displaysMsg []display.Record

// enumErrMsg carries an enumeration failure into the model.
type enumErrMsg struct{ err error }

// model is the bubbletea model for the display picker.
type model struct {
	configPath string
	cfg        *config.Config
	enumerate  reconcile.Enumerator

	displays []display.Record
	cursor   int
	loading  bool
	status   string
	errText  string

	// set on exit
	selected  string
	updateNow bool
}

func newModel(configPath string, cfg *config.Config, enumerate reconcile.Enumerator) model {
	return model{
		configPath: configPath,
		cfg:        cfg,
		enumerate:  enumerate,
		loading:    true,
	}
}

func (m model) fetchDisplays() tea.Cmd {
	return func() tea.Msg {
		records, err := m.enumerate(context.Background())
		if err != nil {
			return enumErrMsg{err}
		}
		return displaysMsg(records)
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.fetchDisplays()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case displaysMsg:
		m.displays = msg
		m.loading = false
		m.errText = ""
		if m.cursor >= len(m.displays) {
			m.cursor = 0
		}
		// Start on the currently configured target when it resolves.
		if m.cfg.TargetDisplay != "" {
			if rec, _, err := display.Match(m.cfg.TargetDisplay, m.displays); err == nil {
				for i, d := range m.displays {
					if d.ID == rec.ID && d.Name == rec.Name {
						m.cursor = i
						break
					}
				}
			}
		}
		return m, nil

	case enumErrMsg:
		m.loading = false
		m.errText = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(m.displays)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "r":
			m.loading = true
			m.status = ""
			return m, m.fetchDisplays()

		case "enter", "u":
			if m.loading || len(m.displays) == 0 {
				return m, nil
			}
			picked := m.displays[m.cursor]
			m.cfg.TargetDisplay = picked.Name
			if err := m.cfg.Save(m.configPath); err != nil {
				m.errText = err.Error()
				return m, nil
			}
			m.selected = picked.Name
			m.updateNow = msg.String() == "u"
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sunshine Display Picker"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Querying system_profiler..."))
		b.WriteString("\n")
	case m.errText != "":
		b.WriteString(errorStyle.Render("Error: " + m.errText))
		b.WriteString("\n")
	case len(m.displays) == 0:
		b.WriteString(dimStyle.Render("No displays reported."))
		b.WriteString("\n")
	default:
		for i, d := range m.displays {
			line := fmt.Sprintf("%s  (ID %s", d.Name, d.ID)
			if d.Resolution != "" {
				line += ", " + d.Resolution
			}
			line += ")"
			if d.Main {
				line += "  [main]"
			}
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString(dimStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	if m.cfg.TargetDisplay != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Current target: " + m.cfg.TargetDisplay))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("j/k navigate · enter set target · u set target + update now · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run starts the picker. updateNow is invoked after the TUI exits when the
// user asked for an immediate reconciliation of the chosen display.
func Run(configPath string, enumerate reconcile.Enumerator, updateNow func(target string) error) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	var cfg *config.Config
	var err error
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromPath(configPath)
	}
	if err != nil {
		return err
	}

	p := tea.NewProgram(newModel(configPath, cfg, enumerate))
	final, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := final.(model)
	if !ok || m.selected == "" {
		return nil
	}
	fmt.Printf("Target display set to %q\n", m.selected)
	if m.updateNow && updateNow != nil {
		return updateNow(m.selected)
	}
	return nil
}
