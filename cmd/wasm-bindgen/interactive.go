package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <module.wasm>",
		Short: "Browse the module's bindings interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("browse needs a terminal; use inspect for plain output")
			}
			p := tea.NewProgram(newBrowseModel(args[0]), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
}

type browseModel struct {
	err       error
	filename  string
	surface   *surface
	visible   []binding
	filter    textinput.Model
	selected  int
	filtering bool
}

type surfaceLoadedMsg struct {
	err error
	s   *surface
}

func newBrowseModel(filename string) *browseModel {
	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "
	filter.Width = 30
	return &browseModel{filename: filename, filter: filter}
}

func (m *browseModel) Init() tea.Cmd {
	return m.load
}

func (m *browseModel) load() tea.Msg {
	s, err := loadSurface(context.Background(), m.filename)
	return surfaceLoadedMsg{err: err, s: s}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case surfaceLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.surface = msg.s
		m.refilter()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if !m.filtering {
				return m, tea.Quit
			}

		case "up", "k":
			if !m.filtering && m.selected > 0 {
				m.selected--
			}
			if m.filtering {
				break
			}
			return m, nil

		case "down", "j":
			if !m.filtering && m.selected < len(m.visible)-1 {
				m.selected++
			}
			if m.filtering {
				break
			}
			return m, nil

		case "/":
			if !m.filtering {
				m.filtering = true
				m.filter.Focus()
				return m, textinput.Blink
			}

		case "enter", "esc":
			if m.filtering {
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			if msg.String() == "esc" && m.filter.Value() != "" {
				m.filter.SetValue("")
				m.refilter()
				return m, nil
			}
		}
	}

	if m.filtering {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.refilter()
		return m, cmd
	}
	return m, nil
}

func (m *browseModel) refilter() {
	if m.surface == nil {
		return
	}
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, b := range m.surface.bindings {
		if needle == "" || strings.Contains(strings.ToLower(b.name), needle) {
			m.visible = append(m.visible, b)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.surface == nil {
		return "Loading module..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Bindings"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("no bindings match"))
		b.WriteString("\n")
	}
	for i, bd := range m.visible {
		if i == m.selected {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("> %-7s %s", bd.kind, bd.name)))
		} else {
			b.WriteString("  ")
			b.WriteString(helpStyle.Render(fmt.Sprintf("%-7s", bd.kind)))
			b.WriteString(" ")
			b.WriteString(funcStyle.Render(bd.name))
		}
		b.WriteString("\n")
	}

	if m.selected < len(m.visible) {
		b.WriteString("\n")
		b.WriteString(typeStyle.Render(m.visible[m.selected].signature))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • / filter • esc clear • q quit"))
	return b.String()
}
