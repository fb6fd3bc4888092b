package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

const maxHistory = 8

type historyEntry struct {
	source string
	result string
	err    error
}

type interactiveModel struct {
	b        *bridge
	input    textinput.Model
	history  []historyEntry
	selected int
}

type evalResultMsg struct {
	source string
	result string
	err    error
}

func newInteractiveModel(b *bridge) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "script, e.g. app.counter.add(1)"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{b: b, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			if len(m.b.channels) > 0 {
				m.selected = (m.selected + 1) % len(m.b.channels)
			}
			return m, nil

		case "enter":
			src := strings.TrimSpace(m.input.Value())
			if src == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m, m.evaluate(src)
		}

	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.input.Width = msg.Width - 8
		}

	case evalResultMsg:
		m.history = append(m.history, historyEntry{source: msg.source, result: msg.result, err: msg.err})
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) evaluate(src string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		v, err := m.b.page.Evaluate(ctx, src)
		m.b.sync()
		if err != nil {
			return evalResultMsg{source: src, err: err}
		}
		return evalResultMsg{source: src, result: formatValue(v)}
	}
}

func formatValue(v any) string {
	if v == nil {
		return "undefined"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Web Bridge"))
	b.WriteString(" ")
	b.WriteString(m.b.title)
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.channelsView()))
	b.WriteString("\n\n")

	for _, h := range m.history {
		b.WriteString(helpStyle.Render("> " + h.source))
		b.WriteString("\n")
		if h.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", h.err)))
		} else {
			b.WriteString(resultStyle.Render(h.result))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter evaluate • tab next channel • esc quit"))
	return b.String()
}

func (m *interactiveModel) channelsView() string {
	var b strings.Builder
	for i, ch := range m.b.channels {
		line := fmt.Sprintf("%s %s", ch.Name(), ch.Namespace())
		if !ch.Bound() {
			line += " (unbound)"
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + nameStyle.Render(line))
		}
		b.WriteString("\n")
	}
	if len(m.b.channels) == 0 {
		return "no channels"
	}

	ch := m.b.channels[m.selected]
	if desc := ch.Descriptor(); desc != nil {
		b.WriteString("\n")
		b.WriteString(typeStyle.Render(formatMembers(desc.Members())))
		b.WriteString("\n")
	}
	for _, id := range ch.Instances() {
		inst, ok := ch.Instance(id)
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("  [%d] %s %s\n", id, nameStyle.Render(inst.Namespace()), typeStyle.Render(fmt.Sprintf("%T", inst.Object()))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func runInteractive(b *bridge) error {
	p := tea.NewProgram(newInteractiveModel(b), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
