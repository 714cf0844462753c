package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/hmr-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	flagStyle = lipgloss.NewStyle().
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
)

type modelState int

const (
	stateSelectModule modelState = iota
	stateInspect
	stateEditUpdate
	stateShowResult
)

type inspectorModel struct {
	err      error
	rt       *runtime.Runtime
	manifest string
	entry    runtime.ID
	ids      []runtime.ID
	selected int
	inputs   []textinput.Model
	focusIdx int
	result   string
	state    modelState
}

func newInspectorModel(manifest, entryName string) *inspectorModel {
	return &inspectorModel{
		manifest: manifest,
		entry:    runtime.ID(entryName),
		state:    stateSelectModule,
	}
}

type loadedMsg struct {
	err   error
	rt    *runtime.Runtime
	entry runtime.ID
}

type appliedMsg struct {
	err    error
	result string
}

func (m *inspectorModel) Init() tea.Cmd {
	return m.load
}

func (m *inspectorModel) load() tea.Msg {
	rt, entry, err := loadManifest(m.manifest, string(m.entry))
	if err != nil {
		return loadedMsg{err: err}
	}
	if _, err := rt.RunEntry(entry); err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{rt: rt, entry: entry}
}

func (m *inspectorModel) refreshIDs() {
	m.ids = m.rt.ModuleIDs()
	if m.selected >= len(m.ids) {
		m.selected = len(m.ids) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateEditUpdate {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectModule && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectModule && m.selected < len(m.ids)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectModule:
				if len(m.ids) > 0 {
					m.state = stateInspect
				}
			case stateInspect:
				m.state = stateSelectModule
			case stateEditUpdate:
				return m, m.applyEdit
			case stateShowResult:
				m.state = stateSelectModule
				m.result = ""
				m.err = nil
			}

		case "u":
			if m.state == stateSelectModule || m.state == stateInspect {
				m.prepareInputs()
				m.state = stateEditUpdate
				return m, nil
			}

		case "r":
			if m.state == stateSelectModule && len(m.ids) > 0 {
				return m, m.requireSelected
			}

		case "tab":
			if m.state == stateEditUpdate {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInspect, stateEditUpdate, stateShowResult:
				m.state = stateSelectModule
				m.inputs = nil
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.entry = msg.entry
		m.refreshIDs()

	case appliedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
		m.refreshIDs()
	}

	if m.state == stateEditUpdate {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *inspectorModel) prepareInputs() {
	id := textinput.New()
	id.Prompt = "module: "
	id.Width = 40
	if len(m.ids) > 0 {
		id.SetValue(string(m.ids[m.selected]))
	}

	src := textinput.New()
	src.Prompt = "source: "
	src.Placeholder = "accept; set greeting hello-v2"
	src.Width = 60
	src.Focus()

	m.inputs = []textinput.Model{id, src}
	m.focusIdx = 1
}

func (m *inspectorModel) requireSelected() tea.Msg {
	id := m.ids[m.selected]
	v, err := m.rt.Require(id)
	if err != nil {
		return appliedMsg{err: err}
	}
	return appliedMsg{result: fmt.Sprintf("%s => %s", id, formatExports(v))}
}

func (m *inspectorModel) applyEdit() tea.Msg {
	id := runtime.ID(strings.TrimSpace(m.inputs[0].Value()))
	src := m.inputs[1].Value()
	if id == "" {
		return appliedMsg{err: fmt.Errorf("module id is empty")}
	}

	err := m.rt.ApplyUpdate(runtime.Update{
		Sources: map[runtime.ID]string{id: src},
	})
	if err != nil {
		return appliedMsg{err: err}
	}

	if rec, ok := m.rt.Module(id); ok {
		return appliedMsg{result: fmt.Sprintf("replaced %s, exports now %s", id, formatExports(rec.Exports))}
	}
	return appliedMsg{result: fmt.Sprintf("update applied; %s not currently instantiated", id)}
}

func (m *inspectorModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.rt == nil {
		return "Loading manifest..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Hot Module Inspector"))
	b.WriteString(" ")
	b.WriteString(m.manifest)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectModule:
		b.WriteString("Module records:\n\n")
		for i, id := range m.ids {
			line := m.formatModule(id)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • r require • u hot update • q quit"))

	case stateInspect:
		id := m.ids[m.selected]
		rec, _ := m.rt.Module(id)
		b.WriteString(fmt.Sprintf("Module %s\n\n", idStyle.Render(string(id))))
		b.WriteString(fmt.Sprintf("  exports:  %s\n", formatExports(rec.Exports)))
		b.WriteString(fmt.Sprintf("  parents:  %s\n", joinIDs(rec.Parents)))
		b.WriteString(fmt.Sprintf("  children: %s\n", joinIDs(rec.Children)))
		b.WriteString(fmt.Sprintf("  flags:    %s\n", flagStyle.Render(moduleFlags(rec))))
		if rec.Err != nil {
			b.WriteString(fmt.Sprintf("  error:    %s\n", errorStyle.Render(rec.Err.Error())))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("u hot update • esc back • q quit"))

	case stateEditUpdate:
		b.WriteString("Hot update\n\n")
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter apply • esc cancel"))

	case stateShowResult:
		b.WriteString("Update result:\n\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *inspectorModel) formatModule(id runtime.ID) string {
	rec, ok := m.rt.Module(id)
	if !ok {
		return string(id)
	}
	return idStyle.Render(string(id)) + " " + flagStyle.Render("["+moduleFlags(rec)+"]")
}

func moduleFlags(m *runtime.Module) string {
	var flags []string
	if m.Loaded() {
		flags = append(flags, "loaded")
	}
	if m.Err != nil {
		flags = append(flags, "poisoned")
	}
	if m.Async() != nil {
		flags = append(flags, "async")
	}
	if m.Hot.Declined() {
		flags = append(flags, "declined")
	}
	if m.Hot.Invalidated() {
		flags = append(flags, "invalidated")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, " ")
}

func joinIDs(set map[runtime.ID]bool) string {
	if len(set) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

func runInteractive(manifest, entryName string) error {
	p := tea.NewProgram(newInspectorModel(manifest, entryName), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
