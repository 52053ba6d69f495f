package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wat-tracer/exec"
	"github.com/wippyai/wat-tracer/instr"
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

	stackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateStepping
)

type traceModel struct {
	mod      *instr.Module
	source   string
	maxSteps int

	state    modelState
	selected int
	inputs   []textinput.Model
	focusIdx int

	stepper *exec.Stepper
	entries []exec.TraceEntry
	pos     int
	done    bool
	runErr  error

	history viewport.Model
	width   int
	height  int
}

func newTraceModel(mod *instr.Module, source string, maxSteps int) *traceModel {
	return &traceModel{
		mod:      mod,
		source:   source,
		maxSteps: maxSteps,
		state:    stateSelectFunc,
		history:  viewport.New(80, 12),
	}
}

func (m *traceModel) Init() tea.Cmd {
	return nil
}

func (m *traceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.history.Width = msg.Width
		if h := msg.Height - 12; h > 4 {
			m.history.Height = h
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.mod.Funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					m.startRun()
				} else {
					m.state = stateInputArgs
				}
			case stateInputArgs:
				m.startRun()
			case stateStepping:
				m.stepForward()
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "n", " ", "right":
			if m.state == stateStepping {
				m.stepForward()
			}

		case "p", "left":
			if m.state == stateStepping && m.pos > 0 {
				m.pos--
				m.syncHistory()
			}

		case "r":
			if m.state == stateStepping {
				m.startRun()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateStepping:
				m.state = stateSelectFunc
				m.reset()
			}
		}
	}

	if m.state == stateInputArgs {
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

func (m *traceModel) prepareInputs() {
	f := m.mod.Funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.Params))
	for i, p := range f.Params {
		ti := textinput.New()
		ti.Placeholder = p.Type.String()
		prompt := p.Name
		if prompt == "" {
			prompt = fmt.Sprintf("arg%d", i)
		}
		ti.Prompt = prompt + ": "
		ti.Width = 20
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *traceModel) reset() {
	m.stepper = nil
	m.entries = nil
	m.pos = 0
	m.done = false
	m.runErr = nil
	m.inputs = nil
}

// startRun builds a fresh machine and stepper from the current inputs and
// pulls the first entry.
func (m *traceModel) startRun() {
	f := m.mod.Funcs[m.selected]
	m.stepper = nil
	m.entries = nil
	m.pos = 0
	m.history.SetContent("")

	args := make([]exec.Value, len(m.inputs))
	for i, input := range m.inputs {
		v, err := parseValue(strings.TrimSpace(input.Value()), f.Params[i].Type)
		if err != nil {
			m.runErr = fmt.Errorf("argument %q: %w", input.Prompt, err)
			m.state = stateStepping
			m.done = true
			return
		}
		args[i] = v
	}

	opts := exec.DefaultOptions()
	if m.maxSteps > 0 {
		opts.MaxSteps = m.maxSteps
	}
	machine := exec.NewMachine(m.mod, opts)

	s, err := machine.Stepper(f.Name, args)
	m.done = false
	m.runErr = err
	m.stepper = s
	m.state = stateStepping
	if err != nil {
		m.done = true
		return
	}
	m.stepForward()
}

// stepForward replays a remembered entry when stepping back and forth, and
// pulls a new one from the stepper at the frontier.
func (m *traceModel) stepForward() {
	if m.pos < len(m.entries)-1 {
		m.pos++
		m.syncHistory()
		return
	}
	if m.done || m.stepper == nil {
		return
	}
	entry, err := m.stepper.Next()
	if err != nil {
		m.runErr = err
		m.done = true
		m.syncHistory()
		return
	}
	if entry == nil {
		m.done = true
		m.syncHistory()
		return
	}
	m.entries = append(m.entries, *entry)
	m.pos = len(m.entries) - 1
	m.syncHistory()
}

func (m *traceModel) syncHistory() {
	var b strings.Builder
	for i := 0; i <= m.pos && i < len(m.entries); i++ {
		line := fmt.Sprintf("%3d  %s", i, m.entries[i].Result.Action)
		if i == m.pos {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	m.history.SetContent(b.String())
	m.history.GotoBottom()
}

func (m *traceModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("WAT Tracer"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to trace:\n\n")
		for i, f := range m.mod.Funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + formatSignature(f)))
			} else {
				b.WriteString(cursor + m.styledSignature(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter trace • q quit"))

	case stateInputArgs:
		f := m.mod.Funcs[m.selected]
		b.WriteString(fmt.Sprintf("Tracing %s\n\n", funcStyle.Render(f.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.Params[i].Type.String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter trace • esc back"))

	case stateStepping:
		f := m.mod.Funcs[m.selected]
		b.WriteString(fmt.Sprintf("Stepping %s\n\n", funcStyle.Render(f.Name)))

		b.WriteString(m.history.View())
		b.WriteString("\n")

		if m.pos < len(m.entries) {
			e := m.entries[m.pos]
			b.WriteString(fmt.Sprintf("stack  %s -> %s\n",
				formatStack(e.Before), stackStyle.Render(formatStack(e.After))))
			b.WriteString(fmt.Sprintf("locals %s\n", formatStack(e.Result.Locals)))
		}
		if m.runErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.runErr)))
			b.WriteString("\n")
		} else if m.done && m.pos == len(m.entries)-1 {
			b.WriteString(stackStyle.Render("Run complete."))
			b.WriteString("\n")
		}

		b.WriteString("\n")
		b.WriteString(helpStyle.Render("n/→ step • p/← back • r restart • esc back • q quit"))
	}

	return b.String()
}

func (m *traceModel) styledSignature(f *instr.Func) string {
	var params []string
	for _, p := range f.Params {
		name := p.Name
		if name == "" {
			name = "_"
		}
		params = append(params, name+": "+typeStyle.Render(p.Type.String()))
	}
	s := funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")"
	if len(f.Results) > 0 {
		var results []string
		for _, r := range f.Results {
			results = append(results, typeStyle.Render(r.String()))
		}
		s += " -> " + strings.Join(results, ", ")
	}
	return s
}

func runInteractive(mod *instr.Module, source string, maxSteps int) error {
	p := tea.NewProgram(newTraceModel(mod, source, maxSteps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
