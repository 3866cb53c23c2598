// Package preview renders a schema document as an interactive terminal
// form so authors can exercise conditions, validation, and the action
// chain before activating a draft.
package preview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/formweave/formweave/internal/action"
	"github.com/formweave/formweave/internal/condition"
	"github.com/formweave/formweave/internal/mockdata"
	"github.com/formweave/formweave/internal/schema"
	"github.com/formweave/formweave/internal/validation"
)

// fieldState carries the editing state of one document field.
type fieldState struct {
	field   schema.Field
	input   textinput.Model // string-like and number kinds
	checked bool            // checkbox
	optIdx  int             // select, multiselect, radio
}

// Model is the bubbletea model for the form preview.
type Model struct {
	doc     *schema.Document
	fields  []fieldState
	focused int
	visible map[string]bool
	issues  map[string][]validation.Issue
	trace   []string

	done      bool
	cancelled bool
	width     int
}

// New creates a preview for the document. When gen is non-nil the form
// starts prefilled with mock values.
func New(doc *schema.Document, gen *mockdata.Generator) Model {
	var mock map[string]any
	if gen != nil {
		mock = gen.Generate(doc)
	}

	fields := make([]fieldState, len(doc.Fields))
	for i, f := range doc.Fields {
		fs := fieldState{field: f}
		fs.input = textinput.New()
		fs.input.Placeholder = f.UI.Placeholder
		fs.input.CharLimit = 256
		if f.Kind == schema.KindPassword {
			fs.input.EchoMode = textinput.EchoPassword
		}
		if mock != nil {
			applyValue(&fs, mock[f.Name])
		}
		fields[i] = fs
	}

	m := Model{
		doc:    doc,
		fields: fields,
		issues: make(map[string][]validation.Issue),
		width:  100,
	}
	m.refreshVisibility()
	m.focusFirst()
	return m
}

// applyValue seeds a field's editing state from a prefill value.
func applyValue(fs *fieldState, v any) {
	switch fs.field.Kind {
	case schema.KindCheckbox:
		b, _ := v.(bool)
		fs.checked = b
	case schema.KindSelect, schema.KindRadio:
		s, _ := v.(string)
		for i, opt := range fs.field.Options {
			if opt.Value == s {
				fs.optIdx = i
			}
		}
	case schema.KindNumber:
		switch n := v.(type) {
		case float64:
			fs.input.SetValue(strconv.FormatFloat(n, 'f', -1, 64))
		case int:
			fs.input.SetValue(strconv.Itoa(n))
		}
	case schema.KindMultiselect:
		if items, ok := v.([]string); ok {
			fs.input.SetValue(strings.Join(items, ","))
		}
	default:
		if s, ok := v.(string); ok {
			fs.input.SetValue(s)
		}
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			m.done = true
			return m, tea.Quit

		case "tab", "down":
			m.moveFocus(1)
			return m, nil

		case "shift+tab", "up":
			m.moveFocus(-1)
			return m, nil

		case "ctrl+s":
			m.submit()
			return m, nil

		case " ":
			if len(m.fields) > 0 && m.current().field.Kind == schema.KindCheckbox {
				m.fields[m.focused].checked = !m.fields[m.focused].checked
				m.refreshVisibility()
				return m, nil
			}

		case "left", "right":
			if len(m.fields) == 0 {
				return m, nil
			}
			f := m.current()
			if f.field.Kind == schema.KindSelect || f.field.Kind == schema.KindRadio {
				delta := 1
				if msg.String() == "left" {
					delta = -1
				}
				n := len(f.field.Options)
				if n > 0 {
					m.fields[m.focused].optIdx = (f.optIdx + delta + n) % n
					m.refreshVisibility()
				}
				return m, nil
			}
		}

		// Everything else goes to the focused text input.
		if len(m.fields) > 0 && m.current().usesInput() {
			var cmd tea.Cmd
			m.fields[m.focused].input, cmd = m.fields[m.focused].input.Update(msg)
			m.refreshVisibility()
			return m, cmd
		}
	}
	return m, nil
}

func (f fieldState) usesInput() bool {
	switch f.field.Kind {
	case schema.KindCheckbox, schema.KindSelect, schema.KindRadio:
		return false
	}
	return true
}

func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Preview: %s", m.doc.Entity)
	if m.doc.Variant != "" {
		title += " (" + m.doc.Variant + ")"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	for i, fs := range m.fields {
		if !m.visible[fs.field.Name] {
			continue
		}

		cursor := "  "
		if i == m.focused {
			cursor = highlightStyle.Render("> ")
		}
		label := fs.field.UI.Label
		if label == "" {
			label = fs.field.Name
		}
		if fs.field.Validation != nil && fs.field.Validation.Required {
			label += " *"
		}

		b.WriteString(cursor + dimStyle.Render(fmt.Sprintf("%-24s", label)))
		b.WriteString(m.renderControl(fs) + "\n")

		for _, issue := range m.issues[fs.field.Name] {
			b.WriteString(errStyle.Render("      "+issue.Message) + "\n")
		}
	}

	if len(m.trace) > 0 {
		b.WriteString("\n" + dimStyle.Render("  Submit trace:") + "\n")
		for _, line := range m.trace {
			b.WriteString("    " + line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  tab next • space toggle • ←/→ options • ctrl+s submit • esc quit") + "\n")
	return b.String()
}

func (m Model) renderControl(fs fieldState) string {
	switch fs.field.Kind {
	case schema.KindCheckbox:
		if fs.checked {
			return okStyle.Render("[x]")
		}
		return "[ ]"
	case schema.KindSelect, schema.KindRadio:
		if len(fs.field.Options) == 0 {
			return dimStyle.Render("(no options)")
		}
		opt := fs.field.Options[fs.optIdx]
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		return fmt.Sprintf("◂ %s ▸", label)
	default:
		return fs.input.View()
	}
}

// rawValues collects the value of every field regardless of visibility.
// Conditions evaluate over this map.
func (m Model) rawValues() map[string]any {
	values := make(map[string]any, len(m.fields))
	for _, fs := range m.fields {
		values[fs.field.Name] = fs.value()
	}
	return values
}

// Values builds the submission payload from the current editing state.
// Hidden fields are excluded, matching what the engine does on submit.
func (m Model) Values() map[string]any {
	values := make(map[string]any)
	for _, fs := range m.fields {
		if !m.visible[fs.field.Name] {
			continue
		}
		values[fs.field.Name] = fs.value()
	}
	return values
}

func (f fieldState) value() any {
	switch f.field.Kind {
	case schema.KindCheckbox:
		return f.checked
	case schema.KindSelect, schema.KindRadio:
		if len(f.field.Options) == 0 {
			return ""
		}
		return f.field.Options[f.optIdx].Value
	case schema.KindNumber:
		raw := strings.TrimSpace(f.input.Value())
		if raw == "" {
			return nil
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
		return raw
	case schema.KindMultiselect:
		raw := strings.TrimSpace(f.input.Value())
		if raw == "" {
			return []string{}
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		return f.input.Value()
	}
}

// submit validates the visible fields and, when clean, runs the action
// chain against a recording executor.
func (m *Model) submit() {
	values := m.Values()

	m.issues = make(map[string][]validation.Issue)
	all := validation.ValidateVisible(m.doc, values, m.visible)
	for _, issue := range all {
		m.issues[issue.Field] = append(m.issues[issue.Field], issue)
	}
	if len(all) > 0 {
		m.trace = []string{errStyle.Render(fmt.Sprintf("rejected: %d validation issue(s)", len(all)))}
		return
	}

	exec := &action.MockExecutor{}
	out := action.NewDispatcher(exec).Submit(context.Background(), m.doc, values)

	m.trace = m.trace[:0]
	for _, call := range exec.Calls {
		m.trace = append(m.trace, fmt.Sprintf("api.call %s %s", call.Method, call.Endpoint))
	}
	for _, note := range exec.Notes {
		m.trace = append(m.trace, fmt.Sprintf("toast %q", note.Message))
	}
	if out.OK {
		m.trace = append(m.trace, okStyle.Render("accepted"))
	} else {
		m.trace = append(m.trace, errStyle.Render("failed: "+out.Err.Error()))
	}
}

// Done reports whether the preview session finished.
func (m Model) Done() bool { return m.done }

// Cancelled reports whether the user quit without submitting.
func (m Model) Cancelled() bool { return m.cancelled }

// Trace returns the lines of the last submit trace.
func (m Model) Trace() []string { return m.trace }

func (m Model) current() fieldState {
	return m.fields[m.focused]
}

func (m *Model) refreshVisibility() {
	m.visible = condition.VisibleFields(m.doc, m.rawValues())
	if len(m.fields) == 0 {
		return
	}
	// A field that just became hidden cannot keep the focus.
	if !m.visible[m.current().field.Name] {
		m.moveFocus(1)
	}
}

func (m *Model) focusFirst() {
	m.focused = 0
	for i, fs := range m.fields {
		if m.visible[fs.field.Name] {
			m.focused = i
			break
		}
	}
	m.applyFocus()
}

// moveFocus steps to the next visible field in the given direction.
func (m *Model) moveFocus(delta int) {
	n := len(m.fields)
	if n == 0 {
		return
	}
	for i := 1; i <= n; i++ {
		idx := (m.focused + delta*i + n*i) % n
		if m.visible[m.fields[idx].field.Name] {
			m.focused = idx
			break
		}
	}
	m.applyFocus()
}

func (m *Model) applyFocus() {
	for i := range m.fields {
		if i == m.focused && m.fields[i].usesInput() {
			m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
}

// Run drives the preview in a terminal until the user quits.
func Run(doc *schema.Document, gen *mockdata.Generator) error {
	p := tea.NewProgram(New(doc, gen))
	_, err := p.Run()
	return err
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).BorderStyle(lipgloss.DoubleBorder()).BorderBottom(true).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)
