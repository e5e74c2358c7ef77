// Package tui es la vista de terminal del registro: tres inputs (name, email, phone),
// un control de envío cuya etiqueta depende del modo y la tabla de clientes.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jhoicas/customer-registry/internal/application/dto"
	"github.com/jhoicas/customer-registry/internal/application/registry"
)

const (
	fieldName = iota
	fieldEmail
	fieldPhone
	focusTable
	focusCount
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B88FE")).MarginBottom(1)
	buttonStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#53B2FF")).Padding(0, 2).MarginTop(1).MarginBottom(1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// Model estado de la vista. Todo el estado de dominio vive en el registro;
// el modelo solo refleja inputs, foco y tabla.
type Model struct {
	ctx    context.Context
	reg    *registry.CustomerRegistry
	inputs []textinput.Model
	table  table.Model
	rowIDs []int64
	focus  int
	status string
	err    error
}

// New construye la vista sobre el registro.
func New(ctx context.Context, reg *registry.CustomerRegistry) Model {
	placeholders := []string{"Name", "Email", "Phone"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.Prompt = fmt.Sprintf("%-6s ", p+":")
		ti.CharLimit = 0
		ti.Width = 48
		inputs[i] = ti
	}
	inputs[fieldName].Focus()

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 2},
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 30},
			{Title: "Phone", Width: 16},
		}),
		table.WithHeight(10),
	)

	m := Model{ctx: ctx, reg: reg, inputs: inputs, table: t}
	m.refresh()
	return m
}

// Init implementa tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implementa tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab", "down":
			if m.focus != focusTable || key.String() == "tab" {
				m.setFocus((m.focus + 1) % focusCount)
				return m, nil
			}
		case "shift+tab":
			m.setFocus((m.focus + focusCount - 1) % focusCount)
			return m, nil
		case "esc":
			m.reg.CancelEdit()
			m.status, m.err = "edición cancelada", nil
			m.refresh()
			return m, nil
		case "enter":
			if m.focus != focusTable {
				m.submit()
				return m, nil
			}
		case "e":
			if m.focus == focusTable {
				m.beginEdit()
				return m, nil
			}
		case "d", "delete":
			if m.focus == focusTable {
				m.deleteSelected()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.focus == focusTable {
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	// solo lo que el usuario cambia vuelve al formulario; el input no muestra
	// tabuladores ni saltos de línea y reescribirlos alteraría el registro
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if v := m.inputs[m.focus].Value(); v != before {
		m.reg.SetForm(withField(m.reg.Form(), m.focus, v))
	}
	return m, cmd
}

// View implementa tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("CRM"))
	b.WriteString("\n")
	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString(buttonStyle.Render(m.reg.SubmitLabel()))
	b.WriteString("\n")

	if len(m.rowIDs) > 0 {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab: cambiar foco • enter: enviar • e: editar • d: eliminar • esc: cancelar • ctrl+c: salir"))
	return b.String()
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	if i == focusTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func withField(f dto.CustomerForm, field int, v string) dto.CustomerForm {
	switch field {
	case fieldName:
		f.Name = v
	case fieldEmail:
		f.Email = v
	case fieldPhone:
		f.Phone = v
	}
	return f
}

// hidden devuelve los campos del formulario que el input no puede mostrar tal cual.
func hidden(f dto.CustomerForm) []string {
	var out []string
	for _, p := range [...]struct{ name, v string }{{"name", f.Name}, {"email", f.Email}, {"phone", f.Phone}} {
		if strings.ContainsFunc(p.v, unicode.IsControl) {
			out = append(out, p.name)
		}
	}
	return out
}

func (m *Model) submit() {
	label := m.reg.SubmitLabel()
	c, err := m.reg.Submit(m.ctx)
	m.err = err
	if err == nil {
		m.status = fmt.Sprintf("%s: %s", label, c.Name)
		m.setFocus(fieldName)
	}
	m.refresh()
}

func (m *Model) selectedID() (int64, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rowIDs) {
		return 0, false
	}
	return m.rowIDs[i], true
}

func (m *Model) beginEdit() {
	id, ok := m.selectedID()
	if !ok {
		return
	}
	c, err := m.reg.BeginEdit(id)
	m.err = err
	if err == nil {
		m.status = "editando " + c.Name
		if h := hidden(m.reg.Form()); len(h) > 0 {
			m.status += fmt.Sprintf(" (aviso: %s con tabuladores o saltos de línea; se conservan si no se modifica el campo)", strings.Join(h, ", "))
		}
		m.setFocus(fieldName)
	}
	m.refresh()
}

func (m *Model) deleteSelected() {
	id, ok := m.selectedID()
	if !ok {
		return
	}
	m.err = m.reg.DeleteCustomer(m.ctx, id)
	if m.err == nil {
		m.status = "cliente eliminado"
	}
	m.refresh()
}

// refresh sincroniza inputs y tabla con el estado del registro.
func (m *Model) refresh() {
	view := m.reg.View()
	m.inputs[fieldName].SetValue(view.Form.Name)
	m.inputs[fieldEmail].SetValue(view.Form.Email)
	m.inputs[fieldPhone].SetValue(view.Form.Phone)

	rows := make([]table.Row, 0, len(view.Rows))
	m.rowIDs = m.rowIDs[:0]
	for _, r := range view.Rows {
		marker := ""
		if r.Editing {
			marker = "✎"
		}
		rows = append(rows, table.Row{marker, r.Name, r.Email, r.Phone})
		m.rowIDs = append(m.rowIDs, r.ID)
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Run abre la vista en la terminal y bloquea hasta que el usuario sale.
func Run(ctx context.Context, reg *registry.CustomerRegistry) error {
	p := tea.NewProgram(New(ctx, reg), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
