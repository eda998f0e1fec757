package components

import (
	"github.com/UniPro-tech/UniQUE-Auth/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Field is a single-line labelled text input, optionally masked for
// password entry. Err holds a validation message rendered under the input.
type Field struct {
	Label   string
	Focused bool
	Err     string

	input textinput.Model

	styleFocused   lipgloss.Style
	styleUnfocused lipgloss.Style
	styleError     lipgloss.Style
}

func NewField(label, placeholder string, secret bool) *Field {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Width = 40
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '*'
	}

	return &Field{
		Label:          label,
		input:          in,
		styleFocused:   theme.Focused,
		styleUnfocused: theme.Unfocused,
		styleError:     theme.Error,
	}
}

func (f *Field) Update(msg tea.Msg) (*Field, tea.Cmd) {
	if !f.Focused {
		return f, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

func (f *Field) View() string {
	labelStyle := f.styleUnfocused
	if f.Focused {
		labelStyle = f.styleFocused
	}

	view := labelStyle.Render(f.Label) + "\n"
	view += f.input.View()

	if f.Err != "" {
		view += "\n" + f.styleError.Render("  "+f.Err)
	}

	return view
}

func (f *Field) Value() string {
	return f.input.Value()
}

func (f *Field) SetValue(val string) {
	f.input.SetValue(val)
}

func (f *Field) SetFocused(focused bool) {
	f.Focused = focused
	if focused {
		f.input.Focus()
	} else {
		f.input.Blur()
	}
}
