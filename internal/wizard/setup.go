package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snowlift/snowlift/internal/config"
)

// field indexes
const (
	fieldDSN = iota
	fieldStage
	fieldProjectID
	fieldGCSURI
	fieldLocation
	fieldTablesFile
	fieldCount
)

// SetupModel is the bubbletea form that collects the initial
// configuration for `snowlift init`.
type SetupModel struct {
	inputs    []textinput.Model
	focused   int
	errMsg    string
	result    *config.Config
	done      bool
	cancelled bool
	width     int
}

// NewSetupModel creates the configuration form.
func NewSetupModel() SetupModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldDSN] = textinput.New()
	inputs[fieldDSN].Placeholder = "user:${ENV:SNOWFLAKE_PASSWORD}@account/db?warehouse=WH"
	inputs[fieldDSN].CharLimit = 512
	inputs[fieldDSN].Focus()

	inputs[fieldStage] = textinput.New()
	inputs[fieldStage].Placeholder = "MY_GCS_STAGE"
	inputs[fieldStage].CharLimit = 128

	inputs[fieldProjectID] = textinput.New()
	inputs[fieldProjectID].Placeholder = "my-gcp-project"
	inputs[fieldProjectID].CharLimit = 128

	inputs[fieldGCSURI] = textinput.New()
	inputs[fieldGCSURI].Placeholder = "gs://my-bucket/snowflake"
	inputs[fieldGCSURI].CharLimit = 256

	inputs[fieldLocation] = textinput.New()
	inputs[fieldLocation].Placeholder = config.DefaultLocation
	inputs[fieldLocation].CharLimit = 32

	inputs[fieldTablesFile] = textinput.New()
	inputs[fieldTablesFile].Placeholder = "~/.snowlift/tables.yml"
	inputs[fieldTablesFile].CharLimit = 256

	return SetupModel{
		inputs: inputs,
		width:  80,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done = true
			m.cancelled = true
			return m, tea.Quit

		case "tab", "down":
			m.focused = (m.focused + 1) % fieldCount
			return m, m.updateFocus()

		case "shift+tab", "up":
			m.focused--
			if m.focused < 0 {
				m.focused = fieldCount - 1
			}
			return m, m.updateFocus()

		case "enter":
			if m.focused == fieldTablesFile {
				m.submit()
				if m.done {
					return m, tea.Quit
				}
				return m, nil
			}
			m.focused = (m.focused + 1) % fieldCount
			return m, m.updateFocus()
		}
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *SetupModel) submit() {
	cfg := m.buildConfig()
	if err := cfg.Validate(); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.result = cfg
	m.done = true
}

func (m *SetupModel) buildConfig() *config.Config {
	location := strings.TrimSpace(m.inputs[fieldLocation].Value())
	if location == "" {
		location = config.DefaultLocation
	}
	tablesFile := strings.TrimSpace(m.inputs[fieldTablesFile].Value())
	if tablesFile == "" {
		tablesFile = m.inputs[fieldTablesFile].Placeholder
	}

	return &config.Config{
		Version: config.CurrentVersion,
		Snowflake: config.SnowflakeConfig{
			DSN:           strings.TrimSpace(m.inputs[fieldDSN].Value()),
			ExternalStage: strings.TrimSpace(m.inputs[fieldStage].Value()),
		},
		BigQuery: config.BigQueryConfig{
			ProjectID: strings.TrimSpace(m.inputs[fieldProjectID].Value()),
			GCSURI:    strings.TrimSpace(m.inputs[fieldGCSURI].Value()),
			Location:  location,
		},
		TablesFile: tablesFile,
	}
}

func (m *SetupModel) updateFocus() tea.Cmd {
	var cmds []tea.Cmd
	for i := range m.inputs {
		if i == m.focused {
			cmds = append(cmds, m.inputs[i].Focus())
		} else {
			m.inputs[i].Blur()
		}
	}
	return tea.Batch(cmds...)
}

func (m *SetupModel) updateInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Snowlift Setup") + "\n\n")

	labels := []string{
		"Snowflake DSN",
		"External stage",
		"BigQuery project",
		"GCS URI",
		"Location",
		"Tables file",
	}
	for i, label := range labels {
		style := dimStyle
		if i == m.focused {
			style = highlightStyle
		}
		b.WriteString(fmt.Sprintf("  %s\n  %s\n\n", style.Render(label), m.inputs[i].View()))
	}

	if m.errMsg != "" {
		b.WriteString(errStyle.Render("  "+m.errMsg) + "\n\n")
	}

	b.WriteString(dimStyle.Render("  tab next field • enter on last field to save • esc cancel") + "\n")
	return b.String()
}

// Done returns true when the form is finished.
func (m SetupModel) Done() bool {
	return m.done
}

// Cancelled returns true if the user backed out.
func (m SetupModel) Cancelled() bool {
	return m.cancelled
}

// Result returns the collected configuration, or nil if cancelled.
func (m SetupModel) Result() *config.Config {
	return m.result
}

// RunSetup runs the setup form and returns the collected configuration.
func RunSetup() (*config.Config, error) {
	p := tea.NewProgram(NewSetupModel())

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running setup form: %w", err)
	}

	sm := finalModel.(SetupModel)
	if sm.Cancelled() {
		return nil, fmt.Errorf("cancelled")
	}
	if sm.Result() == nil {
		return nil, fmt.Errorf("no configuration entered")
	}
	return sm.Result(), nil
}
