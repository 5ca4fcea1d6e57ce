package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/profitcalc/internal/calculator"
	"github.com/nconklindev/profitcalc/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type state int

const (
	stateForm state = iota
	stateLandedCostPicker
	stateProfitCalcPicker
	stateLoading
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state      state
	calc       *calculator.Calculator
	inputs     []textinput.Model
	focus      int
	formErr    string
	input      types.InputSet
	filepicker filepicker.Model
	landedPath string
	profitPath string
	outcome    *calculator.Outcome
	err        error
	width      int
	height     int
	progress   progress.Model
	printer    *message.Printer

	progressChan chan float64
	resultChan   chan runResultMsg
}

type runResultMsg struct {
	outcome *calculator.Outcome
	err     error
}

type filesLoadedMsg struct {
	landedCost *types.Document
	profitCalc *types.Document
	err        error
}

type runCompleteMsg struct {
	outcome *calculator.Outcome
	err     error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(calc *calculator.Calculator) Model {
	return Model{
		state:    stateForm,
		calc:     calc,
		inputs:   newFormInputs(),
		progress: progress.New(progress.WithGradient("#FF8C42", "#FF9F5A")),
		printer:  message.NewPrinter(language.English),
	}
}

func newFilePicker(height int) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx"}
	fp.CurrentDirectory, _ = os.Getwd()
	if height > 0 {
		fp.SetHeight(height)
	}

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	return fp
}

func (m Model) pickerHeight() int {
	// Leave room for title, subtitle, help text and padding
	return max(m.height-14, 5)
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filepicker.SetHeight(m.pickerHeight())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case stateForm:
			return m.updateForm(msg)

		case stateLandedCostPicker, stateProfitCalcPicker:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc":
				if m.state == stateProfitCalcPicker {
					m.state = stateLandedCostPicker
					m.filepicker = newFilePicker(m.pickerHeight())
					return m, m.filepicker.Init()
				}
				m.state = stateForm
				return m, m.inputs[m.focus].Focus()
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case filesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.state = stateProcessing
		return m.runCalculation(msg.landedCost, msg.profitCalc)

	case runCompleteMsg:
		if msg.err != nil {
			var verr *types.ValidationError
			if errors.As(msg.err, &verr) {
				m.formErr = calculator.UserMessage(msg.err)
				m.state = stateForm
				return m, m.inputs[m.focus].Focus()
			}
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.outcome = msg.outcome
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	switch m.state {
	case stateForm:
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case stateLandedCostPicker, stateProfitCalcPicker:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			if m.state == stateLandedCostPicker {
				m.landedPath = path
				m.state = stateProfitCalcPicker
				m.filepicker = newFilePicker(m.pickerHeight())
				return m, m.filepicker.Init()
			}
			m.profitPath = path
			m.state = stateLoading
			return m, m.loadFiles()
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m.focusField((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.focusField((m.focus + fieldCount - 1) % fieldCount)
	case "enter":
		if m.focus < fieldCount-1 {
			return m.focusField(m.focus + 1)
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) focusField(i int) (tea.Model, tea.Cmd) {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m, m.inputs[m.focus].Focus()
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	values := make([]string, len(m.inputs))
	for i, ti := range m.inputs {
		values[i] = ti.Value()
	}

	in, err := ParseInputs(values)
	if err == nil {
		err = in.Validate()
	}
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			m.formErr = verr.Error()
		} else {
			m.formErr = err.Error()
		}
		return m, nil
	}

	m.formErr = ""
	m.input = in
	m.inputs[m.focus].Blur()
	m.state = stateLandedCostPicker
	m.filepicker = newFilePicker(m.pickerHeight())
	return m, m.filepicker.Init()
}

func (m Model) loadFiles() tea.Cmd {
	calc := m.calc
	landedPath, profitPath := m.landedPath, m.profitPath
	return func() tea.Msg {
		landed, err := calc.Open(landedPath)
		if err != nil {
			return filesLoadedMsg{err: err}
		}
		profit, err := calc.Open(profitPath)
		if err != nil {
			return filesLoadedMsg{err: err}
		}
		return filesLoadedMsg{landedCost: landed, profitCalc: profit}
	}
}

func (m Model) runCalculation(landedCost, profitCalc *types.Document) (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan runResultMsg, 1)

	// Capture everything the goroutine needs
	progressChan := m.progressChan
	resultChan := m.resultChan
	calc := m.calc
	in := m.input

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				outcome, err := calc.Run(in, landedCost, profitCalc, progressChan)
				resultChan <- runResultMsg{outcome: outcome, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan runResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return runCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateForm:
		return m.viewForm()
	case stateLandedCostPicker:
		return m.viewFilePicker("Select the Landed Cost HFBA workbook")
	case stateProfitCalcPicker:
		return m.viewFilePicker("Select the Profit Calculator workbook")
	case stateLoading, stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewForm() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("💰 Profit Calculator Tool"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Enter the keyword name and the product figures"))
	s.WriteString("\n\n")

	for i, ti := range m.inputs {
		label := LabelStyle.Render(fieldLabels[i])
		if i == m.focus {
			label = FocusedLabelStyle.Render(fieldLabels[i])
		}
		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, ti.View()))
		s.WriteString("\n")
	}

	if m.formErr != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render("✗ " + m.formErr))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("tab/↓: next • shift+tab/↑: previous • enter: continue • ctrl+c: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewFilePicker(subtitle string) string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("💰 Profit Calculator • %s", m.input.Keyword)))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(subtitle))
	s.WriteString("\n")
	if m.state == stateProfitCalcPicker {
		s.WriteString(fmt.Sprintf("Landed Cost: %s\n\n", filepath.Base(m.landedPath)))
	}
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("esc: back • q: quit"))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("💰 Processing..."))
	s.WriteString("\n\n")
	if m.state == stateLoading {
		s.WriteString("Loading workbooks...")
	} else {
		s.WriteString("Calculating landed cost and updating workbooks...")
	}
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Excel files have been updated and combined"))
	s.WriteString("\n\n")

	landed := m.outcome.LandedCost
	s.WriteString(fmt.Sprintf("Keyword:     %s\n", m.input.Keyword))
	s.WriteString(m.printer.Sprintf("Landed cost: %.4f\n", landed.Value))
	if landed.WasFallback {
		s.WriteString(WarningStyle.Render("⚠ Failed to retrieve recalculated Landed Cost. Using fallback manual calculation."))
		s.WriteString("\n")
	}
	s.WriteString(m.printer.Sprintf("Monthly revenue at target: %.2f\n", m.input.SellingPrice*float64(m.input.TargetSalesPerMonth)))
	s.WriteString(fmt.Sprintf("Sheets:      %s\n", strings.Join(m.outcome.SheetNames, ", ")))
	s.WriteString("\n")

	// Truncate paths if they're too long
	maxPathLen := max(m.width-20, 30)
	s.WriteString(fmt.Sprintf("Saved:    %s\n", truncatePath(m.outcome.ArtifactPath, maxPathLen)))
	if m.outcome.DownloadPath != "" {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Download: %s", truncatePath(m.outcome.DownloadPath, maxPathLen))))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(calculator.UserMessage(m.err))
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

func truncatePath(p string, maxLen int) string {
	if len(p) > maxLen {
		return "..." + p[len(p)-maxLen+3:]
	}
	return p
}
