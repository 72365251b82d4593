package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetsync/internal/config"
	"github.com/nconklindev/sheetsync/internal/converter"
	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	stateReview
	stateProcessing
	stateComplete
	stateError
)

// maxWarnings is how many warnings the result screen lists.
const maxWarnings = 5

type Model struct {
	state        state
	cfg          config.Config
	filepicker   filepicker.Model
	selectedFile string
	outputFile   string
	fileData     *types.FileData
	backup       bool
	strict       bool
	cursor       int
	result       *types.ConversionResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	err    error
}

type fileLoadedMsg struct {
	data *types.FileData
	err  error
}

type conversionCompleteMsg struct {
	result *types.ConversionResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(cfg config.Config) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".json", ".xlsx"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#FF8C42", "#FF9F5A"))

	return Model{
		state:      stateFilePicker,
		cfg:        cfg,
		filepicker: fp,
		backup:     cfg.Backup,
		strict:     cfg.StrictFormulas,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) options() converter.Options {
	return converter.Options{
		Rules:     m.cfg.Rules(),
		Strict:    m.strict,
		SchemaRef: m.cfg.SchemaRef,
	}
}

// toJSON reports whether the selected file is a workbook read back into JSON.
func (m Model) toJSON() bool {
	return strings.EqualFold(filepath.Ext(m.selectedFile), ".xlsx")
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, subtitle and help text
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}

		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateReview:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc":
				m.state = stateFilePicker
				m.fileData = nil
				m.cursor = 0
				return m, nil
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.fileData.Sheets)-1 {
					m.cursor++
				}
			case "b":
				if m.toJSON() {
					m.backup = !m.backup
				}
			case "s":
				if m.toJSON() {
					m.strict = !m.strict
				}
			case "enter":
				m.state = stateProcessing
				return m.convertFile()
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		output, err := converter.DefaultOutput(m.selectedFile, m.cfg.TemplateSuffix)
		if err != nil {
			m.err = err
			m.state = stateError
			return m, nil
		}
		m.fileData = msg.data
		m.outputFile = output
		m.cursor = 0
		m.state = stateReview
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
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

	// Handle filepicker updates
	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) loadFile(path string) tea.Cmd {
	opts := m.options()
	return func() tea.Msg {
		data, err := converter.ReadFileData(path, opts)
		return fileLoadedMsg{data: data, err: err}
	}
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	// Capture everything the goroutine needs
	progressChan := m.progressChan
	resultChan := m.resultChan
	selectedFile := m.selectedFile
	outputFile := m.outputFile
	opts := m.options()
	toJSON := m.toJSON()
	backupDir := ""
	if toJSON && m.backup {
		backupDir = m.cfg.BackupPath(outputFile)
	}

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				var result *types.ConversionResult
				var err error

				if toJSON {
					result, err = converter.ConvertXLSX(selectedFile, outputFile, backupDir, opts, progressChan)
				} else {
					result, err = converter.ConvertJSON(selectedFile, outputFile, opts, progressChan)
				}

				resultChan <- conversionResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateReview:
		return m.viewReview()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("⇄ sheetsync - JSON ⇄ Excel")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/sheetsync")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a JSON dataset or an XLSX workbook"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewReview() string {
	var s strings.Builder

	direction := "JSON → XLSX"
	if m.toJSON() {
		direction = "XLSX → JSON"
	}
	s.WriteString(TitleStyle.Render("⇄ " + direction))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s → %s", filepath.Base(m.selectedFile), filepath.Base(m.outputFile))))
	s.WriteString("\n\n")

	for i, sheet := range m.fileData.Sheets {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s (%d rows, %d formula columns)", cursor, sheet.Name, sheet.Rows, len(sheet.Formulas))
		if m.cursor == i {
			line = SelectedStyle.Render(line)
		} else {
			line = UnselectedStyle.Render(line)
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	if m.cursor < len(m.fileData.Sheets) {
		sheet := m.fileData.Sheets[m.cursor]
		s.WriteString("\n")
		s.WriteString(fmt.Sprintf("Columns:  %s\n", strings.Join(sheet.Columns, ", ")))
		if len(sheet.Formulas) > 0 {
			s.WriteString(CheckedStyle.Render(fmt.Sprintf("Formulas: %s", strings.Join(sheet.Formulas, ", "))))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	help := "↑/↓: sheets • enter: convert • esc: back • q: quit"
	if m.toJSON() {
		s.WriteString(fmt.Sprintf("Back up existing JSON: %s\n", checkbox(m.backup)))
		s.WriteString(fmt.Sprintf("Strict formulas:       %s\n", checkbox(m.strict)))
		help = "↑/↓: sheets • b: backup • s: strict • enter: convert • esc: back • q: quit"
	}
	s.WriteString(HelpStyle.Render(help))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇄ Processing..."))
	s.WriteString("\n\n")
	if m.toJSON() {
		s.WriteString("Reading workbook and restoring formulas...")
	} else {
		s.WriteString("Writing workbook and compiling formulas...")
	}
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func truncatePath(path string, maxLen int) string {
	if len(path) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	// Leave room for padding and borders
	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n")
	if m.result.BackupFile != "" {
		s.WriteString(fmt.Sprintf("Backup: %s\n", truncatePath(m.result.BackupFile, maxPathLen)))
	}
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Sheets: %s\n", strings.Join(m.result.Sheets, ", ")))
	s.WriteString(fmt.Sprintf("Formula columns: %d\n", m.result.FormulaColumns))
	s.WriteString(fmt.Sprintf("Rows processed: %d\n", m.result.RowsProcessed))

	if n := len(m.result.Warnings); n > 0 {
		s.WriteString("\n")
		s.WriteString(WarningStyle.Render(fmt.Sprintf("%d warning(s)", n)))
		s.WriteString("\n")
		for _, w := range m.result.Warnings[:min(n, maxWarnings)] {
			s.WriteString(WarningStyle.Render("! " + w))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press any key to exit"))

	return BoxStyle.Render(s.String())
}
