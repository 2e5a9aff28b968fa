package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/tidysheet/internal/config"
	"github.com/nconklindev/tidysheet/internal/loader"
	"github.com/nconklindev/tidysheet/internal/logging"
	"github.com/nconklindev/tidysheet/internal/pipeline"
	"github.com/nconklindev/tidysheet/internal/table"
	"github.com/nconklindev/tidysheet/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	stateSheetSelection
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state        state
	cfg          config.Config
	filepicker   filepicker.Model
	selectedFile string
	workbook     *table.Workbook
	selected     map[string]bool
	cursor       int
	result       *types.RunResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan runResultMsg
}

type runResultMsg struct {
	result *types.RunResult
	err    error
}

type workbookLoadedMsg struct {
	workbook *table.Workbook
	err      error
}

type runCompleteMsg struct {
	result *types.RunResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

// InitialModel starts at the file picker. cfg supplies the output and
// chart directories of the run.
func InitialModel(cfg config.Config) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".xlsm", ".csv"}
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
		selected:   make(map[string]bool),
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, subtitle, help text and padding
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

		case stateSheetSelection:
			sheets := m.workbook.Sheets()
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(sheets)-1 {
					m.cursor++
				}
			case " ":
				if len(sheets) > 0 {
					name := sheets[m.cursor].Name
					m.selected[name] = !m.selected[name]
				}
			case "a":
				for _, s := range sheets {
					m.selected[s.Name] = true
				}
			case "n":
				for _, s := range sheets {
					m.selected[s.Name] = false
				}
			case "enter":
				if m.selectedCount() > 0 {
					m.state = stateProcessing
					return m.runPipeline()
				}
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case workbookLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.workbook = msg.workbook
		m.cursor = 0

		// Every sheet with rows starts selected; empty ones would be skipped anyway
		for _, s := range msg.workbook.Sheets() {
			m.selected[s.Name] = s.Table.Len() > 0
		}

		m.state = stateSheetSelection
		return m, nil

	case runCompleteMsg:
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

func (m Model) selectedCount() int {
	n := 0
	for _, ok := range m.selected {
		if ok {
			n++
		}
	}
	return n
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		wb, err := loader.Load(path, logging.Discard())
		return workbookLoadedMsg{workbook: wb, err: err}
	}
}

func (m Model) runPipeline() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan runResultMsg, 1)

	// Capture state for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan
	wb := m.workbook
	cfg := m.cfg
	cfg.InputPath = m.selectedFile
	only := make(map[string]bool, len(m.selected))
	for name, ok := range m.selected {
		if ok {
			only[name] = true
		}
	}

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				// The alt screen owns the terminal, so log output is dropped
				result, err := pipeline.Process(wb, &cfg, logging.Discard(), pipeline.Options{
					Only:     only,
					Progress: progressChan,
				})

				resultChan <- runResultMsg{result: result, err: err}

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
	case stateFilePicker:
		return m.viewFilePicker()
	case stateSheetSelection:
		return m.viewSheetSelection()
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

	title := TitleStyle.Render("🧹 tidysheet - NGO spreadsheet cleaner")

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select an XLSX or CSV file to clean"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewSheetSelection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧹 Select Sheets to Clean"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.selectedFile))))
	s.WriteString("\n\n")

	for i, sheet := range m.workbook.Sheets() {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checked := " "
		if m.selected[sheet.Name] {
			checked = "✓"
		}

		line := fmt.Sprintf("%s [%s] %s (%d rows, %d columns)", cursor, checked, sheet.Name, sheet.Table.Len(), sheet.Table.Width())

		if m.cursor == i {
			line = SelectedStyle.Render(line)
		} else if m.selected[sheet.Name] {
			line = CheckedStyle.Render(line)
		} else if sheet.Table.Len() == 0 {
			line = UnselectedStyle.Render(line + " (empty)")
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Output: %s\n", m.cfg.OutputDir))
	if m.cfg.Charts {
		s.WriteString(fmt.Sprintf("Charts: %s\n", m.cfg.ChartsDir))
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: navigate • space: toggle • a: select all • n: select none • enter: clean • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧹 Processing..."))
	s.WriteString("\n\n")
	s.WriteString("Cleaning sheets and rendering charts...")
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Cleaning Complete!"))
	s.WriteString("\n\n")
	s.WriteString(Summary(m.result, m.width))
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

// Summary renders a run result for the terminal. Paths longer than the
// available width are shortened from the left.
func Summary(result *types.RunResult, width int) string {
	var s strings.Builder

	// Zero width means no limit
	maxPathLen := 0
	if width > 0 {
		maxPathLen = width - 20 // Leave room for padding and borders
		if maxPathLen < 30 {
			maxPathLen = 30
		}
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", shorten(result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", shorten(result.OutputFile, maxPathLen))))
	s.WriteString("\n\n")
	for _, sheet := range result.Sheets {
		s.WriteString(fmt.Sprintf("%s: %d → %d rows, %d charts\n", sheet.OutputName, sheet.RowsIn, sheet.RowsOut, len(sheet.Charts)))
	}
	for _, name := range result.Skipped {
		s.WriteString(WarningStyle.Render(fmt.Sprintf("%s: skipped (empty)", name)))
		s.WriteString("\n")
	}
	s.WriteString(fmt.Sprintf("Charts written: %d\n", result.ChartCount()))

	return s.String()
}

// shorten keeps the last max-3 characters of path behind "...".
func shorten(path string, max int) string {
	runes := []rune(path)
	if max > 0 && len(runes) > max {
		return "..." + string(runes[len(runes)-max+3:])
	}
	return path
}
