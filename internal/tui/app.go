// Package tui provides the interactive terminal UI for the journal assistant.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/suhass434/journal-assistant/internal/models"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	onlineStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// App is the main TUI application model.
type App struct {
	client       *Client
	tasks        []models.Task
	selectedIdx  int
	input        textinput.Model
	viewport     viewport.Model
	width        int
	height       int
	mode         string // "list", "detail", "summary"
	currentTask  *models.Task
	history      []models.HistoryEntry
	summary      *SummaryResult
	message      string
	filter       string
	filterIdx    int
	loading      bool
	serverOnline bool
}

var filters = []string{"", "pending", "in_progress", "completed", "cancelled"}
var filterNames = []string{"ALL", "PENDING", "ACTIVE", "DONE", "CANCELLED"}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Write what you need to do, or: done <what you finished>"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 80

	vp := viewport.New(80, 20)

	return &App{
		client:   NewClient(apiAddr),
		input:    ti,
		viewport: vp,
		mode:     "list",
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
		a.checkServer(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit

		case "esc":
			if a.mode == "detail" || a.mode == "summary" {
				a.mode = "list"
				a.currentTask = nil
				return a, a.fetchTasks()
			}

		case "up", "k":
			if a.mode == "list" && a.selectedIdx > 0 {
				a.selectedIdx--
			}

		case "down", "j":
			if a.mode == "list" && a.selectedIdx < len(a.tasks)-1 {
				a.selectedIdx++
			}

		case "tab":
			if a.mode == "list" {
				a.filterIdx = (a.filterIdx + 1) % len(filters)
				a.filter = filters[a.filterIdx]
				return a, a.fetchTasks()
			}

		case "enter":
			text := strings.TrimSpace(a.input.Value())
			if text != "" {
				a.input.SetValue("")
				return a, a.executeInput(text)
			} else if a.mode == "list" && len(a.tasks) > 0 {
				task := a.tasks[a.selectedIdx]
				a.mode = "detail"
				return a, a.fetchTaskDetail(task.ID)
			}

		case "r":
			if a.mode == "list" {
				return a, a.fetchTasks()
			}

		case "s":
			if a.mode == "list" && a.input.Value() == "" {
				a.mode = "summary"
				return a, a.fetchSummary()
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 10

	case tasksLoadedMsg:
		a.loading = false
		a.tasks = msg.tasks
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}

	case taskDetailLoadedMsg:
		a.currentTask = msg.task
		a.history = msg.history

	case summaryLoadedMsg:
		a.summary = msg.summary

	case serverStatusMsg:
		a.serverOnline = msg.online

	case inputResultMsg:
		a.message = msg.message
		return a, a.fetchTasks()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	serverStatus := onlineStyle.Render("● SERVER")
	if !a.serverOnline {
		serverStatus = offlineStyle.Render("○ SERVER")
	}

	header := titleStyle.Render("📓 Journal Assistant")
	header += "  " + serverStatus
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(fmt.Sprintf("[%d tasks]", len(a.tasks)))

	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", a.width) + "\n")

	contentHeight := a.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.mode {
	case "list":
		filterLabel := fmt.Sprintf(" Filter: [%s]", filterNames[a.filterIdx])
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(filterLabel) + "\n")
		b.WriteString(a.renderTaskList(contentHeight - 1))
	case "detail":
		b.WriteString(a.renderTaskDetail())
	case "summary":
		b.WriteString(a.renderSummary())
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	b.WriteString("\n")

	var status string
	switch a.mode {
	case "list":
		status = fmt.Sprintf(" Tasks: %d | ↑↓:nav | Tab:filter | s:summary | r:refresh | Ctrl+C:quit", len(a.tasks))
	case "detail":
		status = " Esc:back | done <text> to complete | del to delete | Ctrl+C:quit"
	default:
		status = " Esc:back | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(a.width).Render(status))

	return b.String()
}

func (a *App) renderTaskList(height int) string {
	if a.loading {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		return "\n  No tasks found. Write what you need to do and press Enter.\n"
	}

	var lines []string
	for i, task := range a.tasks {
		label := task.Name
		if task.ScheduledDate != "" {
			label += lipgloss.NewStyle().Foreground(mutedColor).Render("  " + task.ScheduledDate)
		}
		if task.IsQuantitative && task.Progress != nil {
			label += lipgloss.NewStyle().Foreground(cyanColor).Render(
				fmt.Sprintf("  [%d/%d]", task.Progress.Completed, task.Progress.Total))
		}

		if i == a.selectedIdx {
			line := selectedStyle.Render(fmt.Sprintf("▶ %s  %s", statusGlyph(task.Status), task.Name))
			lines = append(lines, line)
		} else {
			line := taskItemStyle.Render(fmt.Sprintf("  %s  %s", formatStatus(task.Status), label))
			lines = append(lines, line)
		}
	}

	if len(lines) > height {
		start := a.selectedIdx - height/2
		if start < 0 {
			start = 0
		}
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderTaskDetail() string {
	if a.currentTask == nil {
		return "\n  Loading...\n"
	}

	var b strings.Builder
	t := a.currentTask

	b.WriteString(fmt.Sprintf("\n  📋 %s\n", lipgloss.NewStyle().Bold(true).Render(t.Name)))
	b.WriteString(fmt.Sprintf("  ID: %s\n", t.ID[:8]))
	b.WriteString(fmt.Sprintf("  Status: %s\n", formatStatus(t.Status)))
	b.WriteString(fmt.Sprintf("  Priority: %s\n", t.Priority))
	if t.Description != "" {
		b.WriteString(fmt.Sprintf("  Description: %s\n", t.Description))
	}
	if t.ScheduledDate != "" {
		sched := t.ScheduledDate
		if t.ScheduledTime != "" {
			sched += " " + t.ScheduledTime
		}
		b.WriteString(fmt.Sprintf("  Scheduled: %s\n", sched))
	}
	if t.DueDate != "" {
		b.WriteString(fmt.Sprintf("  Due: %s\n", t.DueDate))
	}
	if t.Recurrence != models.RecurrenceNone && t.Recurrence != "" {
		b.WriteString(fmt.Sprintf("  Repeats: %s\n", t.Recurrence))
	}
	if t.IsQuantitative && t.Progress != nil {
		b.WriteString(fmt.Sprintf("  Progress: %s\n", renderProgressBar(t.Progress)))
	}
	if t.NeedsClarification {
		b.WriteString("  " + lipgloss.NewStyle().Foreground(warningColor).Render("⚠ Needs clarification") + "\n")
		for _, d := range t.Disambiguations {
			if d.Response == "" {
				b.WriteString(fmt.Sprintf("    %s\n", d.Question))
			}
		}
	}
	if t.RawInput != "" {
		b.WriteString(fmt.Sprintf("  Captured from: %q\n",
			lipgloss.NewStyle().Foreground(mutedColor).Render(t.RawInput)))
	}

	if len(a.history) > 0 {
		b.WriteString("\n  📜 History:\n")
		for i, h := range a.history {
			if i >= 5 {
				break
			}
			b.WriteString(fmt.Sprintf("    • %s  %s\n",
				h.Timestamp.Format("2006-01-02 15:04"), h.Action))
		}
	}

	return b.String()
}

func (a *App) renderSummary() string {
	if a.summary == nil {
		return "\n  Loading summary...\n"
	}

	var b strings.Builder
	s := a.summary

	b.WriteString(fmt.Sprintf("\n  📅 %s\n", lipgloss.NewStyle().Bold(true).Render(s.Date)))
	b.WriteString("  " + strings.Repeat("─", 40) + "\n\n")
	b.WriteString(fmt.Sprintf("  %s\n\n", s.Summary))
	b.WriteString(fmt.Sprintf("  Completed: %d / %d  (%.0f%%)\n",
		s.Statistics.Completed, s.Statistics.Total, s.Statistics.CompletionRate*100))
	b.WriteString("\n  " + helpStyle.Render("Press Esc to go back") + "\n")

	return b.String()
}

func renderProgressBar(p *models.QuantitativeProgress) string {
	const width = 20
	frac := p.Percentage() / 100
	filled := int(frac * width)
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	label := fmt.Sprintf(" %d/%d", p.Completed, p.Total)
	if p.Unit != "" {
		label += " " + p.Unit
	}
	return lipgloss.NewStyle().Foreground(cyanColor).Render(bar) + label
}

func formatStatus(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusPending:
		return lipgloss.NewStyle().Foreground(warningColor).Render("○ PENDING")
	case models.TaskStatusInProgress:
		return lipgloss.NewStyle().Foreground(cyanColor).Render("◑ ACTIVE")
	case models.TaskStatusCompleted:
		return lipgloss.NewStyle().Foreground(successColor).Render("● DONE")
	case models.TaskStatusCancelled:
		return lipgloss.NewStyle().Foreground(errorColor).Render("✗ CANCELLED")
	default:
		return string(status)
	}
}

func statusGlyph(status models.TaskStatus) string {
	switch status {
	case models.TaskStatusPending:
		return "○"
	case models.TaskStatusInProgress:
		return "◑"
	case models.TaskStatusCompleted:
		return "●"
	case models.TaskStatusCancelled:
		return "✗"
	default:
		return "?"
	}
}

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	return func() tea.Msg {
		tasks, err := a.client.ListTasks(a.filter)
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{tasks}
	}
}

func (a *App) fetchTaskDetail(taskID string) tea.Cmd {
	return func() tea.Msg {
		task, err := a.client.GetTask(taskID)
		if err != nil {
			return errMsg{err}
		}
		history, _ := a.client.GetHistory(taskID)
		return taskDetailLoadedMsg{task, history}
	}
}

func (a *App) fetchSummary() tea.Cmd {
	return func() tea.Msg {
		summary, err := a.client.Summary()
		if err != nil {
			return errMsg{err}
		}
		return summaryLoadedMsg{summary}
	}
}

func (a *App) checkServer() tea.Cmd {
	return func() tea.Msg {
		ok, err := a.client.CheckHealth()
		return serverStatusMsg{online: err == nil && ok}
	}
}

// executeInput interprets the capture bar. A handful of words are
// commands; everything else is journal text sent for extraction.
func (a *App) executeInput(input string) tea.Cmd {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	cmd := parts[0]
	rest := strings.Join(parts[1:], " ")

	return func() tea.Msg {
		switch cmd {
		case "done", "finished", "completed":
			if rest == "" {
				return inputResultMsg{"Usage: done <what you finished>"}
			}
			result, err := a.client.CompleteText(rest)
			if err != nil {
				return errMsg{err}
			}
			if result.Message != "" {
				return inputResultMsg{result.Message}
			}
			if result.NeedsClarification && len(result.CompletedTasks)+len(result.UpdatedTasks) == 0 {
				return inputResultMsg{result.ClarificationQuestion}
			}
			n := len(result.CompletedTasks) + len(result.UpdatedTasks)
			return inputResultMsg{fmt.Sprintf("✓ Updated %d task(s)", n)}

		case "del", "delete":
			if a.mode != "list" || len(a.tasks) == 0 {
				return inputResultMsg{"No task selected"}
			}
			task := a.tasks[a.selectedIdx]
			if err := a.client.DeleteTask(task.ID); err != nil {
				return errMsg{err}
			}
			return inputResultMsg{fmt.Sprintf("✓ Deleted %q", task.Name)}

		case "q", "quit", "exit":
			return tea.Quit()

		default:
			result, err := a.client.Extract(input)
			if err != nil {
				return errMsg{err}
			}
			if result.NeedsClarification && len(result.Tasks) == 0 {
				return inputResultMsg{result.ClarificationQuestion}
			}
			if len(result.Tasks) == 1 {
				return inputResultMsg{fmt.Sprintf("✓ Created task: %s", result.Tasks[0].Name)}
			}
			return inputResultMsg{fmt.Sprintf("✓ Created %d tasks", len(result.Tasks))}
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type inputResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tasksLoadedMsg struct {
	tasks []models.Task
}

type taskDetailLoadedMsg struct {
	task    *models.Task
	history []models.HistoryEntry
}

type summaryLoadedMsg struct {
	summary *SummaryResult
}

type serverStatusMsg struct {
	online bool
}
