package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/usecase"
)

// Assistant is the TUI-facing subset of the application facade.
type Assistant interface {
	Ask(ctx context.Context, question, business string, k int) usecase.AnswerResult
	Summarize(ctx context.Context, business string) usecase.AnswerResult
	Stats() (domain.IndexStats, error)
	ListBusinesses() ([]string, error)
}

type answerMsg struct {
	question string
	result   usecase.AnswerResult
}

// Model is the Bubble Tea model for interactive question answering.
type Model struct {
	ctx       context.Context
	assistant Assistant
	text      locale.Session
	business  string
	topK      int

	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []string
	status     string
	busy       bool
	ready      bool
}

// New creates a model that answers questions about business (empty = all),
// showing its own strings in the language of labels.
func New(ctx context.Context, assistant Assistant, labels locale.Labels, business string, topK int) Model {
	text := labels.Session

	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.Placeholder = text.Placeholder
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:       ctx,
		assistant: assistant,
		text:      text,
		business:  business,
		topK:      topK,
		input:     ti,
		viewport:  viewport.New(0, 0),
		spinner:   sp,
		status:    text.Ready,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + th // header + scope, status, frames
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-1)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case answerMsg:
		m.busy = false
		m.appendAnswer(msg)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			return m.handle(line)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handle runs a command or sends line as a question.
func (m Model) handle(line string) (tea.Model, tea.Cmd) {
	cmd, arg := parseCommand(line)
	switch cmd {
	case "quit":
		return m, tea.Quit
	case "help":
		m.add(m.text.Help)
	case "use":
		m.business = arg
		if arg == "" {
			m.status = m.text.ScopeAll
		} else {
			m.status = fmt.Sprintf(m.text.ScopeBusiness, arg)
		}
	case "list":
		m.add(m.renderBusinesses())
	case "stats":
		m.add(m.renderStats())
	case "summary":
		m.add(userStyle.Render("summary"))
		return m.start("summary", func() usecase.AnswerResult {
			return m.assistant.Summarize(m.ctx, m.business)
		})
	default:
		m.add(userStyle.Render("❯ " + line))
		return m.start(line, func() usecase.AnswerResult {
			return m.assistant.Ask(m.ctx, line, m.business, m.topK)
		})
	}
	m.refresh()
	return m, nil
}

func (m Model) start(question string, run func() usecase.AnswerResult) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = m.text.Thinking
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return answerMsg{question: question, result: run()}
	})
}

func (m *Model) appendAnswer(msg answerMsg) {
	res := msg.result
	if !res.Success {
		m.add(errorStyle.Render("✗ " + res.Error))
		m.status = m.text.Failed
		return
	}
	m.add(res.Text)
	m.status = fmt.Sprintf(m.text.Answered, res.ReviewsUsed, res.Usage.TotalTokens)
}

func (m *Model) add(block string) {
	m.transcript = append(m.transcript, block)
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
	m.viewport.GotoBottom()
}

func (m Model) renderBusinesses() string {
	names, err := m.assistant.ListBusinesses()
	if err != nil {
		return errorStyle.Render("✗ " + err.Error())
	}
	if len(names) == 0 {
		return m.text.NoBusinesses
	}
	return m.text.Businesses + "\n  " + strings.Join(names, "\n  ")
}

func (m Model) renderStats() string {
	stats, err := m.assistant.Stats()
	if err != nil {
		return errorStyle.Render("✗ " + err.Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, m.text.TotalReviews+"\n", stats.TotalReviews)
	if stats.AverageRating != nil {
		fmt.Fprintf(&sb, m.text.AverageRating+"\n", *stats.AverageRating)
	} else {
		sb.WriteString(m.text.NoRating + "\n")
	}
	sb.WriteString(m.text.Distribution)
	stars := make([]int, 0, len(stats.RatingDistribution))
	for s := range stats.RatingDistribution {
		stars = append(stars, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stars)))
	for _, s := range stars {
		fmt.Fprintf(&sb, " %d★=%d", s, stats.RatingDistribution[s])
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return m.text.Loading
	}

	scope := m.text.AllBusinesses
	if m.business != "" {
		scope = m.business
	}
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}

	return headerStyle.Render(m.text.Title) + "\n" +
		scopeStyle.Render(scope) + "\n" +
		transcriptBoxStyle.Render(m.viewport.View()) + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(status)
}

// parseCommand maps an input line to a command name and argument.
// Anything that is not a command is a question.
func parseCommand(line string) (string, string) {
	head, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(head) {
	case "quit", "exit", "退出", "/quit", "/exit":
		if arg == "" {
			return "quit", ""
		}
	case "help", "/help":
		if arg == "" {
			return "help", ""
		}
	case "stats", "/stats":
		if arg == "" {
			return "stats", ""
		}
	case "summary", "/summary":
		if arg == "" {
			return "summary", ""
		}
	case "list", "/list":
		if arg == "" {
			return "list", ""
		}
	case "use", "/use":
		return "use", arg
	}
	return "ask", line
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	scopeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
