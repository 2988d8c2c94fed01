package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docseek/search"
)

// Styles (shared with the CLI warning/error output).
var (
	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7"))

	subHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a9b1d6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ece6a")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1a1b26")).
			Background(lipgloss.Color("#7aa2f7"))
)

// Messages from the background search.
type progressMsg struct {
	Completed int
	Total     int
}

type matchMsg struct {
	Path string
}

type doneMsg struct {
	Summary *search.Summary
	Err     error
}

type memUsageMsg struct {
	Text string
}

type model struct {
	cancel context.CancelFunc
	req    search.Request

	width  int
	height int

	loading    bool
	cancelling bool
	completed  int
	total      int
	matches    []string
	selected   int

	summary *search.Summary
	err     error

	status       string // last open/cancel notice
	degraded     string // optical tooling warning, shown in the header
	memUsageText string
	quitting     bool
}

// runTUI drives the interactive view. The engine runs in the background and
// streams its events into the program.
func runTUI(ctx context.Context, engine *search.Engine, req search.Request, degraded string) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := model{
		cancel:   cancel,
		req:      req,
		loading:  true,
		degraded: degraded,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())

	engine.OnMatch = func(path string) {
		p.Send(matchMsg{Path: path})
	}
	engine.OnProgress = func(completed, total int) {
		p.Send(progressMsg{Completed: completed, Total: total})
	}
	go func() {
		sum, err := engine.Run(ctx, req)
		p.Send(doneMsg{Summary: sum, Err: err})
	}()

	out, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		return 1
	}
	final, ok := out.(model)
	if !ok {
		return 0
	}
	if final.err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+final.err.Error()))
		return 1
	}
	if final.summary != nil && final.summary.Cancelled {
		return 130
	}
	return 0
}

func (m model) Init() tea.Cmd {
	return m.memUsageTick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.loading {
				if !m.cancelling {
					m.cancelling = true
					m.status = "Cancelling, waiting for running tasks..."
					m.cancel()
				}
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.matches)-1 {
				m.selected++
			}
			return m, nil
		case "home":
			m.selected = 0
			return m, nil
		case "end":
			if len(m.matches) > 0 {
				m.selected = len(m.matches) - 1
			}
			return m, nil

		case "enter", "o":
			if len(m.matches) == 0 {
				return m, nil
			}
			path := m.matches[m.selected]
			if err := openInViewer(path); err != nil {
				m.status = err.Error()
			} else {
				m.status = "Opened " + path
			}
			return m, nil
		}
		return m, nil

	case matchMsg:
		m.matches = append(m.matches, msg.Path)
		return m, nil

	case progressMsg:
		m.completed = msg.Completed
		m.total = msg.Total
		return m, nil

	case doneMsg:
		m.loading = false
		m.cancelling = false
		m.summary = msg.Summary
		m.err = msg.Err
		if m.err != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case memUsageMsg:
		m.memUsageText = msg.Text
		return m, m.memUsageTick()
	}
	return m, nil
}

func (m model) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 120
	}
	if height <= 0 {
		height = 30
	}

	if m.quitting {
		return ""
	}

	// Header
	var headerLines []string
	logoTop := " █▀▄ █▀█ █▀▀ █▀ █▀▀ █▀▀ █▄▀"
	logoBottom := fmt.Sprintf(" █▄▀ █▄█ █▄▄ ▄█ ██▄ ██▄ █ █  v%s", version)
	if len(logoTop) < len(logoBottom) {
		logoTop += strings.Repeat(" ", len(logoBottom)-len(logoTop))
	}
	logo := lipgloss.NewStyle().Foreground(lipgloss.Color("#7aa2f7")).Render(logoTop + "\n" + logoBottom)
	headerLines = append(headerLines, "", logo, "")

	headerLines = append(headerLines, subHeaderStyle.Render(fmt.Sprintf("🔍 Searching: %q", m.req.Keyword)))
	headerLines = append(headerLines, infoStyle.Render("📁 Target: "+m.req.Target))
	if m.degraded != "" {
		headerLines = append(headerLines, warningStyle.Render("⚠ Text layer only: "+m.degraded))
	} else if m.req.TextOnly {
		headerLines = append(headerLines, infoStyle.Render("⚙️ Text layer only (no OCR)"))
	}
	headerLines = append(headerLines, infoStyle.Render("⚙️ Engine"+m.memUsageText))

	// Progress line
	var progressLine string
	switch {
	case m.cancelling:
		progressLine = warningStyle.Render("⏳ " + m.status)
	case m.loading:
		progressLine = subHeaderStyle.Render("⏳ " + m.progressBar(width-6))
	case m.summary != nil && m.summary.Cancelled:
		progressLine = warningStyle.Render(fmt.Sprintf("✋ Cancelled after %d of %d documents", m.summary.Completed, m.summary.Total))
	case m.summary != nil:
		progressLine = successStyle.Render(fmt.Sprintf("✅ Searched %d documents: %d matched, %d skipped, %d without the phrase",
			m.summary.Completed, len(m.summary.Matched), m.summary.Skipped, m.summary.Unmatched()))
	}

	header := strings.Join(headerLines, "\n")
	headerHeight := strings.Count(header, "\n") + 1

	// Main box: live match list, plus locators for single-file runs
	chromeHeight := 4
	footerHeight := 1
	statusHeight := 1
	contentHeight := height - headerHeight - 1 - statusHeight - footerHeight - chromeHeight
	if contentHeight < 3 {
		contentHeight = 3
	}
	box := appStyle.Width(width - 4).Height(contentHeight).Render(m.boxContent(contentHeight))

	// Bottom status
	status := ""
	if m.status != "" && !m.cancelling {
		status = infoStyle.Render(m.status)
	}

	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render("🔚 'q' quit • up/down select • 'enter' open match")

	parts := []string{header, progressLine, box, status, footer}
	return strings.Join(parts, "\n")
}

// progressBar renders completion as a fixed-width bar with counts.
func (m model) progressBar(width int) string {
	if width > 40 {
		width = 40
	}
	if width < 10 {
		width = 10
	}
	frac := 0.0
	if m.total > 0 {
		frac = float64(m.completed) / float64(m.total)
	}
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3.0f%% (%d/%d)", bar, frac*100, m.completed, m.total)
}

// boxContent windows the match list around the selection.
func (m model) boxContent(contentHeight int) string {
	if len(m.matches) == 0 {
		switch {
		case m.loading:
			return "Searching..."
		case m.summary != nil && m.summary.Total == 0:
			return "Nothing to search: no PDF or DOCX documents under the target."
		default:
			return "No documents matched."
		}
	}

	var lines []string
	lines = append(lines, successStyle.Render(fmt.Sprintf("📋 Matched: %d", len(m.matches))))

	listHeight := contentHeight - 1
	if listHeight < 1 {
		listHeight = 1
	}
	start := 0
	if m.selected >= listHeight {
		start = m.selected - listHeight + 1
	}
	end := start + listHeight
	if end > len(m.matches) {
		end = len(m.matches)
	}
	for i := start; i < end; i++ {
		line := m.matches[i]
		if i == m.selected {
			lines = append(lines, selectedStyle.Render("→ "+line))
		} else {
			lines = append(lines, infoStyle.Render("  "+line))
		}
	}

	// Single-file runs report where inside the document the phrase sits.
	if m.summary != nil && len(m.summary.Locators) > 0 {
		lines = append(lines, "")
		var spots []string
		for _, loc := range m.summary.Locators {
			spots = append(spots, loc.String())
		}
		lines = append(lines, subHeaderStyle.Render("Found at: ")+infoStyle.Render(strings.Join(spots, ", ")))
	}

	return strings.Join(lines, "\n")
}

func (m model) memUsageTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		mem, cpu := sampleMemoryAndCPU()
		return memUsageMsg{Text: fmt.Sprintf(" • Heap %5.1f MB • RSS %5.1f MB • CPU %5.1f%%",
			float64(mem.heap)/(1024*1024), float64(mem.rss)/(1024*1024), cpu)}
	})
}
