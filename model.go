//go:build !gui

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/limn/internal/acquire"
	"github.com/metcalfc/limn/internal/document"
	"github.com/metcalfc/limn/internal/illustrate"
	"github.com/metcalfc/limn/internal/thumb"
	"github.com/metcalfc/limn/internal/view"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	bylineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("#444444")).
			PaddingLeft(1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)
)

const (
	headerHeight = 3
	// panels narrower than this are not worth drawing
	minPanelWidth = 90
)

type mode int

const (
	modeLoading mode = iota
	modeReading
	modeManual
	modeOpen
	modeContents
)

type loadedMsg loadResult

type model struct {
	app  *app
	ctx  context.Context
	mode mode

	book    *book
	layout  *view.Layout
	tracker *view.Tracker
	orch    *illustrate.Orchestrator

	viewport viewport.Model
	manual   textarea.Model
	open     textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	contents []document.Entry
	cursor   int

	pending  target
	loading  string
	status   string
	spinning bool

	marking  bool
	dragging bool
	selStart int
	selEnd   int

	thumb    string
	thumbRef string

	quitting bool
	width    int
	height   int
}

func newModel(ctx context.Context, a *app, locator string) model {
	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	ta := textarea.New()
	ta.Placeholder = "Paste the book text here"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false

	ti := textinput.New()
	ti.Prompt = "Open: "
	ti.Placeholder = "Project Gutenberg id, URL or file"

	return model{
		app:      a,
		ctx:      ctx,
		mode:     modeLoading,
		tracker:  view.NewTracker(nil),
		orch:     illustrate.New(ctx, a.service, a.cfg.Orchestrator(), a.logger),
		viewport: vp,
		manual:   ta,
		open:     ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
		keys:     defaultKeys(),
		loading:  locator,
		spinning: true,
		selStart: -1,
		selEnd:   -1,
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(m.loading), m.spinner.Tick)
}

func (m model) loadCmd(locator string) tea.Cmd {
	a, ctx := m.app, m.ctx
	return func() tea.Msg {
		return loadedMsg(a.load(ctx, locator))
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.relayout()

	case loadedMsg:
		return m, m.loaded(loadResult(msg))

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)
	}

	cmds := []tea.Cmd{m.track(m.orch.Update(msg))}
	switch m.mode {
	case modeManual:
		var cmd tea.Cmd
		m.manual, cmd = m.manual.Update(msg)
		cmds = append(cmds, cmd)
	case modeOpen:
		var cmd tea.Cmd
		m.open, cmd = m.open.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) loaded(res loadResult) tea.Cmd {
	switch {
	case res.err != nil:
		m.status = "Error: " + res.err.Error()
		if m.book != nil {
			m.mode = modeReading
			return nil
		}
		m.mode = modeOpen
		return m.open.Focus()

	case res.manual:
		m.mode = modeManual
		m.pending = res.target
		m.manual.Reset()
		m.status = fmt.Sprintf("Could not fetch %s. Paste the text and press ctrl+s.", res.target.url)
		return m.manual.Focus()
	}

	m.status = ""
	return m.setBook(res.book)
}

// setBook replaces the current book and starts a new illustration session.
func (m *model) setBook(b *book) tea.Cmd {
	if m.book != nil {
		m.app.savePosition(m.book, m.topBlock())
	}
	m.book = b
	m.mode = modeReading
	m.contents = document.Contents(b.doc)
	m.cursor = 0
	m.tracker = view.NewTracker(nil)
	m.clearSelection()
	m.layoutBook()

	if blk := m.app.restoreBlock(b); blk > 0 && blk < len(m.layout.Extents) {
		m.viewport.SetYOffset(int(m.layout.Extents[blk].Top))
		m.status = "Resumed where you left off"
	} else {
		m.viewport.GotoTop()
	}
	m.syncWindow()
	return m.track(m.orch.Reset(m.tracker))
}

func (m model) busy() bool {
	return m.mode == modeLoading || m.orch.Loading()
}

func (m *model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// track refreshes everything derived from the orchestrator after it ran.
func (m *model) track(cmd tea.Cmd) tea.Cmd {
	m.renderThumb(false)
	if m.orch.Loading() {
		return tea.Batch(cmd, m.startSpinner())
	}
	return cmd
}

func (m model) panelWidth() int {
	if m.width < minPanelWidth {
		return 0
	}
	return m.width / 3
}

func (m model) textWidth() int {
	if pw := m.panelWidth(); pw > 0 {
		return m.width - pw
	}
	return m.width
}

func (m model) bodyHeight() int {
	return max(1, m.height-headerHeight-lipgloss.Height(m.footerView()))
}

func (m *model) relayout() tea.Cmd {
	body := m.bodyHeight()
	m.manual.SetWidth(max(10, m.width-2))
	m.manual.SetHeight(max(3, body-1))
	m.open.Width = max(10, m.width-len(m.open.Prompt)-4)
	m.help.Width = m.width
	if m.book == nil {
		return nil
	}

	// line numbers change with the width, so the highlight cannot follow
	top := m.topBlock()
	m.clearSelection()
	m.layoutBook()
	if top < len(m.layout.Extents) {
		m.viewport.SetYOffset(int(m.layout.Extents[top].Top))
	}
	m.syncWindow()
	m.renderThumb(true)
	return m.orch.Observe()
}

// layoutBook wraps the current book to the text column.
func (m *model) layoutBook() {
	m.viewport.Width = m.textWidth()
	m.viewport.Height = m.bodyHeight()
	m.layout = view.NewLayout(m.book.doc, m.textWidth()-1)
	m.tracker.SetPlacements(m.layout.Placements())
	m.refreshContent()
}

// topBlock is the index of the first block in view.
func (m model) topBlock() int {
	if m.layout == nil {
		return 0
	}
	off := float64(m.viewport.YOffset)
	for i, e := range m.layout.Extents {
		if e.Bottom > off {
			return i
		}
	}
	return 0
}

func (m *model) syncWindow() {
	m.tracker.SetWindow(float64(m.viewport.YOffset), float64(m.viewport.Height))
}

func (m *model) refreshContent() {
	if m.layout == nil {
		return
	}
	lo, hi := m.selStart, m.selEnd
	if lo > hi {
		lo, hi = hi, lo
	}
	m.viewport.SetContent(m.layout.Content(lo, hi))
}

func (m *model) renderThumb(force bool) {
	ill, ok := m.orch.Illustration()
	if !ok {
		m.thumb, m.thumbRef = "", ""
		return
	}
	if !force && ill.Ref == m.thumbRef {
		return
	}
	m.thumb = thumb.Render(ill.Image, max(0, m.panelWidth()-3), max(0, m.bodyHeight()-2))
	m.thumbRef = ill.Ref
}

func (m model) quit() (tea.Model, tea.Cmd) {
	if m.book != nil {
		m.app.savePosition(m.book, m.topBlock())
	}
	m.quitting = true
	return m, tea.Quit
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	switch m.mode {
	case modeLoading:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return m, nil
	case modeManual:
		return m.updateManual(msg)
	case modeOpen:
		return m.updateOpen(msg)
	case modeContents:
		return m.updateContents(msg)
	}
	return m.updateReading(msg)
}

func (m model) updateManual(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		b, err := m.app.submitManual(m.manual.Value(), m.pending)
		if errors.Is(err, acquire.ErrTooShort) {
			n := utf8.RuneCountInString(strings.TrimSpace(m.manual.Value()))
			m.status = fmt.Sprintf("Too short: %d characters, at least %d needed.", n, acquire.MinManualLength)
			return m, nil
		}
		if err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.manual.Blur()
		m.status = ""
		return m, m.setBook(b)

	case msg.Type == tea.KeyEsc:
		m.manual.Blur()
		if m.book == nil {
			return m.quit()
		}
		m.mode = modeReading
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.manual, cmd = m.manual.Update(msg)
	return m, cmd
}

func (m model) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		locator := strings.TrimSpace(m.open.Value())
		if locator == "" {
			return m, nil
		}
		m.open.Blur()
		m.open.SetValue("")
		m.mode = modeLoading
		m.loading = locator
		m.status = ""
		return m, tea.Batch(m.loadCmd(locator), m.startSpinner())

	case tea.KeyEsc:
		m.open.Blur()
		if m.book == nil {
			return m.quit()
		}
		m.mode = modeReading
		return m, nil
	}

	var cmd tea.Cmd
	m.open, cmd = m.open.Update(msg)
	return m, cmd
}

func (m model) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, m.relayout()

	case key.Matches(msg, m.keys.Open):
		m.mode = modeOpen
		return m, m.open.Focus()

	case key.Matches(msg, m.keys.TOC):
		if len(m.contents) == 0 {
			m.status = "No chapters found"
			return m, nil
		}
		m.mode = modeContents
		m.cursor = m.currentEntry()
		return m, nil

	case key.Matches(msg, m.keys.Mark):
		if m.marking {
			return m, m.confirmSelection()
		}
		m.marking = true
		m.selStart = m.viewport.YOffset
		m.selEnd = m.selStart
		m.refreshContent()
		m.status = "Selecting: ↑/↓ extend, enter or v confirm, esc cancel"
		return m, nil

	case m.marking && (key.Matches(msg, m.keys.Down) || key.Matches(msg, m.keys.Up)):
		if key.Matches(msg, m.keys.Down) {
			m.selEnd = m.clampLine(m.selEnd + 1)
		} else {
			m.selEnd = m.clampLine(m.selEnd - 1)
		}
		m.refreshContent()
		return m, m.ensureVisible(m.selEnd)

	case m.marking && key.Matches(msg, m.keys.Confirm):
		return m, m.confirmSelection()

	case key.Matches(msg, m.keys.Clear):
		if !m.marking && m.tracker.Selection() == "" {
			return m, nil
		}
		m.clearSelection()
		m.refreshContent()
		m.status = ""
		return m, m.orch.Observe()

	case key.Matches(msg, m.keys.Copy):
		sel := m.tracker.Selection()
		if sel == "" {
			m.status = "Nothing selected"
			return m, nil
		}
		if err := clipboard.WriteAll(sel); err != nil {
			m.status = "Error: " + err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Copied %d characters", utf8.RuneCountInString(sel))
		return m, nil
	}

	return m.scroll(msg)
}

func (m model) updateContents(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.TOC), msg.Type == tea.KeyEsc:
		m.mode = modeReading
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursor = min(m.cursor+1, len(m.contents)-1)
	case key.Matches(msg, m.keys.Up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.Confirm):
		m.mode = modeReading
		m.clearSelection()
		m.refreshContent()
		return m, m.jumpTo(m.contents[m.cursor].Block)
	}
	return m, nil
}

// currentEntry is the last contents entry at or above the top of the view.
func (m model) currentEntry() int {
	top := m.topBlock()
	cur := 0
	for i, e := range m.contents {
		if e.Block <= top {
			cur = i
		}
	}
	return cur
}

func (m *model) jumpTo(block int) tea.Cmd {
	if m.layout == nil || block >= len(m.layout.Extents) {
		return nil
	}
	before := m.viewport.YOffset
	m.viewport.SetYOffset(int(m.layout.Extents[block].Top))
	if m.viewport.YOffset == before {
		return nil
	}
	m.syncWindow()
	return m.orch.Scrolled()
}

// scroll forwards msg to the viewport and reports any movement.
func (m model) scroll(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.viewport.YOffset
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.YOffset != before {
		m.syncWindow()
		return m, tea.Batch(cmd, m.orch.Scrolled())
	}
	return m, cmd
}

func (m *model) ensureVisible(line int) tea.Cmd {
	before := m.viewport.YOffset
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
	if m.viewport.YOffset == before {
		return nil
	}
	m.syncWindow()
	return m.orch.Scrolled()
}

func (m model) clampLine(line int) int {
	if m.layout == nil || m.layout.LineCount() == 0 {
		return 0
	}
	return min(max(line, 0), m.layout.LineCount()-1)
}

func (m *model) confirmSelection() tea.Cmd {
	m.marking = false
	m.dragging = false
	text := m.layout.TextBetween(m.selStart, m.selEnd)
	m.tracker.Select(text)
	if n := utf8.RuneCountInString(text); n > view.MinSelection {
		m.status = fmt.Sprintf("Selected %d characters", n)
	} else {
		m.status = "Selection too short; following the page instead"
	}
	return m.orch.Observe()
}

func (m *model) clearSelection() {
	m.marking = false
	m.dragging = false
	m.selStart, m.selEnd = -1, -1
	if m.tracker != nil {
		m.tracker.ClearSelection()
	}
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeReading || m.layout == nil {
		return m, nil
	}
	line := m.clampLine(m.viewport.YOffset + msg.Y - headerHeight)
	inText := msg.X < m.viewport.Width && msg.Y >= headerHeight && msg.Y < headerHeight+m.viewport.Height

	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inText:
		m.clearSelection()
		m.marking, m.dragging = true, true
		m.selStart, m.selEnd = line, line
		m.refreshContent()
		return m, nil

	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.selEnd = line
		m.refreshContent()
		return m, m.ensureVisible(line)

	case msg.Action == tea.MouseActionRelease && m.dragging:
		if m.selStart == m.selEnd {
			// a click without a drag only cancels
			m.clearSelection()
			m.refreshContent()
			return m, m.orch.Observe()
		}
		m.selEnd = line
		m.refreshContent()
		return m, m.confirmSelection()
	}
	return m.scroll(msg)
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	body := m.bodyHeight()
	var content string
	switch m.mode {
	case modeLoading:
		content = fmt.Sprintf("\n  %s Loading %s...", m.spinner.View(), m.loading)
	case modeManual:
		content = m.manual.View()
	case modeOpen:
		content = "\n  " + m.open.View()
	case modeContents:
		content = m.contentsView(body)
	default:
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.panelView(body))
	}

	frame := lipgloss.NewStyle().Height(body).MaxHeight(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), frame.Render(content), m.footerView())
}

func (m model) headerView() string {
	title, byline := "limn", ""
	if m.book != nil {
		title = m.book.title
		parts := []string{}
		if m.book.subtitle != "" {
			parts = append(parts, m.book.subtitle)
		}
		if m.book.authors != "" {
			parts = append(parts, m.book.authors)
		}
		byline = strings.Join(parts, " · ")
	}

	progress := ""
	if m.layout != nil && m.layout.LineCount() > 0 {
		bottom := min(m.viewport.YOffset+m.viewport.Height, m.layout.LineCount())
		progress = fmt.Sprintf("Line %d/%d | %d%% | %s", m.viewport.YOffset+1, m.layout.LineCount(),
			bottom*100/m.layout.LineCount(), m.orch.State())
	}

	width := max(1, m.width)
	clip := lipgloss.NewStyle().MaxWidth(width)
	return lipgloss.JoinVertical(lipgloss.Left,
		clip.Render(titleStyle.Render(title)),
		clip.Render(bylineStyle.Render(byline)),
		clip.Render(statusStyle.Render(progress)),
	)
}

func (m model) contentsView(body int) string {
	rows := max(1, body-1)
	start := max(0, min(m.cursor-rows/2, len(m.contents)-rows))
	end := min(len(m.contents), start+rows)

	lines := []string{titleStyle.Render("Contents")}
	for i := start; i < end; i++ {
		e := m.contents[i]
		line := strings.Repeat("  ", e.Level+1) + e.Title
		if e.Preview != "" {
			line += "  " + hintStyle.Render(e.Preview)
		}
		if i == m.cursor {
			line = cursorStyle.Render(">") + line[1:]
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().MaxWidth(max(1, m.width)).Render(strings.Join(lines, "\n"))
}

func (m model) panelView(body int) string {
	pw := m.panelWidth()
	if pw == 0 {
		return ""
	}
	var inner string
	switch {
	case m.thumb != "":
		inner = m.thumb
		if m.orch.Loading() {
			inner += "\n" + hintStyle.Render(m.spinner.View()+" drawing the next passage")
		}
	case m.orch.Loading():
		inner = m.spinner.View() + " Drawing..."
	case m.app.cfg.APIKey() == "":
		inner = hintStyle.Render("No illustration key. Set $" + m.app.cfg.Illustration.APIKeyEnv + ".")
	default:
		inner = hintStyle.Render("Keep reading; an illustration follows when you pause.")
	}
	return panelStyle.Width(pw - 2).Height(body).MaxHeight(body).Render(inner)
}

func (m model) footerView() string {
	status := m.status
	if strings.HasPrefix(status, "Error") || strings.HasPrefix(status, "Too short") || strings.HasPrefix(status, "Could not") {
		status = noticeStyle.Render(status)
	} else {
		status = statusStyle.Render(status)
	}

	var hints string
	switch m.mode {
	case modeManual:
		hints = hintStyle.Render("ctrl+s: submit  ctrl+v: paste  esc: cancel")
	case modeOpen:
		hints = hintStyle.Render("enter: open  esc: cancel")
	case modeContents:
		hints = hintStyle.Render("↑/↓: choose  enter: jump  esc: back")
	default:
		hints = m.help.View(m.keys)
	}
	return lipgloss.JoinVertical(lipgloss.Left, status, hints)
}
