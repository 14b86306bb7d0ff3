package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/render"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
	"github.com/Zuo-Peng/wachat-insights/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

// message types

type itemsMsg struct {
	query string
	items []item
	err   error
}

type debounceTickMsg struct {
	query string
}

// model

type model struct {
	db          *index.DB
	searchOpts  search.Options
	reportReq   report.Request
	mode        tuiMode
	query       string
	items       []item
	cursor      int
	listOffset  int
	senderIdx   int // selected sender in the report preview
	filterInput textinput.Model
	preview     viewport.Model
	previewKey  string // "chatKey:n" to avoid duplicate renders
	width       int
	height      int
	ready       bool
	quitting    bool
	chosen      *item
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.SetValue(value)
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256
	return ti
}

func searchModel(db *index.DB, query string, opts search.Options) model {
	return model{
		db:          db,
		searchOpts:  opts,
		mode:        modeSearch,
		query:       query,
		filterInput: newInput("Search messages...", query),
		preview:     viewport.New(0, 0),
	}
}

func listModel(db *index.DB, req report.Request) model {
	return model{
		db:          db,
		reportReq:   req,
		mode:        modeList,
		filterInput: newInput("Filter chats...", ""),
		preview:     viewport.New(0, 0),
	}
}

// Run starts the message search TUI and blocks until it exits. The chosen
// hit is copied to the clipboard as a preview command.
func Run(db *index.DB, query string, opts search.Options) error {
	return run(db, searchModel(db, query, opts))
}

// RunList starts the TUI in list mode: chats newest first, with the chat
// report in the preview panel. The chosen chat's headline is copied.
func RunList(db *index.DB, req report.Request) error {
	return run(db, listModel(db, req))
}

func run(db *index.DB, m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(model)
	if fm.chosen == nil {
		return nil
	}
	text, err := fm.clipText(*fm.chosen)
	if err != nil {
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		fmt.Printf("%s\n", text)
		return nil
	}
	fmt.Printf("Copied to clipboard: %s\n", text)
	return nil
}

// clipText is what enter copies: the report headline in list mode, a
// preview command for the hit in search mode.
func (m model) clipText(it item) (string, error) {
	if m.mode == modeSearch {
		return fmt.Sprintf("wci preview %q --hit %d", it.chatKey, it.msgID), nil
	}
	r, err := chatReport(m.db, it.chatKey, m.reportReq, m.senderIdx)
	if err != nil {
		return "", err
	}
	return render.ReportHeadline(it.title, r), nil
}

// Init triggers the initial search/list load.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList {
		cmds = append(cmds, m.doListChats(""))
	} else if m.query != "" {
		cmds = append(cmds, m.doSearch(m.query))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = newViewport(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		return m, m.loadCurrentPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		// stale ticks are dropped; only the last keystroke's query runs
		if msg.query != m.query {
			return m, nil
		}
		if m.mode == modeList {
			return m, m.doListChats(msg.query)
		}
		return m, m.doSearch(msg.query)

	case itemsMsg:
		return m.applyItems(msg)

	case previewRenderedMsg:
		return m.applyPreview(msg), nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	half := m.panelHeight() / 2

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, keys.Choose):
		if m.cursor < len(m.items) {
			it := m.items[m.cursor]
			m.chosen = &it
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, keys.NextSender):
		if m.mode != modeList || len(m.items) == 0 {
			return m, nil
		}
		m.senderIdx++
		return m, m.loadCurrentPreview()

	case key.Matches(msg, keys.Up):
		return m.moveTo(m.cursor - 1)
	case key.Matches(msg, keys.Down):
		return m.moveTo(m.cursor + 1)
	case key.Matches(msg, keys.First):
		return m.moveTo(0)
	case key.Matches(msg, keys.Last):
		return m.moveTo(len(m.items) - 1)

	case key.Matches(msg, keys.PreviewUp):
		m.preview.LineUp(half)
		return m, nil
	case key.Matches(msg, keys.PreviewDown):
		m.preview.LineDown(half)
		return m, nil
	case key.Matches(msg, keys.PageUp):
		m.preview.LineUp(m.panelHeight())
		return m, nil
	case key.Matches(msg, keys.PageDown):
		m.preview.LineDown(m.panelHeight())
		return m, nil
	}

	// everything else edits the filter box
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if q := m.filterInput.Value(); q != m.query {
		m.query = q
		return m, tea.Batch(cmd, m.scheduleDebouncedSearch(q))
	}
	return m, cmd
}

// moveTo puts the cursor on item i (ignored when out of range) and loads
// its preview with the first sender selected.
func (m model) moveTo(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.items) || i == m.cursor {
		return m, nil
	}
	m.cursor = i
	m.senderIdx = 0
	m.adjustListScroll(m.panelHeight())
	return m, m.loadCurrentPreview()
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.items) == 0 {
		return m, nil
	}

	region, itemIdx := m.hitTest(msg.X, msg.Y)
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown

	switch region {
	case regionList:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			if m.listOffset > 0 {
				m.listOffset--
			}
		case msg.Button == tea.MouseButtonWheelDown:
			maxOffset := len(m.items) - m.panelHeight()/linesPerItem
			if m.listOffset < maxOffset {
				m.listOffset++
			}
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			return m.moveTo(itemIdx)
		}
	case regionPreview:
		if wheel {
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) applyItems(msg itemsMsg) (tea.Model, tea.Cmd) {
	if msg.query != m.query {
		return m, nil // results for an older query
	}
	m.cursor = 0
	m.listOffset = 0
	m.senderIdx = 0
	m.previewKey = ""
	if msg.err != nil {
		m.items = nil
		m.preview.SetContent("Error: " + msg.err.Error())
		return m, nil
	}
	m.items = msg.items
	if len(m.items) == 0 {
		m.preview.SetContent("")
		return m, nil
	}
	return m, m.loadCurrentPreview()
}

func (m model) applyPreview(msg previewRenderedMsg) model {
	if msg.key == m.previewKey || msg.key != m.wantPreviewKey() {
		return m // duplicate or stale
	}
	switch {
	case msg.err != nil:
		m.preview.SetContent("Preview error: " + msg.err.Error())
	default:
		m.preview.SetContent(msg.content)
		if msg.hitLine > 0 {
			m.preview.SetYOffset(msg.hitLine)
		} else {
			m.preview.GotoTop()
		}
	}
	m.previewKey = msg.key
	return m
}

// View renders the full TUI.
func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	listW := m.listWidth()
	previewW := m.previewWidth()
	panelH := m.panelHeight()

	inputRow := m.filterInput.View()

	listPanel := stylePanelBorder.
		Width(listW).
		Height(panelH).
		Render(m.renderList(listW, panelH))

	m.preview.Width = previewW
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(previewW).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)

	return lipgloss.JoinVertical(lipgloss.Left, inputRow, panels, m.statusBar())
}

// helper methods

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	w := m.width*40/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	// 60% for preview, minus border padding
	w := m.width*60/100 - 4
	if w < 20 {
		w = 20
	}
	return w
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// Subtract input row (1) + status bar (1) + borders (4)
	h := m.height - 6
	if h < 5 {
		h = 5
	}
	return h
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	pH := m.panelHeight()
	contentYStart := 2 // input row (1) + top border (1)
	contentYEnd := contentYStart + pH - 1

	if y < contentYStart || y > contentYEnd {
		return regionNone, -1
	}
	relY := y - contentYStart

	lw := m.listWidth()
	listBoxRight := lw + 1 // col 0=border, 1..lw=content, lw+1=border

	if x >= 1 && x <= lw {
		return regionList, m.listOffset + (relY / linesPerItem)
	}

	if x > listBoxRight+1 {
		return regionPreview, -1
	}

	return regionNone, -1
}

func (m model) statusBar() string {
	noun := "results"
	if m.mode == modeList {
		noun = "chats"
	}
	parts := []string{
		fmt.Sprintf("%d %s", len(m.items), noun),
		"click/up/dn navigate",
		"scroll/C-u/C-d preview",
	}
	if m.mode == modeList {
		parts = append(parts, "Tab next sender", "Enter copy summary")
	} else {
		parts = append(parts, "Enter copy preview cmd")
	}
	parts = append(parts, "Esc quit")
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

func (m model) doSearch(query string) tea.Cmd {
	db := m.db
	opts := m.searchOpts
	opts.Query = query
	return func() tea.Msg {
		if query == "" {
			return itemsMsg{query: query}
		}
		results, err := search.Search(db, opts)
		items := make([]item, len(results))
		for i, r := range results {
			items[i] = hitItem(r)
		}
		return itemsMsg{query: query, items: items, err: err}
	}
}

func (m model) doListChats(filter string) tea.Cmd {
	db := m.db
	return func() tea.Msg {
		chats, err := search.ListChats(db, filter, 0)
		items := make([]item, len(chats))
		for i, c := range chats {
			items[i] = chatItem(c)
		}
		return itemsMsg{query: filter, items: items, err: err}
	}
}

func (m model) scheduleDebouncedSearch(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceTickMsg{query: query}
	})
}

// wantPreviewKey is the cache key of the preview the cursor points at.
func (m model) wantPreviewKey() string {
	if len(m.items) == 0 || m.cursor >= len(m.items) {
		return ""
	}
	it := m.items[m.cursor]
	if m.mode == modeList {
		return previewCacheKey(it.chatKey, m.senderIdx)
	}
	return previewCacheKey(it.chatKey, it.msgID)
}

func (m model) loadCurrentPreview() tea.Cmd {
	want := m.wantPreviewKey()
	if want == "" || want == m.previewKey {
		return nil
	}
	it := m.items[m.cursor]
	if m.mode == modeList {
		return loadReportCmd(m.db, it, m.reportReq, m.senderIdx, m.previewWidth())
	}
	return loadConversationCmd(m.db, it, m.query, m.previewWidth())
}

func previewCacheKey(chatKey string, n int) string {
	return fmt.Sprintf("%s:%d", chatKey, n)
}
