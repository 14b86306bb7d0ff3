package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

// item is one row of the left panel: a chat in list mode, a message hit in
// search mode (msgID >= 0).
type item struct {
	chatKey string
	title   string
	date    string
	sender  string
	snippet string
	msgID   int
}

func chatItem(c index.ChatRow) item {
	return item{
		chatKey: c.ChatKey,
		title:   c.Name,
		date:    c.LastDate,
		snippet: fmt.Sprintf("%s messages since %s", humanize.Comma(int64(c.MessageCount)), c.FirstDate),
		msgID:   -1,
	}
}

func hitItem(r search.Result) item {
	return item{
		chatKey: r.ChatKey,
		title:   r.ChatName,
		date:    r.Date,
		sender:  r.Sender,
		snippet: r.Snippet,
		msgID:   r.MsgID,
	}
}

// renderList renders the left panel with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.items) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No results")
		return empty
	}

	var lines []string
	for i, it := range m.items {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatItemLine(it, width, i == m.cursor)...)
	}

	// Pad remaining lines
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatItemLine formats a single item as two lines:
//
//	line 1: [>] MM-DD  chat name  sender
//	line 2:    snippet (dimmed)
func formatItemLine(it item, width int, selected bool) []string {
	date := it.date
	if len(date) >= 10 {
		date = date[5:10] // MM-DD
	}

	titleMax := width - 2 - 6 // prefix + date
	if it.sender != "" {
		titleMax -= runewidth.StringWidth(it.sender) + 1
	}
	if titleMax < 0 {
		titleMax = 0
	}
	title := strings.ReplaceAll(it.title, "\n", " ")
	if runewidth.StringWidth(title) > titleMax {
		title = runewidth.Truncate(title, titleMax, "")
	}

	line1 := date + " " + styleChatName.Render(title)
	if it.sender != "" {
		line1 += " " + styleSender.Render(it.sender)
	}
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	snippet := strings.ReplaceAll(it.snippet, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippet = strings.ReplaceAll(snippet, ">>>", "")
	snippet = strings.ReplaceAll(snippet, "<<<", "")
	snippetMax := width - 4 // indent
	if snippetMax < 0 {
		snippetMax = 0
	}
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + styleDim.Render(snippet)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}
