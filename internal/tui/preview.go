package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/render"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
	"github.com/Zuo-Peng/wachat-insights/internal/stats"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
	err     error
}

// loadConversationCmd renders the messages around a search hit.
func loadConversationCmd(db *index.DB, it item, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderConversation(db, it.chatKey, render.Options{
			HitID:   it.msgID,
			Context: -1,
			Width:   width,
			Query:   query,
		})
		return previewRenderedMsg{
			key:     previewCacheKey(it.chatKey, it.msgID),
			content: content,
			hitLine: hitLine,
			err:     err,
		}
	}
}

// loadReportCmd renders a chat's report with the senderIdx-th sender selected.
func loadReportCmd(db *index.DB, it item, req report.Request, senderIdx, width int) tea.Cmd {
	return func() tea.Msg {
		key := previewCacheKey(it.chatKey, senderIdx)
		r, err := chatReport(db, it.chatKey, req, senderIdx)
		if err != nil {
			return previewRenderedMsg{key: key, err: err}
		}
		content := render.ReportHeadline(it.title, r) + "\n" + render.RenderReport(r, width)
		return previewRenderedMsg{key: key, content: content}
	}
}

// chatReport builds the report of an indexed chat. senderIdx wraps around
// the chat's senders.
func chatReport(db *index.DB, chatKey string, req report.Request, senderIdx int) (*report.Report, error) {
	msgs, err := db.GetMessages(chatKey)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	if senders := stats.Senders(msgs); len(senders) > 0 {
		if senderIdx < 0 {
			senderIdx = 0
		}
		req.Sender = senders[senderIdx%len(senders)]
	}
	return report.Build(msgs, req)
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
