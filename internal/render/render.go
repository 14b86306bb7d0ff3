package render

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
)

const (
	colorReset   = "\033[0m"
	colorSender  = "\033[1;34m" // bold blue
	colorOther   = "\033[1;32m" // bold green
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // keyword highlights
	colorBar     = "\033[36m"   // cyan
)

const defaultContext = 10

type Options struct {
	HitID   int
	Context int    // messages either side of the hit; <0 shows the whole chat
	Width   int    // wrap width, 0 = no wrap
	Query   string // terms to highlight
}

var escapeRe = regexp.MustCompile("\033\\[[0-9;]*m")

// queryTerms drops FTS5 operators and quoting from a search query.
func queryTerms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(query) {
		switch strings.ToUpper(t) {
		case "AND", "OR", "NOT", "NEAR":
			continue
		}
		if t = strings.Trim(t, `"*()`); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// highlightKeywords marks case-insensitive occurrences of the query terms.
func highlightKeywords(text, query string) string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return text
	}
	// longest first so "pizzas" wins over "pizza"
	sort.Slice(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re, err := regexp.Compile("(?i)" + strings.Join(quoted, "|"))
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(s string) string {
		return colorBoldRed + s + colorReset
	})
}

// wrapLine splits line into pieces at most maxWidth columns wide. Escape
// sequences ride along with the text and take no columns.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var (
		out  []string
		cur  strings.Builder
		cols int
	)
	emit := func(text string) {
		for len(text) > 0 {
			r, size := utf8.DecodeRuneInString(text)
			w := runewidth.RuneWidth(r)
			if cols+w > maxWidth && cols > 0 {
				out = append(out, cur.String())
				cur.Reset()
				cols = 0
			}
			cur.WriteString(text[:size])
			cols += w
			text = text[size:]
		}
	}

	pos := 0
	for _, loc := range escapeRe.FindAllStringIndex(line, -1) {
		emit(line[pos:loc[0]])
		cur.WriteString(line[loc[0]:loc[1]])
		pos = loc[1]
	}
	emit(line[pos:])

	if cur.Len() > 0 || len(out) == 0 {
		out = append(out, cur.String())
	}
	return out
}

// page accumulates wrapped output and counts the lines written.
type page struct {
	b     strings.Builder
	width int
	lines int
}

func (p *page) println(format string, args ...any) {
	for _, l := range strings.Split(fmt.Sprintf(format, args...), "\n") {
		for _, w := range wrapLine(l, p.width) {
			p.b.WriteString(w)
			p.b.WriteByte('\n')
			p.lines++
		}
	}
}

// RenderConversation renders the messages around opts.HitID. It returns the
// text and the 0-based line of the hit's header, -1 when there is no hit.
func RenderConversation(db *index.DB, chatKey string, opts Options) (string, int, error) {
	switch {
	case opts.Context == 0:
		opts.Context = defaultContext
	case opts.Context < 0:
		opts.Context = math.MaxInt32
	}

	chat, err := db.GetChat(chatKey)
	if err != nil {
		return "", -1, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return "", -1, fmt.Errorf("chat not found: %s", chatKey)
	}

	msgs, hitIdx, start, total, err := db.GetMessagesWindow(chatKey, opts.HitID, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get messages: %w", err)
	}
	if total == 0 {
		return "(empty chat)", -1, nil
	}

	p := &page{width: opts.Width}
	p.println("%s--- %s [%s .. %s] %d messages ---%s",
		colorDim, chat.Name, chat.FirstDate, chat.LastDate, chat.MessageCount, colorReset)
	if start > 0 {
		p.println("%s... (%d messages before) ...%s", colorDim, start, colorReset)
	}

	hitLine := -1
	for i, m := range msgs {
		stamp := m.Date.Format("2006-01-02")
		if m.HasTime() {
			stamp = m.Timestamp().Format("2006-01-02 15:04")
		}

		switch {
		case i == hitIdx:
			hitLine = p.lines
			p.println("%s>> %s > %s <<%s", colorHit, m.Sender, stamp, colorReset)
		case m.Sender == msgs[0].Sender:
			p.println("%s%s >%s %s%s%s", colorSender, m.Sender, colorReset, colorDim, stamp, colorReset)
		default:
			p.println("%s%s >%s %s%s%s", colorOther, m.Sender, colorReset, colorDim, stamp, colorReset)
		}
		p.println("%s", indentLines(highlightKeywords(m.Text, opts.Query), "  "))
	}

	if after := total - start - len(msgs); after > 0 {
		p.println("%s... (%d messages after) ...%s", colorDim, after, colorReset)
	}
	return p.b.String(), hitLine, nil
}

func indentLines(text, prefix string) string {
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}
