package render

import (
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
)

var ansi = regexp.MustCompile("\033\\[[0-9;]*m")

func plain(s string) string { return ansi.ReplaceAllString(s, "") }

const chat = `1/1/2024, 9:00 am - Ann: pizza tonight?
1/1/2024, 9:01 am - Ben: yes pizza please
2/1/2024, 8:30 pm - Ann: pasta instead
3/1/2024, 7:00 am - Ben: 早上好
`

func seed(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "wci.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	msgs, err := parse.Parse(chat)
	require.NoError(t, err)
	require.NoError(t, index.WriteChat(db, &index.Chat{Key: "wa:fam", Name: "Family", SourcePath: "/f.zip", Messages: msgs}))
	return db
}

func TestHighlightKeywords(t *testing.T) {
	got := highlightKeywords("Pizza and pizza", "pizza AND")
	require.Equal(t, colorBoldRed+"Pizza"+colorReset+" and "+colorBoldRed+"pizza"+colorReset, got)
	require.Equal(t, "plain", highlightKeywords("plain", ""))
}

func TestWrapLine(t *testing.T) {
	require.Equal(t, []string{"abcd", "ef"}, wrapLine("abcdef", 4))
	require.Equal(t, []string{"早上", "好"}, wrapLine("早上好", 4))
	// escape sequences take no columns
	require.Equal(t, []string{colorDim + "ab" + colorReset}, wrapLine(colorDim+"ab"+colorReset, 2))
	require.Equal(t, []string{"x"}, wrapLine("x", 0))
}

func TestRenderConversation_Window(t *testing.T) {
	db := seed(t)

	out, hitLine, err := RenderConversation(db, "wa:fam", Options{HitID: 2, Context: 1, Query: "pasta"})
	require.NoError(t, err)

	lines := strings.Split(plain(out), "\n")
	require.Equal(t, "--- Family [2024-01-01 .. 2024-01-03] 4 messages ---", lines[0])
	require.Equal(t, "... (1 messages before) ...", lines[1])
	require.Equal(t, ">> Ann > 2024-01-02 20:30 <<", lines[hitLine])
	require.Equal(t, "  pasta instead", lines[hitLine+1])
	require.Contains(t, plain(out), "Ben > 2024-01-03 07:00")
	require.NotContains(t, plain(out), "pizza tonight")
	require.Contains(t, out, colorBoldRed+"pasta"+colorReset)
}

func TestRenderConversation_WholeChat(t *testing.T) {
	db := seed(t)

	out, hitLine, err := RenderConversation(db, "wa:fam", Options{HitID: -1, Context: -1})
	require.NoError(t, err)
	require.Equal(t, -1, hitLine)
	require.Contains(t, out, "pizza tonight?")
	require.NotContains(t, out, "messages before")
	require.NotContains(t, out, "messages after")
}

func TestRenderConversation_UnknownChat(t *testing.T) {
	_, _, err := RenderConversation(seed(t), "wa:nope", Options{})
	require.ErrorContains(t, err, "chat not found")
}

func TestRenderReport(t *testing.T) {
	msgs, err := parse.Parse(chat)
	require.NoError(t, err)
	r, err := report.Build(msgs, report.Request{Bins: 3})
	require.NoError(t, err)

	out := plain(RenderReport(r, 60))
	require.Contains(t, out, "4 messages from 2 senders, 2024-01-01 .. 2024-01-03\n")
	for _, title := range []string{"Messages by hour", "Messages by weekday", "Messages by month", "Messages by sender", "Busiest days", "Top words", "Top words: Ann", "Message length"} {
		require.Contains(t, out, "\n"+title)
	}
	require.Contains(t, out, "  Monday    │")
	require.Contains(t, out, "  2024-01 │")

	for _, line := range strings.Split(out, "\n") {
		require.LessOrEqual(t, runewidth.StringWidth(line), 60, line)
	}
}

func TestRenderReport_Empty(t *testing.T) {
	r, err := report.Build(nil, report.Request{})
	require.NoError(t, err)
	require.Equal(t, "(no messages)\n", plain(RenderReport(r, 0)))
	require.Equal(t, "Family: no messages", ReportHeadline("Family", r))
}

func TestReportHeadline(t *testing.T) {
	msgs, err := parse.Parse(chat)
	require.NoError(t, err)
	r, err := report.Build(msgs, report.Request{})
	require.NoError(t, err)
	require.Equal(t, "Family: 4 messages from 2 senders over 3 days (2024-01-01 .. 2024-01-03)", ReportHeadline("Family", r))
}

func TestBar(t *testing.T) {
	require.Equal(t, "", bar(0, 10, 10))
	require.Equal(t, "▏", bar(1, 100, 10))
	require.Equal(t, strings.Repeat("█", 5), bar(5, 10, 10))
}

func TestRenderConversation_UnknownTimeShowsDateOnly(t *testing.T) {
	db := seed(t)
	msgs, err := parse.Parse("2/1/2024, 13:61 pm - Ann: clock is broken\n2/1/2024, 1:05 pm - Ben: fine\n")
	require.NoError(t, err)
	require.NoError(t, index.WriteChat(db, &index.Chat{Key: "wa:odd", Name: "Odd", SourcePath: "/o.zip", Messages: msgs}))

	out, hitLine, err := RenderConversation(db, "wa:odd", Options{HitID: 1})
	require.NoError(t, err)
	lines := strings.Split(plain(out), "\n")
	require.Equal(t, "Ann > 2024-01-02", lines[1])
	require.Equal(t, ">> Ben > 2024-01-02 13:05 <<", lines[hitLine])
}
