package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/wachat-insights/internal/report"
	"github.com/Zuo-Peng/wachat-insights/internal/stats"
)

const minBarWidth = 10

type row struct {
	label string
	count int
}

// RenderReport draws every series of r as horizontal bar charts that fit in
// width columns (0 = 80).
func RenderReport(r *report.Report, width int) string {
	if width <= 0 {
		width = 80
	}
	var b strings.Builder

	s := r.Summary
	if s.Messages == 0 {
		b.WriteString(colorDim + "(no messages)" + colorReset + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%s messages from %d senders, %s .. %s\n",
		humanize.Comma(int64(s.Messages)), s.Senders,
		s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"))
	if s.NoTime > 0 {
		fmt.Fprintf(&b, "%s%s without a readable time%s\n", colorDim, humanize.Comma(int64(s.NoTime)), colorReset)
	}

	hours := make([]row, 24)
	for h, n := range r.ByHour {
		hours[h] = row{fmt.Sprintf("%02d", h), n}
	}
	chart(&b, "Messages by hour", hours, width)

	days := make([]row, 7)
	for i, d := range r.ByWeekday {
		days[i] = row{d.Day, d.Count}
	}
	chart(&b, "Messages by weekday", days, width)

	chart(&b, "Messages by month", byMonth(r.ByDate), width)

	senders := make([]row, len(r.BySender))
	for i, sc := range r.BySender {
		senders[i] = row{sc.Sender, sc.Count}
	}
	chart(&b, "Messages by sender", senders, width)

	chart(&b, "Busiest days", dateRows(r.TopDates), width)

	cloud := r.Words
	if len(cloud) > report.DefaultTopN {
		cloud = cloud[:report.DefaultTopN]
	}
	chart(&b, "Top words", wordRows(cloud), width)
	if r.Sender != "" {
		chart(&b, "Top words: "+r.Sender, wordRows(r.SenderWords), width)
	}

	bins := make([]row, len(r.LengthBins))
	for i, bin := range r.LengthBins {
		bins[i] = row{fmt.Sprintf("%.1f-%.1f", bin.Low, bin.High), bin.Count}
	}
	chart(&b, "Message length (characters)", bins, width)

	return b.String()
}

func chart(b *strings.Builder, title string, rows []row, width int) {
	b.WriteString("\n" + colorDim + title + colorReset + "\n")
	if len(rows) == 0 {
		b.WriteString("  (none)\n")
		return
	}

	labelW, peak := 0, 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r.label); w > labelW {
			labelW = w
		}
		if r.count > peak {
			peak = r.count
		}
	}
	countW := len(humanize.Comma(int64(peak)))
	barW := width - labelW - countW - 6
	if barW < minBarWidth {
		barW = minBarWidth
	}

	for _, r := range rows {
		fmt.Fprintf(b, "  %s │%s%s%s %s\n",
			runewidth.FillRight(r.label, labelW),
			colorBar, bar(r.count, peak, barW), colorReset,
			humanize.Comma(int64(r.count)))
	}
}

func bar(n, peak, width int) string {
	if n <= 0 || peak <= 0 {
		return ""
	}
	cells := n * width / peak
	if cells == 0 {
		return "▏"
	}
	return strings.Repeat("█", cells)
}

func byMonth(dates []stats.DateCount) []row {
	var rows []row
	for _, d := range dates {
		label := d.Date.Format("2006-01")
		if len(rows) > 0 && rows[len(rows)-1].label == label {
			rows[len(rows)-1].count += d.Count
			continue
		}
		rows = append(rows, row{label, d.Count})
	}
	return rows
}

func dateRows(dates []stats.DateCount) []row {
	rows := make([]row, len(dates))
	for i, d := range dates {
		rows[i] = row{d.Date.Format("2006-01-02 Mon"), d.Count}
	}
	return rows
}

func wordRows(words []stats.WordCount) []row {
	rows := make([]row, len(words))
	for i, w := range words {
		rows[i] = row{w.Word, w.Count}
	}
	return rows
}

// ReportHeadline is a one-line summary of a chat report.
func ReportHeadline(name string, r *report.Report) string {
	s := r.Summary
	if s.Messages == 0 {
		return name + ": no messages"
	}
	days := int(s.LastDate.Sub(s.FirstDate)/(24*time.Hour)) + 1
	return fmt.Sprintf("%s: %s messages from %d senders over %s days (%s .. %s)",
		name, humanize.Comma(int64(s.Messages)), s.Senders, humanize.Comma(int64(days)),
		s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"))
}
