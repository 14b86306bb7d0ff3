package stats

import (
	"sort"
	"time"

	"github.com/Zuo-Peng/wachat-insights/internal/parse"
)

type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type WeekdayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

// Weekdays is the display order of weekday buckets.
var Weekdays = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ByHour counts messages per hour of day. Messages without a time are skipped.
func ByHour(msgs []parse.Message) [24]int {
	var out [24]int
	for _, m := range msgs {
		if m.Hour != nil && *m.Hour >= 0 && *m.Hour < 24 {
			out[*m.Hour]++
		}
	}
	return out
}

// ByDate counts messages per calendar date, oldest first.
func ByDate(msgs []parse.Message) []DateCount {
	counts := make(map[time.Time]int)
	for _, m := range msgs {
		counts[m.Date]++
	}
	out := make([]DateCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, DateCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ByWeekday counts messages per day of week, Monday first.
func ByWeekday(msgs []parse.Message) [7]WeekdayCount {
	var out [7]WeekdayCount
	pos := make(map[time.Weekday]int, 7)
	for i, d := range Weekdays {
		out[i].Day = d.String()
		pos[d] = i
	}
	for _, m := range msgs {
		out[pos[m.Date.Weekday()]].Count++
	}
	return out
}

// BySender counts messages per sender, most active first. Ties keep the
// order in which senders first appear.
func BySender(msgs []parse.Message) []SenderCount {
	idx := make(map[string]int)
	var out []SenderCount
	for _, m := range msgs {
		if i, ok := idx[m.Sender]; ok {
			out[i].Count++
			continue
		}
		idx[m.Sender] = len(out)
		out = append(out, SenderCount{Sender: m.Sender, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Senders lists distinct senders in order of first appearance.
func Senders(msgs []parse.Message) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range msgs {
		if _, ok := seen[m.Sender]; ok {
			continue
		}
		seen[m.Sender] = struct{}{}
		out = append(out, m.Sender)
	}
	return out
}

// TopDates returns the n busiest dates. Ties go to the earlier date.
func TopDates(msgs []parse.Message, n int) []DateCount {
	days := ByDate(msgs)
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Count > days[j].Count
	})
	if n > 0 && len(days) > n {
		days = days[:n]
	}
	return days
}

// Lengths returns every message length in message order.
func Lengths(msgs []parse.Message) []int {
	out := make([]int, len(msgs))
	for i, m := range msgs {
		out[i] = m.Length
	}
	return out
}
