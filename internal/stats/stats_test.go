package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/wachat-insights/internal/parse"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func msg(date time.Time, hour int, sender, text string) parse.Message {
	m := parse.Message{Date: date, Sender: sender, Text: text, Length: len([]rune(text))}
	if hour >= 0 {
		h := hour
		c := time.Duration(hour) * time.Hour
		m.Hour = &h
		m.Clock = &c
	}
	return m
}

func TestByWeekday_OneWeek(t *testing.T) {
	// 2024-01-03 is a Wednesday
	var msgs []parse.Message
	for i := 0; i < 7; i++ {
		msgs = append(msgs, msg(day(2024, 1, 3+i), 10, "a", "x"))
	}

	got := ByWeekday(msgs)
	want := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i, wc := range got {
		require.Equal(t, want[i], wc.Day)
		require.Equal(t, 1, wc.Count)
	}
}

func TestByHour(t *testing.T) {
	msgs := []parse.Message{
		msg(day(2024, 1, 1), 0, "a", "x"),
		msg(day(2024, 1, 1), 23, "a", "x"),
		msg(day(2024, 1, 1), 23, "b", "x"),
		msg(day(2024, 1, 1), -1, "b", "no time"),
	}

	got := ByHour(msgs)
	require.Equal(t, 1, got[0])
	require.Equal(t, 2, got[23])
	total := 0
	for _, c := range got {
		total += c
	}
	require.Equal(t, 3, total)
}

func TestByDateAndTopDates(t *testing.T) {
	msgs := []parse.Message{
		msg(day(2024, 3, 2), 1, "a", "x"),
		msg(day(2024, 3, 1), 1, "a", "x"),
		msg(day(2024, 3, 2), 1, "b", "x"),
		msg(day(2024, 3, 3), 1, "b", "x"),
		msg(day(2024, 3, 1), 1, "b", "x"),
		msg(day(2024, 3, 4), 1, "b", "x"),
	}

	byDate := ByDate(msgs)
	require.Len(t, byDate, 4)
	require.Equal(t, day(2024, 3, 1), byDate[0].Date)
	require.Equal(t, day(2024, 3, 4), byDate[3].Date)

	top := TopDates(msgs, 3)
	require.Equal(t, []DateCount{
		{Date: day(2024, 3, 1), Count: 2},
		{Date: day(2024, 3, 2), Count: 2},
		{Date: day(2024, 3, 3), Count: 1},
	}, top)

	require.Len(t, TopDates(msgs, 10), 4)
}

func TestBySenderAndSenders(t *testing.T) {
	msgs := []parse.Message{
		msg(day(2024, 1, 1), 1, "Zoe", "x"),
		msg(day(2024, 1, 1), 1, "Adam", "x"),
		msg(day(2024, 1, 1), 1, "Mo", "x"),
		msg(day(2024, 1, 1), 1, "Mo", "x"),
	}

	require.Equal(t, []SenderCount{{"Mo", 2}, {"Zoe", 1}, {"Adam", 1}}, BySender(msgs))
	require.Equal(t, []string{"Zoe", "Adam", "Mo"}, Senders(msgs))
}

func TestAllTextAndLengths(t *testing.T) {
	msgs := []parse.Message{
		msg(day(2024, 1, 1), 1, "a", "hello"),
		msg(day(2024, 1, 1), 1, "b", "wörld"),
	}
	require.Equal(t, "hello wörld", AllText(msgs))
	require.Equal(t, []int{5, 5}, Lengths(msgs))
}

func TestTokens(t *testing.T) {
	stop := EnglishStopWords()
	got := Tokens("The Pizza was GREAT, pizza again! café 42 don't Über", stop)
	require.Equal(t, []string{"pizza", "pizza", "café", "über"}, got)
}

func TestStopWordsExtra(t *testing.T) {
	stop := StopWords(" OK ", "lol", "")
	require.True(t, stop.Has("ok"))
	require.True(t, stop.Has("lol"))
	require.True(t, stop.Has("the"))
	require.False(t, stop.Has(""))
	require.False(t, EnglishStopWords().Has("lol"))
}

func TestTopWords(t *testing.T) {
	tokens := []string{"b", "a", "a", "c", "b", "d", "a"}
	require.Equal(t, []WordCount{{"a", 3}, {"b", 2}, {"c", 1}}, TopWords(tokens, 3))
	require.Len(t, TopWords(tokens, 0), 4)
	require.Empty(t, TopWords(nil, 10))
}

func TestSenderTopWords(t *testing.T) {
	msgs := []parse.Message{
		msg(day(2024, 1, 1), 1, "Ann", "pizza tonight"),
		msg(day(2024, 1, 1), 1, "Ben", "pizza pizza pizza"),
		msg(day(2024, 1, 1), 1, "Ann", "no, pizza is the best"),
	}

	got := SenderTopWords(msgs, "Ann", EnglishStopWords(), 10)
	require.Equal(t, []WordCount{{"pizza", 2}, {"tonight", 1}, {"best", 1}}, got)
	require.Empty(t, SenderTopWords(msgs, "Nobody", EnglishStopWords(), 10))
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]int{0, 1, 2, 3, 4, 10}, 5)
	require.Len(t, bins, 5)
	require.Equal(t, 0.0, bins[0].Low)
	require.Equal(t, 10.0, bins[4].High)
	require.Equal(t, []int{2, 2, 1, 0, 1}, []int{bins[0].Count, bins[1].Count, bins[2].Count, bins[3].Count, bins[4].Count})

	single := Histogram([]int{7, 7, 7}, 4)
	total := 0
	for _, b := range single {
		total += b.Count
	}
	require.Equal(t, 3, total)
	require.Equal(t, 6.5, single[0].Low)
	require.Equal(t, 7.5, single[3].High)

	require.Nil(t, Histogram(nil, 50))
	require.Nil(t, Histogram([]int{1}, 0))
}
