// Package report turns parsed messages plus the caller's choices into the
// payload behind every chart: one Build call per request, no shared state.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/stats"
)

const (
	DefaultTopN      = 10
	DefaultBins      = 50
	DefaultCloudSize = 50
)

var ErrUnknownSender = errors.New("unknown sender")

type Request struct {
	Sender    string        // "" selects the first sender in the chat
	TopN      int           // top words and top dates; 0 = DefaultTopN
	Bins      int           // length histogram buckets; 0 = DefaultBins
	StopWords stats.StopSet // nil = English stop words
}

type Summary struct {
	Messages  int       `json:"messages"`
	Senders   int       `json:"senders"`
	FirstDate time.Time `json:"firstDate"`
	LastDate  time.Time `json:"lastDate"`
	NoTime    int       `json:"noTime"` // messages whose time of day did not parse
}

type Report struct {
	Summary     Summary               `json:"summary"`
	ByHour      [24]int               `json:"byHour"`
	ByDate      []stats.DateCount     `json:"byDate"`
	ByWeekday   [7]stats.WeekdayCount `json:"byWeekday"`
	Words       []stats.WordCount     `json:"words"`
	BySender    []stats.SenderCount   `json:"bySender"`
	Senders     []string              `json:"senders"`
	Sender      string                `json:"sender"`
	SenderWords []stats.WordCount     `json:"senderWords"`
	Lengths     []int                 `json:"lengths"`
	LengthBins  []stats.Bin           `json:"lengthBins"`
	TopDates    []stats.DateCount     `json:"topDates"`
}

// Build computes every series for msgs.
func Build(msgs []parse.Message, req Request) (*Report, error) {
	if req.TopN <= 0 {
		req.TopN = DefaultTopN
	}
	if req.Bins <= 0 {
		req.Bins = DefaultBins
	}
	if req.StopWords == nil {
		req.StopWords = stats.EnglishStopWords()
	}

	senders := stats.Senders(msgs)
	sender := req.Sender
	if sender == "" && len(senders) > 0 {
		sender = senders[0]
	}
	if sender != "" && !contains(senders, sender) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSender, sender)
	}

	r := &Report{
		Summary:     summarize(msgs, len(senders)),
		ByHour:      stats.ByHour(msgs),
		ByDate:      stats.ByDate(msgs),
		ByWeekday:   stats.ByWeekday(msgs),
		Words:       stats.TopWords(stats.Tokens(stats.AllText(msgs), req.StopWords), DefaultCloudSize),
		BySender:    stats.BySender(msgs),
		Senders:     senders,
		Sender:      sender,
		SenderWords: stats.SenderTopWords(msgs, sender, req.StopWords, req.TopN),
		Lengths:     stats.Lengths(msgs),
		TopDates:    stats.TopDates(msgs, req.TopN),
	}
	r.LengthBins = stats.Histogram(r.Lengths, req.Bins)
	return r, nil
}

func summarize(msgs []parse.Message, senders int) Summary {
	s := Summary{Messages: len(msgs), Senders: senders}
	for _, m := range msgs {
		if s.FirstDate.IsZero() || m.Date.Before(s.FirstDate) {
			s.FirstDate = m.Date
		}
		if m.Date.After(s.LastDate) {
			s.LastDate = m.Date
		}
		if !m.HasTime() {
			s.NoTime++
		}
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
