package parse

import "time"

type Message struct {
	Date   time.Time      // calendar date at midnight UTC
	Clock  *time.Duration // time of day since midnight, nil if the time did not parse
	Hour   *int           // 0-23, nil if the time did not parse
	Sender string
	Text   string
	Length int // characters in Text
	Line   int // 1-based line in the transcript where the message starts
}

func (m Message) HasTime() bool {
	return m.Clock != nil
}

// Timestamp combines Date and Clock; it is just Date when the time is unknown.
func (m Message) Timestamp() time.Time {
	if m.Clock == nil {
		return m.Date
	}
	return m.Date.Add(*m.Clock)
}
