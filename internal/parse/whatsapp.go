package parse

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	dateLayout  = "2/1/2006"
	clockLayout = "3:04 PM"
)

// Sentinel bodies WhatsApp writes for events that are not conversation.
const (
	MissedVoiceCall = "Missed voice call"
	MediaOmitted    = "<Media omitted>"
)

// lineRe matches "d/m/yyyy, h:mm am - Sender: text". Newer exports put a
// narrow no-break space before am/pm.
var lineRe = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4}), (\d{1,2}:\d{2})[\s\x{00A0}\x{202F}]?([apAP][mM]) - (.*?): (.*)`)

type Options struct {
	// Sentinels are message bodies dropped before any other processing.
	Sentinels []string
	// JoinContinuations appends lines that follow a message but carry no
	// header of their own to that message. Off by default: such lines are lost.
	JoinContinuations bool
	// LenientDates drops rows with a malformed date instead of failing.
	LenientDates bool
}

// Fingerprint identifies the settings that change parse output. Indexes
// built under a different fingerprint are stale.
func (o Options) Fingerprint() string {
	sentinels := append([]string(nil), o.Sentinels...)
	sort.Strings(sentinels)
	return fmt.Sprintf("join=%t;lenient=%t;sentinels=%s",
		o.JoinContinuations, o.LenientDates, strings.Join(sentinels, "\x1f"))
}

func DefaultOptions() Options {
	return Options{Sentinels: []string{MissedVoiceCall, MediaOmitted}}
}

// Parse converts a WhatsApp transcript into messages using DefaultOptions.
func Parse(text string) ([]Message, error) {
	return ParseWithOptions(text, DefaultOptions())
}

func ParseWithOptions(text string, opts Options) ([]Message, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	sentinels := make(map[string]struct{}, len(opts.Sentinels))
	for _, s := range opts.Sentinels {
		sentinels[s] = struct{}{}
	}

	matches := lineRe.FindAllStringSubmatchIndex(text, -1)
	msgs := make([]Message, 0, len(matches))

	line, pos := 1, 0
	for i, m := range matches {
		line += strings.Count(text[pos:m[0]], "\n")
		pos = m[0]

		date := text[m[2]:m[3]]
		clock := text[m[4]:m[5]]
		meridiem := text[m[6]:m[7]]
		sender := text[m[8]:m[9]]
		body := text[m[10]:m[11]]

		if opts.JoinContinuations {
			next := len(text)
			if i+1 < len(matches) {
				next = matches[i+1][0]
			}
			if rest := strings.Trim(text[m[1]:next], "\n"); rest != "" {
				body += "\n" + rest
			}
		}

		if _, skip := sentinels[body]; skip {
			continue
		}

		d, err := time.Parse(dateLayout, date)
		if err != nil {
			if opts.LenientDates {
				continue
			}
			return nil, &DateFormatError{Value: date, Line: line, Err: err}
		}

		msg := Message{
			Date:   d,
			Sender: sender,
			Text:   body,
			Length: utf8.RuneCountInString(body),
			Line:   line,
		}
		if c, ok := parseClock(clock, meridiem); ok {
			h := int(c / time.Hour)
			msg.Clock = &c
			msg.Hour = &h
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// parseClock reads "h:mm" with an am/pm marker of any case. A failure only
// means the row has no time of day.
func parseClock(hm, meridiem string) (time.Duration, bool) {
	t, err := time.Parse(clockLayout, hm+" "+strings.ToUpper(meridiem))
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}
