package stats

import (
	"sort"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// cases.Caser is stateful, so each call gets its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// AllText joins every message body with a single space.
func AllText(msgs []parse.Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Text
	}
	return strings.Join(parts, " ")
}

// Tokens splits text on whitespace, lower-cases each token and keeps only
// tokens made entirely of letters that are not stop words.
func Tokens(text string, stop StopSet) []string {
	caser := cases.Lower(language.Und)
	var out []string
	for _, f := range strings.Fields(text) {
		w := caser.String(f)
		if stop.Has(w) || !isAlpha(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// TopWords returns the n most frequent tokens. Ties keep the order in which
// the words first appeared. n <= 0 returns every word.
func TopWords(tokens []string, n int) []WordCount {
	idx := make(map[string]int)
	var counts []WordCount
	for _, w := range tokens {
		if i, ok := idx[w]; ok {
			counts[i].Count++
			continue
		}
		idx[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// SenderTopWords counts the words of one sender's messages.
func SenderTopWords(msgs []parse.Message, sender string, stop StopSet, n int) []WordCount {
	var own []parse.Message
	for _, m := range msgs {
		if m.Sender == sender {
			own = append(own, m)
		}
	}
	return TopWords(Tokens(AllText(own), stop), n)
}
