package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Zuo-Peng/wachat-insights/internal/index"
)

type Result struct {
	ChatKey  string
	ChatName string
	MsgID    int
	Date     string
	Sender   string
	Snippet  string
	Rank     float64
}

type Options struct {
	Query  string
	Chat   string // "" = all chats
	Sender string // "" = all senders
	Since  string // "" = no filter, e.g. "2024-01-01"
	Limit  int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 || len(lower) != len(text) {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Validate rejects a Since that is not a YYYY-MM-DD date; dates are compared
// as strings, so "2024-1-5" would silently filter the wrong range.
func (o Options) Validate() error {
	if o.Since == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", o.Since); err != nil {
		return fmt.Errorf("invalid since %q: want YYYY-MM-DD", o.Since)
	}
	return nil
}

// Search finds messages matching opts.Query. Across all chats only the best
// hit per chat is kept; within one chat every hit is returned.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}

	origLimit := opts.Limit
	if opts.Chat == "" {
		// fetch more before dedup so we still have enough after
		opts.Limit = origLimit * 3
	}

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}
	if opts.Chat != "" {
		return results, nil
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ChatKey] {
			continue
		}
		seen[r.ChatKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filters(opts Options) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	if opts.Chat != "" {
		conditions = append(conditions, "m.chat_key = ?")
		args = append(args, opts.Chat)
	}
	if opts.Sender != "" {
		conditions = append(conditions, "m.sender = ?")
		args = append(args, opts.Sender)
	}
	if opts.Since != "" {
		conditions = append(conditions, "m.date >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []interface{}{ftsQuery(opts.Query)}
	fc, fa := filters(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			m.chat_key,
			c.name,
			m.msg_id,
			m.date,
			m.sender,
			snippet(messages_fts, 0, '>>>','<<<', '...', 24) as snip,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN chats c ON m.chat_key = c.chat_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// ftsQuery quotes each term so punctuation in chat text ("what's", "9:30")
// cannot be read as FTS5 syntax. Explicit AND/OR/NOT pass through.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		switch t {
		case "AND", "OR", "NOT":
			continue
		}
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{`m.text LIKE ? ESCAPE '\'`}
	args := []interface{}{"%" + likeEscaper.Replace(opts.Query) + "%"}
	fc, fa := filters(opts)
	conditions = append(conditions, fc...)
	args = append(args, fa...)

	query := fmt.Sprintf(`
		SELECT
			m.chat_key,
			c.name,
			m.msg_id,
			m.date,
			m.sender,
			m.text
		FROM messages m
		JOIN chats c ON m.chat_key = c.chat_key
		WHERE %s
		ORDER BY m.date DESC, m.msg_id DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.ChatKey, &r.ChatName, &r.MsgID, &r.Date, &r.Sender, &fullText); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ChatKey, &r.ChatName, &r.MsgID, &r.Date, &r.Sender, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListChats returns indexed chats, most recent first, optionally filtered
// by a case-insensitive substring of the chat name or key.
func ListChats(db *index.DB, filter string, limit int) ([]index.ChatRow, error) {
	chats, err := db.ListChats()
	if err != nil {
		return nil, err
	}
	filter = strings.ToLower(strings.TrimSpace(filter))
	var out []index.ChatRow
	for _, c := range chats {
		if filter != "" &&
			!strings.Contains(strings.ToLower(c.Name), filter) &&
			!strings.Contains(strings.ToLower(c.ChatKey), filter) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
