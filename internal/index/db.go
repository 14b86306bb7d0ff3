package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/wachat-insights/internal/parse"
)

const dateLayout = "2006-01-02"

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS chats (
    chat_key      TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    source_path   TEXT NOT NULL,
    entry_name    TEXT NOT NULL DEFAULT '',
    first_date    TEXT NOT NULL DEFAULT '',
    last_date     TEXT NOT NULL DEFAULT '',
    message_count INTEGER NOT NULL DEFAULT 0,
    imported_at   TEXT NOT NULL DEFAULT '',
    mtime         INTEGER NOT NULL DEFAULT 0,
    size          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    chat_key    TEXT NOT NULL,
    msg_id      INTEGER NOT NULL,
    date        TEXT NOT NULL,
    clock_min   INTEGER,
    hour        INTEGER,
    sender      TEXT NOT NULL,
    text        TEXT NOT NULL,
    length      INTEGER NOT NULL,
    line_number INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (chat_key, msg_id)
);

CREATE INDEX IF NOT EXISTS messages_sender ON messages(chat_key, sender);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO messages_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema version: %w", err)
	}
	return d, nil
}

// schemaVersion should be bumped whenever message parsing changes
// to force a full re-import.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	// force re-import by resetting all chat mtime/size to 0
	if _, err := d.db.Exec("UPDATE chats SET mtime = 0, size = 0"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

// syncParseOptions records the fingerprint of the parse options the index is
// built with. A different fingerprint marks every chat for re-import.
func (d *DB) syncParseOptions(fingerprint string) error {
	var stored string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'parse_options'").Scan(&stored)
	if err == nil && stored == fingerprint {
		return nil
	}
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("UPDATE chats SET mtime = 0, size = 0"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('parse_options', ?)", fingerprint); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type ChatInfo struct {
	Mtime int64
	Size  int64
}

func (d *DB) GetChatInfo(chatKey string) (*ChatInfo, error) {
	var info ChatInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM chats WHERE chat_key = ?",
		chatKey,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllChatKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT chat_key FROM chats")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteChat(chatKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteChatTx(tx, chatKey); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteChatTx(tx *sql.Tx, chatKey string) error {
	if _, err := tx.Exec("DELETE FROM messages WHERE chat_key = ?", chatKey); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM chats WHERE chat_key = ?", chatKey)
	return err
}

func (d *DB) ChatCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM chats").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

type ChatRow struct {
	ChatKey      string `json:"chatKey"`
	Name         string `json:"name"`
	SourcePath   string `json:"sourcePath"`
	EntryName    string `json:"entryName"`
	FirstDate    string `json:"firstDate"`
	LastDate     string `json:"lastDate"`
	MessageCount int    `json:"messageCount"`
	ImportedAt   string `json:"importedAt"`
}

const chatColumns = "chat_key, name, source_path, entry_name, first_date, last_date, message_count, imported_at"

func scanChat(s interface{ Scan(...any) error }) (ChatRow, error) {
	var c ChatRow
	err := s.Scan(&c.ChatKey, &c.Name, &c.SourcePath, &c.EntryName, &c.FirstDate, &c.LastDate, &c.MessageCount, &c.ImportedAt)
	return c, err
}

func (d *DB) GetChat(chatKey string) (*ChatRow, error) {
	c, err := scanChat(d.db.QueryRow("SELECT "+chatColumns+" FROM chats WHERE chat_key = ?", chatKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChats returns all chats, most recent activity first.
func (d *DB) ListChats() ([]ChatRow, error) {
	rows, err := d.db.Query("SELECT " + chatColumns + " FROM chats ORDER BY last_date DESC, chat_key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []ChatRow
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

// MessageRow is a stored message; MsgID is its position in the transcript.
type MessageRow struct {
	ChatKey string
	MsgID   int
	parse.Message
}

const messageColumns = "chat_key, msg_id, date, clock_min, hour, sender, text, length, line_number"

func scanMessage(s interface{ Scan(...any) error }) (MessageRow, error) {
	var (
		m     MessageRow
		date  string
		clock sql.NullInt64
		hour  sql.NullInt64
	)
	if err := s.Scan(&m.ChatKey, &m.MsgID, &date, &clock, &hour, &m.Sender, &m.Text, &m.Length, &m.Line); err != nil {
		return m, err
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return m, fmt.Errorf("message %s/%d: bad date %q: %w", m.ChatKey, m.MsgID, date, err)
	}
	m.Date = t
	if clock.Valid {
		c := time.Duration(clock.Int64) * time.Minute
		m.Clock = &c
	}
	if hour.Valid {
		h := int(hour.Int64)
		m.Hour = &h
	}
	return m, nil
}

func collectMessages(rows *sql.Rows) ([]MessageRow, error) {
	var out []MessageRow
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (d *DB) GetMessageRows(chatKey string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE chat_key = ? ORDER BY msg_id",
		chatKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

// GetMessages returns a chat's messages in transcript order.
func (d *DB) GetMessages(chatKey string) ([]parse.Message, error) {
	rows, err := d.GetMessageRows(chatKey)
	if err != nil {
		return nil, err
	}
	msgs := make([]parse.Message, len(rows))
	for i, r := range rows {
		msgs[i] = r.Message
	}
	return msgs, nil
}

func (d *DB) GetMessage(chatKey string, msgID int) (*MessageRow, error) {
	m, err := scanMessage(d.db.QueryRow(
		"SELECT "+messageColumns+" FROM messages WHERE chat_key = ? AND msg_id = ?",
		chatKey, msgID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessagesWindow returns the messages around hitID. hitIdx is the index
// of the hit in the returned slice (-1 if absent), startPos the number of
// messages before the window and totalCount the chat's message count.
func (d *DB) GetMessagesWindow(chatKey string, hitID, context int) (msgs []MessageRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE chat_key = ?", chatKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// msg_id is dense and 0-based, so it is also the row position
	hitPos := -1
	if hitID >= 0 && hitID < totalCount {
		hitPos = hitID
	}

	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = hitPos - context
		if startPos < 0 {
			startPos = 0
		}
		endPos := hitPos + context + 1
		if endPos > totalCount {
			endPos = totalCount
		}
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+messageColumns+" FROM messages WHERE chat_key = ? ORDER BY msg_id LIMIT ? OFFSET ?",
		chatKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	result, err := collectMessages(rows)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	hitIdx = -1
	for i, m := range result {
		if m.MsgID == hitID {
			hitIdx = i
		}
	}
	return result, hitIdx, startPos, totalCount, nil
}
