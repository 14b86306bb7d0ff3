package index

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/wachat-insights/internal/archive"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/scan"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// Chat is a parsed export ready to be stored.
type Chat struct {
	Key        string
	Name       string
	SourcePath string
	EntryName  string
	Mtime      int64
	Size       int64
	Messages   []parse.Message
}

// ChatKey derives the stable key of an export from its path relative to the
// exports root.
func ChatKey(rel string) string {
	return "wa:" + strings.TrimSuffix(rel, path.Ext(rel))
}

// ChatName turns "WhatsApp Chat with Family.txt" into "Family".
func ChatName(entryName, fallback string) string {
	name := path.Base(entryName)
	if name == "." || name == "" {
		name = path.Base(fallback)
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	return strings.TrimPrefix(name, "WhatsApp Chat with ")
}

// LoadChat extracts and parses one export archive.
func LoadChat(fi scan.FileInfo, opts parse.Options) (*Chat, error) {
	entry, err := archive.ExtractFile(fi.Path)
	if err != nil {
		return nil, err
	}
	msgs, err := parse.ParseWithOptions(entry.Text, opts)
	if err != nil {
		return nil, err
	}
	return &Chat{
		Key:        ChatKey(fi.Rel),
		Name:       ChatName(entry.Name, fi.Rel),
		SourcePath: fi.Path,
		EntryName:  entry.Name,
		Mtime:      fi.Mtime,
		Size:       fi.Size,
		Messages:   msgs,
	}, nil
}

// IndexAll imports every changed export under root and prunes chats whose
// archives are gone. Archives are parsed in parallel; writes are serial.
func IndexAll(ctx context.Context, db *DB, root string, opts parse.Options) (Stats, error) {
	var stats Stats

	if err := db.syncParseOptions(opts.Fingerprint()); err != nil {
		return stats, fmt.Errorf("parse options: %w", err)
	}

	files, err := scan.ScanRoot(root)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(files)

	// track which archives we see, for pruning
	seenKeys := make(map[string]struct{}, len(files))
	var pending []scan.FileInfo
	for _, fi := range files {
		key := ChatKey(fi.Rel)
		if _, dup := seenKeys[key]; dup {
			// Family.zip and Family.ZIP; the first in walk order owns the key
			stats.Errors++
			log.Warn().Str("path", fi.Path).Str("chat", key).Msg("duplicate chat key")
			continue
		}
		seenKeys[key] = struct{}{}

		needs, err := needsUpdate(db, key, fi.Mtime, fi.Size)
		if err != nil {
			return stats, fmt.Errorf("check %s: %w", key, err)
		}
		if !needs {
			stats.Skipped++
			continue
		}
		pending = append(pending, fi)
	}

	chats := make([]*Chat, len(pending))
	errs := make([]error, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, fi := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chats[i], errs[i] = LoadChat(fi, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for i, fi := range pending {
		if errs[i] != nil {
			stats.Errors++
			log.Warn().Err(errs[i]).Str("path", fi.Path).Msg("parse export")
			continue
		}
		if err := WriteChat(db, chats[i]); err != nil {
			stats.Errors++
			log.Warn().Err(err).Str("path", fi.Path).Msg("index export")
			continue
		}
		stats.Updated++
	}

	pruned, err := pruneChats(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func needsUpdate(db *DB, chatKey string, mtime, size int64) (bool, error) {
	info, err := db.GetChatInfo(chatKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new chat
	}
	return info.Mtime != mtime || info.Size != size, nil
}

// WriteChat replaces everything stored for c.Key in one transaction.
func WriteChat(db *DB, c *Chat) error {
	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteChatTx(tx, c.Key); err != nil {
		return err
	}

	var first, last string
	if len(c.Messages) > 0 {
		lo, hi := c.Messages[0].Date, c.Messages[0].Date
		for _, m := range c.Messages[1:] {
			if m.Date.Before(lo) {
				lo = m.Date
			}
			if m.Date.After(hi) {
				hi = m.Date
			}
		}
		first, last = lo.Format(dateLayout), hi.Format(dateLayout)
	}

	_, err = tx.Exec(
		`INSERT INTO chats (chat_key, name, source_path, entry_name, first_date, last_date, message_count, imported_at, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Key,
		c.Name,
		c.SourcePath,
		c.EntryName,
		first,
		last,
		len(c.Messages),
		time.Now().UTC().Format(time.RFC3339),
		c.Mtime,
		c.Size,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (chat_key, msg_id, date, clock_min, hour, sender, text, length, line_number)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range c.Messages {
		var clock, hour any
		if m.Clock != nil {
			clock = int64(*m.Clock / time.Minute)
		}
		if m.Hour != nil {
			hour = *m.Hour
		}
		_, err := stmt.Exec(
			c.Key,
			i,
			m.Date.Format(dateLayout),
			clock,
			hour,
			m.Sender,
			m.Text,
			m.Length,
			m.Line,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneChats(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllChatKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteChat(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
