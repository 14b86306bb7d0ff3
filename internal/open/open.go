package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/wachat-insights/internal/archive"
	"github.com/Zuo-Peng/wachat-insights/internal/index"
)

// OpenChat writes the chat's transcript to cacheDir and opens it in $EDITOR
// at the line of message hitID (first line if hitID < 0).
func OpenChat(db *index.DB, cacheDir, chatKey string, hitID int) error {
	filePath, lineNum, err := Transcript(db, cacheDir, chatKey, hitID)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Transcript re-extracts the chat's text file into cacheDir and returns its
// path and the 1-based line of message hitID.
func Transcript(db *index.DB, cacheDir, chatKey string, hitID int) (string, int, error) {
	chat, err := db.GetChat(chatKey)
	if err != nil {
		return "", 0, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return "", 0, fmt.Errorf("chat not found: %s", chatKey)
	}

	entry, err := archive.ExtractFile(chat.SourcePath)
	if err != nil {
		return "", 0, fmt.Errorf("extract %s: %w", chat.SourcePath, err)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create cache dir: %w", err)
	}
	filePath := filepath.Join(cacheDir, cacheName(chatKey))
	if err := os.WriteFile(filePath, []byte(entry.Text), 0o644); err != nil {
		return "", 0, fmt.Errorf("write transcript: %w", err)
	}

	lineNum := 1
	if hitID >= 0 {
		m, err := db.GetMessage(chatKey, hitID)
		if err == nil && m != nil && m.Line > 0 {
			lineNum = m.Line
		}
	}
	return filePath, lineNum, nil
}

// cacheName maps a chat key to a flat file name.
func cacheName(chatKey string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, chatKey)
	return name + ".txt"
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return exec.Command(editor, fmt.Sprintf("+%d", lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	default:
		return exec.Command(editor, filePath)
	}
}
