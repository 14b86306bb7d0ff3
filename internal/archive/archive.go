package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatError reports input that is not a readable zip container.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("archive: not a valid zip container: %v", e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// DecodeError reports a transcript entry whose bytes are not UTF-8.
type DecodeError struct {
	Entry  string
	Offset int // byte offset of the first invalid sequence
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("archive: entry %q is not valid UTF-8 (offset %d)", e.Entry, e.Offset)
}

// Entry is the transcript found inside an export.
type Entry struct {
	Name string
	Text string
}

// Extract returns the text of the last .txt entry in the zip data,
// or "" if the archive has none.
func Extract(data []byte) (string, error) {
	e, err := ExtractEntry(data)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

// ExtractEntry is Extract but also reports the entry name.
func ExtractEntry(data []byte) (Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Entry{}, &FormatError{Err: err}
	}

	// entries are scanned in stored order and the last .txt one wins
	var last *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".txt") {
			last = f
		}
	}
	if last == nil {
		return Entry{}, nil
	}

	raw, err := readEntry(last)
	if err != nil {
		return Entry{}, &FormatError{Err: fmt.Errorf("read %s: %w", last.Name, err)}
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return Entry{}, &DecodeError{Entry: last.Name, Offset: firstInvalid(raw)}
	}
	return Entry{Name: last.Name, Text: string(raw)}, nil
}

// ExtractFile reads the archive at path and extracts its transcript entry.
func ExtractFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	return ExtractEntry(data)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
