package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type zipEntry struct {
	name string
	body []byte
}

func buildZip(t *testing.T, entries ...zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write(e.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_SingleTextEntry(t *testing.T) {
	data := buildZip(t, zipEntry{"WhatsApp Chat with Alice.txt", []byte("hello")})

	text, err := Extract(data)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestExtract_LastTextEntryWins(t *testing.T) {
	data := buildZip(t,
		zipEntry{"first.txt", []byte("first")},
		zipEntry{"IMG-0001.jpg", []byte{0xff, 0xd8}},
		zipEntry{"second.txt", []byte("second")},
		zipEntry{"notes.md", []byte("ignored")},
	)

	e, err := ExtractEntry(data)
	require.NoError(t, err)
	require.Equal(t, "second.txt", e.Name)
	require.Equal(t, "second", e.Text)
}

func TestExtract_NoTextEntry(t *testing.T) {
	data := buildZip(t, zipEntry{"photo.jpg", []byte{0x01}})

	text, err := Extract(data)
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestExtract_EmptyArchive(t *testing.T) {
	text, err := Extract(buildZip(t))
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestExtract_NotAZip(t *testing.T) {
	_, err := Extract([]byte("definitely not a zip"))
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
}

func TestExtract_InvalidUTF8(t *testing.T) {
	data := buildZip(t, zipEntry{"chat.txt", []byte{'o', 'k', 0xff, 0xfe}})

	_, err := Extract(data)
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "chat.txt", de.Entry)
	require.Equal(t, 2, de.Offset)
}

func TestExtract_StripsBOM(t *testing.T) {
	body := append([]byte{0xEF, 0xBB, 0xBF}, []byte("12/5/2023, 9:05 pm - Alice: hi")...)
	data := buildZip(t, zipEntry{"chat.txt", body})

	text, err := Extract(data)
	require.NoError(t, err)
	require.Equal(t, "12/5/2023, 9:05 pm - Alice: hi", text)
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.zip")
	require.NoError(t, os.WriteFile(path, buildZip(t, zipEntry{"c.txt", []byte("x")}), 0o644))

	e, err := ExtractFile(path)
	require.NoError(t, err)
	require.Equal(t, "c.txt", e.Name)
	require.Equal(t, "x", e.Text)

	_, err = ExtractFile(filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
}
