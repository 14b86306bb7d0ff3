package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "WARN"))

	log.Info().Msg("hidden")
	log.Warn().Str("chat", "wa:family").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "shown", entry["message"])
	require.Equal(t, "wa:family", entry["chat"])
	require.Equal(t, "warn", entry["level"])
}

func TestSetupWriter_InvalidLevel(t *testing.T) {
	require.Error(t, SetupWriter(&bytes.Buffer{}, "verbose"))
	require.Error(t, SetupWriter(&bytes.Buffer{}, ""))
}
