package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/campus-auth/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("PROD", &buf)

	log.Info().Str("route", "/auth/login").Msg("hello")
	log.Debug().Msg("dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "hello", line["message"])
	require.Equal(t, "/auth/login", line["route"])
	require.Equal(t, "info", line["level"])
}

func TestNew_ConsoleInDev(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("dev", &buf)

	log.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
	require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
