package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	be.Equal(t, ParseLevel("debug"), zerolog.DebugLevel)
	be.Equal(t, ParseLevel("WARNING"), zerolog.WarnLevel)
	be.Equal(t, ParseLevel("error"), zerolog.ErrorLevel)
	be.Equal(t, ParseLevel(""), zerolog.InfoLevel)
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Str("path", "data/phone_map.json").Msg("mapping missing")

	out := buf.String()
	be.True(t, !strings.Contains(out, "hidden"))
	be.True(t, strings.Contains(out, `"message":"mapping missing"`))
	be.True(t, strings.Contains(out, `"service":"mailphone"`))
}
