package keyring

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// humanLogWriter appends one plain line per RotationEvent to the keyring's
// human log path — "timestamp event key_id_prefix", independent of the JSON
// state file and never JSON itself, via a zerolog console writer rather
// than the engine's logrus logger (a deliberate second logger: the human
// log is an append-only audit trail with its own shape and file, not a
// debug stream).
type humanLogWriter struct {
	file *os.File
	log  zerolog.Logger
}

func newHumanLogWriter(path string) (*humanLogWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	console := zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}
	console.FormatLevel = func(interface{}) string { return "" }
	console.FormatFieldName = func(interface{}) string { return "" }
	console.FormatFieldValue = func(i interface{}) string { return fmt.Sprintf("%v", i) }

	log := zerolog.New(console).With().Timestamp().Logger()
	return &humanLogWriter{file: f, log: log}, nil
}

// LogHumanLine appends one line for ev: timestamp, event kind, and the
// first 8 hex characters of key_id (never the full id, never a token).
func (s *Store) LogHumanLine(ev RotationEvent) {
	if s.humanLog == nil {
		return
	}
	prefix := "-"
	if ev.KeyID != nil && len(*ev.KeyID) >= 8 {
		prefix = (*ev.KeyID)[:8]
	}
	s.humanLog.log.Info().
		Str("event", string(ev.Event)).
		Str("key_id_prefix", prefix).
		Str("reason", ev.Reason).
		Msg("rotation event")
}

func (h *humanLogWriter) Close() error {
	if h == nil || h.file == nil {
		return nil
	}
	return h.file.Close()
}
