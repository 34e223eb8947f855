package keyring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftforge/keyrotate/infrastructure/crypto"
)

const encryptionInfo = "keyrotate-keyring-v1"

// Store owns the keyring's two files: the canonical state JSON and an
// append-only human log for operator diagnostics. It is the sole writer of
// either file; all mutations go through one read-modify-write cycle per
// invocation (callers are expected to hold infrastructure/lock around that
// cycle).
type Store struct {
	statePath     string
	encryptionKey []byte // nil disables at-rest encryption
	humanLog      *humanLogWriter
}

// NewStore builds a Store. rawEncryptionKey is the operator-supplied
// KEYRING_ENCRYPTION_KEY; an empty value leaves the state file plaintext.
func NewStore(statePath, humanLogPath, rawEncryptionKey string) (*Store, error) {
	var key []byte
	if rawEncryptionKey != "" {
		derived, err := crypto.DeriveKey([]byte(rawEncryptionKey), []byte(statePath), encryptionInfo)
		if err != nil {
			return nil, fmt.Errorf("derive keyring encryption key: %w", err)
		}
		key = derived
	}

	hl, err := newHumanLogWriter(humanLogPath)
	if err != nil {
		return nil, fmt.Errorf("open human log: %w", err)
	}

	return &Store{statePath: statePath, encryptionKey: key, humanLog: hl}, nil
}

// Load reads the backing file. Absent, malformed, wrong-version, or
// undecryptable content all fall back to Default() silently — the engine is
// a hook and must never raise on a corrupt state file.
func (s *Store) Load() *Keyring {
	data, err := os.ReadFile(s.statePath)
	if err != nil {
		return Default()
	}

	if s.encryptionKey != nil {
		plain, err := crypto.Decrypt(s.encryptionKey, data)
		if err != nil {
			return Default()
		}
		data = plain
	}

	var kr Keyring
	if err := json.Unmarshal(data, &kr); err != nil {
		return Default()
	}
	if kr.Version != CurrentVersion {
		return Default()
	}
	if kr.Keys == nil {
		kr.Keys = make(map[string]*KeyRecord)
	}
	for id, rec := range kr.Keys {
		rec.KeyID = id
	}
	return &kr
}

// Save atomically writes keyring as UTF-8 JSON with 2-space indent
// (write-temp-then-rename, same filesystem). Errors are returned for the
// caller to log on a side channel; they must never propagate to the host.
func (s *Store) Save(kr *Keyring) error {
	if err := os.MkdirAll(filepath.Dir(s.statePath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(kr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keyring: %w", err)
	}

	if s.encryptionKey != nil {
		data, err = crypto.Encrypt(s.encryptionKey, data)
		if err != nil {
			return fmt.Errorf("encrypt keyring: %w", err)
		}
	}

	return atomicWrite(s.statePath, data)
}

// Close flushes and closes the human log file.
func (s *Store) Close() error {
	return s.humanLog.Close()
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".keyring-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
