package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/poofware/locshare-service/internal/pgp"
)

const (
	keyFile     = "private.asc"
	sessionFile = "session.json"
)

var (
	ErrNoKey     = errors.New("no key found; run keygen first")
	ErrNoSession = errors.New("no session found; run login first")
)

// Session is the persisted result of a login.
type Session struct {
	Server      string    `json:"server"`
	Fingerprint string    `json:"fingerprint"`
	Bearer      string    `json:"bearer"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileStore keeps the private key and current session under one directory.
// Both files are written owner-only.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) SaveKey(e *openpgp.Entity) error {
	armored, err := pgp.ArmorPrivate(e)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, keyFile), []byte(armored))
}

func (s *FileStore) LoadKey() (*openpgp.Entity, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, keyFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoKey
	}
	if err != nil {
		return nil, err
	}
	return pgp.ReadPrivateKey(string(b))
}

func (s *FileStore) SaveSession(sess Session) error {
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, sessionFile), b)
}

func (s *FileStore) LoadSession() (*Session, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, sessionFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// writeFile writes via a temp file then rename.
func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
