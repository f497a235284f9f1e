package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var ErrInvalidDocument = errors.New("invalid runtime settings document")

// Store is the file-backed runtime settings. Reads are cached and refreshed when
// the file's modification time changes; writes replace the file atomically.
type Store struct {
	path      string
	environ   func() []string
	validator *validator

	mu     sync.Mutex
	cached *Document
	mtime  time.Time
}

type Option func(*Store)

// WithEnviron overrides the environment used to bootstrap a missing file.
func WithEnviron(environ func() []string) Option {
	return func(s *Store) { s.environ = environ }
}

func NewStore(path string, opts ...Option) (*Store, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, environ: os.Environ, validator: v}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Load returns a copy of the current document.
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(false)
	if err != nil {
		return nil, err
	}
	return doc.clone(), nil
}

// Reload discards the cache and re-reads the file.
func (s *Store) Reload() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadLocked(true)
	if err != nil {
		return nil, err
	}
	return doc.clone(), nil
}

func (s *Store) loadLocked(force bool) (*Document, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if s.cached == nil || force || !s.mtime.IsZero() {
			s.cached = bootstrapFromEnv(s.environ())
			s.mtime = time.Time{}
		}
		return s.cached, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings.Load: %w", err)
	}

	if !force && s.cached != nil && info.ModTime().Equal(s.mtime) {
		return s.cached, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("settings.Load: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("settings.Load: %w: %v", ErrInvalidDocument, err)
	}
	doc.normalize()

	s.cached = &doc
	s.mtime = info.ModTime()
	return s.cached, nil
}

// SaveRaw validates a JSON document against the schema before saving it.
func (s *Store) SaveRaw(raw []byte) (*Document, error) {
	if err := s.validator.validate(raw); err != nil {
		return nil, fmt.Errorf("settings.SaveRaw: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("settings.SaveRaw: %w: %v", ErrInvalidDocument, err)
	}
	if err := s.Save(&doc); err != nil {
		return nil, err
	}
	return s.Load()
}

func (s *Store) Save(doc *Document) error {
	next := doc.clone()
	next.normalize()

	raw, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("settings.Save: %w", err)
	}
	if err := s.validator.validate(raw); err != nil {
		return fmt.Errorf("settings.Save: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteFileAtomic(s.path, append(raw, '\n')); err != nil {
		return fmt.Errorf("settings.Save: %w", err)
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return fmt.Errorf("settings.Save: %w", err)
	}
	s.cached = next
	s.mtime = info.ModTime()
	return nil
}

// WriteFileAtomic replaces path with data so readers see either the old or the
// new contents.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// bootstrapFromEnv builds the first document from STRIPE_ACCOUNT_<ALIAS>_* and
// STRIPE_MASTER_ACCOUNT_<ALIAS>_CPM variables.
func bootstrapFromEnv(environ []string) *Document {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			vars[k] = strings.TrimSpace(v)
		}
	}

	doc := &Document{
		MasterAccountAlias:         vars["STRIPE_MASTER_ACCOUNT_ALIAS"],
		Accounts:                   map[string]Account{},
		MasterCustomPaymentMethods: map[string]string{},
	}

	for k, v := range vars {
		switch {
		case strings.HasPrefix(k, "STRIPE_ACCOUNT_") && strings.HasSuffix(k, "_ACCOUNT_ID"):
			alias := NormalizeAlias(strings.TrimSuffix(strings.TrimPrefix(k, "STRIPE_ACCOUNT_"), "_ACCOUNT_ID"))
			if alias == "" {
				continue
			}
			prefix := "STRIPE_ACCOUNT_" + alias + "_"
			doc.Accounts[alias] = Account{
				AccountID:            v,
				SecretKey:            vars[prefix+"SECRET_KEY"],
				PublishableKey:       vars[prefix+"PUBLISHABLE_KEY"],
				WebhookSigningSecret: vars[prefix+"WEBHOOK_SIGNING_SECRET"],
				Country:              vars[prefix+"COUNTRY"],
			}
		case strings.HasPrefix(k, "STRIPE_MASTER_ACCOUNT_") && strings.HasSuffix(k, "_CPM"):
			alias := NormalizeAlias(strings.TrimSuffix(strings.TrimPrefix(k, "STRIPE_MASTER_ACCOUNT_"), "_CPM"))
			if alias != "" {
				doc.MasterCustomPaymentMethods[alias] = v
			}
		}
	}

	doc.normalize()
	return doc
}
