package servingconfig

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"sync"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// ErrConfigConflict is returned by Store.Save when the file's on-disk bytes
// no longer match the CRC32 observed at the last Load: another writer got
// there first. The caller should re-Load, reapply its intended edit, and
// retry on the next reconciliation tick.
var ErrConfigConflict = errors.New("servingconfig: concurrent write detected, config changed since last read")

// Store guards a single serving-config file on disk with optimistic
// concurrency: every Save re-reads the file and compares its CRC32 against
// the value observed at the matching Load before writing.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store backed by the config file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads and parses the config file, recording its CRC32 for the next
// Save call. A missing file is treated as an empty config.
func (s *Store) Load() (*model.ServingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*model.ServingConfig, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &model.ServingConfig{ReadCRC32: crc32.ChecksumIEEE(nil)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("servingconfig: reading %s: %w", s.path, err)
	}

	sum := crc32.ChecksumIEEE(data)
	if sum == 0 {
		return &model.ServingConfig{ReadCRC32: sum}, nil
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("servingconfig: parsing %s: %w", s.path, err)
	}
	cfg.ReadCRC32 = sum
	return cfg, nil
}

// Save serializes cfg and writes it to the config file, but only if the
// file's current bytes still checksum to cfg.ReadCRC32 (the value observed
// when cfg was last Loaded). On success it returns a freshly reloaded
// config reflecting the just-written bytes. On a CRC mismatch it returns
// ErrConfigConflict without touching the file.
func (s *Store) Save(cfg *model.ServingConfig) (*model.ServingConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		current = nil
	} else if err != nil {
		return nil, fmt.Errorf("servingconfig: reading %s: %w", s.path, err)
	}

	if crc32.ChecksumIEEE(current) != cfg.ReadCRC32 {
		return nil, ErrConfigConflict
	}

	text := Serialize(cfg)
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("servingconfig: opening %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		return nil, fmt.Errorf("servingconfig: writing %s: %w", s.path, err)
	}

	return s.load()
}
