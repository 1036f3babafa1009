package servingconfig

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/modelfleet/internal/model"
)

func TestStore_LoadMissingFileIsEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "models.config"))
	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Entries)
}

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "models.config"))
	cfg, err := s.Load()
	require.NoError(t, err)

	cfg.Upsert(model.ConfigEntry{Name: "A", BasePath: "/root/tensorflow/A", Policy: model.LatestPolicy()})
	saved, err := s.Save(cfg)
	require.NoError(t, err)
	require.Len(t, saved.Entries, 1)

	reloaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.Entries, reloaded.Entries)
}

func TestStore_ConflictOnStaleCRC(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "models.config"))
	cfgA, err := s.Load()
	require.NoError(t, err)
	cfgB, err := s.Load()
	require.NoError(t, err)

	cfgA.Upsert(model.ConfigEntry{Name: "A", Policy: model.LatestPolicy()})
	_, err = s.Save(cfgA)
	require.NoError(t, err)

	cfgB.Upsert(model.ConfigEntry{Name: "B", Policy: model.LatestPolicy()})
	_, err = s.Save(cfgB)
	assert.ErrorIs(t, err, ErrConfigConflict)

	final, err := s.Load()
	require.NoError(t, err)
	require.Len(t, final.Entries, 1)
	assert.Equal(t, "A", final.Entries[0].Name)
}
