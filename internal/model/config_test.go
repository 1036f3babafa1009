package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServingConfig_UpsertReplacesSameName(t *testing.T) {
	cfg := &ServingConfig{}
	cfg.Upsert(ConfigEntry{Name: "A", BasePath: "/root/tensorflow/A/7", Policy: LatestPolicy()})
	cfg.Upsert(ConfigEntry{Name: "A", BasePath: "/root/tensorflow/A/8", Policy: LatestPolicy()})

	assert.Len(t, cfg.Entries, 1)
	assert.Equal(t, "/root/tensorflow/A/8", cfg.Entries[0].BasePath)
}

func TestServingConfig_UpsertPreservesOrderOfOthers(t *testing.T) {
	cfg := &ServingConfig{}
	cfg.Upsert(ConfigEntry{Name: "A", Policy: LatestPolicy()})
	cfg.Upsert(ConfigEntry{Name: "B", Policy: LatestPolicy()})
	cfg.Upsert(ConfigEntry{Name: "A", Policy: PriorityPolicy()})

	names := []string{cfg.Entries[0].Name, cfg.Entries[1].Name}
	assert.Equal(t, []string{"B", "A"}, names)
}

func TestServingConfig_RemoveMissingIsNoop(t *testing.T) {
	cfg := &ServingConfig{}
	cfg.Upsert(ConfigEntry{Name: "A", Policy: LatestPolicy()})
	assert.False(t, cfg.Remove("missing"))
	assert.True(t, cfg.Remove("A"))
	assert.Empty(t, cfg.Entries)
}

func TestServingConfig_Names(t *testing.T) {
	cfg := &ServingConfig{}
	cfg.Upsert(ConfigEntry{Name: "A", Policy: LatestPolicy()})
	cfg.Upsert(ConfigEntry{Name: "B", Policy: LatestPolicy()})

	names := cfg.Names()
	assert.Len(t, names, 2)
	_, ok := names["A"]
	assert.True(t, ok)
}
