// Package synchronizer implements the serving-config synchronizer role:
// it reconciles the node-local model directory into the serving engine's
// text-format config file, and removes local directories the engine has
// already superseded.
package synchronizer

import (
	"context"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitaliisemenov/modelfleet/internal/engineclient"
	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// engineStatusCacheSize bounds the per-key memo cache: one entry per
// distinct model key seen since the last Reset, reused so the
// config-reconcile pass and the removal pass running in the same tick
// don't each re-dial the engine for identical keys.
const engineStatusCacheSize = 1024

// EngineViewBuilder queries the serving engine once per distinct key and
// assembles the results into a model.EngineView, memoizing responses in an
// LRU cache that holds entries until the next Reset.
type EngineViewBuilder struct {
	client *engineclient.Client
	cache  *lru.Cache[model.RecordKey, []model.ServingRecord]
	logger *slog.Logger
}

// NewEngineViewBuilder wraps client with a bounded per-key memo cache.
func NewEngineViewBuilder(client *engineclient.Client, logger *slog.Logger) (*EngineViewBuilder, error) {
	cache, err := lru.New[model.RecordKey, []model.ServingRecord](engineStatusCacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EngineViewBuilder{client: client, cache: cache, logger: logger}, nil
}

// Invalidate drops the cached entry for key, forcing the next Build call
// to re-query the engine for it (used after an operation that is known to
// change the engine's view for key, such as a config write).
func (b *EngineViewBuilder) Invalidate(key model.RecordKey) {
	b.cache.Remove(key)
}

// Reset drops every cached entry. The memo cache exists only to bound
// engine calls within one reconciliation round (the two passes of a Run
// tick, or one HTTP-triggered pass), not across rounds: an externally
// observed engine-status transition (e.g. AVAILABLE to UNLOADING) between
// rounds must never be hidden behind a stale entry, so the caller resets
// the cache at the start of every round.
func (b *EngineViewBuilder) Reset() {
	b.cache.Purge()
}

// Build queries the engine for every key in keys, returning the combined
// view. A key whose status call fails is omitted from the view entirely
// (engineclient.GetStatus already treats that as "not found"; Build just
// propagates that through the cache).
func (b *EngineViewBuilder) Build(ctx context.Context, keys []model.RecordKey) (model.EngineView, error) {
	view := make(model.EngineView, len(keys))
	for _, key := range keys {
		records, ok := b.cache.Get(key)
		if !ok {
			fetched, err := b.client.GetStatus(ctx, key)
			if err != nil {
				return nil, err
			}
			records = fetched
			b.cache.Add(key, records)
		}
		if len(records) > 0 {
			view[key] = records
		}
	}
	return view, nil
}
