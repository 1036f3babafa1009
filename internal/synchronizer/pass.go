package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vitaliisemenov/modelfleet/internal/localfs"
	"github.com/vitaliisemenov/modelfleet/internal/metrics"
	"github.com/vitaliisemenov/modelfleet/internal/model"
	"github.com/vitaliisemenov/modelfleet/internal/servingconfig"
	"github.com/vitaliisemenov/modelfleet/internal/statecache"
)

// tensorflowFramework is the only framework the serving config file and
// its co-located engine ever speak; the local directory may in principle
// hold other frameworks, but only this one is synchronized into serving
// config.
const tensorflowFramework = "tensorflow"

// Synchronizer owns the serving config file, the local model directory,
// and the engine status view needed to reconcile the two.
type Synchronizer struct {
	ConfigStore *servingconfig.Store
	EngineView  *EngineViewBuilder
	LocalRoot   string
	Cache       *statecache.Cache
	CacheKey    string
	Logger      *slog.Logger
}

func (s *Synchronizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// ConfigUpdateResult summarizes one config-reconcile pass.
type ConfigUpdateResult struct {
	RanAt        time.Time          `json:"ran_at"`
	Took         time.Duration      `json:"took"`
	RecordsAdded []model.RecordKey `json:"records_added"`
}

// localTensorflowRecords returns the current local record per key,
// restricted to tensorflowFramework.
func localTensorflowRecords(root string) (map[model.RecordKey]model.LocalRecord, error) {
	current, err := localfs.CurrentLocalRecords(root)
	if err != nil {
		return nil, err
	}
	out := make(map[model.RecordKey]model.LocalRecord, len(current))
	for key, rec := range current {
		if key.Framework == tensorflowFramework {
			out[key] = rec
		}
	}
	return out, nil
}

// configKeySet translates the config's name set into RecordKeys under
// tensorflowFramework, the only framework the config file ever names.
func configKeySet(cfg *model.ServingConfig) map[model.RecordKey]struct{} {
	names := cfg.Names()
	out := make(map[model.RecordKey]struct{}, len(names))
	for name := range names {
		out[model.RecordKey{Framework: tensorflowFramework, Name: name}] = struct{}{}
	}
	return out
}

// ReconcileConfig adds a serving-config entry for every local record that
// is either missing from the config or whose priority bit the engine's
// last AVAILABLE record disagrees with, then writes the config back under
// the CRC32 optimistic-concurrency guard.
func (s *Synchronizer) ReconcileConfig(ctx context.Context) (ConfigUpdateResult, error) {
	start := time.Now()
	logger := s.logger()

	locals, err := localTensorflowRecords(s.LocalRoot)
	if err != nil {
		return ConfigUpdateResult{}, fmt.Errorf("synchronizer: reading local state: %w", err)
	}

	cfg, err := s.ConfigStore.Load()
	if err != nil {
		return ConfigUpdateResult{}, fmt.Errorf("synchronizer: loading config: %w", err)
	}
	configKeys := configKeySet(cfg)

	keys := make([]model.RecordKey, 0, len(locals))
	for key := range locals {
		keys = append(keys, key)
	}
	engineView, err := s.EngineView.Build(ctx, keys)
	if err != nil {
		return ConfigUpdateResult{}, fmt.Errorf("synchronizer: querying engine status: %w", err)
	}

	var added []model.RecordKey
	for key, local := range locals {
		if !model.NeedAddToConfig(key, local, configKeys, engineView) {
			continue
		}
		policy := model.LatestPolicy()
		if local.IsPriority {
			policy = model.PriorityPolicy()
		}
		cfg.Upsert(model.ConfigEntry{Name: key.Name, BasePath: local.LocalPath, Policy: policy})
		added = append(added, key)
		s.EngineView.Invalidate(key)
	}

	if len(added) > 0 {
		if _, err := s.ConfigStore.Save(cfg); err != nil {
			metrics.SynchronizerPassesTotal.WithLabelValues("reconcile", "error").Inc()
			if errors.Is(err, servingconfig.ErrConfigConflict) {
				metrics.SynchronizerConfigConflictsTotal.Inc()
			}
			return ConfigUpdateResult{}, fmt.Errorf("synchronizer: saving config: %w", err)
		}
	}

	result := ConfigUpdateResult{RanAt: start, Took: time.Since(start), RecordsAdded: added}
	if s.Cache != nil {
		if err := s.Cache.Put(statecache.BucketConfigUpdateData, s.CacheKey, result); err != nil {
			logger.Warn("synchronizer: failed to persist config_update_data", "error", err)
		}
	}
	metrics.SynchronizerPassesTotal.WithLabelValues("reconcile", "success").Inc()
	return result, nil
}

// LocalRemovalResult summarizes one removal pass.
type LocalRemovalResult struct {
	RanAt         time.Time           `json:"ran_at"`
	Took          time.Duration       `json:"took"`
	ModelsRemoved []model.LocalRecord `json:"models_removed"`
}

// RemoveOutOfDate deletes every local directory the engine has already
// superseded (a higher AVAILABLE version exists). A key the engine has
// not yet reported on is left untouched, never treated as removable.
func (s *Synchronizer) RemoveOutOfDate(ctx context.Context) (LocalRemovalResult, error) {
	start := time.Now()
	logger := s.logger()

	all, err := localfs.AllLocalRecords(s.LocalRoot)
	if err != nil {
		return LocalRemovalResult{}, fmt.Errorf("synchronizer: reading local state: %w", err)
	}

	keys := make([]model.RecordKey, 0, len(all))
	for key := range all {
		if key.Framework == tensorflowFramework {
			keys = append(keys, key)
		}
	}
	engineView, err := s.EngineView.Build(ctx, keys)
	if err != nil {
		return LocalRemovalResult{}, fmt.Errorf("synchronizer: querying engine status: %w", err)
	}

	var toRemove []model.LocalRecord
	for _, key := range keys {
		for _, rec := range all[key] {
			if model.OutOfDateLocal(rec, engineView) {
				toRemove = append(toRemove, rec)
			}
		}
	}

	var errs []error
	for _, rec := range toRemove {
		logger.Warn("synchronizer: removing out-of-date local record", "record", rec)
		if err := localfs.RemoveRecord(rec); err != nil {
			logger.Error("synchronizer: failed to remove record, continuing", "record", rec, "error", err)
			errs = append(errs, err)
			continue
		}
		metrics.SynchronizerLocalRemovalsTotal.Inc()
	}

	result := LocalRemovalResult{RanAt: start, Took: time.Since(start), ModelsRemoved: toRemove}
	if s.Cache != nil {
		if err := s.Cache.Put(statecache.BucketLocalModelRemoveData, s.CacheKey, result); err != nil {
			logger.Warn("synchronizer: failed to persist local_model_remove_data", "error", err)
		}
	}

	if len(errs) > 0 {
		metrics.SynchronizerPassesTotal.WithLabelValues("removal", "error").Inc()
		return result, fmt.Errorf("synchronizer: %d of %d removals failed: %w", len(errs), len(toRemove), errs[0])
	}
	metrics.SynchronizerPassesTotal.WithLabelValues("removal", "success").Inc()
	return result, nil
}

// RemoveModelByKey deletes key's serving-config entry (if present) and
// every local directory for key, matching the coordinator-driven
// DELETE /models/{framework}/{name} fan-out target.
func (s *Synchronizer) RemoveModelByKey(ctx context.Context, key model.RecordKey) error {
	if key.Framework == tensorflowFramework {
		cfg, err := s.ConfigStore.Load()
		if err != nil {
			return fmt.Errorf("synchronizer: loading config: %w", err)
		}
		if cfg.Remove(key.Name) {
			if _, err := s.ConfigStore.Save(cfg); err != nil {
				return fmt.Errorf("synchronizer: saving config: %w", err)
			}
		}
		s.EngineView.Invalidate(key)
	}
	if err := localfs.RemoveRecordsByKey(s.LocalRoot, key); err != nil {
		return fmt.Errorf("synchronizer: removing local records: %w", err)
	}
	return nil
}

// RemovePriority unpins key's priority slot: removes the config entry if
// the engine currently reports it AVAILABLE as priority, deletes the
// local priority directory, then re-adds whatever ordinary version
// remains current so the model does not drop out of serving entirely.
func (s *Synchronizer) RemovePriority(ctx context.Context, key model.RecordKey) error {
	cfg, err := s.ConfigStore.Load()
	if err != nil {
		return fmt.Errorf("synchronizer: loading config: %w", err)
	}

	if cfg.IndexOf(key.Name) >= 0 {
		view, err := s.EngineView.Build(ctx, []model.RecordKey{key})
		if err != nil {
			return fmt.Errorf("synchronizer: querying engine status: %w", err)
		}
		if isPriority, found := view.AvailableIsPriority(key); found && isPriority {
			cfg.Remove(key.Name)
		}
	}

	if err := localfs.RemovePriorityRecord(s.LocalRoot, key); err != nil {
		return fmt.Errorf("synchronizer: removing local priority record: %w", err)
	}
	s.EngineView.Invalidate(key)

	locals, err := localTensorflowRecords(s.LocalRoot)
	if err != nil {
		return fmt.Errorf("synchronizer: reading local state: %w", err)
	}
	if local, ok := locals[key]; ok {
		cfg.Upsert(model.ConfigEntry{Name: key.Name, BasePath: local.LocalPath, Policy: model.LatestPolicy()})
	}

	if _, err := s.ConfigStore.Save(cfg); err != nil {
		return fmt.Errorf("synchronizer: saving config: %w", err)
	}
	return nil
}
