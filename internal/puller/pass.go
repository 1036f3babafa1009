// Package puller implements the remote-artifact puller role: it watches
// the remote blob store for model versions the local filesystem does not
// yet have (or has at a lower priority), fetches them atomically, and
// flags any local priority pin the remote store no longer agrees with.
package puller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vitaliisemenov/modelfleet/internal/blobstore"
	"github.com/vitaliisemenov/modelfleet/internal/localfs"
	"github.com/vitaliisemenov/modelfleet/internal/metrics"
	"github.com/vitaliisemenov/modelfleet/internal/model"
	"github.com/vitaliisemenov/modelfleet/internal/statecache"
)

// PullResult summarizes one reconciliation pass, mirroring the Python
// original's last_pull_info cache entry.
type PullResult struct {
	RanAt             time.Time            `json:"ran_at"`
	Took              time.Duration        `json:"took"`
	RemotesDownloaded []model.RemoteRecord `json:"remotes_downloaded"`
}

// Puller owns the blob store, local filesystem root, and scratch
// directory needed to run reconciliation passes.
type Puller struct {
	Blobs       blobstore.Store
	Env         string
	LocalRoot   string
	ScratchRoot string
	Cache       *statecache.Cache
	CacheKey    string
	Logger      *slog.Logger
}

func (p *Puller) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// needPullRemote reports true when the key exists locally but the remote
// has either a higher version or a priority bit the local copy lacks.
func needPullRemote(remote model.RemoteRecord, locals map[model.RecordKey]model.LocalRecord) (model.LocalRecord, bool) {
	local, ok := locals[remote.Key]
	if !ok {
		return model.LocalRecord{}, false
	}
	return local, local.Version < remote.Version || (remote.IsPriority && !local.IsPriority)
}

// remotesMissingFromLocal returns every remote record that either has no
// local counterpart at all, or has one that needs superseding.
func remotesMissingFromLocal(locals map[model.RecordKey]model.LocalRecord, remotes map[model.RecordKey]model.RemoteRecord) []model.RemoteRecord {
	var out []model.RemoteRecord
	for key, remote := range remotes {
		if _, ok := locals[key]; !ok {
			out = append(out, remote)
			continue
		}
		if _, need := needPullRemote(remote, locals); need {
			out = append(out, remote)
		}
	}
	return out
}

func currentRemoteByKey(ctx context.Context, store blobstore.Store, env string, logger *slog.Logger) (map[model.RecordKey]model.RemoteRecord, error) {
	descs, err := store.List(ctx, env+"/")
	if err != nil {
		return nil, fmt.Errorf("puller: listing remote blobs: %w", err)
	}
	return blobstore.CurrentRemoteRecords(descs, logger), nil
}

// PullMissing fetches every remote record that is missing locally or
// supersedes what's local, publishing each atomically. A plain download
// failure (localfs.ErrDownloadFailed) for one remote is logged and counted,
// but never fails the pass; any other error aborts the pass with that
// error once the remaining remotes have been attempted.
func (p *Puller) PullMissing(ctx context.Context) (PullResult, error) {
	start := time.Now()
	logger := p.logger()

	locals, err := localfs.CurrentLocalRecords(p.LocalRoot)
	if err != nil {
		return PullResult{}, fmt.Errorf("puller: reading local state: %w", err)
	}
	remotes, err := currentRemoteByKey(ctx, p.Blobs, p.Env, logger)
	if err != nil {
		return PullResult{}, err
	}

	missing := remotesMissingFromLocal(locals, remotes)

	downloader := &blobDownloader{store: p.Blobs, env: p.Env}
	var firstErr error
	var downloaded []model.RemoteRecord
	for _, remote := range missing {
		if err := localfs.FetchAndPublish(ctx, downloader, p.ScratchRoot, remote, p.LocalRoot, logger); err != nil {
			if errors.Is(err, localfs.ErrDownloadFailed) {
				logger.Error("puller: download failed, continuing with remaining remotes", "remote", remote.RemotePath, "error", err)
				metrics.PullerFetchesTotal.WithLabelValues("download_failed").Inc()
				continue
			}
			logger.Error("puller: fetch failed, continuing with remaining remotes", "remote", remote.RemotePath, "error", err)
			metrics.PullerFetchesTotal.WithLabelValues("error").Inc()
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.PullerFetchesTotal.WithLabelValues("published").Inc()
		downloaded = append(downloaded, remote)
	}

	result := PullResult{RanAt: start, Took: time.Since(start), RemotesDownloaded: downloaded}
	if p.Cache != nil {
		if err := p.Cache.Put(statecache.BucketLastPullInfo, p.CacheKey, result); err != nil {
			logger.Warn("puller: failed to persist last_pull_info", "error", err)
		}
	}

	if firstErr != nil {
		metrics.PullerPassesTotal.WithLabelValues("error").Inc()
		return result, fmt.Errorf("puller: fetch failed: %w", firstErr)
	}
	metrics.PullerPassesTotal.WithLabelValues("success").Inc()
	return result, nil
}

// PriorityDriftEntry names a local record pinned as priority that the
// remote store no longer agrees is priority.
type PriorityDriftEntry struct {
	Key   model.RecordKey   `json:"key"`
	Local model.LocalRecord `json:"local"`
}

// CheckPriorityDrift flags every local priority pin whose remote
// counterpart exists but is no longer marked priority: an operator
// inconsistency the puller cannot fix on its own, only report.
func (p *Puller) CheckPriorityDrift(ctx context.Context) ([]PriorityDriftEntry, error) {
	logger := p.logger()
	locals, err := localfs.CurrentLocalRecords(p.LocalRoot)
	if err != nil {
		return nil, fmt.Errorf("puller: reading local state: %w", err)
	}
	remotes, err := currentRemoteByKey(ctx, p.Blobs, p.Env, logger)
	if err != nil {
		return nil, err
	}

	var drift []PriorityDriftEntry
	for key, local := range locals {
		remote, ok := remotes[key]
		if local.IsPriority && ok && !remote.IsPriority {
			logger.Error("puller: local priority pin no longer agrees with remote", "key", key.String(), "local", local)
			drift = append(drift, PriorityDriftEntry{Key: key, Local: local})
		}
	}
	metrics.PullerPriorityDriftGauge.Set(float64(len(drift)))
	return drift, nil
}
