// Package coordinator implements the cluster registry and fan-out: the
// single endpoint that tracks which puller and synchronizer nodes are
// alive and relays operator commands to all of them. It holds no ground
// truth about model content, only the membership set.
package coordinator

import (
	"sync"
	"time"

	"github.com/vitaliisemenov/modelfleet/internal/statecache"
)

// NodeType distinguishes the two kinds of worker node that register with
// the coordinator.
type NodeType string

const (
	NodeTypeConfigManager     NodeType = "config_manager"
	NodeTypeRemoteModelPuller NodeType = "remote_model_puller"
)

func (t NodeType) bucket() string {
	if t == NodeTypeConfigManager {
		return statecache.BucketRegisteredConfigMgr
	}
	return statecache.BucketRegisteredModelPuller
}

// Valid reports whether t is one of the two known node types.
func (t NodeType) Valid() bool {
	return t == NodeTypeConfigManager || t == NodeTypeRemoteModelPuller
}

// Registry holds the two target->last-registration-timestamp maps, one per
// node type, persisted to a bbolt-backed cache so registrations survive a
// coordinator restart.
type Registry struct {
	mu      sync.Mutex
	targets map[NodeType]map[string]time.Time
	cache   *statecache.Cache
}

// NewRegistry loads any previously persisted registrations from cache.
func NewRegistry(cache *statecache.Cache) (*Registry, error) {
	r := &Registry{
		cache: cache,
		targets: map[NodeType]map[string]time.Time{
			NodeTypeConfigManager:     {},
			NodeTypeRemoteModelPuller: {},
		},
	}
	for _, nt := range []NodeType{NodeTypeConfigManager, NodeTypeRemoteModelPuller} {
		keys, err := cache.Keys(nt.bucket())
		if err != nil {
			return nil, err
		}
		for _, target := range keys {
			var ts time.Time
			if ok, err := cache.Get(nt.bucket(), target, &ts); err == nil && ok {
				r.targets[nt][target] = ts
			}
		}
	}
	return r, nil
}

// Register records target as alive for nodeType, refreshing its timestamp
// whether or not it was already registered (re-registration is always a
// no-op success, matching the Python original's idempotent /register).
func (r *Registry) Register(nodeType NodeType, target string) error {
	now := time.Now()
	r.mu.Lock()
	r.targets[nodeType][target] = now
	r.mu.Unlock()
	return r.cache.Put(nodeType.bucket(), target, now)
}

// Deregister removes target from nodeType's registry.
func (r *Registry) Deregister(nodeType NodeType, target string) error {
	r.mu.Lock()
	delete(r.targets[nodeType], target)
	r.mu.Unlock()
	return r.cache.Delete(nodeType.bucket(), target)
}

// Evict removes target from nodeType's registry after an observed timeout,
// the coordinator's only auto-eviction path.
func (r *Registry) Evict(nodeType NodeType, target string) {
	_ = r.Deregister(nodeType, target)
}

// Targets returns a snapshot of currently registered targets for nodeType.
func (r *Registry) Targets(nodeType NodeType) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.targets[nodeType]))
	for target := range r.targets[nodeType] {
		out = append(out, target)
	}
	return out
}

// Snapshot returns every registered target grouped by node type, for the
// root introspection endpoint and cluster-state reporting.
func (r *Registry) Snapshot() map[NodeType][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[NodeType][]string, len(r.targets))
	for nt, targets := range r.targets {
		list := make([]string, 0, len(targets))
		for target := range targets {
			list = append(list, target)
		}
		out[nt] = list
	}
	return out
}
