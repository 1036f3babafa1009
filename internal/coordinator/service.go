package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vitaliisemenov/modelfleet/internal/audit"
	"github.com/vitaliisemenov/modelfleet/internal/blobstore"
	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// Service wires the registry and fan-out together with the blob store to
// implement the coordinator's operator-facing operations: model deletion,
// priority set/unset, and cluster-state aggregation. Audit is optional;
// a nil Audit silently skips recording.
type Service struct {
	Registry *Registry
	Fanout   *Fanout
	Blobs    blobstore.Store
	Audit    audit.Store
	Env      string
	Logger   *slog.Logger
}

// Config is the coordinator's resolved configuration, echoed back by
// GET / alongside the registration tables so an operator can confirm what
// a running instance is actually configured with.
type Config struct {
	Environment   string        `json:"environment"`
	FanoutTimeout time.Duration `json:"fanout_timeout"`
	AuditEnabled  bool          `json:"audit_enabled"`
}

// Config returns the service's resolved configuration.
func (s *Service) Config() Config {
	return Config{
		Environment:   s.Env,
		FanoutTimeout: fanoutTimeout,
		AuditEnabled:  s.Audit != nil,
	}
}

func (s *Service) recordAudit(ctx context.Context, e audit.Entry) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, e); err != nil {
		s.Logger.Warn("coordinator: failed to record audit entry", "action", e.Action, "error", err)
	}
}

// DeleteModel removes the blob-store subtree for key, then fans out the
// same DELETE to every registered node of both types.
func (s *Service) DeleteModel(ctx context.Context, key model.RecordKey) error {
	prefix := strings.Join([]string{s.Env, key.Framework, key.Name}, "/") + "/"
	descs, err := s.Blobs.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("coordinator: listing %s: %w", prefix, err)
	}
	if err := s.Blobs.DeleteMany(ctx, descs); err != nil {
		return fmt.Errorf("coordinator: deleting %s: %w", prefix, err)
	}

	path := fmt.Sprintf("/models/%s/%s", key.Framework, key.Name)
	s.Fanout.ToAll(ctx, s.Registry, NodeTypeConfigManager, "DELETE", path, nil)
	s.Fanout.ToAll(ctx, s.Registry, NodeTypeRemoteModelPuller, "DELETE", path, nil)
	s.recordAudit(ctx, audit.Entry{Action: audit.ActionDeleteModel, Framework: key.Framework, Name: key.Name})
	return nil
}

// SetPriority server-side copies the blob tree for key at version to the
// priority slot (/0/), then best-effort fans out POST /pull to pullers and
// POST /update_tfserving_config_from_local_filesystem to synchronizers. The
// copy is best-effort across every blob matching the version prefix; the
// subsequent fan-out does not block on node availability, since any node
// that misses the message converges on its next periodic pass anyway.
func (s *Service) SetPriority(ctx context.Context, key model.RecordKey, version model.Version) error {
	if version == model.PriorityVersion {
		return fmt.Errorf("coordinator: version must be non-zero, got the priority-slot sentinel")
	}

	versionPrefix := strings.Join([]string{s.Env, key.Framework, key.Name, strconv.FormatInt(int64(version), 10)}, "/") + "/"
	descs, err := s.Blobs.List(ctx, versionPrefix)
	if err != nil {
		return fmt.Errorf("coordinator: listing %s: %w", versionPrefix, err)
	}

	priorityPrefix := strings.Join([]string{s.Env, key.Framework, key.Name, strconv.FormatInt(int64(model.PriorityVersion), 10)}, "/") + "/"
	for _, d := range descs {
		dst := priorityPrefix + strings.TrimPrefix(d.Path, versionPrefix)
		if err := s.Blobs.Copy(ctx, d, dst); err != nil {
			s.Logger.Warn("coordinator: priority copy failed for one blob", "path", d.Path, "error", err)
		}
	}

	s.Fanout.ToAll(ctx, s.Registry, NodeTypeRemoteModelPuller, "POST", "/pull", nil)
	s.Fanout.ToAll(ctx, s.Registry, NodeTypeConfigManager, "POST", "/update_tfserving_config_from_local_filesystem", nil)
	s.recordAudit(ctx, audit.Entry{Action: audit.ActionSetPriority, Framework: key.Framework, Name: key.Name, Version: int64(version)})
	return nil
}

// RemovePriority deletes the priority slot's blobs for key, then fans out
// DELETE /priority to every registered synchronizer.
func (s *Service) RemovePriority(ctx context.Context, key model.RecordKey) error {
	priorityPrefix := strings.Join([]string{s.Env, key.Framework, key.Name, strconv.FormatInt(int64(model.PriorityVersion), 10)}, "/") + "/"
	descs, err := s.Blobs.List(ctx, priorityPrefix)
	if err != nil {
		return fmt.Errorf("coordinator: listing %s: %w", priorityPrefix, err)
	}
	if err := s.Blobs.DeleteMany(ctx, descs); err != nil {
		return fmt.Errorf("coordinator: deleting %s: %w", priorityPrefix, err)
	}

	body := fmt.Sprintf(`{"framework":%q,"name":%q}`, key.Framework, key.Name)
	s.Fanout.ToAll(ctx, s.Registry, NodeTypeConfigManager, "DELETE", "/priority", []byte(body))
	s.recordAudit(ctx, audit.Entry{Action: audit.ActionRemovePriority, Framework: key.Framework, Name: key.Name})
	return nil
}

// ClusterStateEntry is one node's reported state within an aggregated
// /report_cluster_state response.
type ClusterStateEntry struct {
	NodeType   NodeType `json:"node_type"`
	Target     string   `json:"target"`
	StatusCode int      `json:"status_code"`
	Body       string   `json:"body,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// ReportClusterState fans out a GET to every registered node of both types
// and aggregates their responses.
func (s *Service) ReportClusterState(ctx context.Context) []ClusterStateEntry {
	var out []ClusterStateEntry
	for _, nt := range []NodeType{NodeTypeConfigManager, NodeTypeRemoteModelPuller} {
		for _, res := range s.Fanout.ToAll(ctx, s.Registry, nt, "GET", "/", nil) {
			entry := ClusterStateEntry{NodeType: nt, Target: res.Target, StatusCode: res.StatusCode}
			if res.Err != nil {
				entry.Error = res.Err.Error()
			} else {
				entry.Body = string(res.Body)
			}
			out = append(out, entry)
		}
	}
	return out
}
