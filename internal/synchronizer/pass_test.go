package synchronizer

import (
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vitaliisemenov/modelfleet/internal/engineclient"
	"github.com/vitaliisemenov/modelfleet/internal/model"
	"github.com/vitaliisemenov/modelfleet/internal/servingconfig"
)

type fakeEngine struct {
	responses map[string]*engineclient.GetModelStatusResponse
}

func (h *fakeEngine) handle(srv any, stream grpc.ServerStream) error {
	var req engineclient.GetModelStatusRequest
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}
	resp, ok := h.responses[req.ModelSpec.Name]
	if !ok {
		return status.Error(codes.NotFound, "no versions found")
	}
	return stream.SendMsg(resp)
}

func startFakeEngine(t *testing.T, h *fakeEngine) *engineclient.Client {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := grpc.NewServer(grpc.UnknownServiceHandler(h.handle))
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	c, err := engineclient.Dial(lis.Addr().String(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newTestSynchronizer(t *testing.T, engine *engineclient.Client) *Synchronizer {
	t.Helper()
	builder, err := NewEngineViewBuilder(engine, slog.Default())
	require.NoError(t, err)
	return &Synchronizer{
		ConfigStore: servingconfig.NewStore(filepath.Join(t.TempDir(), "models.conf")),
		EngineView:  builder,
		LocalRoot:   t.TempDir(),
		Logger:      slog.Default(),
	}
}

func TestReconcileConfig_AddsMissingLocalRecord(t *testing.T) {
	engine := startFakeEngine(t, &fakeEngine{})
	s := newTestSynchronizer(t, engine)
	require.NoError(t, os.MkdirAll(filepath.Join(s.LocalRoot, "tensorflow", "my-model", "3"), 0o755))

	result, err := s.ReconcileConfig(context.Background())
	require.NoError(t, err)
	require.Len(t, result.RecordsAdded, 1)

	cfg, err := s.ConfigStore.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.IndexOf("my-model"))
}

func TestReconcileConfig_SkipsAlreadyPresentEntry(t *testing.T) {
	key := model.RecordKey{Framework: "tensorflow", Name: "my-model"}
	engine := startFakeEngine(t, &fakeEngine{
		responses: map[string]*engineclient.GetModelStatusResponse{
			"my-model": {VersionStatus: []engineclient.VersionStatus{{Version: "3", State: "AVAILABLE"}}},
		},
	})
	s := newTestSynchronizer(t, engine)
	require.NoError(t, os.MkdirAll(filepath.Join(s.LocalRoot, "tensorflow", "my-model", "3"), 0o755))

	cfg, err := s.ConfigStore.Load()
	require.NoError(t, err)
	cfg.Upsert(model.ConfigEntry{Name: key.Name, BasePath: "/models/tensorflow/my-model/3", Policy: model.LatestPolicy()})
	_, err = s.ConfigStore.Save(cfg)
	require.NoError(t, err)

	result, err := s.ReconcileConfig(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.RecordsAdded)
}

func TestRemoveOutOfDate_RemovesSupersededLocalVersion(t *testing.T) {
	engine := startFakeEngine(t, &fakeEngine{
		responses: map[string]*engineclient.GetModelStatusResponse{
			"my-model": {VersionStatus: []engineclient.VersionStatus{{Version: "5", State: "AVAILABLE"}}},
		},
	})
	s := newTestSynchronizer(t, engine)
	oldPath := filepath.Join(s.LocalRoot, "tensorflow", "my-model", "3")
	require.NoError(t, os.MkdirAll(oldPath, 0o755))

	result, err := s.RemoveOutOfDate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.ModelsRemoved, 1)

	_, statErr := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRemoveOutOfDate_LeavesUnreportedKeyAlone(t *testing.T) {
	engine := startFakeEngine(t, &fakeEngine{})
	s := newTestSynchronizer(t, engine)
	path := filepath.Join(s.LocalRoot, "tensorflow", "my-model", "3")
	require.NoError(t, os.MkdirAll(path, 0o755))

	result, err := s.RemoveOutOfDate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.ModelsRemoved)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestRemoveModelByKey_DeletesConfigEntryAndLocalDirs(t *testing.T) {
	engine := startFakeEngine(t, &fakeEngine{})
	s := newTestSynchronizer(t, engine)
	key := model.RecordKey{Framework: "tensorflow", Name: "my-model"}
	require.NoError(t, os.MkdirAll(filepath.Join(s.LocalRoot, "tensorflow", "my-model", "3"), 0o755))

	cfg, err := s.ConfigStore.Load()
	require.NoError(t, err)
	cfg.Upsert(model.ConfigEntry{Name: "my-model", BasePath: "/x", Policy: model.LatestPolicy()})
	_, err = s.ConfigStore.Save(cfg)
	require.NoError(t, err)

	require.NoError(t, s.RemoveModelByKey(context.Background(), key))

	cfg, err = s.ConfigStore.Load()
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.IndexOf("my-model"))

	_, statErr := os.Stat(filepath.Join(s.LocalRoot, "tensorflow", "my-model"))
	assert.True(t, os.IsNotExist(statErr))
}
