package coordinator

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/modelfleet/internal/blobstore"
	"github.com/vitaliisemenov/modelfleet/internal/statecache"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	cache, err := statecache.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	registry, err := NewRegistry(cache)
	require.NoError(t, err)

	svc := &Service{
		Registry: registry,
		Fanout:   NewFanout(100, 10, slog.Default()),
		Blobs:    blobstore.NewMemoryStore("models"),
		Env:      "test",
		Logger:   slog.Default(),
	}
	return &Handlers{Service: svc, Hub: NewStateHub(slog.Default())}
}

func TestHandlers_RegisterAndRoot(t *testing.T) {
	h := newTestHandlers(t)
	router := mux.NewRouter()
	h.Mount(router)

	body, _ := json.Marshal(registrationRequest{NodeType: NodeTypeRemoteModelPuller, Target: "host-a:9000"})
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "host-a:9000")
}

func TestHandlers_RegisterRejectsUnknownNodeType(t *testing.T) {
	h := newTestHandlers(t)
	router := mux.NewRouter()
	h.Mount(router)

	body, _ := json.Marshal(registrationRequest{NodeType: "bogus", Target: "host-a:9000"})
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_DeleteModel(t *testing.T) {
	h := newTestHandlers(t)
	mem := h.Service.Blobs.(*blobstore.MemoryStore)
	mem.Put("test/tensorflow/my-model/1/model.tar.gz", []byte("blob"))

	router := mux.NewRouter()
	h.Mount(router)

	req := httptest.NewRequest(http.MethodDelete, "/models/tensorflow/my-model", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
