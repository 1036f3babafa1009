package synchronizer

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/modelfleet/internal/httpserver"
	"github.com/vitaliisemenov/modelfleet/internal/localfs"
	"github.com/vitaliisemenov/modelfleet/internal/model"
	"github.com/vitaliisemenov/modelfleet/internal/servingconfig"
)

// Handlers exposes the synchronizer's HTTP surface.
type Handlers struct {
	Sync *Synchronizer
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Mount registers every synchronizer route on r.
func (h *Handlers) Mount(r *mux.Router) {
	r.HandleFunc("/tensorflow_serving/config", h.handleGetConfig).Methods(http.MethodGet)
	r.HandleFunc("/tensorflow_serving/all", h.handleEngineAll).Methods(http.MethodGet)
	r.HandleFunc("/local/all", h.handleLocalAll).Methods(http.MethodGet)
	r.HandleFunc("/local/current", h.handleLocalCurrent).Methods(http.MethodGet)
	r.HandleFunc("/update_tfserving_config_from_local_filesystem", h.handleReconcile).Methods(http.MethodPost)
	r.HandleFunc("/clear_out_of_date_local_models", h.handleRemoveOutOfDate).Methods(http.MethodPost)
	r.HandleFunc("/models/{framework}/{name}", h.handleDeleteModel).Methods(http.MethodDelete)
	r.HandleFunc("/priority", h.handleRemovePriority).Methods(http.MethodDelete)
}

func (h *Handlers) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Sync.ConfigStore.Load()
	if err != nil {
		writeText(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeText(w, http.StatusOK, servingconfig.Serialize(cfg))
}

// handleEngineAll reports the engine's current key-to-ServingRecord view
// for every tensorflow-framework key this node knows about locally.
func (h *Handlers) handleEngineAll(w http.ResponseWriter, r *http.Request) {
	local, err := localTensorflowRecords(h.Sync.LocalRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	keys := make([]model.RecordKey, 0, len(local))
	for key := range local {
		keys = append(keys, key)
	}

	view, err := h.Sync.EngineView.Build(r.Context(), keys)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) handleLocalAll(w http.ResponseWriter, r *http.Request) {
	all, err := localfs.AllLocalRecords(h.Sync.LocalRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *Handlers) handleLocalCurrent(w http.ResponseWriter, r *http.Request) {
	current, err := localfs.CurrentLocalRecords(h.Sync.LocalRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (h *Handlers) handleReconcile(w http.ResponseWriter, r *http.Request) {
	h.Sync.EngineView.Reset()
	result, err := h.Sync.ReconcileConfig(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleRemoveOutOfDate(w http.ResponseWriter, r *http.Request) {
	h.Sync.EngineView.Reset()
	result, err := h.Sync.RemoveOutOfDate(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := model.RecordKey{Framework: vars["framework"], Name: vars["name"]}
	if err := h.Sync.RemoveModelByKey(r.Context(), key); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type priorityRequest struct {
	Framework string `json:"framework" validate:"required"`
	Name      string `json:"name" validate:"required"`
}

func (h *Handlers) handleRemovePriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := httpserver.Validate().Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	key := model.RecordKey{Framework: req.Framework, Name: req.Name}
	if err := h.Sync.RemovePriority(r.Context(), key); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "priority removed"})
}
