package puller

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/modelfleet/internal/localfs"
	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// Handlers exposes the puller's HTTP surface: manual pull trigger and the
// local/remote record inspection endpoints.
type Handlers struct {
	Puller *Puller
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Mount registers every puller route on r.
func (h *Handlers) Mount(r *mux.Router) {
	r.HandleFunc("/pull", h.handlePull).Methods(http.MethodPost)
	r.HandleFunc("/local/all", h.handleLocalAll).Methods(http.MethodGet)
	r.HandleFunc("/local/current", h.handleLocalCurrent).Methods(http.MethodGet)
	r.HandleFunc("/remote/current", h.handleRemoteCurrent).Methods(http.MethodGet)
	r.HandleFunc("/models/{framework}/{name}", h.handleDeleteModel).Methods(http.MethodDelete)
}

// handlePull runs a synchronous reconciliation pass, matching the
// original's manual /pull endpoint.
func (h *Handlers) handlePull(w http.ResponseWriter, r *http.Request) {
	result, err := h.Puller.PullMissing(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if _, err := h.Puller.CheckPriorityDrift(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleLocalAll(w http.ResponseWriter, r *http.Request) {
	all, err := localfs.AllLocalRecords(h.Puller.LocalRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h *Handlers) handleLocalCurrent(w http.ResponseWriter, r *http.Request) {
	current, err := localfs.CurrentLocalRecords(h.Puller.LocalRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (h *Handlers) handleRemoteCurrent(w http.ResponseWriter, r *http.Request) {
	current, err := currentRemoteByKey(r.Context(), h.Puller.Blobs, h.Puller.Env, h.Puller.logger())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (h *Handlers) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := model.RecordKey{Framework: vars["framework"], Name: vars["name"]}
	if err := localfs.RemoveRecordsByKey(h.Puller.LocalRoot, key); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	all, err := localfs.AllLocalRecords(h.Puller.LocalRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, all)
}
