package coordinator

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/modelfleet/internal/httpserver"
	"github.com/vitaliisemenov/modelfleet/internal/model"
)

// Handlers exposes the coordinator's HTTP surface: node registration,
// cluster-state reporting, and the operator-facing model/priority
// mutations.
type Handlers struct {
	Service *Service
	Hub     *StateHub
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Mount registers every coordinator route on r.
func (h *Handlers) Mount(r *mux.Router) {
	r.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/register", h.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/register", h.handleDeregister).Methods(http.MethodDelete)
	r.HandleFunc("/report_cluster_state", h.handleReportClusterState).Methods(http.MethodGet)
	r.HandleFunc("/report_cluster_state/stream", h.Hub.ServeWS)
	r.HandleFunc("/models/{framework}/{name}", h.handleDeleteModel).Methods(http.MethodDelete)
	r.HandleFunc("/priority", h.handleSetPriority).Methods(http.MethodPost)
	r.HandleFunc("/priority", h.handleRemovePriority).Methods(http.MethodDelete)
}

// rootResponse is the GET / payload: the coordinator's resolved
// configuration plus its current registration tables, by node type.
type rootResponse struct {
	Configuration Config                `json:"configuration"`
	Registrations map[NodeType][]string `json:"registrations"`
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Configuration: h.Service.Config(),
		Registrations: h.Service.Registry.Snapshot(),
	})
}

type registrationRequest struct {
	NodeType NodeType `json:"node_type" validate:"required"`
	Target   string   `json:"target" validate:"required,hostname_port"`
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := httpserver.Validate().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.NodeType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("node_type must be config_manager or remote_model_puller"))
		return
	}
	if err := h.Service.Registry.Register(req.NodeType, req.Target); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (h *Handlers) handleDeregister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := httpserver.Validate().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.NodeType.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("node_type must be config_manager or remote_model_puller"))
		return
	}
	if err := h.Service.Registry.Deregister(req.NodeType, req.Target); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deregistered"})
}

func (h *Handlers) handleReportClusterState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.ReportClusterState(r.Context()))
}

func (h *Handlers) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	key := model.RecordKey{Framework: vars["framework"], Name: vars["name"]}
	if err := h.Service.DeleteModel(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// setPriorityRequest requires all three fields non-empty: version 0 is
// model.PriorityVersion, the sentinel for "already in the priority slot",
// so an omitted version must be rejected rather than silently treated as
// a no-op self-copy.
type setPriorityRequest struct {
	Framework string `json:"framework" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Version   int64  `json:"version" validate:"required,gt=0"`
}

type removePriorityRequest struct {
	Framework string `json:"framework" validate:"required"`
	Name      string `json:"name" validate:"required"`
}

func (h *Handlers) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req setPriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := httpserver.Validate().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key := model.RecordKey{Framework: req.Framework, Name: req.Name}
	if err := h.Service.SetPriority(r.Context(), key, model.Version(req.Version)); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "priority set"})
}

func (h *Handlers) handleRemovePriority(w http.ResponseWriter, r *http.Request) {
	var req removePriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := httpserver.Validate().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	key := model.RecordKey{Framework: req.Framework, Name: req.Name}
	if err := h.Service.RemovePriority(r.Context(), key); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "priority removed"})
}
