package restserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/workplace-hygiene/noiseexposure/internal/store"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
	"github.com/workplace-hygiene/noiseexposure/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// StatisticsResponse is the body of the investigation statistics endpoints
type StatisticsResponse struct {
	InvestigationID string                `json:"investigation_id,omitempty"`
	RunID           string                `json:"run_id,omitempty"`
	Statistics      []exposure.Statistics `json:"statistics"`
}

// Health reports that the server is up
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}, nil)
}

// ComputeSnapshot computes every group of an investigation posted in the
// request body. Nothing is stored.
func (h *Handlers) ComputeSnapshot(w http.ResponseWriter, req *http.Request) {
	var inv exposure.Investigation
	decoder := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxSnapshotBytes))
	if err := decoder.Decode(&inv); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "invalid investigation snapshot: "+err.Error())
		return
	}

	stats := h.controller.calculator.ComputeAllStatistics(&inv)
	h.formatter.WriteResponse(w, req, StatisticsResponse{
		InvestigationID: inv.ID,
		Statistics:      nonNil(stats),
	}, nil)
}

// ListInvestigations lists the stored investigations
func (h *Handlers) ListInvestigations(w http.ResponseWriter, req *http.Request) {
	if !h.requireStore(w, req) {
		return
	}

	summaries, err := h.controller.store.ListInvestigations(req.Context())
	if err != nil {
		h.storeError(w, req, err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	h.formatter.WriteResponse(w, req, summaries, nil)
}

// GetInvestigationStatistics computes and records the statistics of a stored
// investigation
func (h *Handlers) GetInvestigationStatistics(w http.ResponseWriter, req *http.Request) {
	if !h.requireStore(w, req) {
		return
	}

	res, err := h.controller.recomputer.One(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.storeError(w, req, err)
		return
	}

	h.formatter.WriteResponse(w, req, StatisticsResponse{
		InvestigationID: res.InvestigationID,
		RunID:           res.RunID,
		Statistics:      nonNil(res.Statistics),
	}, nil)
}

// GetGroupStatistics computes the statistics of one exposure group
func (h *Handlers) GetGroupStatistics(w http.ResponseWriter, req *http.Request) {
	if !h.requireStore(w, req) {
		return
	}

	vars := mux.Vars(req)
	inv, err := h.controller.store.LoadInvestigation(req.Context(), vars["id"])
	if err != nil {
		h.storeError(w, req, err)
		return
	}

	if _, ok := inv.Group(vars["group"]); !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, exposure.ErrGroupNotFound.Error())
		return
	}

	st, ok := h.controller.calculator.ComputeStatisticsForGroup(inv, vars["group"])
	if !ok {
		h.formatter.WriteError(w, req, http.StatusUnprocessableEntity, "not enough eligible measurements to compute statistics")
		return
	}
	h.formatter.WriteResponse(w, req, st, nil)
}

// GetLatestRun returns the most recently recorded statistics
func (h *Handlers) GetLatestRun(w http.ResponseWriter, req *http.Request) {
	if !h.requireStore(w, req) {
		return
	}

	run, err := h.controller.store.LatestRun(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.storeError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, run, nil)
}

func (h *Handlers) requireStore(w http.ResponseWriter, req *http.Request) bool {
	if h.controller.store == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "no storage backend configured")
		return false
	}
	return true
}

func (h *Handlers) storeError(w http.ResponseWriter, req *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.formatter.WriteError(w, req, http.StatusNotFound, err.Error())
		return
	}
	h.controller.logger.Errorw("storage error", "path", req.URL.Path, "error", err)
	h.formatter.WriteError(w, req, http.StatusInternalServerError, "internal error")
}

func nonNil(stats []exposure.Statistics) []exposure.Statistics {
	if stats == nil {
		return []exposure.Statistics{}
	}
	return stats
}
