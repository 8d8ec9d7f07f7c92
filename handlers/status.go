package handlers

import (
	"encoding/json"
	"net/http"

	"renameflow/services/pipeline"
)

// StatusHandler reports runtime processing state.
type StatusHandler struct {
	Pipeline *pipeline.Service
}

func NewStatusHandler(p *pipeline.Service) *StatusHandler {
	return &StatusHandler{Pipeline: p}
}

type StatusResponse struct {
	Version     string `json:"version"`
	OpenBatches int    `json:"openBatches"`
}

func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		Version:     Version,
		OpenBatches: h.Pipeline.Aggregator().OpenBatches(),
	})
}
