package handlers

import (
	"encoding/json"
	"net/http"
)

// Version is stamped at build time:
//
//	go build -ldflags "-X renameflow/handlers.Version=v1.2.3"
var Version = "dev"

type VersionHandler struct{}

type VersionResponse struct {
	Version string `json:"version"`
}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VersionResponse{Version: Version})
}
