package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"renameflow/api"
	"renameflow/models"
	"renameflow/services/admission"
	"renameflow/services/pipeline"
)

// EventsHandler ingests inbound file events and feeds them to the
// rename pipeline.
type EventsHandler struct {
	Pipeline *pipeline.Service
}

func NewEventsHandler(p *pipeline.Service) *EventsHandler {
	return &EventsHandler{Pipeline: p}
}

// PostEvent accepts one file event. The owner always comes from the
// request context, never from the body.
func (h *EventsHandler) PostEvent(w http.ResponseWriter, r *http.Request) {
	var event models.FileEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	event.OwnerID = api.GetOwnerID(r)

	err := h.Pipeline.OnArrival(r.Context(), event)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	case errors.Is(err, pipeline.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, pipeline.UserMessage(err))
	case errors.Is(err, pipeline.ErrNoFormatTemplate):
		writeError(w, http.StatusPreconditionFailed, pipeline.UserMessage(err))
	case errors.Is(err, admission.ErrLimitReached):
		writeError(w, http.StatusTooManyRequests, pipeline.UserMessage(err))
	default:
		log.Printf("[events] arrival failed for owner %s: %v", event.OwnerID, err)
		writeError(w, http.StatusInternalServerError, "event processing failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
