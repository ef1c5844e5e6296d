package review

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/rccm-prep/backend/internal/models"
)

type Handler struct {
	scheduler *Scheduler
}

func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) DueSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	refs, err := h.scheduler.DueSet(r.Context(), userID, time.Now())
	if err != nil {
		log.Printf("ERROR: review: due set for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load due set"})
		return
	}
	writeJSON(w, http.StatusOK, models.DueSetResponse{Refs: refs, Count: len(refs)})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.ResetMasteryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Ref.SubjectTag == "" || req.Ref.ID <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "ref is required"})
		return
	}

	if err := h.scheduler.Reset(r.Context(), userID, req.Ref); err != nil {
		log.Printf("ERROR: review: reset %s for user %d: %v", req.Ref, userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to reset question"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	summary, err := h.scheduler.Summary(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: review: summary for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load summary"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
