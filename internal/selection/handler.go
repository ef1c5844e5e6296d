package selection

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/rccm-prep/backend/internal/catalog"
	"github.com/rccm-prep/backend/internal/models"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Select exposes the question-sourcing surface directly: refs only, no
// session. Clients that manage their own progression use this.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req models.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Count <= 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "count must be positive"})
		return
	}

	result, err := h.engine.Select(req)
	if err != nil {
		var (
			unknown   *catalog.UnknownSubjectError
			badYear   *YearOutOfRangeError
			integrity *IntegrityViolationError
		)
		switch {
		case errors.As(err, &unknown):
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		case errors.As(err, &badYear):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		case errors.As(err, &integrity):
			log.Printf("ERROR: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "selection integrity check failed"})
		default:
			log.Printf("ERROR: selection: %v", err)
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
