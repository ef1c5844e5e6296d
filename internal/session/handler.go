package session

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rccm-prep/backend/internal/catalog"
	"github.com/rccm-prep/backend/internal/models"
	"github.com/rccm-prep/backend/internal/selection"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	state, insufficient, err := h.engine.Start(r.Context(), userID, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.StartSessionResponse{
		SessionID:    state.ID,
		SubjectTag:   state.SubjectTag,
		Review:       false,
		Total:        len(state.Questions),
		Insufficient: insufficient,
	})
}

func (h *Handler) StartReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.StartReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	state, insufficient, err := h.engine.StartReview(r.Context(), userID, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.StartSessionResponse{
		SessionID:    state.ID,
		SubjectTag:   state.SubjectTag,
		Review:       true,
		Total:        len(state.Questions),
		Insufficient: insufficient,
	})
}

func (h *Handler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}
	sessionID := mux.Vars(r)["id"]

	served, err := h.engine.CurrentQuestion(r.Context(), sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, served)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}
	sessionID := mux.Vars(r)["id"]

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if _, ok := models.NormalizeOption(req.Chosen); !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "chosen must be one of A, B, C, D"})
		return
	}

	resp, err := h.engine.SubmitAnswer(r.Context(), sessionID, req)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}
	sessionID := mux.Vars(r)["id"]

	resp, err := h.engine.Advance(r.Context(), sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	if _, ok := getUserID(r); !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}
	sessionID := mux.Vars(r)["id"]

	summary, err := h.engine.Finalize(r.Context(), sessionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// writeEngineError maps the engine's typed errors onto HTTP statuses,
// keeping the error kind visible to the caller.
func writeEngineError(w http.ResponseWriter, err error) {
	var (
		notFound   *SessionNotFoundError
		closed     *SessionClosedError
		outOfSeq   *OutOfSequenceError
		unknown    *catalog.UnknownSubjectError
		badYear    *selection.YearOutOfRangeError
		integrity  *selection.IntegrityViolationError
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &closed):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &outOfSeq):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &badYear):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.As(err, &integrity):
		log.Printf("ERROR: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "selection integrity check failed"})
	case errors.Is(err, ErrSessionInProgress):
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
	default:
		log.Printf("ERROR: session: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
