package bank

import (
	"encoding/json"
	"net/http"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// SubjectInfo is one catalog entry enriched with what the bank actually
// holds for it.
type SubjectInfo struct {
	Key           string `json:"key"`
	Tag           string `json:"tag"`
	Name          string `json:"name"`
	Years         []int  `json:"years,omitempty"`
	LoadedYears   []int  `json:"loaded_years,omitempty"`
	QuestionCount int    `json:"question_count"`
}

type SubjectListResponse struct {
	Subjects []SubjectInfo `json:"subjects"`
	Total    int           `json:"total_questions"`
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	areas := h.repo.Catalog().Areas()
	resp := SubjectListResponse{Total: h.repo.Count()}
	for _, a := range areas {
		resp.Subjects = append(resp.Subjects, SubjectInfo{
			Key:           a.Key,
			Tag:           a.Tag,
			Name:          a.Name,
			Years:         a.Years,
			LoadedYears:   h.repo.Years(a.Tag),
			QuestionCount: h.repo.CountByTag(a.Tag),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
