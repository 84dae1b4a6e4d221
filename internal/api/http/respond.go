package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edulab/elearn-backend/internal/content"
	"github.com/edulab/elearn-backend/internal/exam"
	"github.com/edulab/elearn-backend/internal/grading"
	"github.com/edulab/elearn-backend/internal/progress"
	"github.com/edulab/elearn-backend/internal/rbac"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unknown questions get 404 and
// foreign options 400, matching the submission endpoint's historical contract.
func writeError(w http.ResponseWriter, err error) {
	var (
		notInTest  *grading.QuestionNotInTestError
		badOption  *grading.InvalidOptionError
		incomplete *grading.IncompleteSubmissionError
	)
	switch {
	case errors.Is(err, exam.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, progress.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, exam.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, exam.ErrAttemptsExhausted):
		http.Error(w, "max attempts reached", http.StatusConflict)
	case errors.As(err, &notInTest):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &badOption), errors.As(err, &incomplete):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, exam.ErrInvalidWeight),
		errors.Is(err, exam.ErrInvalidAttempts),
		errors.Is(err, content.ErrInvalidTarget),
		errors.Is(err, content.ErrInvalidContent),
		errors.Is(err, content.ErrInvalidMedia):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func actorFrom(r *http.Request) exam.Actor {
	return exam.Actor{
		ID:   rbac.SubjectFromContext(r.Context()),
		Role: rbac.RoleFromContext(r.Context()),
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func queryID(r *http.Request, name string) int64 {
	v, _ := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	return v
}
