package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/exam"
	"github.com/edulab/elearn-backend/internal/grading"
)

// submitRequest mirrors the historical wire shape; score, max_score and passed
// are accepted but ignored — grading is server-side.
type submitRequest struct {
	UserID  int64            `json:"user_id"`
	TestID  int64            `json:"test_id"`
	Score   *float64         `json:"score,omitempty"`
	Passed  *bool            `json:"passed,omitempty"`
	Answers []grading.Answer `json:"answers"`
}

// POST /test-results/
func SubmitResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		actor := actorFrom(r)
		if req.UserID == 0 {
			req.UserID = actor.ID
		}
		result, err := svc.Submit(r.Context(), actor, req.UserID, req.TestID, req.Answers)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// GET /test-results/?user_id=&test_id=
func ListResultsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := exam.ResultListOpts{
			UserID: queryID(r, "user_id"),
			TestID: queryID(r, "test_id"),
		}
		results, err := svc.ListResults(r.Context(), actorFrom(r), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// GET /test-results/{resultID}
func GetResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "resultID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		result, err := svc.GetResult(r.Context(), actorFrom(r), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// GET /test-results/{resultID}/answers
func ListResultAnswersHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "resultID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		answers, err := svc.ListAnswers(r.Context(), actorFrom(r), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, answers)
	}
}

// DELETE /test-results/{resultID}
func DeleteResultHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "resultID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := svc.DeleteResult(r.Context(), actorFrom(r), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
