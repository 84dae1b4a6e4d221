package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/exam"
)

// GET /questions/test/{testID}
func ListQuestionsByTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "testID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		questions, err := store.ListQuestionsByTest(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

// GET /questions/{questionID}
func GetQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// POST /questions/
func CreateQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID int64  `json:"test_id"`
			Text   string `json:"text"`
			Weight int    `json:"weight"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q, err := store.CreateQuestion(r.Context(), req.TestID, req.Text, req.Weight)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /questions/{questionID}
func UpdateQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var req struct {
			Text   *string `json:"text"`
			Weight *int    `json:"weight"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q, err := store.UpdateQuestion(r.Context(), id, req.Text, req.Weight)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /questions/{questionID}
func DeleteQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteQuestion(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
