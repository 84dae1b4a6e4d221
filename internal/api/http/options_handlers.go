package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/exam"
)

// GET /options/question/{questionID}
func ListOptionsByQuestionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "questionID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		options, err := store.ListOptionsByQuestion(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, options)
	}
}

// POST /options/
func CreateOptionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID int64  `json:"question_id"`
			Text       string `json:"text"`
			IsCorrect  bool   `json:"is_correct"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		o, err := store.CreateOption(r.Context(), req.QuestionID, req.Text, req.IsCorrect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, o)
	}
}

// PUT /options/{optionID}
func UpdateOptionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "optionID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var req struct {
			Text      *string `json:"text"`
			IsCorrect *bool   `json:"is_correct"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		o, err := store.UpdateOption(r.Context(), id, req.Text, req.IsCorrect)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

// DELETE /options/{optionID}
func DeleteOptionHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "optionID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteOption(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
