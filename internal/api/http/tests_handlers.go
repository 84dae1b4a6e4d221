package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/exam"
	"github.com/edulab/elearn-backend/internal/rbac"
)

// GET /tests/
func ListTestsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tests, err := store.ListTests(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tests)
	}
}

// GET /tests/category/{categoryID}
func ListTestsByCategoryHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "categoryID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		tests, err := store.ListTestsByCategory(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tests)
	}
}

// GET /tests/{testID}
func GetTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "testID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		t, err := store.GetTest(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// GET /tests/full/{testID}. Learners get the snapshot without correctness
// flags; roles allowed to edit tests see the full thing.
func GetTestFullHandler(store exam.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "testID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		snap, err := store.GetTestSnapshot(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if !checker.Has(rbac.RoleFromContext(r.Context()), "test:edit") {
			snap = snap.StripAnswers()
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type testCreate struct {
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	MaxAttempts int    `json:"max_attempts"`
}

// POST /tests/
func CreateTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req testCreate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := store.CreateTest(r.Context(), req.CategoryID, req.Title, req.MaxAttempts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// POST /tests/full
func CreateTestFullHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req exam.NewTestFull
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := store.CreateTestFull(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// PUT /tests/{testID}
func UpdateTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "testID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var req struct {
			Title       *string `json:"title"`
			MaxAttempts *int    `json:"max_attempts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		t, err := store.UpdateTest(r.Context(), id, req.Title, req.MaxAttempts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// DELETE /tests/{testID}
func DeleteTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "testID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteTest(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
