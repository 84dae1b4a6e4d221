package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/content"
	"github.com/edulab/elearn-backend/internal/rbac"
)

// GET /assignments/ — admin/teacher see everything, students only what
// targets them (directly or through a group).
func ListAssignmentsHandler(store *content.SQLStore, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		if checker.Has(role, "assignment:view-all") {
			assignments, err := store.ListAssignments(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, assignments)
			return
		}
		assignments, err := store.ListAssignmentsForUser(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, assignments)
	}
}

// POST /assignments/
func CreateAssignmentHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CategoryID int64  `json:"category_id"`
			UserID     *int64 `json:"user_id"`
			GroupID    *int64 `json:"group_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.CreateAssignment(r.Context(),
			rbac.SubjectFromContext(r.Context()), req.CategoryID, req.UserID, req.GroupID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// DELETE /assignments/{assignmentID}
func DeleteAssignmentHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "assignmentID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteAssignment(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
