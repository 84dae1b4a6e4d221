package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/progress"
	"github.com/edulab/elearn-backend/internal/rbac"
)

// GET /progress/?user_id=&article_id=
// Non-admins may only see their own rows; an unfiltered request is forced to
// the caller's own user id rather than enumerating everyone.
func ListProgressHandler(tracker *progress.Propagator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := queryID(r, "user_id")
		articleID := queryID(r, "article_id")

		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if role != "admin" {
			if userID != 0 && userID != sub {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			userID = sub
		}

		entries, err := tracker.List(r.Context(), userID, articleID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// PUT /progress/
func UpsertProgressHandler(tracker *progress.Propagator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID    int64  `json:"user_id"`
			ArticleID int64  `json:"article_id"`
			Status    string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if req.UserID == 0 {
			req.UserID = sub
		}
		if role != "admin" && req.UserID != sub {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		switch req.Status {
		case progress.StatusNotStarted, progress.StatusInProgress, progress.StatusDone:
		default:
			http.Error(w, "bad status", http.StatusBadRequest)
			return
		}
		if err := tracker.Upsert(r.Context(), req.UserID, req.ArticleID, req.Status); err != nil {
			writeError(w, err)
			return
		}
		entries, err := tracker.List(r.Context(), req.UserID, req.ArticleID)
		if err != nil || len(entries) == 0 {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries[0])
	}
}

// DELETE /progress/{progressID} (admin only, enforced by the router)
func DeleteProgressHandler(tracker *progress.Propagator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "progressID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := tracker.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
