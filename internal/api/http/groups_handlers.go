package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/content"
)

// GET /groups/
func ListGroupsHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := store.ListGroups(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

// POST /groups/
func CreateGroupHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		g, err := store.CreateGroup(r.Context(), req.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

// POST /groups/{groupID}/members
func AddGroupMemberHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := pathID(r, "groupID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var req struct {
			UserID int64 `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := store.AddGroupMember(r.Context(), groupID, req.UserID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /groups/{groupID}/members/{userID}
func RemoveGroupMemberHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := pathID(r, "groupID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		userID, err := pathID(r, "userID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.RemoveGroupMember(r.Context(), groupID, userID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
