package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/content"
)

// GET /media/article/{articleID}
func ListMediaByArticleHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "articleID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		items, err := store.ListMediaByArticle(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// POST /media/
func CreateMediaHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ArticleID int64  `json:"article_id"`
			MediaType string `json:"media_type"`
			URL       string `json:"url"`
			SortOrder int    `json:"sort_order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		m, err := store.CreateMedia(r.Context(), req.ArticleID, req.MediaType, req.URL, req.SortOrder)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

// DELETE /media/{mediaID}
func DeleteMediaHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "mediaID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteMedia(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
