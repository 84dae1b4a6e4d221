package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/edulab/elearn-backend/internal/content"
	"github.com/edulab/elearn-backend/internal/progress"
	"github.com/edulab/elearn-backend/internal/rbac"
)

// GET /articles/
func ListArticlesHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := store.ListArticles(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, articles)
	}
}

// GET /articles/category/{categoryID}
func ListArticlesByCategoryHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "categoryID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		articles, err := store.ListArticlesByCategory(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, articles)
	}
}

// GET /articles/{articleID}. Viewing an article lazily opens an in_progress
// row for the viewer; failure there must not break the read.
func GetArticleHandler(store *content.SQLStore, tracker *progress.Propagator, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "articleID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		a, err := store.GetArticle(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if uid := rbac.SubjectFromContext(r.Context()); uid != 0 {
			if err := tracker.MarkViewed(r.Context(), uid, id); err != nil {
				log.Warn("mark article viewed failed",
					zap.Int64("user_id", uid),
					zap.Int64("article_id", id),
					zap.Error(err),
				)
			}
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /articles/
func CreateArticleHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CategoryID  int64  `json:"category_id"`
			Title       string `json:"title"`
			Content     string `json:"content"`
			ContentType string `json:"content_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ContentType == "" {
			req.ContentType = "markdown"
		}
		a, err := store.CreateArticle(r.Context(), req.CategoryID, req.Title, req.Content, req.ContentType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// PUT /articles/{articleID}
func UpdateArticleHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "articleID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var req struct {
			Title       *string `json:"title"`
			Content     *string `json:"content"`
			ContentType *string `json:"content_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := store.UpdateArticle(r.Context(), id, req.Title, req.Content, req.ContentType)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// DELETE /articles/{articleID}
func DeleteArticleHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "articleID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteArticle(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
