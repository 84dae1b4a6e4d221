package http

import (
	"encoding/json"
	"net/http"

	"github.com/edulab/elearn-backend/internal/content"
)

// GET /categories/
func ListCategoriesHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.ListCategories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

// GET /categories/{categoryID}
func GetCategoryHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "categoryID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		c, err := store.GetCategory(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// GET /categories/{categoryID}/children
func ListChildCategoriesHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "categoryID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		children, err := store.ListChildCategories(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, children)
	}
}

// POST /categories/
func CreateCategoryHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title    string `json:"title"`
			ParentID *int64 `json:"parent_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c, err := store.CreateCategory(r.Context(), req.Title, req.ParentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// PUT /categories/{categoryID}
func UpdateCategoryHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "categoryID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		var req struct {
			Title    *string `json:"title"`
			ParentID *int64  `json:"parent_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		c, err := store.UpdateCategory(r.Context(), id, req.Title, req.ParentID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// DELETE /categories/{categoryID}
func DeleteCategoryHandler(store *content.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "categoryID")
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteCategory(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
