package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edulab/elearn-backend/internal/rbac"
)

type userRow struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	FullName  string `json:"full_name,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// GET /users/?role=
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var (
			rows *sql.Rows
			err  error
		)
		if role == "" {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, username, role, COALESCE(full_name,''), created_at FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(),
				`SELECT id, username, role, COALESCE(full_name,''), created_at FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []userRow{}
		for rows.Next() {
			var u userRow
			if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.FullName, &u.CreatedAt); err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /users/
func CreateUserHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
			FullName string `json:"full_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		switch req.Role {
		case "admin", "teacher", "student":
		default:
			http.Error(w, "bad role", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		u := userRow{Username: req.Username, Role: req.Role, FullName: req.FullName, CreatedAt: time.Now().Unix()}
		err = db.QueryRowContext(r.Context(),
			`INSERT INTO users (username, password_hash, role, full_name, created_at)
			 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
			u.Username, string(hash), u.Role, u.FullName, u.CreatedAt).Scan(&u.ID)
		if err != nil {
			http.Error(w, "username taken", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

// GET /auth/me
func MeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		var u userRow
		err := db.QueryRowContext(r.Context(),
			`SELECT id, username, role, COALESCE(full_name,''), created_at FROM users WHERE id=$1`, sub,
		).Scan(&u.ID, &u.Username, &u.Role, &u.FullName, &u.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// POST /users/change-password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.NewPassword) < 8 {
			http.Error(w, "password too short", http.StatusBadRequest)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		var hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT password_hash FROM users WHERE id=$1`, sub).Scan(&hash)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.OldPassword)) != nil {
			http.Error(w, "wrong password", http.StatusForbidden)
			return
		}
		newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(),
			`UPDATE users SET password_hash=$1 WHERE id=$2`, string(newHash), sub); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
