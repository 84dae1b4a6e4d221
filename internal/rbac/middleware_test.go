package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultIsSharedWithMiddleware(t *testing.T) {
	if Default() != defaultChecker {
		t.Fatal("Default() must return the checker the middleware consults")
	}
	if Default() != Default() {
		t.Fatal("Default() must always return the same instance")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name       string
		role       string
		guard      func(http.Handler) http.Handler
		wantStatus int
	}{
		{"teacher may edit", "teacher", Require("content:edit"), http.StatusOK},
		{"student may not edit", "student", Require("content:edit"), http.StatusForbidden},
		{"admin wildcard", "admin", Require("result:delete"), http.StatusOK},
		{"no role", "", Require("content:view"), http.StatusForbidden},
		{"any matches own", "student", RequireAny("result:view-own", "result:view-all"), http.StatusOK},
		{"any matches none", "student", RequireAny("user:list", "user:create"), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.role != "" {
				req = req.WithContext(WithRole(req.Context(), tc.role))
			}
			rec := httptest.NewRecorder()
			tc.guard(ok).ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
