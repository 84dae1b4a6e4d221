package rbac

import (
	"context"
	"strings"
)

type Checker struct {
	RolePermissions map[string][]string
}

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	perms, ok := c.RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == "*" || matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- identity in context ----

type ctxKey int

const (
	ctxKeyRole ctxKey = iota
	ctxKeySubject
)

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRole).(string); ok {
		return s
	}
	return ""
}

// WithSubject stores the authenticated user's id.
func WithSubject(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKeySubject, id)
}

func SubjectFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(ctxKeySubject).(int64); ok {
		return v
	}
	return 0
}
