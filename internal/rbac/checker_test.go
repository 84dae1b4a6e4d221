package rbac

import "testing"

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role string
		perm string
		want bool
	}{
		{"student", "content:view", true},
		{"student", "result:submit", true},
		{"student", "content:edit", false},
		{"student", "test:edit", false},
		{"student", "result:view-all", false},
		{"teacher", "test:edit", true},
		{"teacher", "assignment:view-all", true},
		{"teacher", "user:create", false},
		{"admin", "anything:at-all", true},
		{"admin", "result:delete", true},
		{"", "content:view", false},
		{"unknown-role", "content:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)

	if !c.Any("student", "result:view-own", "result:view-all") {
		t.Error("student should match result:view-own")
	}
	if c.Any("student", "result:view-all", "user:list") {
		t.Error("student should match neither")
	}
	if !c.Any("admin", "whatever") {
		t.Error("admin wildcard should match any")
	}
}

func TestCheckerPrefixWildcard(t *testing.T) {
	c := NewChecker(map[string][]string{
		"auditor": {"result:*"},
	})
	if !c.Has("auditor", "result:view-all") {
		t.Error("result:* should cover result:view-all")
	}
	if c.Has("auditor", "content:view") {
		t.Error("result:* should not cover content:view")
	}
}
