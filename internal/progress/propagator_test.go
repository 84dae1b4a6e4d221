package progress_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/edulab/elearn-backend/internal/db"
	"github.com/edulab/elearn-backend/internal/progress"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", t.Name())
	d, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func exec(t *testing.T, d *sql.DB, query string, args ...any) int64 {
	t.Helper()
	var id int64
	if err := d.QueryRow(query+" RETURNING id", args...).Scan(&id); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return id
}

// Two categories, two articles in the first and one in the second, a test on
// the first category.
type fixture struct {
	userID       int64
	articleA     int64
	articleB     int64
	articleOther int64
	testID       int64
}

func seed(t *testing.T, d *sql.DB) fixture {
	t.Helper()
	var f fixture
	f.userID = exec(t, d,
		`INSERT INTO users (username, password_hash, role, created_at) VALUES ('alice','x','student',0)`)
	cat1 := exec(t, d, `INSERT INTO categories (title) VALUES ('math')`)
	cat2 := exec(t, d, `INSERT INTO categories (title) VALUES ('physics')`)
	f.articleA = exec(t, d,
		`INSERT INTO articles (category_id, title, content, content_type, created_at) VALUES ($1,'a','...','markdown',0)`, cat1)
	f.articleB = exec(t, d,
		`INSERT INTO articles (category_id, title, content, content_type, created_at) VALUES ($1,'b','...','markdown',0)`, cat1)
	f.articleOther = exec(t, d,
		`INSERT INTO articles (category_id, title, content, content_type, created_at) VALUES ($1,'c','...','markdown',0)`, cat2)
	f.testID = exec(t, d,
		`INSERT INTO tests (category_id, title, max_attempts) VALUES ($1,'quiz',3)`, cat1)
	return f
}

func statusOf(t *testing.T, d *sql.DB, userID, articleID int64) string {
	t.Helper()
	var s string
	err := d.QueryRow(
		`SELECT status FROM progress WHERE user_id=$1 AND article_id=$2`, userID, articleID).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	return s
}

func TestPropagateTestPass(t *testing.T) {
	d := openTestDB(t)
	f := seed(t, d)
	p := progress.NewPropagator(d, zap.NewNop())
	ctx := context.Background()

	// One article already opened; the other has no row yet.
	if err := p.MarkViewed(ctx, f.userID, f.articleA); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	if err := p.PropagateTestPass(ctx, f.userID, f.testID); err != nil {
		t.Fatalf("PropagateTestPass: %v", err)
	}

	if got := statusOf(t, d, f.userID, f.articleA); got != progress.StatusDone {
		t.Fatalf("article A = %q, want done", got)
	}
	if got := statusOf(t, d, f.userID, f.articleB); got != progress.StatusDone {
		t.Fatalf("article B = %q, want done", got)
	}
	// The other category stays untouched.
	if got := statusOf(t, d, f.userID, f.articleOther); got != "" {
		t.Fatalf("other category's article = %q, want no row", got)
	}

	// Rerunning is idempotent.
	if err := p.PropagateTestPass(ctx, f.userID, f.testID); err != nil {
		t.Fatalf("second PropagateTestPass: %v", err)
	}
	var rows int
	if err := d.QueryRow(
		`SELECT COUNT(*) FROM progress WHERE user_id=$1`, f.userID).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != 2 {
		t.Fatalf("progress rows = %d, want 2", rows)
	}
}

func TestPropagateTestPassUnknownTest(t *testing.T) {
	d := openTestDB(t)
	seed(t, d)
	p := progress.NewPropagator(d, zap.NewNop())

	if err := p.PropagateTestPass(context.Background(), 1, 9999); err == nil {
		t.Fatal("unknown test must error")
	}
}

func TestMarkViewedDoesNotDowngrade(t *testing.T) {
	d := openTestDB(t)
	f := seed(t, d)
	p := progress.NewPropagator(d, zap.NewNop())
	ctx := context.Background()

	if err := p.Upsert(ctx, f.userID, f.articleA, progress.StatusDone); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := p.MarkViewed(ctx, f.userID, f.articleA); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	if got := statusOf(t, d, f.userID, f.articleA); got != progress.StatusDone {
		t.Fatalf("status = %q after view, want done", got)
	}
}
