package exam_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/edulab/elearn-backend/internal/db"
	"github.com/edulab/elearn-backend/internal/exam"
	"github.com/edulab/elearn-backend/internal/grading"
)

// openTestDB opens an in-memory sqlite database with the full schema applied.
// The name keeps each test's shared-cache database separate.
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

func seedUser(t *testing.T, d *sql.DB, username string) int64 {
	t.Helper()
	var id int64
	err := d.QueryRow(
		`INSERT INTO users (username, password_hash, role, created_at)
		 VALUES ($1, 'x', 'student', 0) RETURNING id`, username).Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedCategory(t *testing.T, d *sql.DB, title string) int64 {
	t.Helper()
	var id int64
	err := d.QueryRow(
		`INSERT INTO categories (title) VALUES ($1) RETURNING id`, title).Scan(&id)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

// seedTest builds a two-question test through the store and returns the
// snapshot plus an all-correct answer set.
func seedTest(t *testing.T, store *exam.SQLStore, categoryID int64, maxAttempts int) (exam.TestWithQuestions, []grading.Answer) {
	t.Helper()
	full, err := store.CreateTestFull(context.Background(), exam.NewTestFull{
		CategoryID:  categoryID,
		Title:       "basics",
		MaxAttempts: maxAttempts,
		Questions: []exam.NewQuestionFul{
			{Text: "q1", Weight: 2, Options: []exam.NewOption{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			}},
			{Text: "q2", Weight: 1, Options: []exam.NewOption{
				{Text: "wrong"},
				{Text: "right", IsCorrect: true},
			}},
		},
	})
	if err != nil {
		t.Fatalf("create test: %v", err)
	}
	answers := []grading.Answer{
		{QuestionID: full.Questions[0].ID, SelectedOptionID: full.Questions[0].Options[0].ID},
		{QuestionID: full.Questions[1].ID, SelectedOptionID: full.Questions[1].Options[1].ID},
	}
	return full, answers
}

func TestSQLStoreAttemptLimit(t *testing.T) {
	d := openTestDB(t)
	store := exam.NewSQLStore(d, "sqlite")
	ctx := context.Background()

	userID := seedUser(t, d, "alice")
	otherID := seedUser(t, d, "bob")
	categoryID := seedCategory(t, d, "math")
	full, answers := seedTest(t, store, categoryID, 2)
	graded := grading.Result{Score: 3, MaxScore: 3, Passed: true}

	for i := 0; i < 2; i++ {
		if _, err := store.CreateResult(ctx, userID, full.ID, graded, answers); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, err := store.CreateResult(ctx, userID, full.ID, graded, answers); !errors.Is(err, exam.ErrAttemptsExhausted) {
		t.Fatalf("third attempt: want ErrAttemptsExhausted, got %v", err)
	}

	// The limit is per user; another user still has all attempts.
	if _, err := store.CreateResult(ctx, otherID, full.ID, graded, answers); err != nil {
		t.Fatalf("other user's attempt: %v", err)
	}

	n, err := store.CountAttempts(ctx, userID, full.ID)
	if err != nil {
		t.Fatalf("CountAttempts: %v", err)
	}
	if n != 2 {
		t.Fatalf("attempts = %d, want 2", n)
	}
}

func TestSQLStoreDeleteResultCascadesToAnswers(t *testing.T) {
	d := openTestDB(t)
	store := exam.NewSQLStore(d, "sqlite")
	ctx := context.Background()

	userID := seedUser(t, d, "alice")
	categoryID := seedCategory(t, d, "math")
	full, answers := seedTest(t, store, categoryID, 3)

	result, err := store.CreateResult(ctx, userID, full.ID,
		grading.Result{Score: 3, MaxScore: 3, Passed: true}, answers)
	if err != nil {
		t.Fatalf("CreateResult: %v", err)
	}
	stored, err := store.ListAnswersByResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("ListAnswersByResult: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("answers = %d, want 2", len(stored))
	}

	if err := store.DeleteResult(ctx, result.ID); err != nil {
		t.Fatalf("DeleteResult: %v", err)
	}
	var orphans int
	if err := d.QueryRow(
		`SELECT COUNT(*) FROM test_answers WHERE test_result_id=$1`, result.ID).Scan(&orphans); err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("%d answer rows survived the result delete", orphans)
	}
}

func TestSQLStoreSnapshotAssembly(t *testing.T) {
	d := openTestDB(t)
	store := exam.NewSQLStore(d, "sqlite")
	ctx := context.Background()

	categoryID := seedCategory(t, d, "math")
	full, _ := seedTest(t, store, categoryID, 3)

	snap, err := store.GetTestSnapshot(ctx, full.ID)
	if err != nil {
		t.Fatalf("GetTestSnapshot: %v", err)
	}
	if len(snap.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(snap.Questions))
	}
	if snap.Questions[0].Weight != 2 || snap.Questions[1].Weight != 1 {
		t.Fatalf("weights = %d/%d, want 2/1", snap.Questions[0].Weight, snap.Questions[1].Weight)
	}
	for _, q := range snap.Questions {
		if len(q.Options) != 2 {
			t.Fatalf("question %d has %d options, want 2", q.ID, len(q.Options))
		}
		for _, o := range q.Options {
			if o.QuestionID != q.ID {
				t.Fatalf("option %d grouped under question %d, belongs to %d", o.ID, q.ID, o.QuestionID)
			}
		}
	}

	if _, err := store.GetTestSnapshot(ctx, 9999); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("missing test: want ErrNotFound, got %v", err)
	}
}

func TestSQLStoreRejectsNonPositiveAttempts(t *testing.T) {
	d := openTestDB(t)
	store := exam.NewSQLStore(d, "sqlite")
	ctx := context.Background()

	categoryID := seedCategory(t, d, "math")
	created, err := store.CreateTest(ctx, categoryID, "basics", 2)
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}

	for _, bad := range []int{0, -1} {
		v := bad
		if _, err := store.UpdateTest(ctx, created.ID, nil, &v); !errors.Is(err, exam.ErrInvalidAttempts) {
			t.Fatalf("UpdateTest(%d): want ErrInvalidAttempts, got %v", bad, err)
		}
	}
	got, err := store.GetTest(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if got.MaxAttempts != 2 {
		t.Fatalf("max_attempts = %d after rejected updates, want 2", got.MaxAttempts)
	}

	if _, err := store.CreateTest(ctx, categoryID, "bad", -1); !errors.Is(err, exam.ErrInvalidAttempts) {
		t.Fatalf("CreateTest(-1): want ErrInvalidAttempts, got %v", err)
	}
}
