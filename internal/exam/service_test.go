package exam

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/edulab/elearn-backend/internal/grading"
)

// fakeStore embeds Store so only the methods a test exercises need stubbing;
// anything else panics loudly.
type fakeStore struct {
	Store

	snapshot    TestWithQuestions
	snapshotErr error

	attempts      int
	createErr     error
	createCalls   int
	createdGraded grading.Result

	result    TestResult
	resultErr error

	deleted []int64
}

func (f *fakeStore) GetTestSnapshot(ctx context.Context, testID int64) (TestWithQuestions, error) {
	if f.snapshotErr != nil {
		return TestWithQuestions{}, f.snapshotErr
	}
	return f.snapshot, nil
}

func (f *fakeStore) CountAttempts(ctx context.Context, userID, testID int64) (int, error) {
	return f.attempts, nil
}

func (f *fakeStore) CreateResult(ctx context.Context, userID, testID int64, graded grading.Result, answers []grading.Answer) (TestResult, error) {
	f.createCalls++
	f.createdGraded = graded
	if f.createErr != nil {
		return TestResult{}, f.createErr
	}
	return TestResult{
		ID:       1,
		UserID:   userID,
		TestID:   testID,
		Score:    float64(graded.Score),
		MaxScore: float64(graded.MaxScore),
		Passed:   graded.Passed,
	}, nil
}

func (f *fakeStore) GetResult(ctx context.Context, id int64) (TestResult, error) {
	if f.resultErr != nil {
		return TestResult{}, f.resultErr
	}
	return f.result, nil
}

func (f *fakeStore) ListResults(ctx context.Context, opts ResultListOpts) ([]TestResult, error) {
	return []TestResult{f.result}, nil
}

func (f *fakeStore) ListAnswersByResult(ctx context.Context, resultID int64) ([]TestAnswer, error) {
	return []TestAnswer{{ID: 1, TestResultID: resultID, QuestionID: 1, SelectedOptionID: 11}}, nil
}

func (f *fakeStore) DeleteResult(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePropagator struct {
	calls int
	err   error
}

func (f *fakePropagator) PropagateTestPass(ctx context.Context, userID, testID int64) error {
	f.calls++
	return f.err
}

func snapshotFixture() TestWithQuestions {
	return TestWithQuestions{
		Test: Test{ID: 10, CategoryID: 1, Title: "basics", MaxAttempts: 3},
		Questions: []QuestionWithOptions{
			{
				Question: Question{ID: 1, TestID: 10, Text: "q1", Weight: 2},
				Options: []AnswerOption{
					{ID: 11, QuestionID: 1, IsCorrect: true},
					{ID: 12, QuestionID: 1},
				},
			},
			{
				Question: Question{ID: 2, TestID: 10, Text: "q2", Weight: 1},
				Options: []AnswerOption{
					{ID: 21, QuestionID: 2},
					{ID: 22, QuestionID: 2, IsCorrect: true},
				},
			},
		},
	}
}

func newTestService(store *fakeStore, prop *fakePropagator) *Service {
	return NewService(store, grading.NewEngine(100), prop, zap.NewNop())
}

func TestSubmitPassPropagates(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture()}
	prop := &fakePropagator{}
	svc := newTestService(store, prop)

	res, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 10, []grading.Answer{
		{QuestionID: 1, SelectedOptionID: 11},
		{QuestionID: 2, SelectedOptionID: 22},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Passed || res.Score != 3 || res.MaxScore != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if prop.calls != 1 {
		t.Fatalf("propagator calls = %d, want 1", prop.calls)
	}
}

func TestSubmitFailDoesNotPropagate(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture()}
	prop := &fakePropagator{}
	svc := newTestService(store, prop)

	res, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 10, []grading.Answer{
		{QuestionID: 1, SelectedOptionID: 12},
		{QuestionID: 2, SelectedOptionID: 22},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Passed {
		t.Fatalf("result should not pass: %+v", res)
	}
	if prop.calls != 0 {
		t.Fatalf("propagator calls = %d, want 0", prop.calls)
	}
}

func TestSubmitPropagationFailureDoesNotFailSubmission(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture()}
	prop := &fakePropagator{err: errors.New("db down")}
	svc := newTestService(store, prop)

	res, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 10, []grading.Answer{
		{QuestionID: 1, SelectedOptionID: 11},
		{QuestionID: 2, SelectedOptionID: 22},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.Passed {
		t.Fatalf("result should pass: %+v", res)
	}
}

func TestSubmitForbiddenForOtherUser(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture()}
	svc := newTestService(store, &fakePropagator{})

	_, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 6, 10, nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("CreateResult must not be called")
	}
}

func TestSubmitAdminOnBehalfOfUser(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture()}
	svc := newTestService(store, &fakePropagator{})

	res, err := svc.Submit(context.Background(), Actor{ID: 1, Role: "admin"}, 6, 10, []grading.Answer{
		{QuestionID: 1, SelectedOptionID: 11},
		{QuestionID: 2, SelectedOptionID: 22},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.UserID != 6 {
		t.Fatalf("result recorded for user %d, want 6", res.UserID)
	}
}

func TestSubmitInvalidAnswersNeverPersisted(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture()}
	svc := newTestService(store, &fakePropagator{})

	// Incomplete submission: question 2 unanswered.
	_, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 10, []grading.Answer{
		{QuestionID: 1, SelectedOptionID: 11},
	})
	var ie *grading.IncompleteSubmissionError
	if !errors.As(err, &ie) {
		t.Fatalf("want IncompleteSubmissionError, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("CreateResult must not be called on validation failure")
	}
}

func TestSubmitUnknownTest(t *testing.T) {
	store := &fakeStore{snapshotErr: ErrNotFound}
	svc := newTestService(store, &fakePropagator{})

	_, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 99, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSubmitAttemptsExhaustedBeforeGrading(t *testing.T) {
	// All 3 attempts used up: the submission is rejected before any write,
	// even with answers that would not grade cleanly.
	store := &fakeStore{snapshot: snapshotFixture(), attempts: 3}
	svc := newTestService(store, &fakePropagator{})

	_, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 10, []grading.Answer{
		{QuestionID: 99, SelectedOptionID: 1},
	})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("want ErrAttemptsExhausted, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("CreateResult must not be called")
	}
}

func TestSubmitAttemptsExhausted(t *testing.T) {
	store := &fakeStore{snapshot: snapshotFixture(), createErr: ErrAttemptsExhausted}
	prop := &fakePropagator{}
	svc := newTestService(store, prop)

	_, err := svc.Submit(context.Background(), Actor{ID: 5, Role: "student"}, 5, 10, []grading.Answer{
		{QuestionID: 1, SelectedOptionID: 11},
		{QuestionID: 2, SelectedOptionID: 22},
	})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("want ErrAttemptsExhausted, got %v", err)
	}
	if prop.calls != 0 {
		t.Fatalf("no propagation after a rejected attempt")
	}
}

func TestGetResultOwnership(t *testing.T) {
	store := &fakeStore{result: TestResult{ID: 7, UserID: 5}}
	svc := newTestService(store, &fakePropagator{})

	if _, err := svc.GetResult(context.Background(), Actor{ID: 5, Role: "student"}, 7); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetResult(context.Background(), Actor{ID: 6, Role: "student"}, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := svc.GetResult(context.Background(), Actor{ID: 1, Role: "admin"}, 7); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestListResultsGuard(t *testing.T) {
	store := &fakeStore{result: TestResult{ID: 7, UserID: 5}}
	svc := newTestService(store, &fakePropagator{})

	if _, err := svc.ListResults(context.Background(), Actor{ID: 5, Role: "student"}, ResultListOpts{UserID: 5}); err != nil {
		t.Fatalf("own list: %v", err)
	}
	if _, err := svc.ListResults(context.Background(), Actor{ID: 5, Role: "student"}, ResultListOpts{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unfiltered list should be forbidden, got %v", err)
	}
	if _, err := svc.ListResults(context.Background(), Actor{ID: 5, Role: "student"}, ResultListOpts{UserID: 6}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("cross-user list should be forbidden, got %v", err)
	}
	if _, err := svc.ListResults(context.Background(), Actor{ID: 1, Role: "admin"}, ResultListOpts{}); err != nil {
		t.Fatalf("admin list: %v", err)
	}
}

func TestListAnswersOwnership(t *testing.T) {
	store := &fakeStore{result: TestResult{ID: 7, UserID: 5}}
	svc := newTestService(store, &fakePropagator{})

	if _, err := svc.ListAnswers(context.Background(), Actor{ID: 6, Role: "student"}, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	answers, err := svc.ListAnswers(context.Background(), Actor{ID: 5, Role: "student"}, 7)
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if len(answers) != 1 {
		t.Fatalf("answers = %d, want 1", len(answers))
	}
}

func TestDeleteResultAdminOnly(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakePropagator{})

	if err := svc.DeleteResult(context.Background(), Actor{ID: 5, Role: "teacher"}, 7); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := svc.DeleteResult(context.Background(), Actor{ID: 1, Role: "admin"}, 7); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != 7 {
		t.Fatalf("deleted = %v, want [7]", store.deleted)
	}
}

func TestStripAnswers(t *testing.T) {
	snap := snapshotFixture()
	stripped := snap.StripAnswers()

	for _, q := range stripped.Questions {
		for _, o := range q.Options {
			if o.IsCorrect {
				t.Fatalf("option %d still flags the answer key", o.ID)
			}
		}
	}
	// The original must be untouched.
	if !snap.Questions[0].Options[0].IsCorrect {
		t.Fatalf("StripAnswers mutated its receiver")
	}
}
