package exam

import (
	"context"

	"go.uber.org/zap"

	"github.com/edulab/elearn-backend/internal/grading"
)

// Actor is the authenticated caller, as the access guard sees it.
type Actor struct {
	ID   int64
	Role string
}

func (a Actor) isAdmin() bool { return a.Role == "admin" }

// Propagator advances a learner's reading progress after a passing result.
type Propagator interface {
	PropagateTestPass(ctx context.Context, userID, testID int64) error
}

// Service runs the submission pipeline: authorize, assemble snapshot, grade,
// persist, propagate. Viewing and deleting results go through it too so the
// ownership rules live in one place.
type Service struct {
	store      Store
	engine     *grading.Engine
	propagator Propagator
	log        *zap.Logger
}

func NewService(store Store, engine *grading.Engine, propagator Propagator, log *zap.Logger) *Service {
	return &Service{store: store, engine: engine, propagator: propagator, log: log}
}

// Submit grades answers for (userID, testID) and records the outcome.
// Validation happens entirely before any write; propagation happens only
// after the result is durably committed and never fails the submission.
func (s *Service) Submit(ctx context.Context, actor Actor, userID, testID int64, answers []grading.Answer) (TestResult, error) {
	if !actor.isAdmin() && actor.ID != userID {
		return TestResult{}, ErrForbidden
	}

	snap, err := s.store.GetTestSnapshot(ctx, testID)
	if err != nil {
		return TestResult{}, err
	}

	// Cheap pre-check so an exhausted user is rejected before grading. The
	// authoritative check reruns inside CreateResult's transaction.
	attempts, err := s.store.CountAttempts(ctx, userID, testID)
	if err != nil {
		return TestResult{}, err
	}
	if attempts >= snap.MaxAttempts {
		return TestResult{}, ErrAttemptsExhausted
	}

	graded, err := s.engine.Grade(toGradingSnapshot(snap), answers)
	if err != nil {
		return TestResult{}, err
	}

	result, err := s.store.CreateResult(ctx, userID, testID, graded, answers)
	if err != nil {
		return TestResult{}, err
	}

	if graded.Passed {
		if err := s.propagator.PropagateTestPass(ctx, userID, testID); err != nil {
			// The result is already committed; progress can be caught up on a
			// later pass or article view.
			s.log.Error("progress propagation failed",
				zap.Int64("user_id", userID),
				zap.Int64("test_id", testID),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

func (s *Service) GetResult(ctx context.Context, actor Actor, id int64) (TestResult, error) {
	r, err := s.store.GetResult(ctx, id)
	if err != nil {
		return TestResult{}, err
	}
	if !actor.isAdmin() && r.UserID != actor.ID {
		return TestResult{}, ErrForbidden
	}
	return r, nil
}

// ListResults denies unfiltered listings to non-admins so a learner cannot
// enumerate everyone's results.
func (s *Service) ListResults(ctx context.Context, actor Actor, opts ResultListOpts) ([]TestResult, error) {
	if !actor.isAdmin() && opts.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return s.store.ListResults(ctx, opts)
}

func (s *Service) ListAnswers(ctx context.Context, actor Actor, resultID int64) ([]TestAnswer, error) {
	r, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && r.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return s.store.ListAnswersByResult(ctx, resultID)
}

func (s *Service) DeleteResult(ctx context.Context, actor Actor, id int64) error {
	if !actor.isAdmin() {
		return ErrForbidden
	}
	return s.store.DeleteResult(ctx, id)
}

func toGradingSnapshot(t TestWithQuestions) grading.Snapshot {
	snap := grading.Snapshot{TestID: t.ID, Questions: make([]grading.Question, 0, len(t.Questions))}
	for _, q := range t.Questions {
		gq := grading.Question{ID: q.ID, Weight: q.Weight, Options: make([]grading.Option, 0, len(q.Options))}
		for _, o := range q.Options {
			gq.Options = append(gq.Options, grading.Option{ID: o.ID, IsCorrect: o.IsCorrect})
		}
		snap.Questions = append(snap.Questions, gq)
	}
	return snap
}
