package exam

import (
	"context"

	"github.com/edulab/elearn-backend/internal/grading"
)

type ResultListOpts struct {
	UserID int64 // 0 = no filter
	TestID int64 // 0 = no filter
}

// NewTestFull is the payload for creating a test together with its questions
// and options in one transaction.
type NewTestFull struct {
	CategoryID  int64            `json:"category_id"`
	Title       string           `json:"title"`
	MaxAttempts int              `json:"max_attempts"`
	Questions   []NewQuestionFul `json:"questions"`
}

type NewQuestionFul struct {
	Text    string      `json:"text"`
	Weight  int         `json:"weight"`
	Options []NewOption `json:"options"`
}

type NewOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Store interface {
	// Tests
	GetTest(ctx context.Context, id int64) (Test, error)
	ListTests(ctx context.Context) ([]Test, error)
	ListTestsByCategory(ctx context.Context, categoryID int64) ([]Test, error)
	CreateTest(ctx context.Context, categoryID int64, title string, maxAttempts int) (Test, error)
	UpdateTest(ctx context.Context, id int64, title *string, maxAttempts *int) (Test, error)
	DeleteTest(ctx context.Context, id int64) error
	CreateTestFull(ctx context.Context, in NewTestFull) (TestWithQuestions, error)

	// Snapshot assembly: test + all questions + all options, one consistent view.
	GetTestSnapshot(ctx context.Context, testID int64) (TestWithQuestions, error)

	// Questions
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestionsByTest(ctx context.Context, testID int64) ([]Question, error)
	CreateQuestion(ctx context.Context, testID int64, text string, weight int) (Question, error)
	UpdateQuestion(ctx context.Context, id int64, text *string, weight *int) (Question, error)
	DeleteQuestion(ctx context.Context, id int64) error

	// Answer options
	GetOption(ctx context.Context, id int64) (AnswerOption, error)
	ListOptionsByQuestion(ctx context.Context, questionID int64) ([]AnswerOption, error)
	CreateOption(ctx context.Context, questionID int64, text string, isCorrect bool) (AnswerOption, error)
	UpdateOption(ctx context.Context, id int64, text *string, isCorrect *bool) (AnswerOption, error)
	DeleteOption(ctx context.Context, id int64) error

	// Results. CreateResult enforces the attempt limit and writes the result
	// row plus all answer rows in one transaction. CountAttempts is the cheap
	// read used to reject an exhausted user before grading.
	CountAttempts(ctx context.Context, userID, testID int64) (int, error)
	CreateResult(ctx context.Context, userID, testID int64, graded grading.Result, answers []grading.Answer) (TestResult, error)
	GetResult(ctx context.Context, id int64) (TestResult, error)
	ListResults(ctx context.Context, opts ResultListOpts) ([]TestResult, error)
	ListAnswersByResult(ctx context.Context, resultID int64) ([]TestAnswer, error)
	DeleteResult(ctx context.Context, id int64) error
}
