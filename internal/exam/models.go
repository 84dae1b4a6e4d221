package exam

type Test struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	MaxAttempts int    `json:"max_attempts"`
}

type Question struct {
	ID     int64  `json:"id"`
	TestID int64  `json:"test_id"`
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

type AnswerOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct,omitempty"`
}

// QuestionWithOptions and TestWithQuestions are response-assembly structs: the
// snapshot assembler builds them instead of patching child lists onto the
// persisted entities.
type QuestionWithOptions struct {
	Question
	Options []AnswerOption `json:"options"`
}

type TestWithQuestions struct {
	Test
	Questions []QuestionWithOptions `json:"questions"`
}

// StripAnswers clears correctness flags so the snapshot can be served to a
// learner without leaking the answer key.
func (t TestWithQuestions) StripAnswers() TestWithQuestions {
	out := t
	out.Questions = make([]QuestionWithOptions, len(t.Questions))
	for i, q := range t.Questions {
		sq := q
		sq.Options = make([]AnswerOption, len(q.Options))
		for j, o := range q.Options {
			o.IsCorrect = false
			sq.Options[j] = o
		}
		out.Questions[i] = sq
	}
	return out
}

type TestResult struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"user_id"`
	TestID   int64   `json:"test_id"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Passed   bool    `json:"passed"`
	TakenAt  int64   `json:"taken_at"`
}

type TestAnswer struct {
	ID               int64 `json:"id"`
	TestResultID     int64 `json:"test_result_id"`
	QuestionID       int64 `json:"question_id"`
	SelectedOptionID int64 `json:"selected_option_id"`
}
