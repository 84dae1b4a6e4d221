package exam

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/edulab/elearn-backend/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// --- Tests ---

func (s *SQLStore) GetTest(ctx context.Context, id int64) (Test, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category_id, title, max_attempts FROM tests WHERE id=$1`, id)
	var t Test
	if err := row.Scan(&t.ID, &t.CategoryID, &t.Title, &t.MaxAttempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Test{}, ErrNotFound
		}
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) ListTests(ctx context.Context) ([]Test, error) {
	return s.listTests(ctx, `SELECT id, category_id, title, max_attempts FROM tests ORDER BY id`)
}

func (s *SQLStore) ListTestsByCategory(ctx context.Context, categoryID int64) ([]Test, error) {
	return s.listTests(ctx,
		`SELECT id, category_id, title, max_attempts FROM tests WHERE category_id=$1 ORDER BY id`,
		categoryID)
}

func (s *SQLStore) listTests(ctx context.Context, query string, args ...any) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Test{}
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Title, &t.MaxAttempts); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateTest(ctx context.Context, categoryID int64, title string, maxAttempts int) (Test, error) {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	if maxAttempts < 1 {
		return Test{}, ErrInvalidAttempts
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO tests (category_id, title, max_attempts) VALUES ($1,$2,$3) RETURNING id`,
		categoryID, title, maxAttempts).Scan(&id)
	if err != nil {
		return Test{}, err
	}
	return Test{ID: id, CategoryID: categoryID, Title: title, MaxAttempts: maxAttempts}, nil
}

func (s *SQLStore) UpdateTest(ctx context.Context, id int64, title *string, maxAttempts *int) (Test, error) {
	t, err := s.GetTest(ctx, id)
	if err != nil {
		return Test{}, err
	}
	if title != nil {
		t.Title = *title
	}
	if maxAttempts != nil {
		if *maxAttempts < 1 {
			return Test{}, ErrInvalidAttempts
		}
		t.MaxAttempts = *maxAttempts
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tests SET title=$1, max_attempts=$2 WHERE id=$3`, t.Title, t.MaxAttempts, id)
	if err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) DeleteTest(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLStore) CreateTestFull(ctx context.Context, in NewTestFull) (TestWithQuestions, error) {
	if in.MaxAttempts == 0 {
		in.MaxAttempts = 3
	}
	if in.MaxAttempts < 1 {
		return TestWithQuestions{}, ErrInvalidAttempts
	}
	for i := range in.Questions {
		if in.Questions[i].Weight == 0 {
			in.Questions[i].Weight = 1
		}
		if in.Questions[i].Weight < 1 {
			return TestWithQuestions{}, ErrInvalidWeight
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TestWithQuestions{}, err
	}
	defer tx.Rollback()

	var out TestWithQuestions
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tests (category_id, title, max_attempts) VALUES ($1,$2,$3) RETURNING id`,
		in.CategoryID, in.Title, in.MaxAttempts).Scan(&out.ID)
	if err != nil {
		return TestWithQuestions{}, err
	}
	out.CategoryID = in.CategoryID
	out.Title = in.Title
	out.MaxAttempts = in.MaxAttempts

	for _, nq := range in.Questions {
		var qid int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO questions (test_id, text, weight) VALUES ($1,$2,$3) RETURNING id`,
			out.ID, nq.Text, nq.Weight).Scan(&qid)
		if err != nil {
			return TestWithQuestions{}, err
		}
		q := QuestionWithOptions{
			Question: Question{ID: qid, TestID: out.ID, Text: nq.Text, Weight: nq.Weight},
			Options:  []AnswerOption{},
		}
		for _, no := range nq.Options {
			var oid int64
			err = tx.QueryRowContext(ctx,
				`INSERT INTO answer_options (question_id, text, is_correct) VALUES ($1,$2,$3) RETURNING id`,
				qid, no.Text, no.IsCorrect).Scan(&oid)
			if err != nil {
				return TestWithQuestions{}, err
			}
			q.Options = append(q.Options, AnswerOption{ID: oid, QuestionID: qid, Text: no.Text, IsCorrect: no.IsCorrect})
		}
		out.Questions = append(out.Questions, q)
	}
	if err := tx.Commit(); err != nil {
		return TestWithQuestions{}, err
	}
	return out, nil
}

// GetTestSnapshot assembles the test plus all questions and their options.
// Questions and options come back ordered by id (creation order).
func (s *SQLStore) GetTestSnapshot(ctx context.Context, testID int64) (TestWithQuestions, error) {
	t, err := s.GetTest(ctx, testID)
	if err != nil {
		return TestWithQuestions{}, err
	}
	questions, err := s.ListQuestionsByTest(ctx, testID)
	if err != nil {
		return TestWithQuestions{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, text, is_correct FROM answer_options
		 WHERE question_id IN (SELECT id FROM questions WHERE test_id=$1)
		 ORDER BY question_id, id`, testID)
	if err != nil {
		return TestWithQuestions{}, err
	}
	defer rows.Close()
	optsByQuestion := map[int64][]AnswerOption{}
	for rows.Next() {
		var o AnswerOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return TestWithQuestions{}, err
		}
		optsByQuestion[o.QuestionID] = append(optsByQuestion[o.QuestionID], o)
	}
	if err := rows.Err(); err != nil {
		return TestWithQuestions{}, err
	}

	out := TestWithQuestions{Test: t, Questions: make([]QuestionWithOptions, 0, len(questions))}
	for _, q := range questions {
		opts := optsByQuestion[q.ID]
		if opts == nil {
			opts = []AnswerOption{}
		}
		out.Questions = append(out.Questions, QuestionWithOptions{Question: q, Options: opts})
	}
	return out, nil
}

// --- Questions ---

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, test_id, text, weight FROM questions WHERE id=$1`, id)
	var q Question
	if err := row.Scan(&q.ID, &q.TestID, &q.Text, &q.Weight); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuestionsByTest(ctx context.Context, testID int64) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_id, text, weight FROM questions WHERE test_id=$1 ORDER BY id`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.Weight); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateQuestion(ctx context.Context, testID int64, text string, weight int) (Question, error) {
	if weight == 0 {
		weight = 1
	}
	if weight < 1 {
		return Question{}, ErrInvalidWeight
	}
	if _, err := s.GetTest(ctx, testID); err != nil {
		return Question{}, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO questions (test_id, text, weight) VALUES ($1,$2,$3) RETURNING id`,
		testID, text, weight).Scan(&id)
	if err != nil {
		return Question{}, err
	}
	return Question{ID: id, TestID: testID, Text: text, Weight: weight}, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, id int64, text *string, weight *int) (Question, error) {
	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if text != nil {
		q.Text = *text
	}
	if weight != nil {
		if *weight < 1 {
			return Question{}, ErrInvalidWeight
		}
		q.Weight = *weight
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE questions SET text=$1, weight=$2 WHERE id=$3`, q.Text, q.Weight, id)
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// --- Answer options ---

func (s *SQLStore) GetOption(ctx context.Context, id int64) (AnswerOption, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, question_id, text, is_correct FROM answer_options WHERE id=$1`, id)
	var o AnswerOption
	if err := row.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AnswerOption{}, ErrNotFound
		}
		return AnswerOption{}, err
	}
	return o, nil
}

func (s *SQLStore) ListOptionsByQuestion(ctx context.Context, questionID int64) ([]AnswerOption, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_id, text, is_correct FROM answer_options WHERE question_id=$1 ORDER BY id`,
		questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AnswerOption{}
	for rows.Next() {
		var o AnswerOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateOption(ctx context.Context, questionID int64, text string, isCorrect bool) (AnswerOption, error) {
	if _, err := s.GetQuestion(ctx, questionID); err != nil {
		return AnswerOption{}, err
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO answer_options (question_id, text, is_correct) VALUES ($1,$2,$3) RETURNING id`,
		questionID, text, isCorrect).Scan(&id)
	if err != nil {
		return AnswerOption{}, err
	}
	return AnswerOption{ID: id, QuestionID: questionID, Text: text, IsCorrect: isCorrect}, nil
}

func (s *SQLStore) UpdateOption(ctx context.Context, id int64, text *string, isCorrect *bool) (AnswerOption, error) {
	o, err := s.GetOption(ctx, id)
	if err != nil {
		return AnswerOption{}, err
	}
	if text != nil {
		o.Text = *text
	}
	if isCorrect != nil {
		o.IsCorrect = *isCorrect
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE answer_options SET text=$1, is_correct=$2 WHERE id=$3`, o.Text, o.IsCorrect, id)
	if err != nil {
		return AnswerOption{}, err
	}
	return o, nil
}

func (s *SQLStore) DeleteOption(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM answer_options WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// --- Results ---

func (s *SQLStore) CountAttempts(ctx context.Context, userID, testID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_results WHERE user_id=$1 AND test_id=$2`,
		userID, testID).Scan(&n)
	return n, err
}

// CreateResult writes the result row and all answer rows in one transaction.
// The attempt-limit check runs inside the same transaction, after locking the
// parent test row on postgres; sqlite serializes writers on its own.
func (s *SQLStore) CreateResult(ctx context.Context, userID, testID int64, graded grading.Result, answers []grading.Answer) (TestResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TestResult{}, err
	}
	defer tx.Rollback()

	lockQ := `SELECT max_attempts FROM tests WHERE id=$1`
	if s.driver == "postgres" {
		lockQ += ` FOR UPDATE`
	}
	var maxAttempts int
	if err := tx.QueryRowContext(ctx, lockQ, testID).Scan(&maxAttempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestResult{}, ErrNotFound
		}
		return TestResult{}, err
	}

	var attempts int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_results WHERE user_id=$1 AND test_id=$2`,
		userID, testID).Scan(&attempts)
	if err != nil {
		return TestResult{}, err
	}
	if attempts >= maxAttempts {
		return TestResult{}, ErrAttemptsExhausted
	}

	result := TestResult{
		UserID:   userID,
		TestID:   testID,
		Score:    float64(graded.Score),
		MaxScore: float64(graded.MaxScore),
		Passed:   graded.Passed,
		TakenAt:  time.Now().Unix(),
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO test_results (user_id, test_id, score, max_score, passed, taken_at)
		 VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		result.UserID, result.TestID, result.Score, result.MaxScore, result.Passed, result.TakenAt,
	).Scan(&result.ID)
	if err != nil {
		return TestResult{}, err
	}

	for _, a := range answers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO test_answers (test_result_id, question_id, selected_option_id) VALUES ($1,$2,$3)`,
			result.ID, a.QuestionID, a.SelectedOptionID)
		if err != nil {
			return TestResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TestResult{}, err
	}
	return result, nil
}

func (s *SQLStore) GetResult(ctx context.Context, id int64) (TestResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, test_id, score, max_score, passed, taken_at FROM test_results WHERE id=$1`, id)
	var r TestResult
	if err := row.Scan(&r.ID, &r.UserID, &r.TestID, &r.Score, &r.MaxScore, &r.Passed, &r.TakenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TestResult{}, ErrNotFound
		}
		return TestResult{}, err
	}
	return r, nil
}

func (s *SQLStore) ListResults(ctx context.Context, opts ResultListOpts) ([]TestResult, error) {
	query := `SELECT id, user_id, test_id, score, max_score, passed, taken_at FROM test_results`
	args := []any{}
	switch {
	case opts.UserID != 0 && opts.TestID != 0:
		query += ` WHERE user_id=$1 AND test_id=$2`
		args = append(args, opts.UserID, opts.TestID)
	case opts.UserID != 0:
		query += ` WHERE user_id=$1`
		args = append(args, opts.UserID)
	case opts.TestID != 0:
		query += ` WHERE test_id=$1`
		args = append(args, opts.TestID)
	}
	query += ` ORDER BY taken_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestResult{}
	for rows.Next() {
		var r TestResult
		if err := rows.Scan(&r.ID, &r.UserID, &r.TestID, &r.Score, &r.MaxScore, &r.Passed, &r.TakenAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAnswersByResult(ctx context.Context, resultID int64) ([]TestAnswer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_result_id, question_id, selected_option_id FROM test_answers
		 WHERE test_result_id=$1 ORDER BY id`, resultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TestAnswer{}
	for rows.Next() {
		var a TestAnswer
		if err := rows.Scan(&a.ID, &a.TestResultID, &a.QuestionID, &a.SelectedOptionID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteResult(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM test_results WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
