// Package grading scores a test submission against a snapshot of the test's
// questions and answer options. It is pure: no storage, no clock, no I/O.
package grading

import "fmt"

// Option is the minimal view of an answer option needed for grading.
type Option struct {
	ID        int64
	IsCorrect bool
}

// Question carries the authoritative weight and option set for one question.
type Question struct {
	ID      int64
	Weight  int
	Options []Option
}

// Snapshot is one consistent view of a test's content. MaxScore is fixed at
// assembly time and is the denominator for the whole submission.
type Snapshot struct {
	TestID    int64
	Questions []Question
}

// MaxScore returns the sum of all question weights.
func (s Snapshot) MaxScore() int64 {
	var sum int64
	for _, q := range s.Questions {
		sum += int64(q.Weight)
	}
	return sum
}

// Answer is one submitted (question, selected option) pair.
type Answer struct {
	QuestionID       int64 `json:"question_id"`
	SelectedOptionID int64 `json:"selected_option_id"`
}

// Result is the graded outcome of a submission.
type Result struct {
	Score    int64
	MaxScore int64
	Passed   bool
}

// Validation error kinds. The HTTP layer maps these to status codes.

type QuestionNotInTestError struct {
	QuestionID int64
}

func (e *QuestionNotInTestError) Error() string {
	return fmt.Sprintf("question %d not found in this test", e.QuestionID)
}

type InvalidOptionError struct {
	QuestionID int64
	OptionID   int64
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid option %d for question %d", e.OptionID, e.QuestionID)
}

// IncompleteSubmissionError reports questions answered twice or not at all.
type IncompleteSubmissionError struct {
	MissingQuestionID   int64
	DuplicateQuestionID int64
}

func (e *IncompleteSubmissionError) Error() string {
	if e.DuplicateQuestionID != 0 {
		return fmt.Sprintf("question %d answered more than once", e.DuplicateQuestionID)
	}
	return fmt.Sprintf("question %d has no answer", e.MissingQuestionID)
}

// Engine grades submissions. thresholdPct is the percentage of MaxScore
// required to pass; 100 means every question must be answered correctly.
type Engine struct {
	thresholdPct int
}

func NewEngine(thresholdPct int) *Engine {
	if thresholdPct < 0 || thresholdPct > 100 {
		thresholdPct = 100
	}
	return &Engine{thresholdPct: thresholdPct}
}

// Grade validates the submitted answers against the snapshot and computes the
// score. Validation fails fast; a failed submission must never be persisted.
func (e *Engine) Grade(snap Snapshot, answers []Answer) (Result, error) {
	options := make(map[int64]map[int64]bool, len(snap.Questions)) // question -> option -> correct
	weights := make(map[int64]int, len(snap.Questions))
	for _, q := range snap.Questions {
		byID := make(map[int64]bool, len(q.Options))
		for _, o := range q.Options {
			byID[o.ID] = o.IsCorrect
		}
		options[q.ID] = byID
		weights[q.ID] = q.Weight
	}

	var score int64
	answered := make(map[int64]bool, len(answers))
	for _, a := range answers {
		opts, ok := options[a.QuestionID]
		if !ok {
			return Result{}, &QuestionNotInTestError{QuestionID: a.QuestionID}
		}
		correct, ok := opts[a.SelectedOptionID]
		if !ok {
			return Result{}, &InvalidOptionError{QuestionID: a.QuestionID, OptionID: a.SelectedOptionID}
		}
		if answered[a.QuestionID] {
			return Result{}, &IncompleteSubmissionError{DuplicateQuestionID: a.QuestionID}
		}
		answered[a.QuestionID] = true
		if correct {
			score += int64(weights[a.QuestionID])
		}
	}
	for _, q := range snap.Questions {
		if !answered[q.ID] {
			return Result{}, &IncompleteSubmissionError{MissingQuestionID: q.ID}
		}
	}

	max := snap.MaxScore()
	return Result{
		Score:    score,
		MaxScore: max,
		Passed:   score*100 >= max*int64(e.thresholdPct),
	}, nil
}
