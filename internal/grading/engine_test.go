package grading

import (
	"errors"
	"testing"
)

// Two questions: Q1 weight 2 (A1 correct, A2 wrong), Q2 weight 1 (B1 wrong,
// B2 correct). MaxScore is 3.
func twoQuestionSnapshot() Snapshot {
	return Snapshot{
		TestID: 10,
		Questions: []Question{
			{ID: 1, Weight: 2, Options: []Option{
				{ID: 11, IsCorrect: true},
				{ID: 12, IsCorrect: false},
			}},
			{ID: 2, Weight: 1, Options: []Option{
				{ID: 21, IsCorrect: false},
				{ID: 22, IsCorrect: true},
			}},
		},
	}
}

func TestGrade(t *testing.T) {
	snap := twoQuestionSnapshot()
	eng := NewEngine(100)

	cases := []struct {
		name    string
		answers []Answer
		want    Result
	}{
		{
			name: "all correct",
			answers: []Answer{
				{QuestionID: 1, SelectedOptionID: 11},
				{QuestionID: 2, SelectedOptionID: 22},
			},
			want: Result{Score: 3, MaxScore: 3, Passed: true},
		},
		{
			name: "heavy question wrong",
			answers: []Answer{
				{QuestionID: 1, SelectedOptionID: 12},
				{QuestionID: 2, SelectedOptionID: 22},
			},
			want: Result{Score: 1, MaxScore: 3, Passed: false},
		},
		{
			name: "all wrong",
			answers: []Answer{
				{QuestionID: 1, SelectedOptionID: 12},
				{QuestionID: 2, SelectedOptionID: 21},
			},
			want: Result{Score: 0, MaxScore: 3, Passed: false},
		},
		{
			name: "order does not matter",
			answers: []Answer{
				{QuestionID: 2, SelectedOptionID: 22},
				{QuestionID: 1, SelectedOptionID: 11},
			},
			want: Result{Score: 3, MaxScore: 3, Passed: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := eng.Grade(snap, tc.answers)
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestGradeValidation(t *testing.T) {
	snap := twoQuestionSnapshot()
	eng := NewEngine(100)

	t.Run("unknown question", func(t *testing.T) {
		_, err := eng.Grade(snap, []Answer{
			{QuestionID: 1, SelectedOptionID: 11},
			{QuestionID: 99, SelectedOptionID: 22},
		})
		var qe *QuestionNotInTestError
		if !errors.As(err, &qe) || qe.QuestionID != 99 {
			t.Fatalf("want QuestionNotInTestError for 99, got %v", err)
		}
	})

	t.Run("option from another question", func(t *testing.T) {
		_, err := eng.Grade(snap, []Answer{
			{QuestionID: 1, SelectedOptionID: 22},
			{QuestionID: 2, SelectedOptionID: 22},
		})
		var oe *InvalidOptionError
		if !errors.As(err, &oe) || oe.QuestionID != 1 || oe.OptionID != 22 {
			t.Fatalf("want InvalidOptionError for (1, 22), got %v", err)
		}
	})

	t.Run("missing answer", func(t *testing.T) {
		_, err := eng.Grade(snap, []Answer{
			{QuestionID: 1, SelectedOptionID: 11},
		})
		var ie *IncompleteSubmissionError
		if !errors.As(err, &ie) || ie.MissingQuestionID != 2 {
			t.Fatalf("want IncompleteSubmissionError missing 2, got %v", err)
		}
	})

	t.Run("duplicate answer", func(t *testing.T) {
		_, err := eng.Grade(snap, []Answer{
			{QuestionID: 1, SelectedOptionID: 11},
			{QuestionID: 1, SelectedOptionID: 12},
			{QuestionID: 2, SelectedOptionID: 22},
		})
		var ie *IncompleteSubmissionError
		if !errors.As(err, &ie) || ie.DuplicateQuestionID != 1 {
			t.Fatalf("want IncompleteSubmissionError duplicate 1, got %v", err)
		}
	})

	t.Run("empty test rejects any answer", func(t *testing.T) {
		_, err := eng.Grade(Snapshot{TestID: 5}, []Answer{{QuestionID: 1, SelectedOptionID: 1}})
		var qe *QuestionNotInTestError
		if !errors.As(err, &qe) {
			t.Fatalf("want QuestionNotInTestError, got %v", err)
		}
	})
}

func TestGradeThreshold(t *testing.T) {
	snap := twoQuestionSnapshot()
	partial := []Answer{
		{QuestionID: 1, SelectedOptionID: 11}, // 2 of 3 points
		{QuestionID: 2, SelectedOptionID: 21},
	}

	cases := []struct {
		name       string
		threshold  int
		wantPassed bool
	}{
		{"default requires full score", 100, false},
		{"two thirds clears 60", 60, true},
		{"two thirds misses 70", 70, false},
		{"exact boundary passes", 66, true}, // 2*100 >= 3*66
		{"zero threshold always passes", 0, true},
		{"invalid threshold falls back to 100", 250, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewEngine(tc.threshold).Grade(snap, partial)
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if got.Passed != tc.wantPassed {
				t.Fatalf("threshold %d: passed=%v, want %v", tc.threshold, got.Passed, tc.wantPassed)
			}
		})
	}
}

func TestMaxScore(t *testing.T) {
	if got := twoQuestionSnapshot().MaxScore(); got != 3 {
		t.Fatalf("MaxScore = %d, want 3", got)
	}
	if got := (Snapshot{}).MaxScore(); got != 0 {
		t.Fatalf("empty MaxScore = %d, want 0", got)
	}
}
