package grading

import (
	"errors"
	"testing"
)

func TestGradeCounts(t *testing.T) {
	cases := []struct {
		name      string
		key, ans  string
		correct   int
		pct       float64
	}{
		{"all correct", "abcd", "abcd", 4, 100},
		{"none correct", "aaaa", "bbbb", 0, 0},
		{"mixed case candidate", "abcdabcdab", "ABCDabcdcc", 8, 80},
		{"single miss", "abcda", "abcdb", 4, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Grade(tc.key, tc.ans)
			if err != nil {
				t.Fatalf("Grade(%q, %q): %v", tc.key, tc.ans, err)
			}
			if res.CorrectCount != tc.correct {
				t.Errorf("correct = %d, want %d", res.CorrectCount, tc.correct)
			}
			if res.Total != len(tc.key) {
				t.Errorf("total = %d, want %d", res.Total, len(tc.key))
			}
			if res.Percentage != tc.pct {
				t.Errorf("percentage = %v, want %v", res.Percentage, tc.pct)
			}
			if len(res.PerQuestion) != len(tc.key) {
				t.Fatalf("per-question rows = %d, want %d", len(res.PerQuestion), len(tc.key))
			}
		})
	}
}

func TestGradePerQuestion(t *testing.T) {
	res, err := Grade("abcd", "abdd")
	if err != nil {
		t.Fatal(err)
	}
	q3 := res.PerQuestion[2]
	if q3.Index != 3 || q3.Given != "D" || q3.Expected != "C" || q3.Correct {
		t.Errorf("question 3 = %+v, want index 3, given D, expected C, incorrect", q3)
	}
	q4 := res.PerQuestion[3]
	if !q4.Correct || q4.Given != "D" {
		t.Errorf("question 4 = %+v, want correct D", q4)
	}
}

func TestGradeInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		key, ans string
	}{
		{"length mismatch", "abcd", "abc"},
		{"empty key", "", ""},
		{"bad alphabet", "abcd", "abce"},
		{"bad key alphabet", "abcx", "abcd"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Grade(tc.key, tc.ans); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Grade(%q, %q) = %v, want ErrInvalidInput", tc.key, tc.ans, err)
			}
		})
	}
}

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		pct   float64
		level int
		label string
	}{
		{100, 1, "Excellent"},
		{90, 1, "Excellent"},
		{89.9, 2, "Great"},
		{80, 2, "Great"},
		{79.9, 3, "Good"},
		{60, 3, "Good"},
		{59.9, 4, "Satisfactory"},
		{40, 4, "Satisfactory"},
		{39.9, 5, "Retry"},
		{0, 5, "Retry"},
	}
	for _, tc := range cases {
		got := Classify(tc.pct)
		if got.Level != tc.level || got.Label != tc.label {
			t.Errorf("Classify(%v) = level %d %q, want level %d %q", tc.pct, got.Level, got.Label, tc.level, tc.label)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := Classify(0).Level
	for p := 0.0; p <= 100; p += 0.5 {
		level := Classify(p).Level
		if level > prev {
			t.Fatalf("Classify(%v).Level = %d, worse than lower percentage (%d)", p, level, prev)
		}
		prev = level
	}
}

func TestValidAnswers(t *testing.T) {
	if !ValidAnswers("abcdabcd") {
		t.Error("expected abcdabcd to be valid")
	}
	for _, bad := range []string{"", "abce", "ab cd", "ABCD"} {
		if ValidAnswers(bad) {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}
