// Package grading scores multiple-choice answer strings against an answer
// key and maps percentages onto the fixed certificate tiers. Everything in
// this package is pure: no I/O, no randomness.
package grading

import (
	"errors"
	"fmt"
	"strings"
)

// Answer keys and candidate answers use one letter per question.
const Alphabet = "abcd"

// ErrInvalidInput reports input the caller should have validated already:
// mismatched lengths or characters outside the a-d alphabet.
var ErrInvalidInput = errors.New("grading: invalid input")

// QuestionResult is the per-question breakdown of a graded submission.
type QuestionResult struct {
	Index    int // 1-based question number
	Given    string
	Expected string
	Correct  bool
}

// Result is the outcome of grading one submission.
type Result struct {
	CorrectCount int
	Total        int
	Percentage   float64 // unrounded; presentation rounds for display
	PerQuestion  []QuestionResult
}

// Grade compares candidate answers against the answer key index-wise.
// Both strings are lowercased before comparison. Inputs must be equal-length
// strings over the a-d alphabet; violations return ErrInvalidInput.
func Grade(answerKey, candidate string) (Result, error) {
	key := strings.ToLower(answerKey)
	ans := strings.ToLower(candidate)

	if len(key) == 0 || len(ans) != len(key) {
		return Result{}, fmt.Errorf("%w: key length %d, answers length %d", ErrInvalidInput, len(key), len(ans))
	}
	if !ValidAnswers(key) || !ValidAnswers(ans) {
		return Result{}, fmt.Errorf("%w: answers must use only a, b, c, d", ErrInvalidInput)
	}

	res := Result{
		Total:       len(key),
		PerQuestion: make([]QuestionResult, 0, len(key)),
	}
	for i := 0; i < len(key); i++ {
		correct := ans[i] == key[i]
		if correct {
			res.CorrectCount++
		}
		res.PerQuestion = append(res.PerQuestion, QuestionResult{
			Index:    i + 1,
			Given:    strings.ToUpper(string(ans[i])),
			Expected: strings.ToUpper(string(key[i])),
			Correct:  correct,
		})
	}
	res.Percentage = float64(res.CorrectCount) / float64(res.Total) * 100
	return res, nil
}

// ValidAnswers reports whether s is a non-empty lowercase a-d string.
func ValidAnswers(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}

// Tier is one of the five fixed grade classifications.
type Tier struct {
	Emoji string
	Label string
	Level int // 1 is best
	Color string
}

// CertificateThreshold is the minimum percentage that earns a certificate.
const CertificateThreshold = 40.0

var tiers = []struct {
	min  float64
	tier Tier
}{
	{90, Tier{Emoji: "🥇", Label: "Excellent", Level: 1, Color: "🟡"}},
	{80, Tier{Emoji: "🥈", Label: "Great", Level: 2, Color: "🔵"}},
	{60, Tier{Emoji: "🥉", Label: "Good", Level: 3, Color: "🟢"}},
	{40, Tier{Emoji: "🎗️", Label: "Satisfactory", Level: 4, Color: "🟠"}},
	{0, Tier{Emoji: "📜", Label: "Retry", Level: 5, Color: "🔴"}},
}

// Classify maps a percentage to its tier. Thresholds are evaluated
// highest-first; the fallback tier catches everything below 40.
func Classify(percentage float64) Tier {
	for _, t := range tiers {
		if percentage >= t.min {
			return t.tier
		}
	}
	return tiers[len(tiers)-1].tier
}
