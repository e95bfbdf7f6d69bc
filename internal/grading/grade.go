// Package grading checks submitted answers and records every attempt in an
// append-only ledger.
package grading

import (
	"strings"

	"github.com/abhisek/amcdrill/internal/content"
)

// Grade reports whether choice answers p correctly. The choice and the
// correct answer may each be either a choice label ("C") or the choice
// text; comparison is trimmed and case-insensitive.
func Grade(p *content.Problem, choice string) bool {
	choice = strings.TrimSpace(choice)
	correct := strings.TrimSpace(p.CorrectAnswer)
	if choice == "" || correct == "" {
		return false
	}
	if strings.EqualFold(choice, correct) {
		return true
	}

	// Resolve both sides to a choice position and compare.
	ci := p.ChoiceIndex(choice)
	ki := p.ChoiceIndex(correct)
	return ci >= 0 && ci == ki
}
