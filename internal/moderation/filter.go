// Package moderation rejects submissions that contain denylisted terms.
package moderation

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/gig_board/internal/domain"
)

var defaultTerms = []string{"pills", "gun", "drugs", "escort", "gambling"}

func DefaultTerms() []string {
	out := make([]string, len(defaultTerms))
	copy(out, defaultTerms)
	return out
}

// Filter matches terms as case-insensitive substrings. It does no word
// boundary detection, so "begun" matches "gun".
type Filter struct {
	terms []string
}

func NewFilter(terms []string) *Filter {
	f := &Filter{}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			f.terms = append(f.terms, t)
		}
	}
	return f
}

func (f *Filter) ContainsBanned(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, t := range f.terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Check tests each field on its own and rejects the whole submission on the
// first hit. The error never says which term or field matched.
func (f *Filter) Check(fields ...string) error {
	for _, field := range fields {
		if f.ContainsBanned(field) {
			return fmt.Errorf("submission contains prohibited content: %w", domain.ErrContentRejected)
		}
	}
	return nil
}
