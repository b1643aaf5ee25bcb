// Package fallback implements ordered candidate resolution: try candidate
// keys in priority order, succeed on the first hit, fail only when every
// candidate fails. Template lookup, font lookup, and radio on-value
// resolution all share this shape.
package fallback

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned when Resolve is called with an empty candidate list.
var ErrNoCandidates = errors.New("fallback: no candidates")

// Resolve attempts each candidate in order and returns the first successful
// result along with the candidate that produced it. If every attempt fails,
// the joined errors of all attempts are returned.
func Resolve[T any](candidates []string, attempt func(candidate string) (T, error)) (T, string, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, "", ErrNoCandidates
	}

	var errs []error
	for _, c := range candidates {
		v, err := attempt(c)
		if err == nil {
			return v, c, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", c, err))
	}
	return zero, "", errors.Join(errs...)
}

// Dedupe removes duplicate and empty candidates while preserving order.
// Candidate lists are often built from overlapping sources (active language,
// default language, unqualified default) and must not retry the same key.
func Dedupe(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0:0]
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
