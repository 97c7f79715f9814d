// Package jsonsplice locates object boundaries in fragments of JSON text and
// splices two fragments of one truncated document back into valid JSON.
// It is a brace counter, not a parser; fragments produced by token-limit
// truncation are all it needs to handle.
package jsonsplice

import (
	"context"
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"

	"github.com/lorebind/lorebind/internal/observability"
)

// FindObjectBoundary scans text left to right tracking brace depth (+1 on
// '{', -1 on '}') and returns the index just past the first point the depth
// returns to zero after having been positive. It returns 0 when the text
// never balances, so a fragment truncated mid-object yields no boundary.
func FindObjectBoundary(text string) int {
	depth := 0
	positive := false

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			positive = true
		case '}':
			depth--
			if depth == 0 && positive {
				return i + 1
			}
		}
	}

	return 0
}

// lastObjectEnd returns the index of the '}' closing the last fully-balanced
// object in text, found by scanning in reverse. Returns -1 when no balanced
// suffix exists.
func lastObjectEnd(text string) int {
	depth := 0
	end := -1

	for i := len(text) - 1; i >= 0; i-- {
		switch text[i] {
		case '}':
			if depth == 0 {
				end = i
			}
			depth++
		case '{':
			// An unmatched '{' belongs to the truncated head, not to a
			// balanced suffix.
			if depth > 0 {
				depth--
				if depth == 0 {
					return end
				}
			}
		}
	}

	return -1
}

// firstObjectStart returns the index of the '{' opening the first
// fully-formed object in text, skipping any leading fragment of a split
// object. Returns -1 when no complete object exists.
func firstObjectStart(text string) int {
	depth := 0
	start := -1

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			// Closers at depth zero are the tail of a split object.
			if depth > 0 {
				depth--
				if depth == 0 {
					return start
				}
			}
		}
	}

	return -1
}

// TrimToLastObject truncates text just past its last fully-balanced object
// boundary, dropping any dangling partial key or value. Returns empty when
// no balanced object exists.
func TrimToLastObject(text string) string {
	end := lastObjectEnd(text)
	if end < 0 {
		return ""
	}
	return text[:end+1]
}

// Merge splices two halves of a split JSON document at their object
// boundaries: the last balanced object of firstHalf, the first balanced
// object of secondHalf, joined with ", ". It returns empty when either
// boundary is missing or the splice does not parse — never invalid JSON.
func Merge(ctx context.Context, firstHalf, secondHalf string) string {
	logger := observability.FromContext(ctx)

	a := lastObjectEnd(firstHalf)
	b := firstObjectStart(secondHalf)
	if a < 0 || b < 0 {
		logger.Warn("could not locate splice boundaries",
			observability.String("first_half", firstHalf),
			observability.String("second_half", secondHalf))
		return ""
	}

	combined := firstHalf[:a+1] + ", " + secondHalf[b:]
	if !json.Valid([]byte(combined)) {
		logger.Warn("spliced fragments did not parse",
			observability.String("first_half", firstHalf),
			observability.String("second_half", secondHalf),
			observability.String("combined", combined))
		return ""
	}

	return combined
}

// Reconcile merges two halves of a split JSON document, falling back to a
// permissive repair pass over the naive concatenation when the strict splice
// fails. The returned text is best-effort: when even the repair pass gives
// up, the naive concatenation is returned along with the repair error so the
// caller can keep the item rather than abort the chain.
func Reconcile(ctx context.Context, firstHalf, secondHalf string) (string, error) {
	if merged := Merge(ctx, firstHalf, secondHalf); merged != "" {
		return merged, nil
	}

	naive := firstHalf + secondHalf
	repaired, err := jsonrepair.JSONRepair(naive)
	if err != nil {
		observability.FromContext(ctx).Warn("repair pass failed, keeping naive concatenation",
			observability.Error(err))
		return naive, err
	}

	return repaired, nil
}
