// Package retry decides whether a provider failure is worth another attempt
// and drives the bounded backoff loop around completion calls.
package retry

import (
	"errors"
	"strings"

	"github.com/lorebind/lorebind/internal/domain"
)

// ErrorClass is the two-valued outcome of classification.
type ErrorClass string

const (
	ClassResolvable   ErrorClass = "resolvable"
	ClassUnresolvable ErrorClass = "unresolvable"
)

// quotaMarker appears in provider error messages when an account's quota is
// permanently exhausted rather than momentarily throttled.
const quotaMarker = "exceeded your current quota"

// Classifier labels provider failures as resolvable or unresolvable.
type Classifier struct {
	unresolvableKinds map[domain.ErrorKind]struct{}
}

// NewClassifier creates a classifier with the default unresolvable set: bad
// credentials, malformed requests, permanent denials and unknown resources.
func NewClassifier() *Classifier {
	return &Classifier{
		unresolvableKinds: map[domain.ErrorKind]struct{}{
			domain.KindAuth:             {},
			domain.KindMalformedRequest: {},
			domain.KindPermissionDenied: {},
			domain.KindNotFound:         {},
		},
	}
}

// Extract parses provider error metadata from err, defaulting to
// (0, "unknown") when none is attached.
func (c *Classifier) Extract(err error) (int, string) {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode, pe.Message
	}
	return 0, "unknown"
}

// Classify labels a failure. Unresolvable means no retry can fix it: a kind
// from the unresolvable set, a 401, or a permanently-exceeded quota message.
// Everything else, including transport hiccups and empty responses, is
// resolvable.
func (c *Classifier) Classify(err error) ErrorClass {
	statusCode, message := c.Extract(err)

	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		if _, ok := c.unresolvableKinds[pe.Kind]; ok {
			return ClassUnresolvable
		}
	}

	if statusCode == 401 {
		return ClassUnresolvable
	}

	if strings.Contains(message, quotaMarker) {
		return ClassUnresolvable
	}

	return ClassResolvable
}
