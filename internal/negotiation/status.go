// Package negotiation runs the bounded employer/candidate salary negotiation.
//
// Session status graph:
//
//	INIT ──► NEGOTIATING ──► AGREED
//	                    ├──► REJECTED
//	                    └──► FAILED
//
// A session leaves INIT exactly once. Terminal sessions never change again.
package negotiation

import (
	"fmt"
	"strings"

	"swiftjobs-backend/internal/domain"
)

var validTransitions = map[domain.NegotiationStatus][]domain.NegotiationStatus{
	domain.NegotiationInit:        {domain.NegotiationNegotiating},
	domain.NegotiationNegotiating: {domain.NegotiationAgreed, domain.NegotiationRejected, domain.NegotiationFailed},
	domain.NegotiationAgreed:      {},
	domain.NegotiationRejected:    {},
	domain.NegotiationFailed:      {},
}

// ParseStatus validates a raw string into a NegotiationStatus.
func ParseStatus(s string) (domain.NegotiationStatus, error) {
	st := domain.NegotiationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("unknown negotiation status %q", s)
	}
	return st, nil
}

// IsTransitionAllowed reports whether from -> to is an edge of the graph.
func IsTransitionAllowed(from, to domain.NegotiationStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
