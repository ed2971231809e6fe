package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidStatus is returned for a status outside the closed set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// TransitionError reports a move the state machine does not allow.
// Allowed lists the statuses From may move to.
type TransitionError struct {
	From, To string
	Allowed  []string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// transitions lists, per status, the statuses it may move to. Staying put
// is always allowed and not listed.
type transitions[S ~string] map[S][]S

func (t transitions[S]) known(s S) bool {
	_, ok := t[s]
	return ok
}

func (t transitions[S]) check(from, to S) error {
	if !t.known(to) {
		return errors.Wrapf(ErrInvalidStatus, "%q", string(to))
	}
	if from == to {
		return nil
	}
	for _, next := range t[from] {
		if next == to {
			return nil
		}
	}
	allowed := make([]string, 0, len(t[from]))
	for _, next := range t[from] {
		allowed = append(allowed, string(next))
	}
	return &TransitionError{From: string(from), To: string(to), Allowed: allowed}
}

