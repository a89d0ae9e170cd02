// Package coreerr defines the typed errors shared across the gossip
// engine, ring metadata, and streaming planner, so callers can branch on
// failure kind with errors.As instead of string matching.
package coreerr

import "fmt"

// Kind classifies a core error. Callers compare against the exported
// constants, never against Error's string form.
type Kind int

const (
	// ProtocolError marks a malformed or version-incompatible wire
	// message (bad digest, unknown app-state key, short read).
	ProtocolError Kind = iota
	// StateConflict marks a local apply that was rejected because the
	// incoming state was not newer than what is already held.
	StateConflict
	// NoSourcesError marks a streaming plan that found no candidate
	// source for a requested range.
	NoSourcesError
	// StrictConsistencyError marks a strict-mode streaming plan that
	// could not satisfy the full-strength source requirement.
	StrictConsistencyError
	// GenerationRejected marks a SYN/local-state exchange where the
	// peer's claimed generation could not be accepted (e.g. it lies
	// further ahead of the local wall clock than the allowed skew).
	GenerationRejected
	// ShadowRoundFailed marks a shadow round that could not collect
	// enough peer state to let the local node make a safe bootstrap
	// decision.
	ShadowRoundFailed
)

func (k Kind) String() string {
	switch k {
	case ProtocolError:
		return "protocol error"
	case StateConflict:
		return "state conflict"
	case NoSourcesError:
		return "no sources error"
	case StrictConsistencyError:
		return "strict consistency error"
	case GenerationRejected:
		return "generation rejected"
	case ShadowRoundFailed:
		return "shadow round failed"
	default:
		return fmt.Sprintf("coreerr.Kind(%d)", int(k))
	}
}

// Error carries a Kind plus context, satisfying the standard error
// interface while still letting callers recover the Kind via As.
type Error struct {
	Kind Kind
	Op   string // the operation that failed, e.g. "gossip.applyState"
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, coreerr.NoSourcesError) work by comparing Kind
// when the target is itself a *Error with no wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error of kind for op, optionally wrapping cause.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Sentinel returns a bare *Error of kind usable with errors.Is as the
// target, e.g. errors.Is(err, coreerr.Sentinel(coreerr.NoSourcesError)).
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
