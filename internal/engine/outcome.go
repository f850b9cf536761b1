package engine

import "flightdeck/internal/metrics"

// outcome is the tagged result of one transactional attempt. Exactly one of
// the named kinds applies; only conflicts are retried.
type outcomeKind int

const (
	// outcomeOK carries the operation's success message.
	outcomeOK outcomeKind = iota
	// outcomeRejected is a business rejection; the message is final and the
	// transaction was rolled back. Never retried.
	outcomeRejected
	// outcomeConflict is a transient serialization failure. The retry policy
	// may run the whole transactional body again.
	outcomeConflict
	// outcomeFailed is a non-retryable store fault translated into the
	// operation's generic failure message.
	outcomeFailed
)

type outcome struct {
	kind    outcomeKind
	message string
}

func success(message string) outcome  { return outcome{kind: outcomeOK, message: message} }
func rejected(message string) outcome { return outcome{kind: outcomeRejected, message: message} }
func failed(message string) outcome   { return outcome{kind: outcomeFailed, message: message} }
func conflict() outcome               { return outcome{kind: outcomeConflict} }

func (o outcome) class() string {
	switch o.kind {
	case outcomeOK:
		return metrics.OutcomeOK
	case outcomeRejected:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
