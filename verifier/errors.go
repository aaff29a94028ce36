// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package verifier ties components A-G together into the chain state
// machine and external interface from spec.md §4.6 and §6: header
// submission (extend-main/extend-fork/new-fork dispatch and reorg),
// initialization, and the query operations a host calls.
package verifier

import "fmt"

// ErrorKind enumerates the error kinds spec.md §7 requires every failure
// to surface as, so a host can branch on error identity rather than
// parsing messages.
type ErrorKind int

const (
	ErrAlreadyInitialized ErrorKind = iota
	ErrNotInitialized
	ErrMalformedHeader
	ErrDuplicateHash
	ErrPrevBlockNotFound
	ErrInvalidTarget
	ErrInsufficientPoW
	ErrBadDifficulty
	ErrBadTimestamp
	ErrForkTooLong
	ErrLimitExceeded
	ErrPruned
	ErrUnknownBlock
	ErrPaused
	ErrReorgFailed
)

var errorKindStrings = map[ErrorKind]string{
	ErrAlreadyInitialized: "already initialized",
	ErrNotInitialized:     "not initialized",
	ErrMalformedHeader:    "malformed header",
	ErrDuplicateHash:      "duplicate hash",
	ErrPrevBlockNotFound:  "prev block not found",
	ErrInvalidTarget:      "invalid target",
	ErrInsufficientPoW:    "insufficient proof of work",
	ErrBadDifficulty:      "bad difficulty",
	ErrBadTimestamp:       "bad timestamp",
	ErrForkTooLong:        "fork too long",
	ErrLimitExceeded:      "limit exceeded",
	ErrPruned:             "pruned",
	ErrUnknownBlock:       "unknown block",
	ErrPaused:             "paused",
	ErrReorgFailed:        "reorg failed",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// RuleError is the concrete error type exported verifier operations
// return for rule violations, generalizing the teacher's ruleError(kind,
// str) idiom to this package's error-kind enumeration. SubmitBlocks wraps
// it in a SubmitError, and storage failures are returned as wrapped
// errors rather than RuleErrors.
type RuleError struct {
	Kind        ErrorKind
	Description string
}

func (e RuleError) Error() string {
	return e.Description
}

// Is lets errors.Is(err, RuleError{Kind: X}) match any RuleError of kind
// X regardless of Description, so callers can test error identity without
// constructing an exact message.
func (e RuleError) Is(target error) bool {
	other, ok := target.(RuleError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

func ruleError(kind ErrorKind, str string) RuleError {
	return RuleError{Kind: kind, Description: str}
}

func ruleErrorf(kind ErrorKind, format string, args ...any) RuleError {
	return RuleError{Kind: kind, Description: fmt.Sprintf(format, args...)}
}
