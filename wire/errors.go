// Copyright (c) 2026 The lightspv developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "errors"

// ErrMalformedHeader is returned (wrapped with %w) by the codecs in this
// package whenever a header's length or field layout is invalid. Callers
// use errors.Is against this sentinel; the verifier package translates it
// into the MalformedHeader RuleError kind from spec.md §7.
var ErrMalformedHeader = errors.New("malformed header")
