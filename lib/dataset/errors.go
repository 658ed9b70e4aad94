// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch deterministically
// instead of matching message text or catching broad hierarchies.
// User-visible handling must distinguish "name never existed"
// (DatasetNotFound) from "no version old enough" (NoMetadataFound)
// from "data tampered or wrong key" (Integrity).
type Kind int

const (
	// KindUnknown is the zero value; errors without a kind.
	KindUnknown Kind = iota

	// KindDatasetNotFound: the key is absent from both the registry
	// and the local cache.
	KindDatasetNotFound

	// KindNoMetadataFound: the as-of instant predates the retained
	// version chain.
	KindNoMetadataFound

	// KindIntegrity: authenticated decryption failed, a frame was
	// truncated, or fetched bytes do not hash to the requested
	// content id. Always fatal, never retried.
	KindIntegrity

	// KindMisconfigured: an operation ran without required
	// configuration — no encryption key set, an unknown codec id, an
	// invalid pipeline definition, or an attempt to replace an
	// already-set key.
	KindMisconfigured

	// KindInvalidKey: key material of the wrong shape at
	// provisioning time (not 32 raw bytes or 64 hex characters).
	KindInvalidKey

	// KindUnavailable: both the registry and the local cache were
	// unusable for a listing.
	KindUnavailable

	// KindChainTooDeep: the walk exhausted its hop or time budget,
	// which indicates a corrupted or pathologically long chain.
	KindChainTooDeep
)

// String returns a stable lowercase label for logs.
func (k Kind) String() string {
	switch k {
	case KindDatasetNotFound:
		return "dataset_not_found"
	case KindNoMetadataFound:
		return "no_metadata_found"
	case KindIntegrity:
		return "integrity"
	case KindMisconfigured:
		return "misconfigured"
	case KindInvalidKey:
		return "invalid_key"
	case KindUnavailable:
		return "unavailable"
	case KindChainTooDeep:
		return "chain_too_deep"
	default:
		return "unknown"
	}
}

// Error is the structured error returned across strata package
// boundaries. It wraps an optional cause and carries a Kind for
// deterministic branching.
type Error struct {
	Kind    Kind
	Message string

	// Err is the wrapped cause, if any.
	Err error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a kinded error with a formatted message. A %w verb
// wraps the cause as usual; the cause's text is part of the message,
// so Error never prints it twice.
func Errorf(kind Kind, format string, args ...any) *Error {
	err := fmt.Errorf(format, args...)
	return &Error{
		Kind:    kind,
		Message: err.Error(),
		Err:     errors.Unwrap(err),
	}
}

// AsError returns the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var kinded *Error
	if errors.As(err, &kinded) {
		return kinded, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind anywhere in its
// chain.
func IsKind(err error, kind Kind) bool {
	if kinded, ok := AsError(err); ok {
		return kinded.Kind == kind
	}
	return false
}
