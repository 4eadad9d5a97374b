package identity

import "errors"

// Roster validation errors. All of them are configuration errors: the
// pipeline refuses to start with a broken roster rather than discover the
// problem mid-run.
//
// Design decision: We use package-level sentinel errors so callers can
// classify failures with errors.Is() while load-time wrapping adds the
// identity index or ID for the human reading the message.
var (
	// ErrRosterNotFound is returned when the roster file does not exist.
	ErrRosterNotFound = errors.New("identity roster file not found")

	// ErrEmptyRoster is returned when the roster parses but contains no
	// identities. The fetch stage sizes its worker pool to the roster, so
	// an empty roster means no capacity at all.
	ErrEmptyRoster = errors.New("identity roster is empty: at least one identity is required")

	// ErrMissingCredential is returned when an identity lacks a username
	// or password.
	ErrMissingCredential = errors.New("identity is missing a credential")

	// ErrDuplicateIdentity is returned when two roster entries share an
	// ID. Session files and fetch attribution are keyed by ID, so
	// duplicates would silently share state.
	ErrDuplicateIdentity = errors.New("duplicate identity id")

	// ErrInvalidDelayRange is returned when an identity's minimum request
	// delay exceeds its maximum.
	ErrInvalidDelayRange = errors.New("invalid delay range: min exceeds max")

	// ErrInvalidOTPSeed is returned when an identity's TOTP seed cannot
	// be decoded as base32.
	ErrInvalidOTPSeed = errors.New("invalid OTP seed")
)
