package instagram

import "errors"

var (
	// ErrInvalidProxy is returned when an identity's proxy string cannot
	// be parsed into a usable dialer or proxy URL.
	ErrInvalidProxy = errors.New("instagram: invalid proxy address")

	// ErrLoginFailed is returned when Instagram rejects an identity's
	// credentials.
	ErrLoginFailed = errors.New("instagram: login failed")

	// ErrTwoFactorRequired is returned when Instagram demands a one-time
	// code but the identity carries no OTP seed to generate one.
	ErrTwoFactorRequired = errors.New("instagram: two-factor code required but identity has no OTP seed")

	// ErrChallengeRequired is returned when Instagram gates the login
	// behind a manual checkpoint challenge, which cannot be solved
	// programmatically here.
	ErrChallengeRequired = errors.New("instagram: login challenge required, resolve it in a browser first")
)
