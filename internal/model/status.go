package model

// Status is the outcome recorded for a username after a pipeline run has
// examined it. Every username that enters a run ends up with exactly one
// new Status, whether it was rejected by a cheap heuristic, rejected after
// a profile fetch, classified, or failed along the way.
//
// Design decision: We use string constants rather than iota-based ints
// because statuses are persisted verbatim in the checkpoint file and the
// archive database. A stable wire value survives reordering of the constant
// block; an int would not.
type Status string

const (
	// StatusRejectedGibberish means the username failed the linguistic
	// plausibility heuristics (digit overload, vowel starvation, long
	// consonant runs, missing common bigrams) and was dropped before any
	// network traffic.
	StatusRejectedGibberish Status = "rejected_gibberish"

	// StatusRejectedBusiness means the username matched a commercial
	// keyword, brand name, or known misspelling of one, and was dropped
	// before any network traffic.
	StatusRejectedBusiness Status = "rejected_business"

	// StatusRejectedVerified means the profile was fetched and carries a
	// verification badge. Verified accounts are overwhelmingly brands and
	// public figures, so they are rejected without spending a
	// classification call.
	StatusRejectedVerified Status = "rejected_verified"

	// StatusAcceptedMale means the classifier judged the account to belong
	// to a male individual. These usernames are appended to the accepted
	// output list.
	StatusAcceptedMale Status = "accepted_male"

	// StatusRejectedNotMale means the classifier ran successfully and
	// judged the account not to match.
	StatusRejectedNotMale Status = "rejected_not_male"

	// StatusErrorInstagram means the profile fetch failed (login trouble,
	// HTTP error, timeout, malformed response). Retryable: a later run
	// will attempt the username again.
	StatusErrorInstagram Status = "error_instagram"

	// StatusErrorClassification means the classifier call failed.
	// Retryable: a later run will attempt the username again.
	StatusErrorClassification Status = "error_classification"
)

// AllStatuses returns every valid status in a stable presentation order:
// cheap rejections first, then fetch outcomes, then classification
// outcomes, then the error family.
func AllStatuses() []Status {
	return []Status{
		StatusRejectedGibberish,
		StatusRejectedBusiness,
		StatusRejectedVerified,
		StatusAcceptedMale,
		StatusRejectedNotMale,
		StatusErrorInstagram,
		StatusErrorClassification,
	}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRejectedGibberish, StatusRejectedBusiness, StatusRejectedVerified,
		StatusAcceptedMale, StatusRejectedNotMale,
		StatusErrorInstagram, StatusErrorClassification:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a final verdict. Terminal statuses make a
// username eligible for the resume skip on later runs; the error family is
// not terminal, so errored usernames are retried.
func (s Status) Terminal() bool {
	switch s {
	case StatusErrorInstagram, StatusErrorClassification:
		return false
	default:
		return true
	}
}

// Accepted reports whether s means the username goes to the accepted
// output list.
func (s Status) Accepted() bool {
	return s == StatusAcceptedMale
}

// String returns the wire value of the status.
func (s Status) String() string {
	return string(s)
}
