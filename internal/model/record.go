package model

import "time"

// Fetch error kinds recorded on a failed FetchResult. These are diagnostic
// labels, not statuses; every one of them maps to StatusErrorInstagram
// except FetchErrNotFound, which is still an Instagram-side outcome and
// shares the status so the username is retried (accounts are sometimes
// temporarily unresolvable).
const (
	// FetchErrNotFound means the profile endpoint returned 404.
	FetchErrNotFound = "not_found"

	// FetchErrLogin means the session could not authenticate.
	FetchErrLogin = "login"

	// FetchErrHTTP means the profile endpoint returned an unexpected
	// HTTP status (429, 5xx, challenge redirects).
	FetchErrHTTP = "http_status"

	// FetchErrDecode means the response body was not the expected JSON.
	FetchErrDecode = "decode"

	// FetchErrTimeout means the per-fetch deadline expired.
	FetchErrTimeout = "timeout"

	// FetchErrRequest covers transport-level failures (connection reset,
	// proxy refusal, DNS).
	FetchErrRequest = "request"
)

// FetchResult is the outcome of one profile lookup. Success and failure
// share the struct so a fetch worker always produces a value and never an
// error; callers branch on Failed().
//
// Design decision: Avatar bytes ride along in memory for the duration of a
// batch so the classifier can attach the image to its prompt, but they are
// never serialized. The persisted projection is FetchMeta.
type FetchResult struct {
	// Username is the username that was looked up.
	Username string

	// Exists is true when the profile endpoint returned a profile.
	Exists bool

	// IsVerified is true when the profile carries a verification badge.
	IsVerified bool

	// FullName is the display name on the profile. May be empty.
	FullName string

	// AvatarURL is the profile picture URL as reported by the endpoint.
	AvatarURL string

	// Avatar holds the downloaded profile picture bytes, or nil when the
	// download failed or was skipped. A nil Avatar on a successful fetch
	// means the classifier falls back to name-only mode.
	Avatar []byte

	// AvatarMIME is the detected content type of Avatar ("image/jpeg").
	AvatarMIME string

	// FetchedBy is the identity ID that performed the lookup.
	FetchedBy string

	// ErrKind labels the failure (one of the FetchErr constants).
	// Empty on success.
	ErrKind string

	// ErrDetail is the human-readable failure detail. Empty on success.
	ErrDetail string
}

// Failed reports whether the lookup failed. A profile that does not exist
// counts as a failure: there is nothing to classify.
func (f *FetchResult) Failed() bool {
	return f.ErrKind != ""
}

// Meta returns the persistable projection of the fetch, or nil for a
// failed fetch that never produced profile data.
func (f *FetchResult) Meta() *FetchMeta {
	if f.Failed() && f.FullName == "" && f.AvatarURL == "" {
		return nil
	}
	return &FetchMeta{
		FullName:  f.FullName,
		AvatarURL: f.AvatarURL,
		FetchedBy: f.FetchedBy,
	}
}

// FetchMeta is the subset of a FetchResult that is written to the
// checkpoint file: everything except transient image bytes.
type FetchMeta struct {
	// FullName is the display name on the profile at fetch time.
	FullName string `json:"full_name,omitempty"`

	// AvatarURL is the profile picture URL at fetch time.
	AvatarURL string `json:"avatar_url,omitempty"`

	// FetchedBy is the identity ID that performed the lookup.
	FetchedBy string `json:"fetched_by,omitempty"`
}

// Classification is the classifier's verdict for one profile.
//
// Design decision: classifier failures are values, not errors. A failed
// call comes back as {Success: false} with the failure text in Reasoning,
// so one bad call can never take down a batch.
type Classification struct {
	// IsMale is the verdict. Only meaningful when Success is true.
	IsMale bool `json:"is_male"`

	// Reasoning is the classifier's brief justification, or the failure
	// text when Success is false.
	Reasoning string `json:"reasoning"`

	// Success is false when the classifier call itself failed.
	Success bool `json:"success"`
}

// RunRecord is one line of pipeline history: the status assigned to a
// username by one run, with enough context to audit the decision later.
// Records are append-only; a rerun of an errored username produces a new
// record rather than rewriting the old one.
type RunRecord struct {
	// Username is the username this record describes.
	Username string `json:"username"`

	// Status is the outcome of this run's examination.
	Status Status `json:"status"`

	// Detail explains the status: the heuristic reason for a cheap
	// rejection, the error detail for the error family. May be empty.
	Detail string `json:"detail,omitempty"`

	// Classification is present when the classifier ran.
	Classification *Classification `json:"classification,omitempty"`

	// Fetch is present when a profile fetch produced data.
	Fetch *FetchMeta `json:"fetch,omitempty"`

	// Timestamp is when the record was produced.
	Timestamp time.Time `json:"timestamp"`
}

// NewRunRecord returns a record stamped with the current time.
func NewRunRecord(username string, status Status, detail string) RunRecord {
	return RunRecord{
		Username:  username,
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}
