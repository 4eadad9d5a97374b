// Package instagram implements authenticated profile lookups against the
// Instagram web API.
//
// Each roster identity gets its own Session: an HTTP client with the
// identity's proxy, a cookie jar persisted across runs, and per-request
// pacing inside the identity's delay range. Sessions are built and logged
// in up front by NewPool and then handed to fetch workers, one session
// per worker, so no session is ever shared between goroutines.
//
// Lookup never returns an error. Every per-username failure is encoded on
// the returned FetchResult, which keeps a flaky proxy or a deleted account
// from aborting the batch it rides in.
package instagram
