// Package archive mirrors finished runs into SQLite for querying.
//
// The JSON checkpoint remains the single authority for resumption; the
// archive exists so the history command can answer "what did run X do"
// and "what happened to username Y over time" without scanning the full
// checkpoint. Archive failures are reported to the caller but a run is
// never aborted over its mirror.
package archive
