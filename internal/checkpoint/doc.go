// Package checkpoint persists pipeline progress between runs.
//
// The store is a single JSON file holding every record ever produced
// plus summary blocks, and a plain-text append-only list of accepted
// usernames. Writes replace the JSON file atomically (temp file, fsync,
// rename), so a crash mid-write leaves the previous checkpoint intact
// and the worst case is re-examining the batch that was in flight.
//
// One process owns the checkpoint at a time. The atomic replace protects
// against crashes, not against two concurrent writers.
package checkpoint
