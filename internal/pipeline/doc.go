// Package pipeline orchestrates a run: loading and deduplicating the
// input list, subtracting already-settled usernames, cheap filtering,
// and then fetch/classify/persist cycles over fixed-size batches.
//
// Concurrency is structural rather than configured ad hoc: the fetch
// stage runs exactly one worker per identity session (worker w serves
// batch positions w, w+N, ...), and the classification stage is an
// errgroup with a SetLimit ceiling. Both stages are barriers: a batch is
// fully fetched before classification starts, and fully classified
// before anything is persisted.
//
// Per-username failures become records, never errors; only configuration
// and persistence problems abort a run. An external stop request drains
// at the next batch boundary, so the checkpoint always describes whole
// batches.
package pipeline
