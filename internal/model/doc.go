// Package model defines the core data structures used throughout genderscan.
//
// This package contains the following main types:
//   - Status: The per-username outcome vocabulary shared by every stage
//   - FetchResult: The success-or-failure value produced by a profile lookup
//   - Classification: The classifier's verdict for one profile
//   - RunRecord: One append-only line of pipeline history
//   - RunSummary: The per-run aggregate printed, checkpointed, and archived
//
// Design decision: We separate models into their own package to avoid
// circular dependencies. Multiple packages (filter, instagram, classifier,
// pipeline, checkpoint, archive, report) need these types, so centralizing
// them prevents import cycles.
//
// The models are designed to be serializable to JSON for the checkpoint
// file and database storage; transient fields (avatar bytes) are excluded
// from serialization by construction.
package model
