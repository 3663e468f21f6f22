// Package events turns the flat chronological event logs written by the
// scanner task-presentation program into BIDS events tables.
//
// A task run's log holds one row per timestamped marker (stimulus onset,
// response capture, ...). Extraction pairs onset and offset markers per
// trial type into typed trial records, applies the trial-type-specific
// rules for stimulus, response, and accuracy columns, and assembles the
// onset-sorted table written to events.tsv. The package also handles the
// simpler post-rest ratings log.
package events
