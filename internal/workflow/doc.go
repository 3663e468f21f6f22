// Package workflow orchestrates the per-subject conversion: sourcedata
// discovery and validation, then the MRI, behavior, rest-rating, and
// physio branches for each session. Branches are independent; a failure
// in one is recorded in the run log and does not abort the others.
package workflow
