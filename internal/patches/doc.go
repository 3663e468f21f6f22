// Package patches carries the one-off data-curation tables for known
// acquisition defects: the wash offset-marker patch and the per-subject
// fieldmap override map. Tables ship as embedded defaults and can be
// replaced wholesale from JSON files named in the configuration; the
// conversion logic receives them as plain values, never global state.
package patches
