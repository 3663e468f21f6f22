// Package runlog persists per-datatype conversion outcomes in a SQLite
// database under the project's derivatives tree. The build command records
// every subject/session/datatype step it attempts so reruns and the status
// command can see what already happened.
package runlog
