// Package services defines the error taxonomy shared by the pipeline
// steps and maps step failures to run-log statuses.
package services
