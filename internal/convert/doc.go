// Package convert drives the external neuroimaging tools: the DICOM
// organizing script, dcm2niix, and the defacing workflows. Each runner
// short-circuits when its outputs already exist so sessions can be
// reprocessed safely.
package convert
