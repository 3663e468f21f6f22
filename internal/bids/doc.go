// Package bids maps converter-emitted filenames into the BIDS rawdata
// layout and maintains the JSON sidecars and dataset-level files the
// layout requires.
package bids
