// Package physio decodes BIOPAC AcqKnowledge recordings and carries them
// into the BIDS physio layout: the signal matrix as tab-separated text
// plus the original container copied beside it.
package physio
