// Package parser reconstructs team race records (laps, stints, pit stops)
// from the text extracted out of the timing vendor's result documents.
//
// The documents have no published format. Every pattern in this package was
// derived from sample exports and the extraction is best-effort: unmatched
// input is skipped rather than reported, and Parse only fails when nothing at
// all could be recovered.
package parser
