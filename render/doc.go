// Package render interleaves literal template text with the output of
// embedded statements.
//
// A template is scanned for spans delimited by [OpenMarker] and
// [CloseMarker]. Text outside spans is copied to the output unchanged. The
// text inside each span is handed to an [Interpreter], which executes exactly
// one statement and reports where it ended; only trivia may separate that
// end from the close marker.
//
// All spans of one render share a single [Env], so bindings made in one span
// are visible in every later span.
package render
