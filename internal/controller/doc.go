// Package controller is the single gate through which settings reach a live
// grid.
//
// A Controller owns one grid handle (bound with SetGridApi) and one settings
// Store. Profile applications are posted to a single-slot mailbox consumed by
// one worker goroutine, so at most one pipeline runs at a time and at most one
// request waits behind it. A request posted to an idle worker is claimed at
// once and always runs; only a waiting request can be overwritten by a newer
// one, which then returns ErrSuperseded.
//
// The pipeline runs in a fixed order:
//
//	(a) toolbar and grid-option bags into the Store
//	(b) defaultColDef, expanded into a computed style
//	(c) remaining grid options, sorted by key
//	(d) structural grid state
//	(e) per-column overrides
//	(f) one header+cell refresh on the next frame, only if something was written
//
// Every native write is preceded by a read and a canonical comparison;
// unchanged values are skipped, so applying the same profile twice performs
// no writes the second time. A failing write is logged and recorded in the
// ApplyReport and does not stop sibling writes or later steps.
//
// Toolbar and grid-option edits from continuous input go through per-channel
// debouncers; only the last value inside the quiescence window is committed.
package controller
