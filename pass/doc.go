// Package pass runs transformation passes over a warpsync module.
//
// A Manager executes an ordered list of passes, optionally verifying the
// module before the pipeline and after every pass, and records the outcome
// of each pass in a Report. Passes register themselves by name so that a
// pipeline can be assembled from a string such as
// "convert-syncwarp-to-pascal".
package pass
