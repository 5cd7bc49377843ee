// Package preflight provides readiness checks for the filesystem paths,
// external binaries and capability services a generate run depends on.
//
// The generate command calls RunAll before any decoding starts so a run with
// an unwritable work directory or an unreachable detector fails in seconds.
// The deps command uses CheckSystemDeps to display binary availability.
package preflight
