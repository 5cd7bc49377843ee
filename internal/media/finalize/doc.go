// Package finalize re-encodes an assembled video to AV1 through the drapto
// library. It runs only when output.finalize_av1 is enabled.
package finalize
