// Package model loads and saves synthesis weights and defines the training
// capability. Weights are opaque bytes identified by their SHA256 digest; the
// predictor service is told which digest a run was started with.
package model
