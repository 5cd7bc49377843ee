// Package predictor provides lipsync.Predictor implementations. HTTPClient
// forwards synthesis requests to a model server as JSON; Null answers every
// request with an empty result.
package predictor
