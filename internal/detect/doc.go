// Package detect provides FaceLocator implementations.
//
// HTTPLocator posts each frame as PNG to a detection sidecar and picks the
// first detection at or above the configured confidence threshold. None
// reports a miss for every frame, which routes the whole run through the
// passthrough branch.
package detect
