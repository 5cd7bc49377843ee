// Package features holds audio feature matrices and aligns them onto a video
// frame timeline.
//
// Alignment is nearest-preceding-column resampling: every video frame takes
// exactly one audio column and the chosen column index never decreases as the
// frame index grows.
package features
