// Package region derives the mouth region of interest from a detected face
// box and prepares it as the visual input of the synthesis predictor.
//
// The region is the lower third of the box: it starts 67% of the way down,
// spans 33% of the height, and keeps the centre 60% of the width. Crops are
// clamped to the frame and scaled to a square grid with bilinear filtering.
package region
