package region

import (
	"fmt"
	"image"
	"image/draw"

	"omnisync/internal/services"
)

// BBox is an axis-aligned face bounding box in frame pixel coordinates.
type BBox struct {
	X, Y, W, H int
}

// Rect converts the box to an image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Mouth region ratios relative to the face box.
const (
	topRatio    = 0.67
	heightRatio = 0.33
	leftRatio   = 0.2
	widthRatio  = 0.6
)

// MouthRect returns the lower-third mouth rectangle for a face box without
// clamping. Offsets and sizes truncate toward zero.
func MouthRect(b BBox) image.Rectangle {
	top := b.Y + int(float64(b.H)*topRatio)
	left := b.X + int(float64(b.W)*leftRatio)
	height := int(float64(b.H) * heightRatio)
	width := int(float64(b.W) * widthRatio)
	return image.Rect(left, top, left+width, top+height)
}

// Extract copies the mouth region of bbox out of frame. The region is
// intersected with the frame bounds; an empty intersection returns
// ErrEmptyRegion. The returned image has its origin at (0, 0) and never
// aliases frame.
func Extract(frame *image.RGBA, bbox BBox) (*image.RGBA, error) {
	if frame == nil {
		return nil, services.Wrap(services.ErrInvalidArgument, "region", "extract", "nil frame", nil)
	}
	want := MouthRect(bbox)
	r := want.Intersect(frame.Bounds())
	if r.Empty() {
		return nil, services.Wrap(services.ErrEmptyRegion, "region", "extract",
			fmt.Sprintf("mouth region %v outside frame %v", want, frame.Bounds()), nil)
	}
	crop := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(crop, crop.Bounds(), frame, r.Min, draw.Src)
	return crop, nil
}
