package media

import (
	"fmt"
	"image"
)

// Sequence is an ordered run of RGBA video frames at a fixed frame rate.
type Sequence struct {
	Frames []*image.RGBA
	FPS    float64
}

// Len returns the number of frames.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Frames)
}

// Size returns the dimensions of the first frame.
func (s *Sequence) Size() (width, height int) {
	if s.Len() == 0 {
		return 0, 0
	}
	b := s.Frames[0].Bounds()
	return b.Dx(), b.Dy()
}

// Duration returns the sequence length in seconds, or 0 when FPS is unknown.
func (s *Sequence) Duration() float64 {
	if s == nil || s.FPS <= 0 {
		return 0
	}
	return float64(len(s.Frames)) / s.FPS
}

// CheckUniform reports the first frame whose dimensions differ from frame 0.
func CheckUniform(frames []*image.RGBA) error {
	if len(frames) == 0 {
		return nil
	}
	if frames[0] == nil {
		return fmt.Errorf("frame 0 is nil")
	}
	want := frames[0].Bounds().Size()
	for i, frame := range frames[1:] {
		if frame == nil {
			return fmt.Errorf("frame %d is nil", i+1)
		}
		if got := frame.Bounds().Size(); got != want {
			return fmt.Errorf("frame %d is %dx%d, want %dx%d", i+1, got.X, got.Y, want.X, want.Y)
		}
	}
	return nil
}

// PackedPix returns the pixel bytes of frame as tightly packed rows. The
// frame's own buffer is returned when it is already packed.
func PackedPix(frame *image.RGBA) []byte {
	b := frame.Bounds()
	rowLen := b.Dx() * 4
	if frame.Stride == rowLen && frame.PixOffset(b.Min.X, b.Min.Y) == 0 {
		return frame.Pix[:rowLen*b.Dy()]
	}
	out := make([]byte, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := frame.PixOffset(b.Min.X, y)
		out = append(out, frame.Pix[off:off+rowLen]...)
	}
	return out
}
