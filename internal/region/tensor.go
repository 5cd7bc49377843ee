package region

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"omnisync/internal/services"
)

// Channels is the number of colour planes in a visual tensor (R, G, B).
const Channels = 3

// VisualTensor is a channel-major (CHW) float32 tensor with values in [0, 1].
type VisualTensor struct {
	C, H, W int
	Data    []float32
}

// At returns the value for channel c at row y, column x.
func (t VisualTensor) At(c, y, x int) float32 {
	return t.Data[(c*t.H+y)*t.W+x]
}

// Tensor resizes crop to grid x grid with bilinear filtering and converts it
// to a normalized CHW tensor. Alpha is dropped.
func Tensor(crop image.Image, grid int) (VisualTensor, error) {
	if grid <= 0 {
		return VisualTensor{}, services.Wrap(services.ErrInvalidArgument, "region", "tensor", fmt.Sprintf("grid size must be positive, got %d", grid), nil)
	}
	if crop == nil || crop.Bounds().Empty() {
		return VisualTensor{}, services.Wrap(services.ErrEmptyRegion, "region", "tensor", "empty crop", nil)
	}

	scaled := image.NewRGBA(image.Rect(0, 0, grid, grid))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), crop, crop.Bounds(), xdraw.Src, nil)

	plane := grid * grid
	t := VisualTensor{C: Channels, H: grid, W: grid, Data: make([]float32, Channels*plane)}
	for y := range grid {
		row := scaled.Pix[y*scaled.Stride:]
		for x := range grid {
			px := row[x*4:]
			i := y*grid + x
			t.Data[i] = float32(px[0]) / 255
			t.Data[plane+i] = float32(px[1]) / 255
			t.Data[2*plane+i] = float32(px[2]) / 255
		}
	}
	return t, nil
}
