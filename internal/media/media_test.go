package media

import (
	"bytes"
	"image"
	"testing"
)

func TestSequenceHelpers(t *testing.T) {
	var empty *Sequence
	if empty.Len() != 0 || empty.Duration() != 0 {
		t.Fatal("nil sequence should be empty")
	}
	seq := &Sequence{
		Frames: []*image.RGBA{image.NewRGBA(image.Rect(0, 0, 4, 2)), image.NewRGBA(image.Rect(0, 0, 4, 2))},
		FPS:    25,
	}
	if w, h := seq.Size(); w != 4 || h != 2 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
	if seq.Duration() != 0.08 {
		t.Fatalf("unexpected duration %v", seq.Duration())
	}
}

func TestCheckUniform(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(10, 10, 14, 14))
	c := image.NewRGBA(image.Rect(0, 0, 5, 4))
	if err := CheckUniform(nil); err != nil {
		t.Fatalf("empty input: %v", err)
	}
	if err := CheckUniform([]*image.RGBA{a, b}); err != nil {
		t.Fatalf("same size with different origin should pass: %v", err)
	}
	if err := CheckUniform([]*image.RGBA{a, b, c}); err == nil {
		t.Fatal("expected mismatch error")
	}
	if err := CheckUniform([]*image.RGBA{a, nil}); err == nil {
		t.Fatal("expected nil frame error")
	}
}

func TestPackedPix(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := range full.Pix {
		full.Pix[i] = byte(i)
	}
	if got := PackedPix(full); &got[0] != &full.Pix[0] || len(got) != len(full.Pix) {
		t.Fatal("packed frame should be returned as-is")
	}
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	got := PackedPix(sub)
	want := append(append([]byte{}, full.Pix[16:24]...), full.Pix[28:36]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("PackedPix(sub) = %v, want %v", got, want)
	}
}
