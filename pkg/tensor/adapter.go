// Package tensor converts between the pixel-interleaved 8-bit images read from
// disk and the plane-major unit-range tensors the transforms operate on.
package tensor

import (
	"fmt"
	"math"

	"texmaps/internal/models"
)

// FormatError reports an array whose rank or size does not match the expected layout.
type FormatError struct {
	// Op is the conversion that rejected the input ("decode" or "encode").
	Op string

	// Shape is the offending shape.
	Shape []int

	// Reason describes what is wrong with the shape.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed array with shape %v: %s", e.Op, e.Shape, e.Reason)
}

// Decode converts a raw image (height, width, channels) with values in [0,255]
// into a tensor (channels, height, width) with values in [0,1].
//
// Parameters:
//   - raw: the decoded image file
//
// Returns:
//   - A newly allocated tensor, or a *FormatError if raw is not a rank-3 array
func Decode(raw *models.RawImage) (*models.Tensor, error) {
	if raw == nil {
		return nil, &FormatError{Op: "decode", Reason: "nil image"}
	}
	if err := checkShape("decode", raw.Shape, len(raw.Pix)); err != nil {
		return nil, err
	}

	h, w, c := raw.Dims()
	t := models.NewTensor(c, h, w)
	plane := h * w

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src := (y*w + x) * c
			dst := y*w + x
			for ch := 0; ch < c; ch++ {
				t.Data[ch*plane+dst] = float64(raw.Pix[src+ch]) / 255
			}
		}
	}

	return t, nil
}

// Encode converts a tensor (channels, height, width) with values in [0,1]
// into a raw image (height, width, channels) with values in [0,255].
// Values are rounded to the nearest integer and clamped, so transforms that
// overshoot the unit range slightly still produce a valid image. NaN encodes as 0.
//
// Parameters:
//   - t: the tensor to quantize
//
// Returns:
//   - A newly allocated raw image, or a *FormatError if t is not a rank-3 array
func Encode(t *models.Tensor) (*models.RawImage, error) {
	if t == nil {
		return nil, &FormatError{Op: "encode", Reason: "nil tensor"}
	}
	if err := checkShape("encode", t.Shape, len(t.Data)); err != nil {
		return nil, err
	}

	c, h, w := t.Dims()
	raw := models.NewRawImage(h, w, c)
	plane := h * w

	for ch := 0; ch < c; ch++ {
		for i := 0; i < plane; i++ {
			raw.Pix[i*c+ch] = quantize(t.Data[ch*plane+i])
		}
	}

	return raw, nil
}

// quantize maps a unit-range value to the nearest 8-bit integer.
func quantize(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v * 255)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func checkShape(op string, shape []int, n int) error {
	if len(shape) != 3 {
		return &FormatError{Op: op, Shape: shape, Reason: fmt.Sprintf("rank %d, want 3", len(shape))}
	}
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return &FormatError{Op: op, Shape: shape, Reason: "dimensions must be positive"}
		}
		size *= d
	}
	if size != n {
		return &FormatError{Op: op, Shape: shape, Reason: fmt.Sprintf("holds %d values, want %d", n, size)}
	}
	return nil
}
