package models

import "fmt"

// Tensor is an in-memory texture in plane-major layout.
// Shape is [channels, height, width] and values are nominally in [0,1].
type Tensor struct {
	// Shape holds the dimensions of the tensor. A well-formed tensor has rank 3.
	Shape []int

	// Data holds the samples plane by plane, each plane in row-major order.
	Data []float64
}

// RawImage is a decoded image file in pixel-interleaved layout.
// Shape is [height, width, channels] and values are 8-bit integers.
type RawImage struct {
	// Shape holds the dimensions of the image. A well-formed image has rank 3.
	Shape []int

	// Pix holds the samples pixel by pixel, channels interleaved.
	Pix []uint8
}

// NewTensor allocates a zeroed tensor with the given dimensions.
func NewTensor(channels, height, width int) *Tensor {
	return &Tensor{
		Shape: []int{channels, height, width},
		Data:  make([]float64, channels*height*width),
	}
}

// NewRawImage allocates a zeroed raw image with the given dimensions.
func NewRawImage(height, width, channels int) *RawImage {
	return &RawImage{
		Shape: []int{height, width, channels},
		Pix:   make([]uint8, height*width*channels),
	}
}

// Rank returns the number of dimensions of the tensor.
func (t *Tensor) Rank() int { return len(t.Shape) }

// Dims returns channels, height and width. It panics if the tensor is not rank 3.
func (t *Tensor) Dims() (channels, height, width int) {
	return t.Shape[0], t.Shape[1], t.Shape[2]
}

// Plane returns the samples of channel c. The returned slice aliases Data.
func (t *Tensor) Plane(c int) []float64 {
	_, h, w := t.Dims()
	return t.Data[c*h*w : (c+1)*h*w]
}

// At returns the sample of channel c at (x, y).
func (t *Tensor) At(c, y, x int) float64 {
	_, h, w := t.Dims()
	return t.Data[c*h*w+y*w+x]
}

// Set stores v in channel c at (x, y).
func (t *Tensor) Set(c, y, x int, v float64) {
	_, h, w := t.Dims()
	t.Data[c*h*w+y*w+x] = v
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// String describes the tensor shape, e.g. "3x64x64".
func (t *Tensor) String() string { return shapeString(t.Shape) }

// Rank returns the number of dimensions of the image.
func (r *RawImage) Rank() int { return len(r.Shape) }

// Dims returns height, width and channels. It panics if the image is not rank 3.
func (r *RawImage) Dims() (height, width, channels int) {
	return r.Shape[0], r.Shape[1], r.Shape[2]
}

// String describes the image shape, e.g. "64x64x3".
func (r *RawImage) String() string { return shapeString(r.Shape) }

func shapeString(shape []int) string {
	s := ""
	for i, d := range shape {
		if i > 0 {
			s += "x"
		}
		s += fmt.Sprint(d)
	}
	return s
}
