package height

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2D performs an unnormalized 2D Fast Fourier Transform in place.
// The transform runs over rows first and then over columns, each pass using
// a Gonum complex FFT of the matching length, so the grid does not need to be
// square or a power of two.
//
// Parameters:
//   - data: grid of complex samples in row-major order
//   - width, height: grid dimensions
//   - inverse: compute the backward transform instead of the forward one
func fft2D(data []complex128, width, height int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(width)
	colFFT := fourier.NewCmplxFFT(height)

	transform := func(t *fourier.CmplxFFT, buf []complex128) {
		if inverse {
			t.Sequence(buf, buf)
		} else {
			t.Coefficients(buf, buf)
		}
	}

	// Row pass works directly on the backing slice
	for y := 0; y < height; y++ {
		transform(rowFFT, data[y*width:(y+1)*width])
	}

	// Column pass needs a gather/scatter buffer
	col := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = data[y*width+x]
		}
		transform(colFFT, col)
		for y := 0; y < height; y++ {
			data[y*width+x] = col[y]
		}
	}
}

// angularFreq returns the signed angular frequency of coefficient i for a
// transform of the given length.
func angularFreq(t *fourier.CmplxFFT, i int) float64 {
	return 2 * math.Pi * t.Freq(i)
}
