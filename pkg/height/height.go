// Package height reconstructs a height map from a tangent-space normal map.
//
// The normal map is turned into a gradient field which is integrated in the
// Fourier domain with the Frankot-Chellappa projection. Integration in the
// Fourier domain assumes a periodic surface; unless a seamless result is
// requested the gradient field is mirrored first so the borders do not wrap.
package height

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	"texmaps/internal/models"
	"texmaps/pkg/progress"
)

// Seamless selects whether the result must tile without visible edges.
type Seamless string

const (
	SeamlessOn  Seamless = "TRUE"
	SeamlessOff Seamless = "FALSE"
)

// SeamlessModes lists the accepted seamless values.
var SeamlessModes = []string{string(SeamlessOn), string(SeamlessOff)}

// Bool converts the option to a boolean.
func (s Seamless) Bool() (bool, error) {
	switch s {
	case SeamlessOn:
		return true, nil
	case SeamlessOff:
		return false, nil
	}
	return false, fmt.Errorf("unknown seamless mode %q", string(s))
}

const (
	// passes is the number of progress ticks Apply emits after the initial one.
	passes = 4

	// minNZ keeps steep or malformed normals from producing unbounded slopes.
	minNZ = 0.05
)

// Apply integrates a normal map into a single-channel height map in [0,1].
//
// Parameters:
//   - t: normal map with at least 3 channels, encoded as n*0.5+0.5
//   - seamless: TRUE to treat the texture as periodic
//   - r: progress reporter, one tick per FFT or solve pass
//
// Returns:
//   - A 1 x H x W tensor, or an error for an unsupported channel count
func Apply(t *models.Tensor, seamless Seamless, r progress.Reporter) (*models.Tensor, error) {
	periodic, err := seamless.Bool()
	if err != nil {
		return nil, err
	}
	if t == nil || t.Rank() != 3 {
		return nil, fmt.Errorf("normals_to_height: expected a rank-3 tensor")
	}
	c, h, w := t.Dims()
	if c < 3 {
		return nil, fmt.Errorf("normals_to_height: expected at least 3 channels, got %d", c)
	}

	r.Report(0, passes)

	p, q := gradients(t)

	gw, gh := w, h
	if !periodic {
		p, q = mirror(p, q, w, h)
		gw, gh = 2*w, 2*h
	}

	P := make([]complex128, gw*gh)
	Q := make([]complex128, gw*gh)
	for i := range P {
		P[i] = complex(p[i], 0)
		Q[i] = complex(q[i], 0)
	}
	fft2D(P, gw, gh, false)
	fft2D(Q, gw, gh, false)
	r.Report(1, passes)

	// Least-squares integrable surface: Z = -j(wx P + wy Q) / (wx^2 + wy^2)
	rowFFT := fourier.NewCmplxFFT(gw)
	colFFT := fourier.NewCmplxFFT(gh)
	Z := P
	for ky := 0; ky < gh; ky++ {
		wy := angularFreq(colFFT, ky)
		for kx := 0; kx < gw; kx++ {
			i := ky*gw + kx
			wx := angularFreq(rowFFT, kx)
			d := wx*wx + wy*wy
			if d == 0 {
				Z[i] = 0
				continue
			}
			Z[i] = complex(0, -1) * (complex(wx, 0)*P[i] + complex(wy, 0)*Q[i]) / complex(d, 0)
		}
	}
	r.Report(2, passes)

	fft2D(Z, gw, gh, true)
	r.Report(3, passes)

	out := models.NewTensor(1, h, w)
	plane := out.Plane(0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			plane[y*w+x] = real(Z[y*gw+x])
		}
	}
	normalize(plane)

	r.Report(passes, passes)
	return out, nil
}

// gradients returns the surface slopes dz/dx and dz/dy in image coordinates.
func gradients(t *models.Tensor) (p, q []float64) {
	_, h, w := t.Dims()
	red, green, blue := t.Plane(0), t.Plane(1), t.Plane(2)
	p = make([]float64, h*w)
	q = make([]float64, h*w)
	for i := range p {
		nx := 2*red[i] - 1
		ny := 2*green[i] - 1
		nz := math.Max(2*blue[i]-1, minNZ)
		// Green points up while rows grow downwards
		p[i] = -nx / nz
		q[i] = ny / nz
	}
	return p, q
}

// mirror extends the gradient field to 2w x 2h by reflection. Reflecting the
// surface across a vertical axis negates dz/dx, across a horizontal axis dz/dy.
func mirror(p, q []float64, w, h int) ([]float64, []float64) {
	mw, mh := 2*w, 2*h
	mp := make([]float64, mw*mh)
	mq := make([]float64, mw*mh)
	for y := 0; y < mh; y++ {
		sy, fy := y, 1.0
		if y >= h {
			sy, fy = mh-1-y, -1
		}
		for x := 0; x < mw; x++ {
			sx, fx := x, 1.0
			if x >= w {
				sx, fx = mw-1-x, -1
			}
			mp[y*mw+x] = fx * p[sy*w+sx]
			mq[y*mw+x] = fy * q[sy*w+sx]
		}
	}
	return mp, mq
}

// normalize rescales values to [0,1]; a flat surface maps to 0.5.
func normalize(v []float64) {
	lo, hi := floats.Min(v), floats.Max(v)
	if hi-lo < 1e-12 {
		for i := range v {
			v[i] = 0.5
		}
		return
	}
	floats.AddConst(-lo, v)
	floats.Scale(1/(hi-lo), v)
}
