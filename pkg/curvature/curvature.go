// Package curvature derives a curvature map from a tangent-space normal map.
package curvature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"texmaps/internal/models"
	"texmaps/pkg/progress"
)

// BlurRadius selects the smoothing applied to the curvature estimate.
type BlurRadius string

const (
	BlurSmallest BlurRadius = "SMALLEST"
	BlurSmaller  BlurRadius = "SMALLER"
	BlurSmall    BlurRadius = "SMALL"
	BlurMedium   BlurRadius = "MEDIUM"
	BlurLarge    BlurRadius = "LARGE"
	BlurLarger   BlurRadius = "LARGER"
	BlurLargest  BlurRadius = "LARGEST"
)

// BlurRadii lists the accepted blur radius values, smallest first.
var BlurRadii = []string{
	string(BlurSmallest), string(BlurSmaller), string(BlurSmall), string(BlurMedium),
	string(BlurLarge), string(BlurLarger), string(BlurLargest),
}

// fraction returns the blur sigma relative to the larger image side.
func (b BlurRadius) fraction() (float64, error) {
	for i, name := range BlurRadii {
		if string(b) == name {
			return 1 / float64(int(2048)>>i), nil
		}
	}
	return 0, fmt.Errorf("unknown blur radius %q", string(b))
}

// passes is the number of progress ticks Apply emits after the initial one.
const passes = 4

// Apply computes a single-channel curvature map from a normal map.
// Convex regions are brighter than 0.5, concave regions darker.
func Apply(t *models.Tensor, radius BlurRadius, r progress.Reporter) (*models.Tensor, error) {
	frac, err := radius.fraction()
	if err != nil {
		return nil, err
	}
	if t == nil || t.Rank() != 3 {
		return nil, fmt.Errorf("normals_to_curvature: expected a rank-3 tensor")
	}
	c, h, w := t.Dims()
	if c < 3 {
		return nil, fmt.Errorf("normals_to_curvature: expected at least 3 channels, got %d", c)
	}

	r.Report(0, passes)

	// Divergence of the tangent-plane components of the normal field
	nx, ny := t.Plane(0), t.Plane(1)
	div := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			xl, xr := max(x-1, 0), min(x+1, w-1)
			yu, yd := max(y-1, 0), min(y+1, h-1)
			// Encoded values differ from decoded ones by an affine map; the
			// scale is dropped by the normalization below.
			dnx := nx[y*w+xr] - nx[y*w+xl]
			dny := ny[yd*w+x] - ny[yu*w+x]
			// Rows grow downwards while green points up
			div[y*w+x] = dnx - dny
		}
	}
	r.Report(1, passes)

	sigma := math.Max(0.5, frac*float64(max(w, h)))
	kernel := gaussianKernel(sigma)

	tmp := make([]float64, h*w)
	blurRows(div, tmp, w, h, kernel)
	r.Report(2, passes)
	blurCols(tmp, div, w, h, kernel)
	r.Report(3, passes)

	out := models.NewTensor(1, h, w)
	plane := out.Plane(0)
	copy(plane, div)

	// Map the signed curvature around 0.5 using the largest magnitude
	peak := math.Max(math.Abs(floats.Min(plane)), math.Abs(floats.Max(plane)))
	if peak > 1e-12 {
		floats.Scale(0.5/peak, plane)
	} else {
		floats.Scale(0, plane)
	}
	floats.AddConst(0.5, plane)

	r.Report(passes, passes)
	return out, nil
}

// gaussianKernel returns a normalized kernel covering three sigmas.
func gaussianKernel(sigma float64) []float64 {
	radius := int(math.Ceil(3 * sigma))
	k := make([]float64, 2*radius+1)
	for i := range k {
		d := float64(i - radius)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

func blurRows(src, dst []float64, w, h int, k []float64) {
	radius := len(k) / 2
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var s float64
			for i, kv := range k {
				xx := max(0, min(w-1, x+i-radius))
				s += kv * row[xx]
			}
			dst[y*w+x] = s
		}
	}
}

func blurCols(src, dst []float64, w, h int, k []float64) {
	radius := len(k) / 2
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var s float64
			for i, kv := range k {
				yy := max(0, min(h-1, y+i-radius))
				s += kv * src[yy*w+x]
			}
			dst[y*w+x] = s
		}
	}
}
