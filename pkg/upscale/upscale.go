// Package upscale synthesizes a higher-resolution texture from a low-resolution one.
package upscale

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"texmaps/internal/models"
	"texmaps/pkg/progress"
)

// ScaleFactor is the upscaling ratio.
type ScaleFactor string

const (
	ScaleX2 ScaleFactor = "x2"
	ScaleX4 ScaleFactor = "x4"
)

// ScaleFactors lists the accepted scale factors.
var ScaleFactors = []string{string(ScaleX2), string(ScaleX4)}

// Factor returns the integer ratio.
func (s ScaleFactor) Factor() (int, error) {
	switch s {
	case ScaleX2:
		return 2, nil
	case ScaleX4:
		return 4, nil
	}
	return 0, fmt.Errorf("unknown scale factor %q", string(s))
}

// Apply resamples every channel of t with a Catmull-Rom kernel.
//
// Parameters:
//   - t: tensor with any number of channels
//   - scale: x2 or x4
//   - r: progress reporter, one tick per channel
//
// Returns:
//   - A tensor with the same channel count and each spatial dimension multiplied by the factor
func Apply(t *models.Tensor, scale ScaleFactor, r progress.Reporter) (*models.Tensor, error) {
	f, err := scale.Factor()
	if err != nil {
		return nil, err
	}
	if t == nil || t.Rank() != 3 {
		return nil, fmt.Errorf("lowres_to_highres: expected a rank-3 tensor")
	}
	c, h, w := t.Dims()

	out := models.NewTensor(c, h*f, w*f)
	src := image.NewGray16(image.Rect(0, 0, w, h))
	dst := image.NewGray16(image.Rect(0, 0, w*f, h*f))

	r.Report(0, c)
	for ch := 0; ch < c; ch++ {
		planeToGray16(t.Plane(ch), src)
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		gray16ToPlane(dst, out.Plane(ch))
		r.Report(ch+1, c)
	}

	return out, nil
}

// planeToGray16 quantizes a unit-range plane into img, clamping out-of-range values.
func planeToGray16(plane []float64, img *image.Gray16) {
	w := img.Bounds().Dx()
	for i, v := range plane {
		v = math.Max(0, math.Min(1, v))
		if math.IsNaN(v) {
			v = 0
		}
		img.SetGray16(i%w, i/w, color.Gray16{Y: uint16(math.Round(v * 65535))})
	}
}

func gray16ToPlane(img *image.Gray16, plane []float64) {
	w := img.Bounds().Dx()
	for i := range plane {
		plane[i] = float64(img.Gray16At(i%w, i/w).Y) / 65535
	}
}
