// Package preview saves the planes of intermediate tensors as grayscale
// images so a run can be inspected stage by stage.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"texmaps/internal/models"
	"texmaps/pkg/pipeline"
)

// Viewer extracts planes from a (channels, height, width) tensor
type Viewer struct {
	tensor *models.Tensor
}

// NewViewer creates a viewer for t
func NewViewer(t *models.Tensor) *Viewer {
	return &Viewer{tensor: t}
}

// ExtractPlane renders channel c as a 16-bit grayscale image.
// Values are clamped to [0, 1].
func (v *Viewer) ExtractPlane(c int) (image.Image, error) {
	if v.tensor == nil || v.tensor.Rank() != 3 {
		return nil, fmt.Errorf("expected a rank-3 tensor")
	}
	channels, height, width := v.tensor.Dims()
	if c < 0 || c >= channels {
		return nil, fmt.Errorf("channel %d out of range [0, %d)", c, channels)
	}

	img := image.NewGray16(image.Rect(0, 0, width, height))
	plane := v.tensor.Plane(c)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			s := plane[y*width+x]
			if math.IsNaN(s) {
				s = 0
			}
			value := uint16(math.Round(math.Max(0, math.Min(1, s)) * 65535))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return img, nil
}

// SavePlane writes an extracted plane as a PNG image
func (v *Viewer) SavePlane(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SavePlanes writes every channel to outputDir as plane_00.png, plane_01.png, ...
func (v *Viewer) SavePlanes(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if v.tensor == nil || v.tensor.Rank() != 3 {
		return fmt.Errorf("expected a rank-3 tensor")
	}

	channels, _, _ := v.tensor.Dims()
	for c := 0; c < channels; c++ {
		img, err := v.ExtractPlane(c)
		if err != nil {
			return err
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("plane_%02d.png", c))
		if err := v.SavePlane(img, filename); err != nil {
			return err
		}
	}
	return nil
}

// Inspector returns a pipeline inspector that saves each observed tensor
// under dir/<nn>_<stage>. Failures are logged and do not affect the run.
func Inspector(dir string, logger logrus.FieldLogger) pipeline.Inspector {
	order := map[pipeline.Stage]int{
		pipeline.StageDecode:    1,
		pipeline.StageTransform: 2,
	}
	return func(stage pipeline.Stage, t *models.Tensor) {
		stageDir := filepath.Join(dir, fmt.Sprintf("%02d_%s", order[stage], stage))
		if err := NewViewer(t).SavePlanes(stageDir); err != nil {
			logger.WithField("stage", stage).WithError(err).Warn("failed to save intermediary planes")
			return
		}
		logger.WithFields(logrus.Fields{"stage": stage, "dir": stageDir}).Debug("saved intermediary planes")
	}
}
