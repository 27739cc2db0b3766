// Package imageio reads image files into raw pixel-interleaved arrays and
// writes raw arrays back to image files.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"texmaps/internal/models"
)

// Read decodes the image file at path.
// Grayscale images produce 1 channel, opaque color images 3 channels and
// images with transparency 4 channels. Samples are reduced to 8 bits.
func Read(path string) (*models.RawImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return FromImage(img), nil
}

// FromImage converts a decoded image into a raw array.
func FromImage(img image.Image) *models.RawImage {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	channels := 4
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		channels = 1
	default:
		if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
			channels = 3
		}
	}

	raw := models.NewRawImage(height, width, channels)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * channels
			px := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			if channels == 1 {
				raw.Pix[i] = color.GrayModel.Convert(px).(color.Gray).Y
				continue
			}
			c := color.NRGBAModel.Convert(px).(color.NRGBA)
			raw.Pix[i] = c.R
			raw.Pix[i+1] = c.G
			raw.Pix[i+2] = c.B
			if channels == 4 {
				raw.Pix[i+3] = c.A
			}
		}
	}

	return raw
}

// ToImage converts a raw array with 1, 3 or 4 channels into an image.
func ToImage(raw *models.RawImage) (image.Image, error) {
	if raw == nil || raw.Rank() != 3 {
		return nil, fmt.Errorf("expected a rank-3 image")
	}
	height, width, channels := raw.Dims()
	if len(raw.Pix) != height*width*channels {
		return nil, fmt.Errorf("image %v holds %d samples", raw, len(raw.Pix))
	}

	switch channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, width, height))
		copy(img.Pix, raw.Pix)
		return img, nil
	case 3, 4:
		img := image.NewNRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < width*height; i++ {
			img.Pix[4*i] = raw.Pix[i*channels]
			img.Pix[4*i+1] = raw.Pix[i*channels+1]
			img.Pix[4*i+2] = raw.Pix[i*channels+2]
			img.Pix[4*i+3] = 255
			if channels == 4 {
				img.Pix[4*i+3] = raw.Pix[i*channels+3]
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("cannot write %d-channel image", channels)
}

// Write encodes raw to path. The format follows the file extension.
// The image is written to a temporary file next to path and renamed into
// place, so a failed write never leaves a partial file behind.
func Write(path string, raw *models.RawImage) error {
	encode, err := encoderFor(path)
	if err != nil {
		return err
	}
	img, err := ToImage(raw)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

type encoder func(io.Writer, image.Image) error

func encoderFor(path string) (encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", filepath.Ext(path))
}
