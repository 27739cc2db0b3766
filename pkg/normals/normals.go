// Package normals derives a tangent-space normal map from a color or albedo texture.
//
// The luminance of the input is treated as a height field. The image is split
// into overlapping square tiles which are processed concurrently and blended
// back together, so the overlap controls how strongly tile borders are smoothed.
package normals

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"texmaps/internal/models"
	"texmaps/pkg/progress"
)

// Overlap selects how much adjacent tiles overlap.
type Overlap string

const (
	OverlapSmall  Overlap = "SMALL"
	OverlapMedium Overlap = "MEDIUM"
	OverlapLarge  Overlap = "LARGE"
)

// Overlaps lists the accepted overlap values.
var Overlaps = []string{string(OverlapSmall), string(OverlapMedium), string(OverlapLarge)}

// fraction returns the overlap as a fraction of the tile size.
func (o Overlap) fraction() (float64, error) {
	switch o {
	case OverlapSmall:
		return 1.0 / 6, nil
	case OverlapMedium:
		return 1.0 / 4, nil
	case OverlapLarge:
		return 1.0 / 2, nil
	}
	return 0, fmt.Errorf("unknown overlap %q", string(o))
}

const (
	// DefaultTileSize is the edge length of a processing tile in pixels.
	DefaultTileSize = 256

	// strength scales luminance gradients into normal tilt.
	strength = 4.0
)

// Params configures the tiling.
type Params struct {
	// TileSize is the edge length of a square tile. Zero selects DefaultTileSize.
	TileSize int

	// Workers bounds the number of tiles processed at once. Zero uses all CPUs.
	Workers int
}

// Apply converts t into a normal map with the default tiling.
func Apply(t *models.Tensor, overlap Overlap, r progress.Reporter) (*models.Tensor, error) {
	return ApplyWithParams(t, overlap, Params{}, r)
}

// ApplyWithParams converts t into a 3-channel normal map with the same spatial size.
//
// Parameters:
//   - t: a 1, 3 or 4 channel tensor; alpha is ignored
//   - overlap: tile overlap
//   - params: tile size and worker bound
//   - r: progress reporter, one tick per finished tile
//
// Returns:
//   - The normal map encoded as n*0.5+0.5 (OpenGL convention), or an error for
//     an unsupported channel count
func ApplyWithParams(t *models.Tensor, overlap Overlap, params Params, r progress.Reporter) (*models.Tensor, error) {
	frac, err := overlap.fraction()
	if err != nil {
		return nil, err
	}
	if t == nil || t.Rank() != 3 {
		return nil, fmt.Errorf("color_to_normals: expected a rank-3 tensor")
	}
	c, h, w := t.Dims()
	if c != 1 && c != 3 && c != 4 {
		return nil, fmt.Errorf("color_to_normals: expected 1, 3 or 4 channels, got %d", c)
	}

	tileSize := params.TileSize
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	heights := luminance(t)

	tileW := min(tileSize, w)
	tileH := min(tileSize, h)
	padX := int(float64(tileW) * frac)
	padY := int(float64(tileH) * frac)
	xs := tileStarts(w, tileW, tileW-padX)
	ys := tileStarts(h, tileH, tileH-padY)

	type origin struct{ x, y int }
	var origins []origin
	for _, y0 := range ys {
		for _, x0 := range xs {
			origins = append(origins, origin{x0, y0})
		}
	}

	counter := progress.NewCounter(r, len(origins))

	// Tiles are computed in parallel and blended in a fixed order afterwards
	tiles := make([][]float64, len(origins))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i, o := range origins {
		i, o := i, o
		g.Go(func() error {
			tiles[i] = normalTile(heights, w, o.x, o.y, tileW, tileH)
			counter.Step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acc := make([]float64, 3*h*w)
	weights := make([]float64, h*w)
	weight := tileWeights(tileW, tileH, padX, padY)
	for i, o := range origins {
		tile := tiles[i]
		for ty := 0; ty < tileH; ty++ {
			for tx := 0; tx < tileW; tx++ {
				ti := ty*tileW + tx
				ii := (o.y+ty)*w + o.x + tx
				wt := weight[ti]
				for ch := 0; ch < 3; ch++ {
					acc[ch*h*w+ii] += wt * tile[ch*tileW*tileH+ti]
				}
				weights[ii] += wt
			}
		}
	}

	out := models.NewTensor(3, h, w)
	for ch := 0; ch < 3; ch++ {
		for i := 0; i < h*w; i++ {
			var n float64
			if weights[i] > 0 {
				n = acc[ch*h*w+i] / weights[i]
			}
			out.Data[ch*h*w+i] = n
		}
	}

	// Blending shortens the vectors slightly; renormalize and encode
	plane := h * w
	for i := 0; i < plane; i++ {
		nx, ny, nz := out.Data[i], out.Data[plane+i], out.Data[2*plane+i]
		l := math.Sqrt(nx*nx + ny*ny + nz*nz)
		if l == 0 {
			nx, ny, nz, l = 0, 0, 1, 1
		}
		out.Data[i] = nx/l*0.5 + 0.5
		out.Data[plane+i] = ny/l*0.5 + 0.5
		out.Data[2*plane+i] = nz/l*0.5 + 0.5
	}

	counter.Done()
	return out, nil
}

// luminance returns a single height plane from the color channels.
func luminance(t *models.Tensor) []float64 {
	c, h, w := t.Dims()
	if c == 1 {
		return append([]float64(nil), t.Plane(0)...)
	}
	r, g, b := t.Plane(0), t.Plane(1), t.Plane(2)
	out := make([]float64, h*w)
	for i := range out {
		out[i] = 0.2126*r[i] + 0.7152*g[i] + 0.0722*b[i]
	}
	return out
}

// tileStarts returns the origins of tiles of the given size covering [0, size).
// The last tile is aligned to the end so every tile lies fully inside.
func tileStarts(size, tile, stride int) []int {
	if stride < 1 {
		stride = 1
	}
	if tile >= size {
		return []int{0}
	}
	var starts []int
	for pos := 0; ; pos += stride {
		if pos+tile >= size {
			starts = append(starts, size-tile)
			break
		}
		starts = append(starts, pos)
	}
	return starts
}

// tileWeights builds a separable ramp that fades over the overlap band.
func tileWeights(tileW, tileH, padX, padY int) []float64 {
	wx := ramp(tileW, padX)
	wy := ramp(tileH, padY)
	out := make([]float64, tileW*tileH)
	for y := 0; y < tileH; y++ {
		for x := 0; x < tileW; x++ {
			out[y*tileW+x] = wx[x] * wy[y]
		}
	}
	return out
}

func ramp(n, pad int) []float64 {
	out := make([]float64, n)
	for i := range out {
		v := 1.0
		if pad > 0 {
			v = math.Min(v, float64(i+1)/float64(pad+1))
			v = math.Min(v, float64(n-i)/float64(pad+1))
		}
		out[i] = v
	}
	return out
}

// normalTile computes unencoded normals for one tile with Sobel gradients.
// Samples outside the tile are clamped to its border.
func normalTile(heights []float64, stride, x0, y0, tileW, tileH int) []float64 {
	at := func(x, y int) float64 {
		x = max(0, min(tileW-1, x))
		y = max(0, min(tileH-1, y))
		return heights[(y0+y)*stride+x0+x]
	}

	plane := tileW * tileH
	out := make([]float64, 3*plane)
	for y := 0; y < tileH; y++ {
		for x := 0; x < tileW; x++ {
			dx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			dy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			dx *= strength / 8
			dy *= strength / 8

			// Image rows grow downwards while the green channel points up
			nx, ny, nz := -dx, dy, 1.0
			l := math.Sqrt(nx*nx + ny*ny + nz*nz)
			i := y*tileW + x
			out[i] = nx / l
			out[plane+i] = ny / l
			out[2*plane+i] = nz / l
		}
	}
	return out
}
