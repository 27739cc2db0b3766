package normals

import (
	"math"
	"testing"

	"texmaps/internal/models"
	"texmaps/pkg/progress"
)

// TestTileStarts verifies that tiles cover the whole axis and stay inside it
func TestTileStarts(t *testing.T) {
	tests := []struct {
		size, tile, stride int
		expected           []int
	}{
		{64, 256, 128, []int{0}},
		{256, 256, 128, []int{0}},
		{300, 256, 128, []int{0, 44}},
		{512, 256, 192, []int{0, 192, 256}},
		{10, 4, 3, []int{0, 3, 6}},
	}

	for _, tt := range tests {
		got := tileStarts(tt.size, tt.tile, tt.stride)
		if len(got) != len(tt.expected) {
			t.Errorf("tileStarts(%d, %d, %d): expected %v, got %v", tt.size, tt.tile, tt.stride, tt.expected, got)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("tileStarts(%d, %d, %d): expected %v, got %v", tt.size, tt.tile, tt.stride, tt.expected, got)
				break
			}
		}
	}
}

// TestFlatInput verifies that a constant image yields straight-up normals
func TestFlatInput(t *testing.T) {
	in := models.NewTensor(3, 32, 32)
	for i := range in.Data {
		in.Data[i] = 0.4
	}

	out, err := Apply(in, OverlapMedium, progress.None())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	expected := []float64{0.5, 0.5, 1.0}
	for c, v := range expected {
		for _, got := range out.Plane(c) {
			if math.Abs(got-v) > 1e-9 {
				t.Fatalf("Channel %d: expected %f, got %f", c, v, got)
			}
		}
	}
}

// TestShapePreserved runs a 3x64x64 input through several tiles
func TestShapePreserved(t *testing.T) {
	in := models.NewTensor(3, 64, 64)
	for c := 0; c < 3; c++ {
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				in.Set(c, y, x, 0.5+0.5*math.Sin(float64(x+y)/5))
			}
		}
	}

	var ticks [][2]int
	out, err := ApplyWithParams(in, OverlapMedium, Params{TileSize: 24, Workers: 3},
		progress.To(func(c, n int) { ticks = append(ticks, [2]int{c, n}) }))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	c, h, w := out.Dims()
	if c != 3 || h != 64 || w != 64 {
		t.Fatalf("Expected 3x64x64, got %v", out)
	}

	for _, v := range out.Data {
		if v < 0 || v > 1 || math.IsNaN(v) {
			t.Fatalf("Output value %f outside [0,1]", v)
		}
	}

	if len(ticks) < 2 {
		t.Fatalf("Expected progress ticks, got %v", ticks)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i][0] < ticks[i-1][0] {
			t.Fatalf("Ticks went backwards: %v", ticks)
		}
	}
	last := ticks[len(ticks)-1]
	if last[0] != last[1] {
		t.Errorf("Expected final tick current == total, got %v", last)
	}
}

// TestSlopeDirection verifies the OpenGL convention on a ramp rising to the right
func TestSlopeDirection(t *testing.T) {
	in := models.NewTensor(1, 16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			in.Set(0, y, x, float64(x)/15)
		}
	}

	out, err := Apply(in, OverlapSmall, progress.None())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// A surface rising to the right faces left: red below 0.5
	if r := out.At(0, 8, 8); r >= 0.5 {
		t.Errorf("Expected red < 0.5 for a rightward slope, got %f", r)
	}
	if g := out.At(1, 8, 8); math.Abs(g-0.5) > 1e-9 {
		t.Errorf("Expected green 0.5 without vertical slope, got %f", g)
	}
}

// TestDeterministicAcrossWorkers checks that tile scheduling does not change the result
func TestDeterministicAcrossWorkers(t *testing.T) {
	in := models.NewTensor(3, 40, 40)
	for i := range in.Data {
		in.Data[i] = float64((i*7919)%97) / 96
	}

	a, err := ApplyWithParams(in, OverlapLarge, Params{TileSize: 16, Workers: 1}, progress.None())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	b, err := ApplyWithParams(in, OverlapLarge, Params{TileSize: 16, Workers: 8}, progress.None())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for i := range a.Data {
		if math.Abs(a.Data[i]-b.Data[i]) > 1e-9 {
			t.Fatalf("Results differ at %d: %f vs %f", i, a.Data[i], b.Data[i])
		}
	}
}

func TestInvalidInput(t *testing.T) {
	if _, err := Apply(models.NewTensor(2, 8, 8), OverlapSmall, progress.None()); err == nil {
		t.Errorf("Expected error for 2-channel input")
	}
	if _, err := Apply(models.NewTensor(3, 8, 8), Overlap("HUGE"), progress.None()); err == nil {
		t.Errorf("Expected error for unknown overlap")
	}
}
