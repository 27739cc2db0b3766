package pipeline

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"texmaps/internal/models"
	"texmaps/pkg/curvature"
	"texmaps/pkg/height"
	"texmaps/pkg/normals"
	"texmaps/pkg/progress"
	"texmaps/pkg/upscale"
)

// Operation names a transform.
type Operation string

const (
	ColorToNormals     Operation = "color_to_normals"
	NormalsToCurvature Operation = "normals_to_curvature"
	NormalsToHeight    Operation = "normals_to_height"
	LowresToHighres    Operation = "lowres_to_highres"
)

// ApplyFunc runs a transform. The option has already been validated against
// the transform's closed set.
type ApplyFunc func(t *models.Tensor, option string, r progress.Reporter) (*models.Tensor, error)

// Transform is a registry entry: the collaborator and its configuration schema.
type Transform struct {
	Name Operation

	// Flag is the option name shown to users, e.g. "overlap".
	Flag string

	// Options is the closed set of accepted option values.
	Options []string

	// Default is applied at the command boundary when no value is given.
	// An empty Default makes the option required.
	Default string

	Apply ApplyFunc
}

// Validate checks option against the closed set.
func (t Transform) Validate(option string) error {
	if !lo.Contains(t.Options, option) {
		return &InvalidConfigurationError{Operation: t.Name, Value: option, Allowed: t.Options}
	}
	return nil
}

// Registry maps operation names to transforms. It is not modified after construction.
type Registry struct {
	transforms map[Operation]Transform
}

// NewRegistry builds a registry from the given transforms.
func NewRegistry(transforms ...Transform) *Registry {
	r := &Registry{transforms: make(map[Operation]Transform, len(transforms))}
	for _, t := range transforms {
		r.transforms[t.Name] = t
	}
	return r
}

// Params tunes the built-in transforms.
type Params struct {
	TileSize int
	Workers  int
}

// DefaultRegistry wires the four built-in transforms.
func DefaultRegistry(p Params) *Registry {
	return NewRegistry(
		Transform{
			Name:    ColorToNormals,
			Flag:    "overlap",
			Options: normals.Overlaps,
			Default: string(normals.OverlapLarge),
			Apply: func(t *models.Tensor, option string, r progress.Reporter) (*models.Tensor, error) {
				return normals.ApplyWithParams(t, normals.Overlap(option),
					normals.Params{TileSize: p.TileSize, Workers: p.Workers}, r)
			},
		},
		Transform{
			Name:    NormalsToCurvature,
			Flag:    "blur_radius",
			Options: curvature.BlurRadii,
			Default: string(curvature.BlurMedium),
			Apply: func(t *models.Tensor, option string, r progress.Reporter) (*models.Tensor, error) {
				return curvature.Apply(t, curvature.BlurRadius(option), r)
			},
		},
		Transform{
			Name:    NormalsToHeight,
			Flag:    "seamless",
			Options: height.SeamlessModes,
			Default: string(height.SeamlessOff),
			Apply: func(t *models.Tensor, option string, r progress.Reporter) (*models.Tensor, error) {
				return height.Apply(t, height.Seamless(option), r)
			},
		},
		Transform{
			Name:    LowresToHighres,
			Flag:    "scale_factor",
			Options: upscale.ScaleFactors,
			Apply: func(t *models.Tensor, option string, r progress.Reporter) (*models.Tensor, error) {
				return upscale.Apply(t, upscale.ScaleFactor(option), r)
			},
		},
	)
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Transform, error) {
	t, ok := r.transforms[Operation(name)]
	if !ok {
		return Transform{}, &UnknownOperationError{Name: name, Known: r.Names()}
	}
	return t, nil
}

// Names lists the registered operations in sorted order.
func (r *Registry) Names() []string {
	names := lo.Map(lo.Keys(r.transforms), func(op Operation, _ int) string { return string(op) })
	slices.Sort(names)
	return names
}

// Transforms lists the registered transforms sorted by name.
func (r *Registry) Transforms() []Transform {
	out := lo.Values(r.transforms)
	slices.SortFunc(out, func(a, b Transform) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
