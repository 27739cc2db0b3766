// Package pipeline validates a transform request, decodes the input image,
// runs the selected transform and encodes the result.
//
// A run moves through four stages: validate, decode, transform and encode.
// The first failure ends the run; nothing is retried and no partial result is
// returned. Every error returned by Run is a *StageError naming the stage,
// wrapping one of *UnknownOperationError, *InvalidConfigurationError,
// *tensor.FormatError or *TransformError.
package pipeline

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"texmaps/internal/models"
	"texmaps/pkg/logging"
	"texmaps/pkg/progress"
	"texmaps/pkg/telemetry"
	"texmaps/pkg/tensor"
)

// Request describes one run. It is built once at the command boundary and
// passed by value.
type Request struct {
	// Operation is the registered transform name.
	Operation string

	// Option is the value for the transform's single configuration enum.
	Option string

	// Progress receives the transform's ticks. The zero value reports nothing.
	Progress progress.Reporter
}

// Inspector observes intermediate tensors: the decoded input (StageDecode)
// and the transform output (StageTransform). It must not modify them.
type Inspector func(stage Stage, t *models.Tensor)

// Dispatcher runs requests against a registry. It keeps no state between runs
// and may be shared by concurrent callers.
type Dispatcher struct {
	registry *Registry
	logger   logrus.FieldLogger
	metrics  *telemetry.Metrics
	inspect  Inspector
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for stage events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMetrics records run outcomes and delivered ticks in m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithInspector installs an observer for intermediate tensors.
func WithInspector(fn Inspector) Option {
	return func(d *Dispatcher) { d.inspect = fn }
}

// NewDispatcher creates a dispatcher for the given registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run converts raw with the requested transform.
//
// Parameters:
//   - raw: the input image, (height, width, channels) with 8-bit samples
//   - req: operation name, option value and progress reporter
//
// Returns:
//   - The transformed image, or a *StageError describing the first failure
func (d *Dispatcher) Run(raw *models.RawImage, req Request) (*models.RawImage, error) {
	start := time.Now()
	log := d.logger.WithField("operation", req.Operation)

	out, err := d.run(raw, req, log)
	if err != nil {
		stage := StageOf(err)
		d.metrics.ObserveRun(req.Operation, string(stage), time.Since(start))
		log.WithFields(logrus.Fields{"stage": stage, "error": err}).Debug("run failed")
		return nil, err
	}

	elapsed := time.Since(start)
	d.metrics.ObserveRun(req.Operation, "ok", elapsed)
	log.WithFields(logrus.Fields{
		"output":   out.String(),
		"duration": elapsed,
	}).Info("run completed")
	return out, nil
}

// Validate checks the operation and option of req without running anything.
func (d *Dispatcher) Validate(req Request) error {
	_, err := d.validate(req)
	return err
}

func (d *Dispatcher) validate(req Request) (Transform, error) {
	transform, err := d.registry.Lookup(req.Operation)
	if err == nil {
		err = transform.Validate(req.Option)
	}
	if err != nil {
		return Transform{}, &StageError{Stage: StageValidate, Operation: req.Operation, Err: err}
	}
	return transform, nil
}

func (d *Dispatcher) run(raw *models.RawImage, req Request, log logrus.FieldLogger) (*models.RawImage, error) {
	fail := func(stage Stage, err error) error {
		return &StageError{Stage: stage, Operation: req.Operation, Err: err}
	}

	// Step 1: resolve the operation and check its option
	transform, err := d.validate(req)
	if err != nil {
		return nil, err
	}

	// Step 2: decode into a plane-major tensor
	in, err := tensor.Decode(raw)
	if err != nil {
		return nil, fail(StageDecode, err)
	}
	log.WithFields(logrus.Fields{"input": in.String(), "option": req.Option}).Debug("decoded input")
	if d.inspect != nil {
		d.inspect(StageDecode, in)
	}

	// Step 3: run the transform
	reporter := req.Progress
	if d.metrics != nil {
		reporter = reporter.Wrap(func(int, int) { d.metrics.ObserveTick(req.Operation) })
	}
	result, err := transform.Apply(in, req.Option, reporter)
	if err != nil {
		return nil, fail(StageTransform, &TransformError{Operation: transform.Name, Err: err})
	}
	if result == nil {
		return nil, fail(StageTransform, &TransformError{
			Operation: transform.Name,
			Err:       errors.New("transform returned no result"),
		})
	}
	log.WithField("result", result.String()).Debug("transform finished")
	if d.inspect != nil {
		d.inspect(StageTransform, result)
	}

	// Step 4: quantize back to 8-bit pixels
	out, err := tensor.Encode(result)
	if err != nil {
		return nil, fail(StageEncode, err)
	}
	return out, nil
}
