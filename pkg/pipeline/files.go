package pipeline

import (
	"fmt"

	"texmaps/pkg/imageio"
)

// RunFile reads inPath, runs req and writes the result to outPath.
// The output file is only created when every stage succeeded.
func (d *Dispatcher) RunFile(inPath, outPath string, req Request) error {
	// Reject bad requests before touching the file system
	if err := d.Validate(req); err != nil {
		return err
	}

	raw, err := imageio.Read(inPath)
	if err != nil {
		return fmt.Errorf("failed to read input image: %w", err)
	}
	d.logger.WithField("path", inPath).WithField("shape", raw.String()).Debug("loaded input image")

	out, err := d.Run(raw, req)
	if err != nil {
		return err
	}

	if err := imageio.Write(outPath, out); err != nil {
		return fmt.Errorf("failed to write output image: %w", err)
	}
	d.logger.WithField("path", outPath).Info("output image saved")
	return nil
}
