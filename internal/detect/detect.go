// Package detect locates labeled field regions on a report image. The
// detector itself is an external model served behind a command-line adapter;
// this package owns the wire shape and turns detections into engine
// fragments.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adityaks/labreport-extractor/constants"
	"github.com/adityaks/labreport-extractor/internal/engine"
	"github.com/adityaks/labreport-extractor/internal/ocr"
)

// RegionDetector yields labeled, positioned text fragments for one image.
type RegionDetector interface {
	Detect(ctx context.Context, imagePath string) ([]engine.Fragment, error)
}

// Detection is one region in the adapter's JSON output.
type Detection struct {
	Label      string     `json:"label"`
	Box        [4]float64 `json:"box"` // x1, y1, x2, y2
	Confidence float64    `json:"confidence"`
	Text       string     `json:"text,omitempty"`
}

// ExecDetector shells out to a detector command that prints a JSON array of
// detections for the image path it is given. Detections with unknown labels
// or empty text are dropped, not errors: a partial detection set still
// yields partial rows downstream.
type ExecDetector struct {
	cmd    string
	args   []string
	runner ocr.Runner
	logger *slog.Logger
}

// NewExecDetector splits cmdline into command and fixed arguments; the image
// path is appended per call.
func NewExecDetector(cmdline string, runner ocr.Runner, logger *slog.Logger) (*ExecDetector, error) {
	parts := strings.Fields(cmdline)
	if len(parts) == 0 {
		return nil, fmt.Errorf("detector: empty command")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecDetector{cmd: parts[0], args: parts[1:], runner: runner, logger: logger}, nil
}

func (d *ExecDetector) Detect(ctx context.Context, imagePath string) ([]engine.Fragment, error) {
	args := append(append([]string{}, d.args...), imagePath)
	out, errb, err := d.runner.Run(ctx, d.cmd, args...)
	if err != nil {
		return nil, fmt.Errorf("detector: %s: %w (stderr: %s)", d.cmd, err, truncateStderr(errb))
	}

	var detections []Detection
	if err := json.Unmarshal(out, &detections); err != nil {
		return nil, fmt.Errorf("detector: decode output: %w", err)
	}

	fragments := make([]engine.Fragment, 0, len(detections))
	for _, det := range detections {
		label, ok := constants.ParseFieldLabel(det.Label)
		if !ok {
			d.logger.Warn("detect.unknown_label", "label", det.Label)
			continue
		}
		if strings.TrimSpace(det.Text) == "" {
			continue
		}
		fragments = append(fragments, engine.Fragment{
			Text:       det.Text,
			Label:      label,
			Box:        engine.Box{X1: det.Box[0], Y1: det.Box[1], X2: det.Box[2], Y2: det.Box[3]},
			Confidence: det.Confidence,
		})
	}
	d.logger.Debug("detect.done", "image", imagePath, "detections", len(detections), "fragments", len(fragments))
	return fragments, nil
}

func truncateStderr(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 512 {
		return s[:512] + "..."
	}
	return s
}
