// Package processor chains OCR, region detection and the extraction engine
// into one document-to-records pass, timing each stage for the response
// metadata.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adityaks/labreport-extractor/constants"
	"github.com/adityaks/labreport-extractor/internal/detect"
	"github.com/adityaks/labreport-extractor/internal/engine"
	"github.com/adityaks/labreport-extractor/internal/format"
	"github.com/adityaks/labreport-extractor/internal/ocr"
)

// LowConfidenceThreshold marks OCR output worth a manual look.
const LowConfidenceThreshold = 0.6

// TextExtractor is the OCR dependency; stubbed in tests.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Result is one processed document: the extracted records plus stage
// timings and OCR metadata.
type Result struct {
	Filename       string
	Records        []format.Record
	TotalFound     int
	OCRConfidence  float32
	NeedsReview    bool
	RawTextPreview string

	OCRTime   time.Duration
	ParseTime time.Duration
	TotalTime time.Duration
}

// Processor runs the extraction pipeline over uploaded files. Detector is
// optional; when absent every document takes the free-text path.
type Processor struct {
	Extractor TextExtractor
	Detector  detect.RegionDetector
	Engine    *engine.Engine
	Logger    *slog.Logger
}

func New(extractor TextExtractor, detector detect.RegionDetector, eng *engine.Engine, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if eng == nil {
		eng = engine.New(engine.Config{})
	}
	return &Processor{Extractor: extractor, Detector: detector, Engine: eng, Logger: logger}
}

// Process OCRs the file at path and extracts structured records from the
// text. Engine-level parse failures degrade to fewer records, never to an
// error; only OCR itself can fail the call.
func (p *Processor) Process(ctx context.Context, path, filename string) (Result, error) {
	start := time.Now()

	res, err := p.Extractor.Extract(ctx, path)
	ocrTime := time.Since(start)
	if err != nil {
		p.Logger.Error("processor.ocr.failed", "filename", filename, "error", err)
		return Result{Filename: filename, OCRTime: ocrTime, TotalTime: time.Since(start)}, fmt.Errorf("ocr extraction: %w", err)
	}

	needsReview := false
	if res.SourceType == constants.IMAGE && res.Confidence > 0 && res.Confidence < LowConfidenceThreshold {
		p.Logger.Warn("processor.ocr.low_confidence", "filename", filename, "confidence", res.Confidence)
		needsReview = true
	}

	parseStart := time.Now()
	results, stats := p.Engine.ExtractFromText(res.Text)
	parseTime := time.Since(parseStart)

	p.Logger.Info("processor.extract.done",
		"filename", filename,
		"lines_processed", stats.LinesProcessed,
		"tests_found", len(results),
		"ocr_ms", ocrTime.Milliseconds(),
		"parse_ms", parseTime.Milliseconds(),
	)

	records := format.FromResults(results)
	return Result{
		Filename:       filename,
		Records:        records,
		TotalFound:     len(records),
		OCRConfidence:  res.Confidence,
		NeedsReview:    needsReview,
		RawTextPreview: preview(res.Text, 500),
		OCRTime:        ocrTime,
		ParseTime:      parseTime,
		TotalTime:      time.Since(start),
	}, nil
}

// ProcessFragments runs the spatial path: the region detector labels field
// boxes, then the engine assembles rows and parses them. Falls back to
// Process when detection fails outright, since plain OCR still works on the
// same image.
func (p *Processor) ProcessFragments(ctx context.Context, path, filename string) (Result, error) {
	if p.Detector == nil {
		return p.Process(ctx, path, filename)
	}
	start := time.Now()

	fragments, err := p.Detector.Detect(ctx, path)
	if err != nil {
		p.Logger.Warn("processor.detect.failed", "filename", filename, "error", err)
		return p.Process(ctx, path, filename)
	}
	detectTime := time.Since(start)

	parseStart := time.Now()
	results := p.Engine.ExtractFromFragments(fragments)
	parseTime := time.Since(parseStart)

	p.Logger.Info("processor.extract.done",
		"filename", filename,
		"fragments", len(fragments),
		"tests_found", len(results),
		"detect_ms", detectTime.Milliseconds(),
		"parse_ms", parseTime.Milliseconds(),
	)

	records := format.FromResults(results)
	return Result{
		Filename:   filename,
		Records:    records,
		TotalFound: len(records),
		OCRTime:    detectTime,
		ParseTime:  parseTime,
		TotalTime:  time.Since(start),
	}, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
