package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adityaks/labreport-extractor/constants"
	"github.com/adityaks/labreport-extractor/internal/common"
	"github.com/adityaks/labreport-extractor/internal/engine"
	"github.com/adityaks/labreport-extractor/internal/export"
	"github.com/adityaks/labreport-extractor/internal/format"
	"github.com/adityaks/labreport-extractor/internal/ocr"
	"github.com/adityaks/labreport-extractor/internal/pipeline"
)

// fileOutput is one processed input in the JSON output stream.
type fileOutput struct {
	Filename        string          `json:"filename"`
	Records         []format.Record `json:"data"`
	TotalTestsFound int             `json:"total_tests_found"`
	Error           string          `json:"error,omitempty"`
}

func main() {
	outFormat := flag.String("format", "json", "output format: json | xlsx")
	outPath := flag.String("o", "", "output file (default stdout for json, lab-tests.xlsx for xlsx)")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-file processing timeout")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		logger.Error("usage: labextract [-format json|xlsx] [-o out] <file-or-dir>...")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.TesseractLang,
		TessdataDir:         cfg.OCR.TessdataDir,
		PSM:                 cfg.OCR.PSM,
		OEM:                 cfg.OCR.OEM,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
	}, logger)
	eng := engine.New(engine.Config{
		MatchThreshold: cfg.Engine.MatchThreshold,
		RowTolerance:   cfg.Engine.RowTolerance,
	})
	proc := processor.New(extractor, nil, eng, logger)

	paths := collectInputs(flag.Args(), logger)
	if len(paths) == 0 {
		logger.Error("no supported input files found")
		os.Exit(1)
	}

	var outputs []fileOutput
	for _, path := range paths {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		res, err := proc.Process(ctx, path, filepath.Base(path))
		cancel()

		out := fileOutput{Filename: filepath.Base(path)}
		if err != nil {
			out.Error = err.Error()
			logger.Error("labextract.file.failed", "path", path, "error", err)
		} else {
			out.Records = res.Records
			out.TotalTestsFound = res.TotalFound
			logger.Info("labextract.file.done", "path", path, "tests_found", res.TotalFound)
		}
		outputs = append(outputs, out)
	}

	switch *outFormat {
	case "xlsx":
		writeXLSX(outputs, *outPath, logger)
	default:
		writeJSON(outputs, *outPath, logger)
	}
}

// collectInputs expands directories one level deep and keeps supported
// extensions only.
func collectInputs(args []string, logger *slog.Logger) []string {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			logger.Warn("labextract.input.skipped", "path", arg, "error", err)
			continue
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			logger.Warn("labextract.input.skipped", "path", arg, "error", err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := constants.NormalizeExt(filepath.Ext(e.Name()))
			if constants.MapExtToFormat(ext) == "" {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	return paths
}

func writeJSON(outputs []fileOutput, outPath string, logger *slog.Logger) {
	w := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			logger.Error("labextract.output.create_failed", "path", outPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		logger.Error("labextract.output.encode_failed", "error", err)
		os.Exit(1)
	}
}

func writeXLSX(outputs []fileOutput, outPath string, logger *slog.Logger) {
	if outPath == "" {
		outPath = "lab-tests.xlsx"
	}
	exporter := export.NewService(logger)

	// one workbook, source-file column distinguishes inputs
	var all []format.Record
	source := "batch"
	if len(outputs) == 1 {
		source = outputs[0].Filename
	}
	for _, o := range outputs {
		all = append(all, o.Records...)
	}
	b, err := exporter.ExportRecordsXLSX(source, all)
	if err != nil {
		logger.Error("labextract.output.xlsx_failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, b, 0o644); err != nil {
		logger.Error("labextract.output.write_failed", "path", outPath, "error", err)
		os.Exit(1)
	}
	logger.Info("labextract.output.written", "path", outPath, "records", len(all))
}
