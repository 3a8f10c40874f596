package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/adityaks/labreport-extractor/internal/common"
	"github.com/adityaks/labreport-extractor/internal/detect"
	"github.com/adityaks/labreport-extractor/internal/engine"
	"github.com/adityaks/labreport-extractor/internal/export"
	"github.com/adityaks/labreport-extractor/internal/ocr"
	"github.com/adityaks/labreport-extractor/internal/pipeline"
	"github.com/adityaks/labreport-extractor/internal/server"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slogger)

	// Env
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Vocabulary: sqlite > csv > embedded
	vocab, source, err := loadVocabulary(cfg.Vocabulary)
	if err != nil {
		log.Fatalf("loading vocabulary: %v", err)
	}
	log.Infow("vocabulary loaded", "source", source, "terms", vocab.Len())

	eng := engine.New(engine.Config{
		Vocabulary:     vocab,
		MatchThreshold: cfg.Engine.MatchThreshold,
		RowTolerance:   cfg.Engine.RowTolerance,
	})

	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:           cfg.OCR.Tesseract,
		TesseractLang:       cfg.OCR.TesseractLang,
		TessdataDir:         cfg.OCR.TessdataDir,
		PSM:                 cfg.OCR.PSM,
		OEM:                 cfg.OCR.OEM,
		EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
	}, slogger)

	var detector detect.RegionDetector
	if cfg.Detector.Command != "" {
		d, err := detect.NewExecDetector(cfg.Detector.Command, ocr.ExecRunner(), slogger)
		if err != nil {
			log.Fatalf("configuring detector: %v", err)
		}
		detector = d
		log.Infow("region detector enabled", "cmd", cfg.Detector.Command)
	}

	proc := processor.New(extractor, detector, eng, slogger)
	exporter := export.NewService(slogger)

	srv := server.New(cfg.Server, proc, exporter, slogger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	log.Infof("HTTP serving on %s", cfg.Server.HTTPAddr)

	select {
	case <-ctx.Done():
		log.Info("shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Fatalf("http serve: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	log.Info("bye")
}

func loadVocabulary(cfg common.VocabularyConfig) (*engine.Vocabulary, string, error) {
	switch {
	case cfg.SQLiteDSN != "":
		v, err := engine.LoadVocabularySQLite(cfg.SQLiteDSN)
		return v, "sqlite", err
	case cfg.CSVPath != "":
		v, err := engine.LoadVocabularyCSV(cfg.CSVPath)
		return v, "csv", err
	default:
		return engine.DefaultVocabulary(), "embedded", nil
	}
}
