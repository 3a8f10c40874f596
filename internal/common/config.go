package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	OCR        OCRConfig
	Engine     EngineConfig
	Vocabulary VocabularyConfig
	Detector   DetectorConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr        string
	UploadDir       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract           string
	TesseractLang       string
	TessdataDir         string
	PSM                 int
	OEM                 int
	EnableTSVConfidence bool
}

// EngineConfig holds extraction engine thresholds
type EngineConfig struct {
	RowTolerance   float64
	MatchThreshold float64
}

// VocabularyConfig holds the canonical test-name vocabulary sources.
// SQLiteDSN takes precedence over CSVPath; with neither set the embedded
// default vocabulary is used.
type VocabularyConfig struct {
	CSVPath   string
	SQLiteDSN string
}

// DetectorConfig holds the external region-detector invocation.
type DetectorConfig struct {
	Command string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			UploadDir:       getEnv("UPLOAD_DIR", "temp_uploads"),
			RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:           getEnv("TESSERACT", "tesseract"),
			TesseractLang:       getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:         getEnv("TESSDATA_PREFIX", ""),
			PSM:                 getEnvAsInt("TESSERACT_PSM", 6),
			OEM:                 getEnvAsInt("TESSERACT_OEM", 0),
			EnableTSVConfidence: getEnvAsBool("OCR_TSV_CONFIDENCE", true),
		},
		Engine: EngineConfig{
			RowTolerance:   getEnvAsFloat64("ROW_TOLERANCE", 20),
			MatchThreshold: getEnvAsFloat64("MATCH_THRESHOLD", 0.4),
		},
		Vocabulary: VocabularyConfig{
			CSVPath:   getEnv("VOCAB_PATH", ""),
			SQLiteDSN: getEnv("VOCAB_SQLITE_DSN", ""),
		},
		Detector: DetectorConfig{
			Command: getEnv("DETECTOR_CMD", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.UploadDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR is required", ErrInvalidInput)
	}
	if c.Engine.RowTolerance <= 0 {
		return NewAppError("CONFIG_ERROR", "ROW_TOLERANCE must be positive", ErrInvalidInput)
	}
	if c.Engine.MatchThreshold <= 0 || c.Engine.MatchThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "MATCH_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	return nil
}
