package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "temp_uploads", cfg.Server.UploadDir)
	assert.Equal(t, "tesseract", cfg.OCR.Tesseract)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, 20.0, cfg.Engine.RowTolerance)
	assert.Equal(t, 0.4, cfg.Engine.MatchThreshold)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MATCH_THRESHOLD", "0.6")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("OCR_TSV_CONFIDENCE", "false")
	t.Setenv("TESSERACT_PSM", "garbage") // unparseable falls back

	cfg := LoadConfig()
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 0.6, cfg.Engine.MatchThreshold)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.False(t, cfg.OCR.EnableTSVConfidence)
	assert.Equal(t, 6, cfg.OCR.PSM)
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Engine.MatchThreshold = 1.5
	err := cfg.Validate()
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAppError(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError("OCR_FAILED", "tesseract exited", cause)

	assert.Contains(t, err.Error(), "OCR_FAILED")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, errors.Is(err, cause))

	assert.Nil(t, WrapError(nil, "ignored"))
	assert.ErrorContains(t, WrapError(cause, "context"), "context: boom")
}
