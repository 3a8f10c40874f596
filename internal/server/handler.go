package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/adityaks/labreport-extractor/constants"
	"github.com/adityaks/labreport-extractor/internal/common"
	"github.com/adityaks/labreport-extractor/internal/format"
	"github.com/adityaks/labreport-extractor/internal/pipeline"
)

// maxUploadBytes caps the multipart memory buffer; larger files spill to disk.
const maxUploadBytes = 32 << 20

// extractResponse is the upload endpoint's JSON body. Timing fields are
// seconds, matching what report-rendering clients already consume.
type extractResponse struct {
	Filename            string          `json:"filename"`
	Data                []format.Record `json:"data"`
	TotalTestsFound     int             `json:"total_tests_found"`
	OCRProcessingTime   float64         `json:"ocr_processing_time"`
	ParsingTime         float64         `json:"parsing_time"`
	TotalProcessingTime float64         `json:"total_processing_time"`
	RawTextPreview      string          `json:"raw_text_preview"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, map[string]any{
		"service":   "labreport-extractor",
		"upload":    "POST /get-lab-tests (multipart field: file)",
		"health":    "GET /health",
		"supported": supportedExtensions(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJson(w, map[string]string{"status": "ok"})
}

// handleGetLabTests accepts a multipart upload, runs the pipeline and
// returns the extracted records. `?mode=spatial` routes through the region
// detector; `?format=xlsx` returns a workbook instead of JSON.
func (s *Server) handleGetLabTests(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if constants.MapExtToFormat(ext) == "" {
		writeError(w, http.StatusUnsupportedMediaType, fmt.Errorf("%w: %q", common.ErrUnsupported, ext))
		return
	}

	tmpPath, err := s.saveUpload(file, ext)
	if err != nil {
		s.logger.Error("server.upload.save_failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmpPath)

	var result processor.Result
	if r.URL.Query().Get("mode") == "spatial" {
		result, err = s.processor.ProcessFragments(r.Context(), tmpPath, header.Filename)
	} else {
		result, err = s.processor.Process(r.Context(), tmpPath, header.Filename)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		s.writeWorkbook(w, header.Filename, result)
		return
	}

	writeJson(w, extractResponse{
		Filename:            result.Filename,
		Data:                result.Records,
		TotalTestsFound:     result.TotalFound,
		OCRProcessingTime:   result.OCRTime.Seconds(),
		ParsingTime:         result.ParseTime.Seconds(),
		TotalProcessingTime: result.TotalTime.Seconds(),
		RawTextPreview:      result.RawTextPreview,
	})
}

func (s *Server) writeWorkbook(w http.ResponseWriter, filename string, result processor.Result) {
	b, err := s.exporter.ExportRecordsXLSX(filename, result.Records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="lab-tests.xlsx"`)
	_, _ = w.Write(b)
}

// saveUpload copies the uploaded stream to a uuid-named file under the
// configured upload directory.
func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, uuid.NewString()+"."+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

func supportedExtensions() []string {
	exts := make([]string, 0, len(constants.AllowedExtensions)+1)
	for ext := range constants.AllowedExtensions {
		exts = append(exts, ext)
	}
	exts = append(exts, "txt")
	sort.Strings(exts)
	return exts
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)

	text := http.StatusText(code)
	if err != nil {
		text = err.Error()
	}

	_, _ = w.Write([]byte(text))
}
