package constants

import "strings"

// SourceTypes holds the allowed source types for an extraction.
var SourceTypes = []string{"IMAGE", "TXT"}

const (
	IMAGE = "IMAGE"
	TXT   = "TXT"
)

// AllowedExtensions holds the default allowed file extensions for report uploads.
var AllowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to a source type, or "" if unsupported.
func MapExtToFormat(ext string) string {
	if ext == "txt" {
		return TXT
	}
	if _, ok := AllowedExtensions[ext]; ok {
		return IMAGE
	}
	return ""
}
