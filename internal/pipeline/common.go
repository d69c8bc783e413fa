package pipeline

import (
	"path/filepath"
	"slices"
	"strings"
)

var supportedFormats = []string{"png", "jpeg", "bmp", "tiff"}

// FormatFromPath maps a file extension to an encoder name. Unknown
// extensions fall back to detected, then to png.
func FormatFromPath(path, detected string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	default:
		if detected != "" {
			return detected
		}
		return "png"
	}
}

func SupportedFormats() []string {
	return slices.Clone(supportedFormats)
}

func IsSupportedFormat(format string) bool {
	return slices.Contains(supportedFormats, strings.ToLower(format))
}
