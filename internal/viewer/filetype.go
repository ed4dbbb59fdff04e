package viewer

import (
	"path/filepath"
	"strings"
)

// Extensions the media server serves as plain text.
var textExts = map[string]bool{
	".go":   true,
	".sh":   true,
	".mod":  true,
	".sum":  true,
	".txt":  true,
	".md":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// Extensions the media server converts before display.
var convertibleExts = map[string]bool{
	".rtf":        true,
	".webarchive": true,
}

// IsText reports whether path is shown as raw text content.
func IsText(path string) bool {
	return textExts[strings.ToLower(filepath.Ext(path))]
}

// IsConvertible reports whether path needs server-side conversion.
func IsConvertible(path string) bool {
	return convertibleExts[strings.ToLower(filepath.Ext(path))]
}
