package converter

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultOutput derives the output path for a conversion from its input:
// "data/店铺.json" becomes "data/店铺-模板.xlsx" and back, where "-模板" is
// the template suffix.
func DefaultOutput(inputFile, templateSuffix string) (string, error) {
	ext := filepath.Ext(inputFile)
	base := strings.TrimSuffix(inputFile, ext)

	switch strings.ToLower(ext) {
	case ".json":
		return base + templateSuffix + ".xlsx", nil
	case ".xlsx":
		return strings.TrimSuffix(base, templateSuffix) + ".json", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
}
