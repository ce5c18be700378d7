package parser

import (
	"path/filepath"
	"strings"
)

// Language is a grammar the importer can parse site data modules with.
type Language int

const (
	LanguageUnknown Language = iota
	LanguageTypeScript
	LanguageTSX
	LanguageJavaScript
)

func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageTSX:
		return "tsx"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// DetectLanguage picks a grammar from a file extension. JSX goes through the
// JavaScript grammar, which understands it.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	case ".tsx":
		return LanguageTSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	default:
		return LanguageUnknown
	}
}
