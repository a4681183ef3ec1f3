package suggest

import (
	"path/filepath"
	"strings"
)

// Language detection based on file extension
var extensionToLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".pyw":  "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".mts":  "typescript",
	".cts":  "typescript",
	".rs":   "rust",
	".rb":   "ruby",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".hpp":  "cpp",
	".hxx":  "cpp",
	".cs":   "csharp",
	".sh":   "bash",
	".bash": "bash",
	".zsh":  "bash",
	".kt":   "kotlin",
	".php":  "php",
	".sql":  "sql",
	".vue":  "vue",
}

// DetectLanguage detects the programming language from a filename
func DetectLanguage(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}

	switch strings.ToLower(filepath.Base(filename)) {
	case "dockerfile":
		return "dockerfile"
	case "makefile", "gnumakefile":
		return "make"
	}

	return ""
}

// IsSourceFile reports whether a file is worth suggesting as a scan path.
func IsSourceFile(filename string) bool {
	base := filepath.Base(filename)
	if strings.HasPrefix(base, ".") {
		return false
	}

	lowerBase := strings.ToLower(base)
	for _, suffix := range []string{".min.js", ".d.ts", ".d.mts", ".d.cts", ".pb.go", "_gen.go"} {
		if strings.HasSuffix(lowerBase, suffix) {
			return false
		}
	}

	return DetectLanguage(filename) != ""
}
