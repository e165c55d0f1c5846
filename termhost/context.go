package termhost

import (
	"path/filepath"
	"strings"
)

// extensionContexts maps file extensions to the context identifiers an
// editor would use as the filetype.
var extensionContexts = map[string]string{
	".go":    "go",
	".lua":   "lua",
	".py":    "python",
	".rb":    "ruby",
	".sh":    "sh",
	".bash":  "sh",
	".zsh":   "zsh",
	".js":    "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".jsx":   "javascriptreact",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".rs":    "rust",
	".java":  "java",
	".kt":    "kotlin",
	".html":  "html",
	".htm":   "html",
	".xml":   "xml",
	".css":   "css",
	".sql":   "sql",
	".hs":    "haskell",
	".vim":   "vim",
	".el":    "lisp",
	".lisp":  "lisp",
	".scm":   "scheme",
	".clj":   "clojure",
	".erl":   "erlang",
	".tex":   "tex",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".ini":   "ini",
	".md":    "markdown",
	".txt":   "text",
	".json":  "json",
	".proto": "proto",
}

// ContextForPath guesses the context identifier of a file from its name.
// Unknown extensions yield the extension without the dot.
func ContextForPath(path string) string {
	base := filepath.Base(path)
	switch base {
	case "Makefile", "makefile", "GNUmakefile":
		return "make"
	case "Dockerfile":
		return "dockerfile"
	case "COMMIT_EDITMSG":
		return "gitcommit"
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ctx, ok := extensionContexts[ext]; ok {
		return ctx
	}
	return strings.TrimPrefix(ext, ".")
}
