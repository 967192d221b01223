// Package rootfind discovers a project root directory for a file path and
// language_id by walking parent directories looking for language-specific
// marker files, falling back to VCS markers and finally the file's own
// parent directory.
package rootfind

import (
	"os"
	"path/filepath"
	"strings"
)

// markersByLanguage lists the exact filenames that indicate a project root
// for a given language_id. Entries with a leading "*." are matched by
// extension instead of exact name.
var markersByLanguage = map[string][]string{
	"rust":    {"Cargo.toml"},
	"php":     {"composer.json"},
	"js":      {"package.json"},
	"ts":      {"package.json"},
	"python":  {"setup.py", "Pipfile", "requirements.txt", "pyproject.toml"},
	"c":       {"compile_commands.json"},
	"cpp":     {"compile_commands.json"},
	"cs":      {"project.json", "*.csproj"},
	"java":    {"pom.xml", "settings.gradle", "settings.gradle.kts", "WORKSPACE"},
	"scala":   {"build.sbt"},
	"haskell": {"stack.yaml", "*.cabal"},
	"go":      {"go.mod"},
}

var vcsMarkers = []string{".git", ".hg", ".svn"}

// Logger is the minimal interface rootfind needs to report the "unknown
// language, no VCS marker" fallback case.
type Logger interface {
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...interface{}) {}

// Find walks up from filepath.Dir(filePath) looking for a language marker,
// then a VCS marker, and finally falls back to the file's parent directory.
// logger may be nil.
func Find(filePath, languageID string, logger Logger) string {
	if logger == nil {
		logger = nopLogger{}
	}
	start := filepath.Dir(filePath)

	if markers, ok := markersByLanguage[languageID]; ok {
		if root, found := walkUp(start, markers); found {
			return root
		}
	}

	if root, found := walkUp(start, vcsMarkers); found {
		return root
	}

	if _, ok := markersByLanguage[languageID]; !ok {
		logger.Warnf("rootfind: unknown language_id %q and no VCS marker found above %s, using parent directory", languageID, start)
	}
	return start
}

// walkUp ascends from dir to the filesystem root, returning the first
// directory containing one of markers.
func walkUp(dir string, markers []string) (string, bool) {
	for {
		if hasAny(dir, markers) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func hasAny(dir string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(m, "*") {
			matches, err := filepath.Glob(filepath.Join(dir, m))
			if err == nil && len(matches) > 0 {
				return true
			}
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return true
		}
	}
	return false
}
