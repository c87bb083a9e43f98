// Package backend abstracts over Git-backed and DVS-only workspaces:
// root detection, path normalization relative to that root, and
// gitignore-style ignore pattern matching.
//
// Grounded on the original Rust helpers::backend/ignore modules
// (dvs-core/src/helpers/backend.rs, ignore.rs), translated to Go, and on
// the pack's github.com/gobwas/glob (used by treeverse-lakeFS for glob
// matching) for the pattern engine in place of git2's ignore rules.
package backend

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Names of the ignore files consulted by each backend kind.
const (
	GitignoreFile  = ".gitignore"
	DVSignoreFile  = ".dvsignore"
	PlainIgnoreFile = ".ignore"
)

// Patterns holds a compiled set of ignore globs, tested against slash-
// separated paths relative to the workspace root.
type Patterns struct {
	globs []glob.Glob
}

// IsIgnored reports whether relPath (slash-separated, relative to root)
// matches any loaded pattern. A leading '!' is not treated as negation:
// such a line is an ordinary pattern.
func (p Patterns) IsIgnored(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, g := range p.globs {
		// Matching "/"+relPath as well lets a "**/" prefix stand for zero
		// directories, so a bare name also matches at the top level.
		if g.Match(relPath) || g.Match("/"+relPath) {
			return true
		}
	}
	return false
}

func compilePatterns(lines []string) (Patterns, error) {
	var out Patterns
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		pattern := line
		if !strings.Contains(pattern, "/") {
			// A bare name (no slash) matches at any depth, mirroring
			// gitignore semantics for unanchored patterns.
			pattern = "**/" + pattern
		}
		if strings.HasSuffix(pattern, "/") {
			pattern += "**"
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return Patterns{}, err
		}
		out.globs = append(out.globs, g)
	}
	return out, nil
}

func loadIgnoreFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return strings.Split(string(data), "\n"), nil
}

// LoadGitignorePatterns loads and compiles root/.gitignore.
func LoadGitignorePatterns(root string) (Patterns, error) {
	lines, err := loadIgnoreFile(filepath.Join(root, GitignoreFile))
	if err != nil {
		return Patterns{}, err
	}
	return compilePatterns(lines)
}

// LoadDVSIgnorePatterns loads and compiles root/.dvsignore plus
// root/.ignore, in that order.
func LoadDVSIgnorePatterns(root string) (Patterns, error) {
	var lines []string
	for _, name := range []string{DVSignoreFile, PlainIgnoreFile} {
		fileLines, err := loadIgnoreFile(filepath.Join(root, name))
		if err != nil {
			return Patterns{}, err
		}
		lines = append(lines, fileLines...)
	}
	return compilePatterns(lines)
}

func appendIgnorePattern(path, pattern string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return err
	}
	return nil
}

// AddGitignorePattern appends pattern to root/.gitignore.
func AddGitignorePattern(root, pattern string) error {
	return appendIgnorePattern(filepath.Join(root, GitignoreFile), pattern)
}

// AddDVSIgnorePattern appends pattern to root/.dvsignore.
func AddDVSIgnorePattern(root, pattern string) error {
	return appendIgnorePattern(filepath.Join(root, DVSignoreFile), pattern)
}
