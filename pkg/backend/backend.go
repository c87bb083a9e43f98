// Package backend continued: the RepoBackend abstraction and root
// detection. See ignore.go for ignore-pattern handling and gitops.go for
// Git CLI plumbing.
package backend

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/model"
)

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// RepoBackend abstracts root detection, path normalization, and ignore
// handling over a Git-backed or DVS-only workspace.
//
// Grounded on the original Rust RepoBackend trait (dvs-core/src/helpers/
// backend.rs): a Git repository is preferred when both are detected,
// falling back to a bare DVS workspace otherwise.
type RepoBackend interface {
	Root() string
	Normalize(path string) (string, error)
	AddIgnore(pattern string) error
	IsIgnored(path string) (bool, error)
	CurrentBranch() (string, bool)
	Type() string
}

// GitBackend is a workspace rooted at a Git repository's working directory.
type GitBackend struct {
	root string
}

// NewGitBackend builds a GitBackend rooted at root.
func NewGitBackend(root string) *GitBackend { return &GitBackend{root: root} }

var _ RepoBackend = (*GitBackend)(nil)

func (b *GitBackend) Root() string { return b.root }

func (b *GitBackend) Normalize(path string) (string, error) {
	return normalize(b.root, path)
}

func (b *GitBackend) AddIgnore(pattern string) error {
	return AddGitignorePattern(b.root, pattern)
}

func (b *GitBackend) IsIgnored(path string) (bool, error) {
	patterns, err := LoadGitignorePatterns(b.root)
	if err != nil {
		return false, err
	}
	rel, err := b.Normalize(path)
	if err != nil {
		return false, err
	}
	return patterns.IsIgnored(rel), nil
}

func (b *GitBackend) CurrentBranch() (string, bool) {
	info := HeadInfoFor(b.root)
	if info.IsDetached || info.Branch == "" {
		return "", false
	}
	return info.Branch, true
}

func (b *GitBackend) Type() string { return "git" }

// DVSBackend is a workspace with no enclosing Git repository, rooted
// wherever a dvs.* config file or .dvs/ directory is found.
type DVSBackend struct {
	root string
}

// NewDVSBackend builds a DVSBackend rooted at root.
func NewDVSBackend(root string) *DVSBackend { return &DVSBackend{root: root} }

var _ RepoBackend = (*DVSBackend)(nil)

func (b *DVSBackend) Root() string { return b.root }

func (b *DVSBackend) Normalize(path string) (string, error) {
	return normalize(b.root, path)
}

func (b *DVSBackend) AddIgnore(pattern string) error {
	return AddDVSIgnorePattern(b.root, pattern)
}

func (b *DVSBackend) IsIgnored(path string) (bool, error) {
	patterns, err := LoadDVSIgnorePatterns(b.root)
	if err != nil {
		return false, err
	}
	rel, err := b.Normalize(path)
	if err != nil {
		return false, err
	}
	return patterns.IsIgnored(rel), nil
}

// CurrentBranch always returns false: DVS-only workspaces have no branch.
func (b *DVSBackend) CurrentBranch() (string, bool) { return "", false }

func (b *DVSBackend) Type() string { return "dvs" }

func normalize(root, path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		var err error
		abs, err = filepath.Abs(abs)
		if err != nil {
			return "", dvserrors.Newf(dvserrors.KindIOError, "resolving %s", path).Wrap(err)
		}
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", dvserrors.Newf(dvserrors.KindInvalidTarget, "%s is outside repository root %s", path, root).WithPath(path)
	}
	return filepath.ToSlash(rel), nil
}

// configFilenames lists every filename DVSBackend.findRoot recognizes as
// marking a workspace root, covering all three serialization formats.
var configFilenames = []string{
	model.ConfigFilename(model.ConfigFormatTOML),
	model.ConfigFilename(model.ConfigFormatYAML),
	model.ConfigFilename(model.ConfigFormatJSON),
}

func findDVSRoot(start string) (string, bool) {
	current := start
	for {
		for _, name := range configFilenames {
			if pathExists(filepath.Join(current, name)) {
				return current, true
			}
		}
		if dirExists(filepath.Join(current, ".dvs")) {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// Detect resolves the RepoBackend for the workspace containing start,
// preferring a Git repository over a bare DVS workspace.
func Detect(start string) (RepoBackend, error) {
	if root, ok := DiscoverGitRoot(start); ok {
		return NewGitBackend(root), nil
	}
	if root, ok := findDVSRoot(start); ok {
		return NewDVSBackend(root), nil
	}
	return nil, dvserrors.New(dvserrors.KindNotInWorkspace).WithPath(start)
}
