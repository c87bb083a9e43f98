package backend

import (
	"os/exec"
	"strings"

	"github.com/dvs-io/dvs/pkg/dvserrors"
)

// HeadInfo describes the repository's current HEAD.
type HeadInfo struct {
	Commit     string
	Branch     string
	IsDetached bool
}

// runGit runs `git -C root <args>` and returns trimmed stdout, failing on
// any non-zero exit.
//
// Grounded on the original Rust GitCliOps backend (dvs-core/src/helpers/
// git_ops.rs): no pack example vendors a Git client library, so this
// shells out to the system git binary rather than hand-rolling a pack
// format parser.
func runGit(root string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", root}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "git %s", strings.Join(args, " ")).WithPath(root).Wrap(err)
	}
	return strings.TrimSpace(string(out)), nil
}

func runGitOptional(root string, args ...string) string {
	out, err := runGit(root, args...)
	if err != nil {
		return ""
	}
	return out
}

// DiscoverGitRoot finds the top-level working directory of the Git
// repository containing start.
func DiscoverGitRoot(start string) (string, bool) {
	out, err := runGit(start, "rev-parse", "--show-toplevel")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

// HeadInfoFor reads HEAD's commit, branch, and detached state.
func HeadInfoFor(root string) HeadInfo {
	commit := runGitOptional(root, "rev-parse", "HEAD")
	branch := runGitOptional(root, "symbolic-ref", "--short", "HEAD")
	return HeadInfo{
		Commit:     commit,
		Branch:     branch,
		IsDetached: commit != "" && branch == "",
	}
}

// RemoteURL returns the URL configured for the named remote, or "" if
// none is set.
func RemoteURL(root, name string) string {
	return runGitOptional(root, "remote", "get-url", name)
}

// ConfigValue reads a Git config key, or "" if unset.
func ConfigValue(root, key string) string {
	return runGitOptional(root, "config", "--get", key)
}
