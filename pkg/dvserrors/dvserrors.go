// Package dvserrors defines the stable error taxonomy shared by every DVS
// operation and by the HTTP CAS wire protocol. Kind strings are part of the
// wire contract: they appear verbatim in server JSON error bodies and are
// meant to be stable across client language bindings.
//
// Kept in its own package, separate from pkg/storage and pkg/ops, to avoid
// an import cycle between the storage layer and the operations layer that
// both need to raise and recognize these kinds. This mirrors the teacher's
// separation of pkg/storage/status from pkg/storage itself.
package dvserrors

import (
	"fmt"

	dvserr "github.com/dvs-io/dvs/pkg/errors"
)

// Kind is one of the stable taxonomy identifiers below.
type Kind string

// Discovery errors.
const (
	KindNotInWorkspace   Kind = "not_in_workspace"
	KindConfigNotFound   Kind = "config_not_found"
	KindConfigMismatch   Kind = "config_mismatch"
	KindStorageDirInvalid Kind = "storage_dir_invalid"
)

// Input errors.
const (
	KindInvalidTarget      Kind = "invalid_target"
	KindIsDirectory        Kind = "is_directory"
	KindIgnored            Kind = "ignored"
	KindMetadataNotFound   Kind = "metadata_not_found"
	KindMetadataParseError Kind = "metadata_parse_error"
)

// Integrity errors.
const (
	KindHashError      Kind = "hash_error"
	KindObjectMissing  Kind = "object_missing"
	KindIntegrityError Kind = "integrity_error"
	KindSizeMismatch   Kind = "size_mismatch"
)

// I/O errors.
const (
	KindIOError Kind = "io_error"
)

// Remote errors.
const (
	KindNoRemote     Kind = "no_remote"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindTooLarge     Kind = "too_large"
	KindHTTPError    Kind = "http_error"
)

// State errors.
const (
	KindDirtyWorktree   Kind = "dirty_worktree"
	KindUnknownState    Kind = "unknown_state"
	KindSnapshotCorrupt Kind = "snapshot_corrupt"
)

// Concurrency errors (server only).
const (
	KindConflict Kind = "conflict"
)

// Error is a taxonomy error: a stable Kind plus human detail and an
// optional offending path and wrapped cause.
type Error struct {
	Kind   Kind
	Detail string
	Path   string
	cause  error
}

// New builds a taxonomy error with no detail.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf builds a taxonomy error with a formatted detail message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WithPath sets the offending path, required for io_error per the taxonomy.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Wrap attaches a cause without losing the Kind.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error by Kind, or any wrapped error via dvserr.Is.
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.Kind == other.Kind
	}
	return dvserr.Is(e.cause, target)
}

// KindOf extracts the taxonomy Kind from err, walking its Unwrap chain.
// Returns "" if err does not wrap a *Error.
func KindOf(err error) Kind {
	var e *Error
	if dvserr.As(err, &e) {
		return e.Kind
	}
	return ""
}
