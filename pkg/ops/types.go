package ops

import (
	"time"

	"github.com/dvs-io/dvs/pkg/oid"
)

// Outcome classifies the effect an operation had on a single file.
type Outcome string

const (
	OutcomeCopied         Outcome = "copied"
	OutcomePresent        Outcome = "present"
	OutcomeError          Outcome = "error"
	OutcomeAbsent         Outcome = "absent"
	OutcomeAlreadyPresent Outcome = "already_present"
	OutcomeUploaded       Outcome = "uploaded"
	OutcomeAlreadyCached  Outcome = "already_cached"
	OutcomeDownloaded     Outcome = "downloaded"
	OutcomeFailed         Outcome = "failed"
)

// FileStatus classifies a tracked file's sync state against its metadata.
type FileStatus string

const (
	StatusCurrent  FileStatus = "current"
	StatusUnsynced FileStatus = "unsynced"
	StatusAbsent   FileStatus = "absent"
)

// FileResult is the per-file result shared by Add and Get: either a
// successful outcome with size/checksum, or an error with a kind and
// detail.
type FileResult struct {
	RelativePath string
	Path         string
	Outcome      Outcome
	Size         uint64
	Checksum     string
	ErrorKind    string
	ErrorDetail  string
}

func fileError(relPath, path, kind, detail string) FileResult {
	return FileResult{RelativePath: relPath, Path: path, Outcome: OutcomeError, ErrorKind: kind, ErrorDetail: detail}
}

// StatusResult is the per-file report produced by Status.
type StatusResult struct {
	RelativePath string
	Path         string
	Status       FileStatus
	Size         uint64
	Checksum     string
	AddTime      string
	SavedBy      string
	Message      string
	ErrorKind    string
	ErrorDetail  string
}

func statusError(relPath, path, kind, detail string) StatusResult {
	return StatusResult{RelativePath: relPath, Path: path, ErrorKind: kind, ErrorDetail: detail}
}

// ObjectTransferResult is the per-object result produced by Push/Pull.
type ObjectTransferResult struct {
	Oid         oid.Oid
	Outcome     Outcome
	ErrorDetail string
}

// TransferSummary aggregates a Push or Pull run.
type TransferSummary struct {
	Results  []ObjectTransferResult
	Uploaded int
	Present  int
	Failed   int
}

// LogEntry is one reflog record as reported by Log.
type LogEntry struct {
	Index         int
	Timestamp     time.Time
	Actor         string
	Op            string
	Message       string
	OldSID        string
	NewSID        string
	AffectedPaths []string
}

// RollbackResult reports what Rollback did.
type RollbackResult struct {
	TargetSID        string
	RestoredPaths    []string
	RemovedPaths     []string
	MaterializedOK   []string
	MaterializedFail []string
}
