// Package model describes the on-disk data types shared by every DVS
// operation: repo Config and LocalConfig, per-file Metadata, the
// repo-wide Manifest, and the WorkspaceState/ReflogEntry pair that backs
// the reflog and rollback.
package model
