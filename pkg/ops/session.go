// Package ops implements the DVS workspace operations: init, add, get,
// status, push, pull, materialize, log, rollback.
//
// Grounded on the original Rust ops/*.rs functions, translated into
// methods on a Session that bundles the collaborators every operation
// needs (backend, layout, config, object stores, reflog) — the Go
// analogue of each op.rs function's `detect_backend_cwd` + config-load
// preamble, following the teacher's pattern of a thin struct wrapping
// its dependencies (e.g. trumpet.Trumpet) rather than passing a long
// parameter list to every function.
package ops

import (
	"context"
	"net/url"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/backend"
	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/layout"
	"github.com/dvs-io/dvs/pkg/model"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/reflog"
	"github.com/dvs-io/dvs/pkg/storage"
	"github.com/dvs-io/dvs/pkg/storage/gcsstore"
	"github.com/dvs-io/dvs/pkg/storage/httpcas"
	"github.com/dvs-io/dvs/pkg/storage/localfs"
	"github.com/dvs-io/dvs/pkg/storage/s3store"
)

// Session bundles the collaborators shared by every operation against one
// workspace.
type Session struct {
	FS      afero.Fs
	Backend backend.RepoBackend
	Layout  *layout.Layout
	Config  *model.Config
	Local   *model.LocalConfig
	Actor   string

	Cache    storage.Store
	External storage.Store

	Reflog    *reflog.Reflog
	Snapshots *reflog.SnapshotStore

	// Logger receives one debug event per side-effecting step and one info
	// summary per invocation, per §9's logging resolution; defaults to a
	// no-op logger so callers that don't care about ambient logging don't
	// need to wire one up.
	Logger *zap.Logger
}

// Open resolves the backend for the workspace containing cwd, loads the
// repo and local config, and wires the cache/external object stores.
func Open(fs afero.Fs, cwd string) (*Session, error) {
	b, err := backend.Detect(cwd)
	if err != nil {
		return nil, err
	}
	return OpenWithBackend(fs, b)
}

// OpenWithBackend builds a Session for an already-resolved backend.
func OpenWithBackend(fs afero.Fs, b backend.RepoBackend) (*Session, error) {
	root := b.Root()
	l := layout.New(fs, root)

	cfg, err := loadConfig(fs, root)
	if err != nil {
		return nil, err
	}

	local, err := loadLocalConfig(fs, l)
	if err != nil {
		return nil, err
	}

	external, err := openExternalStore(fs, cfg.StorageDir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		FS:        fs,
		Backend:   b,
		Layout:    l,
		Config:    cfg,
		Local:     local,
		Actor:     actorName(),
		Cache:     localfs.New(fs, l.ObjectsDir()),
		External:  external,
		Reflog:    reflog.New(fs, l),
		Snapshots: reflog.NewSnapshotStore(fs, l),
		Logger:    zap.NewNop(),
	}
	return s, nil
}

// WithLogger replaces s's logger, returning s for chaining at call sites
// like ops.Open(fs, cwd).WithLogger(logger).
func (s *Session) WithLogger(l *zap.Logger) *Session {
	s.Logger = l
	return s
}

func loadConfig(fs afero.Fs, root string) (*model.Config, error) {
	for _, format := range []model.ConfigFormat{model.ConfigFormatTOML, model.ConfigFormatYAML, model.ConfigFormatJSON} {
		name := model.ConfigFilename(format)
		path := root + "/" + name
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			continue
		}
		return model.UnmarshalConfig(data, format)
	}
	return nil, dvserrors.New(dvserrors.KindConfigNotFound).WithPath(root)
}

func loadLocalConfig(fs afero.Fs, l *layout.Layout) (*model.LocalConfig, error) {
	path := l.ConfigPath()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return model.UnmarshalLocalConfig(nil)
	}
	return model.UnmarshalLocalConfig(data)
}

// openExternalStore builds the Store for config.StorageDir, dispatching
// on URI scheme: "s3://bucket/..." and "gs://bucket/..." select the cloud
// stores (§11 DOMAIN STACK); anything else is a plain filesystem path.
func openExternalStore(fs afero.Fs, storageDir string) (storage.Store, error) {
	switch {
	case strings.HasPrefix(storageDir, "s3://"):
		bucket := strings.TrimPrefix(storageDir, "s3://")
		bucket = strings.SplitN(bucket, "/", 2)[0]
		return s3store.New(s3store.Bucket(bucket)), nil
	case strings.HasPrefix(storageDir, "gs://"):
		bucket := strings.TrimPrefix(storageDir, "gs://")
		bucket = strings.SplitN(bucket, "/", 2)[0]
		return gcsstore.New(context.Background(), bucket)
	default:
		return localfs.New(fs, storageDir), nil
	}
}

// RemoteStore resolves the push/pull remote per §4.8's resolution order:
// an explicit base URL argument, then LocalConfig.BaseURL, then the
// manifest's recorded BaseURL.
func (s *Session) RemoteStore(explicitBaseURL string, manifest *model.Manifest) (storage.Store, error) {
	base := explicitBaseURL
	if base == "" {
		base = s.Local.BaseURL
	}
	if base == "" && manifest != nil {
		base = manifest.BaseURL
	}
	if base == "" {
		return nil, dvserrors.New(dvserrors.KindNoRemote)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, dvserrors.Newf(dvserrors.KindNoRemote, "invalid remote url %q", base).Wrap(err)
	}
	return httpcas.New(base, httpcas.WithAuthToken(s.Local.AuthToken())), nil
}

// LoadManifest reads dvs.lock, returning an empty manifest if it does not
// exist yet (a freshly initialized workspace has none).
func (s *Session) LoadManifest() (*model.Manifest, error) {
	path := s.Layout.ManifestPath()
	data, err := afero.ReadFile(s.FS, path)
	if err != nil {
		return model.NewManifest(), nil
	}
	return model.UnmarshalManifest(data)
}

// SaveManifest writes m to dvs.lock via temp-then-rename.
func (s *Session) SaveManifest(m *model.Manifest) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	return atomicWrite(s.FS, s.Layout.ManifestPath(), data, 0o660)
}

// LoadMetadata loads the metadata companion for dataPath, trying TOML
// then JSON, matching the original's "tries TOML first, then JSON" order.
func (s *Session) LoadMetadata(dataPath string) (*model.Metadata, model.MetadataFormat, error) {
	for _, format := range []model.MetadataFormat{model.MetadataFormatTOML, model.MetadataFormatJSON} {
		path := model.MetadataPath(dataPath, format)
		data, err := afero.ReadFile(s.FS, path)
		if err != nil {
			continue
		}
		m, err := model.UnmarshalMetadata(data, format)
		if err != nil {
			return nil, "", dvserrors.New(dvserrors.KindMetadataParseError).WithPath(path).Wrap(err)
		}
		return m, format, nil
	}
	return nil, "", dvserrors.New(dvserrors.KindMetadataNotFound).WithPath(dataPath)
}

// SaveMetadata writes m in format to dataPath's metadata path, removing
// any stale alternate-format companion so a file never carries both.
func (s *Session) SaveMetadata(dataPath string, m *model.Metadata, format model.MetadataFormat) error {
	data, err := m.Marshal(format)
	if err != nil {
		return err
	}
	path := model.MetadataPath(dataPath, format)
	if err := atomicWrite(s.FS, path, data, 0o660); err != nil {
		return err
	}

	altFormat := model.MetadataFormatJSON
	if format == model.MetadataFormatJSON {
		altFormat = model.MetadataFormatTOML
	}
	altPath := model.MetadataPath(dataPath, altFormat)
	if exists, _ := afero.Exists(s.FS, altPath); exists {
		_ = s.FS.Remove(altPath)
	}
	return nil
}

// RemoveMetadata deletes every metadata companion for dataPath, in either
// format.
func (s *Session) RemoveMetadata(dataPath string) error {
	for _, format := range []model.MetadataFormat{model.MetadataFormatTOML, model.MetadataFormatJSON} {
		path := model.MetadataPath(dataPath, format)
		if exists, _ := afero.Exists(s.FS, path); exists {
			if err := s.FS.Remove(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// StorageObjectID is a convenience alias used by operations translating
// metadata into the object identifier it describes.
func StorageObjectID(m *model.Metadata) oid.Oid { return m.Oid() }
