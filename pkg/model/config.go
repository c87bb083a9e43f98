package model

import (
	"strings"

	"github.com/ghodss/yaml"
	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
)

// ConfigFormat selects the serialization used for the repo config file.
type ConfigFormat string

const (
	ConfigFormatTOML ConfigFormat = "toml"
	ConfigFormatYAML ConfigFormat = "yaml"
	ConfigFormatJSON ConfigFormat = "json"
)

// ConfigFilename returns the repo config's filename for format, e.g.
// "dvs.toml". TOML is the default per §6.
func ConfigFilename(format ConfigFormat) string {
	if format == "" {
		format = ConfigFormatTOML
	}
	return "dvs." + string(format)
}

// GeneratedBy records the tool/version/commit triple that produced a
// config file, carried for diagnostics only.
type GeneratedBy struct {
	Tool    string `json:"tool,omitempty" yaml:"tool,omitempty" toml:"tool,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Commit  string `json:"commit,omitempty" yaml:"commit,omitempty" toml:"commit,omitempty"`
	_       struct{}
}

// Config is the tracked, repo-level configuration: where object bytes
// live, and the defaults new Add calls use.
type Config struct {
	StorageDir     string       `json:"storage_dir" yaml:"storage_dir" toml:"storage_dir"`
	Permissions    *uint32      `json:"permissions,omitempty" yaml:"permissions,omitempty" toml:"permissions,omitempty"`
	Group          string       `json:"group,omitempty" yaml:"group,omitempty" toml:"group,omitempty"`
	HashAlgo       oid.Algo     `json:"hash_algo,omitempty" yaml:"hash_algo,omitempty" toml:"hash_algo,omitempty"`
	MetadataFormat string       `json:"metadata_format,omitempty" yaml:"metadata_format,omitempty" toml:"metadata_format,omitempty"`
	GeneratedBy    *GeneratedBy `json:"generated_by,omitempty" yaml:"generated_by,omitempty" toml:"generated_by,omitempty"`
	_              struct{}
}

// NewConfig builds a Config with defaults applied: BLAKE3 hashing and TOML
// metadata when the caller leaves those fields unset.
func NewConfig(storageDir string, algo oid.Algo, metadataFormat string) *Config {
	if algo == "" {
		algo = oid.Blake3
	}
	if metadataFormat == "" {
		metadataFormat = "toml"
	}
	return &Config{
		StorageDir:     storageDir,
		HashAlgo:       algo,
		MetadataFormat: metadataFormat,
	}
}

// EffectiveHashAlgo returns c.HashAlgo, defaulting to BLAKE3 when unset.
func (c *Config) EffectiveHashAlgo() oid.Algo {
	if c.HashAlgo == "" {
		return oid.Blake3
	}
	return c.HashAlgo
}

// Equivalent compares StorageDir, the effective hash algorithm,
// MetadataFormat and Group of two configs. GeneratedBy (a diagnostic
// field, not a defining one) and Permissions are not compared. Used by
// Init to detect config_mismatch against an existing file.
func (c *Config) Equivalent(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.StorageDir == other.StorageDir &&
		c.EffectiveHashAlgo() == other.EffectiveHashAlgo() &&
		c.MetadataFormat == other.MetadataFormat &&
		c.Group == other.Group
}

// Marshal serializes c per format.
func (c *Config) Marshal(format ConfigFormat) ([]byte, error) {
	switch format {
	case ConfigFormatYAML:
		return yaml.Marshal(c)
	case ConfigFormatJSON:
		return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(c, "", "  ")
	case ConfigFormatTOML, "":
		return toml.Marshal(*c)
	default:
		return nil, dvserrors.Newf(dvserrors.KindConfigMismatch, "unknown config format %q", format)
	}
}

// UnmarshalConfig decodes raw bytes per format; an empty format decodes as
// TOML. Callers holding a filename can pick format with FormatFromFilename.
func UnmarshalConfig(data []byte, format ConfigFormat) (*Config, error) {
	c := &Config{}
	var err error
	switch format {
	case ConfigFormatYAML:
		err = yaml.Unmarshal(data, c)
	case ConfigFormatJSON:
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, c)
	case ConfigFormatTOML, "":
		err = toml.Unmarshal(data, c)
	default:
		return nil, dvserrors.Newf(dvserrors.KindConfigMismatch, "unknown config format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FormatFromFilename infers a ConfigFormat from a config filename's
// extension, defaulting to TOML.
func FormatFromFilename(name string) ConfigFormat {
	switch {
	case strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml"):
		return ConfigFormatYAML
	case strings.HasSuffix(name, ".json"):
		return ConfigFormatJSON
	default:
		return ConfigFormatTOML
	}
}
