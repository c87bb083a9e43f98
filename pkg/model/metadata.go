package model

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pelletier/go-toml"

	"github.com/dvs-io/dvs/pkg/oid"
)

// MetadataFormat selects the per-file metadata serialization.
type MetadataFormat string

const (
	MetadataFormatJSON MetadataFormat = "json"
	MetadataFormatTOML MetadataFormat = "toml"
)

// metadataTimeLayout matches the spec's RFC-3339 UTC, millisecond
// precision, "Z" suffix requirement.
const metadataTimeLayout = "2006-01-02T15:04:05.000Z"

// Metadata is the per-file descriptor committed alongside a data file.
// The checksum field keeps the historical "blake3_checksum" name
// regardless of the algorithm actually used, matching the original
// source's backward-compatible wire format (§6).
type Metadata struct {
	Checksum string   `json:"blake3_checksum" toml:"blake3_checksum"`
	Size     uint64   `json:"size" toml:"size"`
	AddTime  string   `json:"add_time" toml:"add_time"`
	Message  string   `json:"message" toml:"message"`
	SavedBy  string   `json:"saved_by" toml:"saved_by"`
	HashAlgo oid.Algo `json:"hash_algo,omitempty" toml:"hash_algo,omitempty"`
	_        struct{}
}

// NewMetadata builds a Metadata entry stamped with the current time.
func NewMetadata(checksum string, size uint64, algo oid.Algo, message, savedBy string) *Metadata {
	return &Metadata{
		Checksum: checksum,
		Size:     size,
		AddTime:  time.Now().UTC().Format(metadataTimeLayout),
		Message:  message,
		SavedBy:  savedBy,
		HashAlgo: algo,
	}
}

// EffectiveHashAlgo returns m.HashAlgo, defaulting to BLAKE3 for backward
// compatibility with metadata predating the multi-algorithm extension.
func (m *Metadata) EffectiveHashAlgo() oid.Algo {
	if m.HashAlgo == "" {
		return oid.Blake3
	}
	return m.HashAlgo
}

// Oid reconstructs the object identifier this metadata points at.
func (m *Metadata) Oid() oid.Oid {
	return oid.New(m.EffectiveHashAlgo(), m.Checksum)
}

// MetadataPath returns the companion metadata path for a data file path,
// e.g. "data.csv" -> "data.csv.dvs" (format == JSON) or
// "data.csv.dvs.toml" (format == TOML).
func MetadataPath(dataPath string, format MetadataFormat) string {
	if format == MetadataFormatTOML {
		return dataPath + ".dvs.toml"
	}
	return dataPath + ".dvs"
}

// DataPathFromMetadata strips a metadata suffix back to the data file
// path. Returns ok=false if metaPath does not carry a recognized suffix.
func DataPathFromMetadata(metaPath string) (string, bool) {
	switch {
	case strings.HasSuffix(metaPath, ".dvs.toml"):
		return strings.TrimSuffix(metaPath, ".dvs.toml"), true
	case strings.HasSuffix(metaPath, ".dvs"):
		return strings.TrimSuffix(metaPath, ".dvs"), true
	default:
		return "", false
	}
}

// FormatOfMetadataPath reports which MetadataFormat a metadata path uses.
func FormatOfMetadataPath(metaPath string) MetadataFormat {
	if strings.HasSuffix(metaPath, ".dvs.toml") {
		return MetadataFormatTOML
	}
	return MetadataFormatJSON
}

// Marshal serializes m per format. JSON output is pretty-printed with a
// trailing newline, matching the original wire format exactly.
func (m *Metadata) Marshal(format MetadataFormat) ([]byte, error) {
	if format == MetadataFormatTOML {
		return toml.Marshal(*m)
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// UnmarshalMetadata decodes raw bytes per format.
func UnmarshalMetadata(data []byte, format MetadataFormat) (*Metadata, error) {
	m := &Metadata{}
	var err error
	if format == MetadataFormatTOML {
		err = toml.Unmarshal(data, m)
	} else {
		err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, m)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
