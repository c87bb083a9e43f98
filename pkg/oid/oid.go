// Package oid implements the DVS object identifier: a pair of hash
// algorithm and lowercase hex digest, addressing a single immutable
// object across the external store, the local cache, and the HTTP CAS
// server. Grounded on the storage_path / Key idioms of the teacher's
// pkg/cafs, generalized to support more than one hash algorithm.
package oid

import (
	"fmt"
	"strings"
)

// Algo identifies a supported hash algorithm.
type Algo string

const (
	Blake3 Algo = "blake3"
	SHA256 Algo = "sha256"
	XXH3   Algo = "xxh3"
)

// HexLen returns the expected hex-digest length for the algorithm.
func (a Algo) HexLen() int {
	switch a {
	case Blake3, SHA256:
		return 64
	case XXH3:
		return 16
	default:
		return 0
	}
}

// Valid reports whether a is one of the three recognized algorithms.
func (a Algo) Valid() bool {
	return a.HexLen() > 0
}

// ParseAlgo parses a case-insensitive algorithm prefix.
func ParseAlgo(s string) (Algo, bool) {
	switch strings.ToLower(s) {
	case "blake3":
		return Blake3, true
	case "sha256":
		return SHA256, true
	case "xxh3":
		return XXH3, true
	default:
		return "", false
	}
}

// Oid is a content identifier: algorithm plus lowercase hex digest.
type Oid struct {
	Algo Algo
	Hex  string
}

// New builds an Oid without validating the hex digest; callers that parse
// untrusted input should use Parse instead.
func New(algo Algo, hex string) Oid {
	return Oid{Algo: algo, Hex: strings.ToLower(hex)}
}

// String renders the textual form "algo:hex".
func (o Oid) String() string {
	return fmt.Sprintf("%s:%s", o.Algo, o.Hex)
}

// Equal reports value equality.
func (o Oid) Equal(other Oid) bool {
	return o.Algo == other.Algo && o.Hex == other.Hex
}

// IsZero reports whether o is the zero value.
func (o Oid) IsZero() bool {
	return o.Algo == "" && o.Hex == ""
}

// MarshalText implements encoding.TextMarshaler so Oid serializes as its
// string form in JSON and TOML.
func (o Oid) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Oid) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Parse validates and decodes the textual form "algo:hex".
func Parse(s string) (Oid, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return Oid{}, fmt.Errorf("oid: missing ':' separator in %q", s)
	}
	algoPart, hexPart := s[:idx], s[idx+1:]

	algo, ok := ParseAlgo(algoPart)
	if !ok {
		return Oid{}, fmt.Errorf("oid: unknown hash algorithm %q", algoPart)
	}

	if len(hexPart) != algo.HexLen() {
		return Oid{}, fmt.Errorf("oid: expected %d hex characters for %s, got %d", algo.HexLen(), algo, len(hexPart))
	}
	for _, c := range hexPart {
		if !isHexDigit(c) {
			return Oid{}, fmt.Errorf("oid: invalid hex character %q in %q", c, s)
		}
	}

	return Oid{Algo: algo, Hex: strings.ToLower(hexPart)}, nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// StorageSubpath returns "algo/hex[0:2]/hex[2:]", the layout shared by the
// external store, the local cache, and the HTTP CAS server.
func (o Oid) StorageSubpath() string {
	n := 2
	if len(o.Hex) < n {
		n = len(o.Hex)
	}
	return fmt.Sprintf("%s/%s/%s", o.Algo, o.Hex[:n], o.Hex[n:])
}
