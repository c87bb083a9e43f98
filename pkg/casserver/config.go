package casserver

import "time"

// APIKey is one entry of the server's static, immutable-after-load
// permission table, grounded on §4.11's concrete resolution of the
// source's todo!() auth stub.
type APIKey struct {
	Token       string   `toml:"token"`
	Name        string   `toml:"name"`
	Permissions []string `toml:"permissions"`
}

// HasPermission reports whether k grants perm, with "admin" implying
// every other permission.
func (k APIKey) HasPermission(perm string) bool {
	for _, p := range k.Permissions {
		if p == "admin" || p == perm {
			return true
		}
	}
	return false
}

// AuthConfig groups the optional bearer-token table. An empty Keys slice
// disables auth entirely: every request is treated as admin.
type AuthConfig struct {
	Keys []APIKey `toml:"keys"`
}

// Config supplies everything dvs-server needs to bind and serve,
// unmarshaled from dvs-server.toml and/or environment variables via the
// teacher's viper/pflag idiom (wired in cmd/dvs-server).
type Config struct {
	Host               string        `toml:"host"`
	Port               int           `toml:"port"`
	StorageDir         string        `toml:"storage_dir"`
	MaxUploadSize      int64         `toml:"max_upload_size"`
	CORSOrigins        []string      `toml:"cors_origins"`
	Auth               AuthConfig    `toml:"auth"`
	LogLevel           string        `toml:"log_level"`
	ShutdownTimeout    time.Duration `toml:"shutdown_timeout"`
}

// DefaultMaxUploadSize is used when Config.MaxUploadSize is zero.
const DefaultMaxUploadSize = 5 << 30 // 5 GiB

// DefaultShutdownTimeout is used when Config.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 10 * time.Second
