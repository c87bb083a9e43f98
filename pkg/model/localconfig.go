package model

import "github.com/pelletier/go-toml"

// AuthConfig carries the bearer token LocalConfig uses to authenticate
// push/pull requests against a remote HTTP CAS.
type AuthConfig struct {
	Token string `toml:"token,omitempty"`
	_     struct{}
}

// CacheConfig carries client-side cache tuning.
type CacheConfig struct {
	MaxSize uint64 `toml:"max_size,omitempty"`
	_       struct{}
}

// LocalConfig is the untracked, per-checkout `.dvs/config.toml`: the
// pieces of configuration that are specific to one machine or one user
// and must never be committed (remote credentials, local cache limits).
type LocalConfig struct {
	BaseURL string       `toml:"base_url,omitempty"`
	Auth    *AuthConfig  `toml:"auth,omitempty"`
	Cache   *CacheConfig `toml:"cache,omitempty"`
	_       struct{}
}

// AuthToken returns the configured bearer token, or "" if none.
func (c *LocalConfig) AuthToken() string {
	if c == nil || c.Auth == nil {
		return ""
	}
	return c.Auth.Token
}

// IsEmpty reports whether no local setting has been configured.
func (c *LocalConfig) IsEmpty() bool {
	return c.BaseURL == "" && c.Auth == nil && c.Cache == nil
}

// SetAuthToken sets (or clears, for an empty token) the bearer token,
// removing the now-empty auth section rather than leaving an empty table.
func (c *LocalConfig) SetAuthToken(token string) {
	if token == "" {
		c.Auth = nil
		return
	}
	c.Auth = &AuthConfig{Token: token}
}

// MarshalTOML serializes the local config.
func (c *LocalConfig) MarshalTOML() ([]byte, error) {
	return toml.Marshal(*c)
}

// UnmarshalLocalConfig decodes a `.dvs/config.toml` file. An empty byte
// slice yields a zero-value LocalConfig, matching the "missing file is
// equivalent to defaults" semantics of the original implementation.
func UnmarshalLocalConfig(data []byte) (*LocalConfig, error) {
	c := &LocalConfig{}
	if len(data) == 0 {
		return c, nil
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
