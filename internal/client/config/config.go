package config

import "time"

// Config holds runtime settings for the CipherDesk CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - CachePath: path of the local SQLite record cache.
//   - SessionIdleTimeout: inactivity window before the encryption session
//     locks itself.
//   - SessionMaxAge: hard lifetime of an unlocked session, enforced
//     regardless of activity.
//   - SessionRefreshThreshold: how close to an expiry deadline the CLI
//     starts warning that the session is about to lock.
//   - OnlineCheckInterval: how often the client checks server reachability.
type Config struct {
	ServerEndpointAddr      string
	CachePath               string
	SessionIdleTimeout      time.Duration
	SessionMaxAge           time.Duration
	SessionRefreshThreshold time.Duration
	OnlineCheckInterval     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.CachePath = "cipherdesk.db"
	c.SessionIdleTimeout = 30 * time.Minute
	c.SessionMaxAge = 24 * time.Hour
	c.SessionRefreshThreshold = 5 * time.Minute
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
