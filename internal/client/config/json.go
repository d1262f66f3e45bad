package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/flagx"
	"github.com/cipherdesk/cipherdesk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30m" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr      string         `json:"server_endpoint_addr"`
	CachePath               string         `json:"cache_path"`
	SessionIdleTimeout      timex.Duration `json:"session_idle_timeout"`
	SessionMaxAge           timex.Duration `json:"session_max_age"`
	SessionRefreshThreshold timex.Duration `json:"session_refresh_threshold"`
	OnlineCheckInterval     timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags via
// flagx.JsonConfigFlags(); when neither is given, nothing is loaded.
// Read or unmarshal errors panic, configuration is not something to limp
// past at startup. Zero-valued JSON fields leave the Config untouched so
// partial files only override what they name.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.CachePath != "" {
		cfg.CachePath = jc.CachePath
	}
	if jc.SessionIdleTimeout.Duration != 0 {
		cfg.SessionIdleTimeout = time.Duration(jc.SessionIdleTimeout.Duration)
	}
	if jc.SessionMaxAge.Duration != 0 {
		cfg.SessionMaxAge = time.Duration(jc.SessionMaxAge.Duration)
	}
	if jc.SessionRefreshThreshold.Duration != 0 {
		cfg.SessionRefreshThreshold = time.Duration(jc.SessionRefreshThreshold.Duration)
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
}
