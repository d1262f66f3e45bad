package config

import (
	"flag"
	"os"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend HTTP API (default from Config)
//	-p string   path of the local SQLite cache (default from Config)
//	-i int      online check interval in seconds (default from Config)
//	-t int      session idle timeout in minutes (default from Config)
//	-r int      session refresh warning threshold in minutes (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other packages.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-p", "-i", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL of the backend API")
	fs.StringVar(&cfg.CachePath, "p", cfg.CachePath, "path of the local record cache")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	idleTimeout := fs.Int("t", int(cfg.SessionIdleTimeout.Minutes()), "session idle timeout (in minutes)")
	refreshThreshold := fs.Int("r", int(cfg.SessionRefreshThreshold.Minutes()), "session refresh warning threshold (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.SessionIdleTimeout = time.Duration(*idleTimeout) * time.Minute
	cfg.SessionRefreshThreshold = time.Duration(*refreshThreshold) * time.Minute
}
