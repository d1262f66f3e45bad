package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"github.com/cipherdesk/cipherdesk/internal/client/client"
	"github.com/cipherdesk/cipherdesk/internal/client/config"
	"github.com/cipherdesk/cipherdesk/internal/client/repositories/records"
	"github.com/cipherdesk/cipherdesk/internal/client/services"
	"github.com/cipherdesk/cipherdesk/internal/logging"
	"github.com/cipherdesk/cipherdesk/internal/session"
	"github.com/cipherdesk/cipherdesk/internal/webauthn"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App wires the CLI together: HTTP client, local cache, encryption session
// and the services on top of them.
type App struct {
	config     *config.Config
	api        client.Client
	session    *session.Session
	passkeySvc *services.PasskeyService
	recordSvc  *services.RecordService
	attachSvc  *services.AttachmentService
	userName   string
	Mode       Mode
	reader     *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.CachePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerEndpointAddr)

	sess := session.New(session.Config{
		IdleTimeout:      c.SessionIdleTimeout,
		MaxSessionAge:    c.SessionMaxAge,
		RefreshThreshold: c.SessionRefreshThreshold,
	})
	sess.OnLock(func() { log.Println("Session locked") })

	authn := webauthn.NewSoftAuthenticator()
	repo := records.NewSQLiteRepository(db)

	return &App{
		config:     c,
		api:        api,
		session:    sess,
		passkeySvc: services.NewPasskeyService(api, authn, sess, logger),
		recordSvc:  services.NewRecordService(api, repo, sess, logger),
		attachSvc:  services.NewAttachmentService(api, sess, logger),
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	go a.session.StartJanitor(ctx, time.Minute)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	a.Root(ctx)
}

func (a *App) isUnlocked() bool {
	return a.session.IsUnlocked()
}

func (a *App) sessionExpiringSoon() bool {
	return a.session.ExpiringSoon()
}

func (a *App) extendSession() {
	a.session.TouchActivity()
}

// StartOnlineStatusWatcher pings the server on a fixed interval and flips
// the connectivity mode accordingly. Cache reads keep list/show working
// while offline; writes need the server.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
