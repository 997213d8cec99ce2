package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/relaydash/internal/config"
	"github.com/five82/relaydash/internal/gateway"
	"github.com/five82/relaydash/internal/logging"
	"github.com/five82/relaydash/internal/prefs"
	"github.com/five82/relaydash/internal/realtime"
	"github.com/five82/relaydash/internal/relay"
	"github.com/five82/relaydash/internal/state"
	"github.com/five82/relaydash/internal/syncer"
	"github.com/five82/relaydash/internal/ui"
)

// Core bundles the sync pipeline shared by the dashboard, watch mode and
// one-shot commands.
type Core struct {
	Config  config.Config
	Log     *logrus.Logger
	Client  *relay.Client
	Store   *state.Store
	Syncer  *syncer.Syncer
	Gateway *gateway.Gateway

	closer io.Closer
}

// CoreOptions select where logs go.
type CoreOptions struct {
	LogToFile bool      // write to cfg.LogFile instead of LogOutput
	LogOutput io.Writer // nil means stderr
}

// NewCore builds the logger, REST client, store, syncer and gateway.
func NewCore(cfg config.Config, opts CoreOptions) (*Core, error) {
	logOpts := logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: opts.LogOutput}
	if opts.LogToFile {
		logOpts.File = cfg.LogFile
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := relay.NewClient(cfg.BackendURL, relay.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init relay client: %w", err)
	}

	store := &state.Store{}
	syn, err := syncer.New(client, store, syncer.Options{LogLimit: cfg.LogLimit, Logger: logger})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	gw, err := gateway.New(syn, store, logger)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	return &Core{
		Config:  cfg,
		Log:     logger,
		Client:  client,
		Store:   store,
		Syncer:  syn,
		Gateway: gw,
		closer:  closer,
	}, nil
}

// NewChannel builds the push channel feeding the core's store.
func (c *Core) NewChannel(onMessage func(relay.Message)) (*realtime.Channel, error) {
	url, err := c.Config.WebSocketURL()
	if err != nil {
		return nil, err
	}
	return realtime.New(c.Store, realtime.Options{
		URL:       url,
		Policy:    realtime.FixedDelay(c.Config.ReconnectDelay),
		Logger:    c.Log,
		OnMessage: onMessage,
	})
}

// StartChannel runs the channel until ctx is done. The returned wait func
// blocks until the loop has exited.
func (c *Core) StartChannel(ctx context.Context, ch *realtime.Channel) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ch.Run(ctx); err != nil {
			c.Log.WithError(err).Error("push channel stopped")
		}
	}()
	return wg.Wait
}

// Close stops the store from accepting late results and closes the log sink.
func (c *Core) Close() error {
	c.Store.Close()
	return c.closer.Close()
}

// Options configure the dashboard.
type Options struct {
	PrefsPath string // empty uses ~/.config/relaydash/prefs.toml
	Theme     string // overrides the saved theme
	StartTab  string // overrides the saved start tab
}

// Run boots the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, opts Options) error {
	core, err := NewCore(cfg, CoreOptions{LogToFile: true})
	if err != nil {
		return err
	}
	defer core.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		core.Log.WithError(err).Warn("using default preferences")
	}
	if opts.Theme != "" {
		userPrefs.Theme = opts.Theme
	}
	if opts.StartTab != "" {
		userPrefs.StartTab = opts.StartTab
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	channel, err := core.NewChannel(nil)
	if err != nil {
		return fmt.Errorf("init push channel: %w", err)
	}
	wait := core.StartChannel(ctx, channel)
	defer func() {
		cancel()
		wait()
	}()

	core.Log.WithField("backend", cfg.BackendURL).Info("relaydash starting")

	// The first fetch runs behind the loading spinner.
	go func() {
		if err := core.Syncer.FetchAll(ctx); err != nil {
			core.Log.WithError(err).Warn("initial fetch failed")
		}
	}()

	err = ui.Run(ui.Options{
		Context:   ctx,
		Gateway:   core.Gateway,
		Store:     core.Store,
		Channel:   channel,
		LogFile:   cfg.LogFile,
		ThemeName: userPrefs.Theme,
		StartTab:  userPrefs.StartTab,
		PrefsPath: prefsPath,
		Logger:    core.Log,
	})
	core.Log.Info("relaydash stopped")
	return err
}
