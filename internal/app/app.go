// Package app wires configuration into the pipeline for the CLI commands.
package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"goldwatch/internal/alerting"
	"goldwatch/internal/config"
	"goldwatch/internal/fetcher"
	"goldwatch/internal/scheduler"
	"goldwatch/internal/service"
	"goldwatch/internal/store"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() fetcher.SourceReader {
	return fetcher.NewTable(fetcher.TableOptions{
		URL:        a.Config.Source.URL,
		TableClass: a.Config.Source.TableClass,
		UserAgent:  a.Config.Source.UserAgent,
		Timeout:    a.Config.Source.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Notify.Enabled {
		return nil
	}
	cfg := a.Config.Notify.Telegram
	telegram := alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.RequestTimeout, a.Logger)
	return alerting.NewRetrier(telegram, a.Config.Notify.Retries, a.Config.Notify.RetryDelay, a.Logger)
}

func (a *App) newCapturer() service.Capturer {
	if a.Config.Notify.Attach != config.AttachScreenshot {
		return nil
	}
	return fetcher.NewPage(fetcher.PageOptions{
		URL:     a.Config.Source.URL,
		Timeout: a.Config.Source.RequestTimeout,
	}, a.Logger)
}

// openStore builds the snapshot store: resolved primary backend wrapped with
// the local-file fallback. The returned closer may be nil.
func (a *App) openStore(ctx context.Context) (store.Store, func(), error) {
	local := store.NewFileStore(a.Config.Store.FilePath)

	var remote store.Remote
	var closer func()

	switch a.Config.ResolveBackend() {
	case config.BackendGist:
		gist := a.Config.Store.Gist
		remote = store.NewGistStore(store.GistOptions{
			Token:    gist.Token,
			GistID:   gist.GistID,
			FileName: gist.FileName,
			APIBase:  gist.APIBase,
			Timeout:  gist.RequestTimeout,
		}, a.Logger)
	case config.BackendPostgres:
		pg, err := store.NewPostgresStore(ctx, a.Config.Store.Postgres)
		if err != nil {
			return nil, nil, err
		}
		remote = pg
		closer = pg.Close
	case config.BackendFile:
		a.Logger.Debug().Str("path", a.Config.Store.FilePath).Msg("using local file store only")
	}

	return store.NewFallback(remote, local, a.Logger), closer, nil
}

func (a *App) newService(st store.Store) *service.Service {
	opts := service.Options{
		Title:       a.Config.Notify.Title,
		StagingPath: a.Config.Staging.Path,
		OutputPath:  a.Config.Output.Path,
		Attach:      a.Config.Notify.Attach,
	}
	return service.New(opts, a.newSource(), st, a.newNotifier(), a.newCapturer(), a.Logger)
}

func (a *App) withService(ctx context.Context, fn func(svc *service.Service) error) error {
	st, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}
	return fn(a.newService(st))
}

// Decide runs the decide phase of the two-phase pipeline.
func (a *App) Decide(ctx context.Context) error {
	return a.withService(ctx, func(svc *service.Service) error {
		_, err := svc.RunDecide(ctx)
		return err
	})
}

// Notify runs the notify phase against the staged snapshot.
func (a *App) Notify(ctx context.Context) error {
	return a.withService(ctx, func(svc *service.Service) error {
		return svc.RunNotify(ctx)
	})
}

// Once runs a full single-phase cycle.
func (a *App) Once(ctx context.Context) error {
	return a.withService(ctx, func(svc *service.Service) error {
		return svc.RunOnce(ctx)
	})
}

// Watch runs single-phase cycles on the configured interval until
// interrupted.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToClock: a.Config.Scheduler.AlignToClock,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	err := a.withService(ctx, func(svc *service.Service) error {
		a.Logger.Info().Dur("interval", a.Config.Scheduler.Interval).Msg("starting watch loop")
		return sched.Run(ctx, svc.RunOnce)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch loop terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch loop stopped")
	return nil
}
