package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"babysitter/internal/babysit"
	"babysitter/internal/check"
	"babysitter/internal/config"
	"babysitter/internal/notify"
	"babysitter/internal/restart"
	"babysitter/internal/server"
	"babysitter/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "babysitter.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", "", "address for the status server (overrides config)")
	)
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Str("service", "babysitter").
		Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	store, err := storage.NewCycleStorage(cfg.DataDirectory)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise storage")
	}
	defer store.Close()

	var channel notify.Channel = notify.Nop{}
	if cfg.Email.Enabled() {
		channel = notify.NewEmail(notify.EmailConfig{
			Addr:     cfg.Email.SMTPServer,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
		}, logger)
	} else {
		logger.Info().Msg("no SMTP server configured, notifications disabled")
	}

	sitter := babysit.New(babysit.Config{
		Logger:        logger,
		Channel:       channel,
		Recorder:      store,
		CheckTimeout:  time.Duration(cfg.CheckTimeoutSeconds) * time.Second,
		Concurrency:   cfg.Concurrency,
		Heartbeat:     babysit.HeartbeatConfig{Enabled: cfg.Heartbeat.Enabled, Hour: cfg.Heartbeat.Hour},
		StartupNotice: cfg.StartupEmail,
	})

	if err := registerTargets(sitter, cfg); err != nil {
		logger.Fatal().Err(err).Msg("register targets")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Enabled {
		serverAddr := cfg.Server.Addr
		if *addr != "" {
			serverAddr = *addr
		}
		srv := server.New(serverAddr, store, logger)
		go func() {
			logger.Info().Str("addr", serverAddr).Msg("status server listening")
			if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("status server")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("status server shutdown")
			}
		}()
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	logger.Info().Dur("interval", interval).Msg("babysitter starting")

	if err := sitter.Run(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("babysitter stopped")
	}
	logger.Info().Msg("babysitter stopped")
}

func registerTargets(sitter *babysit.Babysitter, cfg config.Config) error {
	for _, t := range cfg.DiskSpace {
		err := sitter.Register(babysit.Target{
			Name:  t.Name,
			Check: check.DiskSpace{Path: t.Path, ThresholdMB: t.ThresholdMB},
		})
		if err != nil {
			return err
		}
	}
	for _, t := range cfg.Processes {
		target := babysit.Target{
			Name:  t.Name,
			Check: check.NewProcessAlive(t.Process),
		}
		if argv := t.RestartArgv(); len(argv) > 0 {
			target.Restart = restart.Command{Argv: argv}
			target.RestartCooldown = time.Duration(t.RestartCooldownSeconds) * time.Second
		}
		if err := sitter.Register(target); err != nil {
			return err
		}
	}
	for _, t := range cfg.Files {
		err := sitter.Register(babysit.Target{
			Name:  t.Name,
			Check: check.FileFresh{Path: t.Path, MaxAge: time.Duration(t.MaxAgeSeconds) * time.Second},
		})
		if err != nil {
			return err
		}
	}
	for _, t := range cfg.FileGrows {
		err := sitter.Register(babysit.Target{
			Name:  t.Name,
			Check: check.NewFileGrows(t.Path),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
