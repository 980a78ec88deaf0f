package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/api"
	"github.com/palemoky/tagracer/internal/config"
	"github.com/palemoky/tagracer/internal/logger"
	"github.com/palemoky/tagracer/internal/sound"
	"github.com/palemoky/tagracer/internal/storage"
	"github.com/palemoky/tagracer/internal/store"
	"github.com/palemoky/tagracer/internal/transport"
	"github.com/palemoky/tagracer/internal/transport/natschan"
	"github.com/palemoky/tagracer/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	follow := flag.Bool("follow", false, "print snapshots mirrored to Redis instead of running the scoreboard")
	soundDir := flag.String("sounds", "assets/sounds", "directory with cue files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *follow {
		if err := runFollower(ctx, cfg); err != nil {
			log.Error().Err(err).Msg("follower stopped")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, *soundDir); err != nil {
		log.Error().Err(err).Msg("scoreboard stopped")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, soundDir string) error {
	client := api.NewClient(cfg.API.BaseURL, cfg.API.TimeoutDuration())

	root := store.NewRoot(client, newOpener(cfg),
		store.WithGameDuration(cfg.Game.DurationValue()),
		store.WithTickInterval(cfg.UI.TickInterval()),
	)
	defer root.Close()

	if cfg.Redis.Addr != "" {
		rdb := newRedis(cfg)
		defer func() { _ = rdb.Close() }()

		mirror := storage.NewMirror(storage.NewRedisStore(rdb, cfg.Redis.Key), root, nil, 0)
		mirrorCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go mirror.Run(mirrorCtx)
		log.Info().Str("addr", cfg.Redis.Addr).Str("key", cfg.Redis.Key).Msg("snapshot mirror enabled")
	}

	opts := []ui.Option{ui.WithRequestTimeout(cfg.API.TimeoutDuration())}
	if cfg.UI.Sound {
		player := sound.NewPlayer(soundDir)
		if err := player.Init(); err != nil {
			log.Warn().Err(err).Msg("sound disabled")
		} else {
			defer player.Close()
			opts = append(opts, ui.WithSound(player))
		}
	}

	root.Socket.Init()
	log.Info().
		Str("transport", cfg.Realtime.Transport).
		Str("api", cfg.API.BaseURL).
		Msg("scoreboard starting")

	p := tea.NewProgram(ui.New(root, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run scoreboard: %w", err)
	}
	return nil
}

func runFollower(ctx context.Context, cfg *config.Config) error {
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("follow mode needs %s or redis.addr", config.EnvRedisAddr)
	}
	rdb := newRedis(cfg)
	defer func() { _ = rdb.Close() }()

	rs := storage.NewRedisStore(rdb, cfg.Redis.Key)
	enc := json.NewEncoder(os.Stdout)

	if snap, err := rs.LoadSnapshot(ctx); err != nil {
		return err
	} else if snap != nil {
		_ = enc.Encode(snap)
	}
	return rs.Follow(ctx, func(snap store.Snapshot) {
		_ = enc.Encode(snap)
	})
}

func newOpener(cfg *config.Config) transport.Opener {
	if cfg.Realtime.Transport == config.TransportNATS {
		nc := natschan.DefaultConfig()
		nc.URL = cfg.Realtime.NATSURL
		nc.Subject = cfg.Realtime.Subject
		return natschan.Opener(nc)
	}
	return transport.WebSocketOpener(cfg.Realtime.SocketURL)
}

func newRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
