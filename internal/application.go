package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/arena-client/internal/clock"
	"github.com/rocketscienceinc/arena-client/internal/config"
	"github.com/rocketscienceinc/arena-client/internal/entity"
	"github.com/rocketscienceinc/arena-client/internal/pkg"
	"github.com/rocketscienceinc/arena-client/internal/repository"
	"github.com/rocketscienceinc/arena-client/internal/repository/storage"
	"github.com/rocketscienceinc/arena-client/internal/session"
	"github.com/rocketscienceinc/arena-client/internal/transport/console"
	"github.com/rocketscienceinc/arena-client/internal/transport/rest"
	"github.com/rocketscienceinc/arena-client/internal/transport/websocket"
	"github.com/rocketscienceinc/arena-client/internal/usecase"
)

var ErrUserNotFound = errors.New("user id is empty")

// RunApp - runs the client until the user quits or a signal arrives.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	if conf.UserID == "" {
		return ErrUserNotFound
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var matchCache repository.MatchRepository

	if conf.Redis.Enabled() {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			log.Warn("replay cache disabled", "error", err)
		} else {
			defer func() {
				if err = redisStorage.Close(); err != nil {
					log.Error("could not close redis storage", "error", err)
				}
			}()

			matchCache = repository.NewMatchRepository(redisStorage.Connection)
		}
	}

	loop := session.NewLoop(logger, 0)
	scheduler := clock.NewLoopScheduler(loop)

	adapter := websocket.NewAdapter(logger, conf.Transport.OutboundBuffer)
	machine := session.NewMachine(logger, adapter, scheduler, session.Config{
		UserID:       conf.UserID,
		DisplayName:  conf.DisplayName,
		TurnDuration: conf.Game.TurnDuration,
	})

	if err := adapter.Subscribe(session.NewDispatcher(loop, machine)); err != nil {
		return fmt.Errorf("could not subscribe to channel: %w", err)
	}

	restClient := rest.NewClient(logger, conf.Server.APIURL)
	replays := usecase.NewReplayUseCase(logger, matchCache, restClient, conf.Replay.CacheTTL, entity.CellValue(conf.Game.FirstMover))

	transport := websocket.NewTransport(logger, conf.Server.WSURL, conf.UserID, pkg.GenerateSessionID(),
		conf.Transport.HandshakeTimeout, conf.Transport.ReconnectMaxElapsed)

	client := newClient(logger, os.Stdout, loop, scheduler, machine, replays, restClient, adapter, conf)
	reader := console.NewReader(logger, client)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return loop.Run(groupCtx)
	})

	group.Go(func() error {
		// replays and lobby commands keep working without the channel
		if err := transport.Serve(groupCtx, adapter); err != nil {
			log.Error("gave up reconnecting, continuing offline", "error", err)
		}
		return nil
	})

	group.Go(func() error {
		defer cancel()

		client.greet()

		return reader.Run(groupCtx, os.Stdin) //nolint: wrapcheck // already wrapped by the reader
	})

	log.Info("client started", "userID", conf.UserID, "server", conf.Server.WSURL)

	if err := group.Wait(); err != nil {
		return fmt.Errorf("client stopped: %w", err)
	}

	log.Info("client stopped")

	return nil
}
