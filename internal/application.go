package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/ultimate-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/config"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/repository"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/service"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/session"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/transport/memory"
	redisbroker "github.com/rocketscienceinc/ultimate-tictactoe/internal/transport/redis"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/ultimate-tictactoe/transport/rest"
	"github.com/rocketscienceinc/ultimate-tictactoe/transport/websocket"
)

var (
	ErrAddrNotFound = errors.New("redis address string is empty")
	ErrRoomRequired = errors.New("a room id is required to join")
)

// Options - what the command line adds on top of the config.
type Options struct {
	// Addr is the relay url to dial. Empty means the relay from the config.
	Addr string
	Room string
	Bot  bool
}

// RunRelay - runs a standalone relay with the ping/metrics HTTP server until a signal arrives.
func RunRelay(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app", "mode", "relay")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, closeRelay, err := newRelay(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeRelay()

	listener, err := net.Listen("tcp", conf.Relay.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", conf.Relay.ListenAddr(), err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		return rest.Start(groupCtx, conf.HTTPPort)
	})

	group.Go(func() error {
		log.Info("Starting relay", "addr", listener.Addr().String(), "path", conf.Relay.Path, "broker", conf.Relay.Broker)
		return relay.Serve(groupCtx, listener, conf.Relay.Path)
	})

	if err = group.Wait(); err != nil {
		return fmt.Errorf("relay stopped: %w", err)
	}

	log.Info("Relay shut down")

	return nil
}

// RunHost - starts a relay in-process and plays the first seat of a room on it over loopback.
func RunHost(logger *slog.Logger, conf *config.Config, opts Options) error {
	log := logger.With("component", "app", "mode", "host")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, closeRelay, err := newRelay(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeRelay()

	listener, err := net.Listen("tcp", conf.Relay.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", conf.Relay.ListenAddr(), err)
	}

	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	url := fmt.Sprintf("ws://%s%s", net.JoinHostPort("127.0.0.1", port), conf.Relay.Path)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return rest.Start(groupCtx, conf.HTTPPort)
	})

	group.Go(func() error {
		log.Info("Starting relay", "addr", listener.Addr().String(), "path", conf.Relay.Path)
		return relay.Serve(groupCtx, listener, conf.Relay.Path)
	})

	group.Go(func() error {
		// the game is over for everyone once the host leaves
		defer cancel()
		return play(groupCtx, logger, conf, url, opts, true)
	})

	return group.Wait()
}

// RunJoin - dials a relay and plays the second seat of an existing room.
func RunJoin(logger *slog.Logger, conf *config.Config, opts Options) error {
	if opts.Room == "" {
		return ErrRoomRequired
	}

	url := opts.Addr
	if url == "" {
		url = conf.Relay.URL()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return play(ctx, logger, conf, url, opts, false)
}

func play(ctx context.Context, logger *slog.Logger, conf *config.Config, url string, opts Options, host bool) error {
	log := logger.With("method", "play", "host", host)

	client, err := websocket.Dial(ctx, logger, url, opts.Room)
	if err != nil {
		return err
	}

	sess := session.New(logger, usecase.NewLogPresenter(logger), conf.Session.SettleDelay)
	participant := usecase.NewParticipant(logger, sess, client, conf.Session.TickInterval, host)

	if opts.Bot {
		participant.WithBot(service.NewBotService(time.Now().UnixNano()))
	} else {
		go readClicks(ctx, logger, os.Stdin, participant)
	}

	clientCtx, stopClient := context.WithCancel(ctx)
	clientDone := make(chan error, 1)
	go func() {
		clientDone <- client.Run(clientCtx)
	}()

	outcome, err := participant.Run(ctx)

	stopClient()
	if clientErr := <-clientDone; clientErr != nil {
		log.Debug("relay connection ended", "error", clientErr)
	}

	switch {
	case errors.Is(err, context.Canceled):
		log.Info("Left the game")
		return nil
	case errors.Is(err, apperror.ErrConnectionLost):
		log.Warn("Connection to the game lost")
		return nil
	case err != nil:
		return fmt.Errorf("session failed: %w", err)
	}

	log.Info("Game over", "outcome", outcome)

	return nil
}

// newRelay - builds the relay on the configured broker. The returned func releases the broker's resources.
func newRelay(ctx context.Context, logger *slog.Logger, conf *config.Config) (*websocket.Server, func(), error) {
	log := logger.With("method", "newRelay")

	if conf.Relay.Broker != config.BrokerRedis {
		rooms := service.NewRoomService(logger, repository.NewMemoryRoomRepository())
		relay := websocket.New(logger, rooms, memory.NewBroker(), conf.Relay.MessageRate, conf.Relay.MessageBurst)

		return relay, func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if conf.Redis.Host == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	rooms := service.NewRoomService(logger, repository.NewRoomRepository(redisStorage, conf.Redis.RoomTTL))
	relay := websocket.New(logger, rooms, redisbroker.New(logger, redisStorage), conf.Relay.MessageRate, conf.Relay.MessageBurst)

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	return relay, closeFn, nil
}
