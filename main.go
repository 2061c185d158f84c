package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	app "github.com/rocketscienceinc/ultimate-tictactoe/internal"
	"github.com/rocketscienceinc/ultimate-tictactoe/internal/config"
)

var (
	configPath string
	opts       app.Options
)

// main - is the entry point of the application. It parses the command line and runs the chosen mode.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "uttt",
		Short:        "Ultimate tic-tac-toe over a websocket relay",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yml", "path to the config file")

	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "Run a standalone relay",
		RunE: func(*cobra.Command, []string) error {
			conf := config.MustLoad(configPath)
			return app.RunRelay(initLogger(conf), conf)
		},
	}

	hostCmd := &cobra.Command{
		Use:   "host",
		Short: "Start a relay and play X on it",
		RunE: func(*cobra.Command, []string) error {
			conf := config.MustLoad(configPath)
			return app.RunHost(initLogger(conf), conf, withConfig(conf))
		},
	}

	joinCmd := &cobra.Command{
		Use:   "join",
		Short: "Join a hosted room and play O",
		RunE: func(*cobra.Command, []string) error {
			conf := config.MustLoad(configPath)
			return app.RunJoin(initLogger(conf), conf, withConfig(conf))
		},
	}
	joinCmd.Flags().StringVar(&opts.Addr, "addr", "", "relay websocket url, e.g. ws://10.0.0.5:6000/ws")

	for _, cmd := range []*cobra.Command{hostCmd, joinCmd} {
		cmd.Flags().StringVar(&opts.Room, "room", "", "room id (host: empty creates a new room)")
		cmd.Flags().BoolVar(&opts.Bot, "bot", false, "let a bot play the local mark")
	}

	rootCmd.AddCommand(relayCmd, hostCmd, joinCmd)

	return rootCmd
}

// withConfig - the room from the config applies when no --room is given.
func withConfig(conf *config.Config) app.Options {
	result := opts
	if result.Room == "" {
		result.Room = conf.Session.Room
	}

	return result
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
