package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lojhan/hashchain/internal/command"
	"github.com/lojhan/hashchain/internal/config"
	"github.com/lojhan/hashchain/internal/logging"
	"github.com/lojhan/hashchain/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hashchain-server: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	configFile := flag.String("config", "", "Path to a TOML config file")
	addr := flag.String("addr", "", "Listen address, e.g. tcp://:6380 (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logFile := flag.String("log-file", "", "Log file, rotated by size (overrides config)")
	singleCore := flag.Bool("single-core", false, "Run a single event loop")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Log.Filename = *logFile
	}
	if *singleCore {
		cfg.Multicore = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() {
		// Sync on a terminal stderr reports EINVAL; only file sinks matter.
		if cfg.Log.Filename != "" {
			err = multierr.Append(err, logger.Sync())
		}
	}()

	ks := command.NewKeyspace(logger.Named("table"))
	srv := server.NewServer(cfg.Addr,
		server.WithMulticore(cfg.Multicore),
		server.WithLogger(logger.Named("server")),
		server.WithShutdownTimeout(cfg.ShutdownTimeout.Duration),
	)
	registerCommands(srv, ks)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	})

	logger.Info("starting hashchain server", zap.String("addr", cfg.Addr), zap.String("version", command.Version))
	return g.Wait()
}

func registerCommands(srv *server.Server, ks *command.Keyspace) {
	srv.RegisterCommand("PING", command.PingCommand)
	srv.RegisterCommand("ECHO", command.EchoCommand)
	srv.RegisterCommand("COMMAND", command.CommandCommand)
	srv.RegisterCommand("INFO", command.InfoCommand(ks))

	srv.RegisterCommand("SET", command.SetCommand(ks))
	srv.RegisterCommand("MSET", command.MSetCommand(ks))
	srv.RegisterCommand("GET", command.GetCommand(ks))
	srv.RegisterCommand("GETDEL", command.GetDelCommand(ks))
	srv.RegisterCommand("DEL", command.DelCommand(ks))
	srv.RegisterCommand("EXISTS", command.ExistsCommand(ks))
	srv.RegisterCommand("CONTAINSVALUE", command.ContainsValueCommand(ks))
	srv.RegisterCommand("DELVALUE", command.DelValueCommand(ks))
	srv.RegisterCommand("KEYS", command.KeysCommand(ks))
	srv.RegisterCommand("GETALL", command.GetAllCommand(ks))
	srv.RegisterCommand("HASHCODE", command.HashCodeCommand(ks))
	srv.RegisterCommand("DBSIZE", command.DBSizeCommand(ks))
	srv.RegisterCommand("FLUSHDB", command.FlushDBCommand(ks))
	srv.RegisterCommand("FLUSHALL", command.FlushDBCommand(ks))
}
