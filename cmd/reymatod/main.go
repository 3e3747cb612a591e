package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/decred/slog"
	"github.com/joho/godotenv"

	"github.com/Gustavogamboa96/reymato-server/physics"
	"github.com/Gustavogamboa96/reymato-server/reygame"
	"github.com/Gustavogamboa96/reymato-server/server"
)

// envOr reads an environment variable with a fallback, so flags can default
// from a .env file loaded by godotenv.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func realMain() error {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("REYMATO_ADDR", ":8080"), "HTTP listen address")
	matchDuration := flag.Float64("matchduration", envFloatOr("REYMATO_MATCH_DURATION", reygame.DefaultMatchDuration),
		"match duration in seconds")
	debugLevel := flag.String("debuglevel", envOr("REYMATO_DEBUG", "info"), "log level")
	logFile := flag.String("logfile", envOr("REYMATO_LOGFILE", ""), "also log to this file")
	flag.Parse()

	var w io.Writer = os.Stdout
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		w = io.MultiWriter(os.Stdout, f)
	}
	backend := slog.NewBackend(w)

	level, ok := slog.LevelFromString(*debugLevel)
	if !ok {
		return fmt.Errorf("unknown debug level %q", *debugLevel)
	}
	mainLog := backend.Logger("RYMT")
	roomLog := backend.Logger("ROOM")
	srvLog := backend.Logger("SRVR")
	physLog := backend.Logger("PHYS")
	for _, l := range []slog.Logger{mainLog, roomLog, srvLog, physLog} {
		l.SetLevel(level)
	}

	rooms := reygame.NewManager(
		func() physics.Adapter { return physics.NewWorld(reygame.WorldGravity, physLog) },
		reygame.Config{MatchDuration: *matchDuration},
		roomLog,
	)
	srv := server.NewServer(server.Config{Addr: *addr}, rooms, srvLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mainLog.Infof("reymatod starting, matches run %.0fs", *matchDuration)
	return srv.Run(ctx)
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
