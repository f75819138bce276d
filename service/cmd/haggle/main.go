// Command haggle plays bargaining matches between two engines, or serves an
// engine to remote counterparts over WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"

	engine "github.com/jason-s-yu/haggle/engine"
	"github.com/jason-s-yu/haggle/service/internal/config"
	"github.com/jason-s-yu/haggle/service/internal/match"
	"github.com/jason-s-yu/haggle/service/internal/transcript"
	"github.com/jason-s-yu/haggle/service/internal/ws"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	var (
		matchPath     = flag.String("match", "", "play one match from a YAML or JSON file")
		games         = flag.Int("games", 100, "number of generated self-play matches")
		seed          = flag.Uint64("seed", env.Seed, "generator seed")
		serve         = flag.Bool("serve", false, "serve the WebSocket endpoint")
		addr          = flag.String("addr", env.Addr, "http listen address for -serve")
		transcriptDir = flag.String("transcript", env.TranscriptDir, "directory for zstd JSONL match transcripts (empty disables)")
		cpuProfile    = flag.String("cpuprofile", "", "write a CPU profile into this directory")
		verbose       = flag.Bool("v", false, "log engine diagnostics")
	)
	flag.Parse()

	if err := setupLogging(env, *verbose); err != nil {
		return err
	}
	if *cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuProfile), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.NewEntry(log.StandardLogger())

	broadcastFn, closeTranscript := transcriptFn(*transcriptDir, logger)
	defer closeTranscript()

	switch {
	case *serve:
		return serveWS(ctx, *addr, logger)
	case *matchPath != "":
		return playFile(ctx, *matchPath, broadcastFn, logger)
	default:
		return tournament(ctx, *seed, *games, broadcastFn, logger)
	}
}

func setupLogging(env config.Env, verbose bool) error {
	lvl, err := log.ParseLevel(env.LogLevel)
	if err != nil {
		return fmt.Errorf("HAGGLE_LOG_LEVEL: %w", err)
	}
	if verbose {
		lvl = log.DebugLevel
	}
	log.SetLevel(lvl)
	if env.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// transcriptFn returns the match event callback. Without a directory events
// are dropped.
func transcriptFn(dir string, logger *log.Entry) (func(match.Event), func()) {
	if dir == "" {
		return nil, func() {}
	}
	rec := transcript.NewRecorder(dir)
	return rec.BroadcastFn(logger), func() {
		events, matches := rec.Counts()
		if err := rec.Close(); err != nil {
			logger.Warnf("transcript close: %v", err)
		}
		logger.WithFields(log.Fields{"events": events, "matches": matches}).Info("transcript closed")
	}
}

func playFile(ctx context.Context, path string, broadcastFn func(match.Event), logger *log.Entry) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	m, err := match.NewSelfPlay(cfg, broadcastFn, logger)
	if err != nil {
		return err
	}
	res, err := m.Run(ctx)
	if err != nil {
		return err
	}
	if res.Agreed {
		fmt.Printf("agreed after %d turns: a keeps %v (%.4g, %.0f%%), b keeps %v (%.4g, %.0f%%)\n",
			res.Turns, res.Kept[0], res.Values[0], res.Shares[0]*100, res.Kept[1], res.Values[1], res.Shares[1]*100)
	} else {
		fmt.Printf("no agreement after %d turns\n", res.Turns)
	}
	return nil
}

func tournament(ctx context.Context, seed uint64, n int, broadcastFn func(match.Event), logger *log.Entry) error {
	start := time.Now()
	sum, err := match.RunTournament(ctx, match.NewGenerator(seed), n, broadcastFn, logger)
	if err != nil {
		return err
	}
	fmt.Printf("matches=%d agreements=%d rate=%.3f mean_turns=%.2f mean_share_a=%.3f mean_share_b=%.3f elapsed=%s\n",
		sum.Matches, sum.Agreements, sum.AgreementRate(), sum.MeanTurns, sum.MeanShare[0], sum.MeanShare[1],
		time.Since(start).Round(time.Millisecond))
	return nil
}

func serveWS(ctx context.Context, addr string, logger *log.Entry) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", ws.NewServer(engine.DefaultStrategy(), logger).Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Infof("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
