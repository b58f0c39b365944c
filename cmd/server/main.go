package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/alexchoi0/driftwatch/apikeys"
	"github.com/alexchoi0/driftwatch/internal/config"
	"github.com/alexchoi0/driftwatch/internal/logging"
	"github.com/alexchoi0/driftwatch/server"
	"github.com/alexchoi0/driftwatch/sessions"
	"github.com/alexchoi0/driftwatch/storage/sqlite"
)

const (
	shutdownTimeout = 5 * time.Second
	pruneInterval   = time.Hour
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(c.GetDatabasePath()), 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, err := sqlite.Open(c.GetDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()

	sessionManager := sessions.NewManager(store.Sessions(), store.Users(), c.GetSessionSigningKey(), c.GetSessionTTL())
	srv, err := server.New(ctx, c, server.Repos{
		Users:      store.Users(),
		Sessions:   sessionManager,
		APIKeys:    apikeys.NewManager(store.APIKeys(), store.Users()),
		Benchmarks: store.Benchmarks(),
	})
	if err != nil {
		return err
	}

	apiServer := &http.Server{Addr: c.GetPort(), Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	rpcServer := &http.Server{Addr: c.GetRPCPort(), Handler: srv.RPCHandler(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listenAndServe("api", apiServer) })
	g.Go(func() error { return listenAndServe("rpc", rpcServer) })
	g.Go(func() error { return pruneSessions(gctx, sessionManager) })
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(apiServer, rpcServer)
	})
	return g.Wait()
}

func listenAndServe(name string, server *http.Server) error {
	log.Info().Str("listener", name).Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server.ListenAndServe: %w", name, err)
	}
	return nil
}

func pruneSessions(ctx context.Context, m *sessions.Manager) error {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.Prune(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to prune expired sessions")
			}
		}
	}
}

func shutdown(servers ...*http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var errs []error
	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server.Shutdown %s: %w", s.Addr, err))
		}
	}
	return errors.Join(errs...)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
