// Package app wires the Renzo client and runs its commands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/renzo/client/internal/config"
	"github.com/renzo/client/internal/httpserver"
	"github.com/renzo/client/internal/logging"
	"github.com/renzo/client/internal/stubapi"
)

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// ErrUsage marks an invalid command line.
var ErrUsage = errors.New("usage error")

// Run executes the command named by args[0] against the process streams. With
// no arguments it starts the interactive shell.
func Run(ctx context.Context, args []string) error {
	return RunWithStreams(ctx, args, Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// RunWithStreams is Run with explicit streams.
func RunWithStreams(ctx context.Context, args []string, streams Streams) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	name := "shell"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}

	if name == "stub-backend" {
		return serveStub(ctx, cfg, args, streams)
	}

	cmd, ok := lookupCommand(name)
	if !ok && name != "shell" {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	deps, cleanup, err := buildDependencies(ctx, cfg, streams)
	if err != nil {
		return err
	}
	defer cleanup()

	if name == "shell" {
		return runShell(ctx, deps, streams.In)
	}
	return cmd.run(ctx, deps, args)
}

func serveStub(ctx context.Context, cfg config.Config, args []string, streams Streams) error {
	fs := flag.NewFlagSet("stub-backend", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	port := fs.Int("port", cfg.StubPort, "port to listen on")
	rejectDuplicates := fs.Bool("reject-duplicate-connections", false, "refuse a repeated connection request between the same users")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	logger := logging.New(streams.Err, cfg.LogLevel, cfg.LogFormat)

	backend := stubapi.New(stubapi.Options{RejectDuplicateConnections: *rejectDuplicates})
	srv := httpserver.New(*port, backend.Handler(logger))

	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	logger.Info("starting stub backend", "addr", addr.String())

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down stub backend")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
