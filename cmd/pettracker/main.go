package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/prperemyshlev/pettracker-client/internal/app"
	"github.com/prperemyshlev/pettracker-client/internal/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	cmd, ok := lookupCommand(args[0])
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize infrastructure: %v\n", err)
		return exitError
	}

	application, err := app.NewApp(infra, cfg)
	if err != nil {
		_ = infra.Shutdown(ctx)
		fmt.Fprintf(stderr, "Failed to initialize application: %v\n", err)
		return exitError
	}
	defer func() {
		if err := application.Close(); err != nil {
			infra.Logger().Debug("close failed", zap.Error(err))
		}
	}()

	application.Start(ctx)

	c := &cli{app: application, in: stdin, out: stdout, errOut: stderr}
	err = cmd.run(ctx, c, args[1:])
	c.reportAuthEvent()
	if err != nil {
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		c.printError(err)
		return exitError
	}
	return exitOK
}
