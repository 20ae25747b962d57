package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/knapsack-packer/internal/knapsack"
	"github.com/eugenenazirov/knapsack-packer/internal/logging"
	"github.com/eugenenazirov/knapsack-packer/internal/session"
)

const (
	defaultMaxCapacity = 10_000
	defaultMaxItems    = 256
)

type options struct {
	logLevel    string
	once        bool
	maxCapacity int
	maxItems    int
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	kingpin.FatalIfError(err, "parse flags")

	logger, err := logging.New(opts.logLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout, logger); err != nil {
		logger.Fatal("session failed", zap.Error(err))
	}
}

func parseFlags(args []string) (options, error) {
	app := kingpin.New("knapsack", "Interactive 0/1 knapsack packer")
	logLevel := app.Flag("log-level", "Log level for diagnostics written to stderr").Default("warn").Enum("debug", "info", "warn", "error")
	once := app.Flag("once", "Solve a single knapsack and exit").Bool()
	maxCapacity := app.Flag("max-capacity", "Largest capacity the prompt accepts").Default(strconv.Itoa(defaultMaxCapacity)).Int()
	maxItems := app.Flag("max-items", "Largest item count the prompt accepts").Default(strconv.Itoa(defaultMaxItems)).Int()

	if _, err := app.Parse(args); err != nil {
		return options{}, err
	}
	return options{
		logLevel:    *logLevel,
		once:        *once,
		maxCapacity: *maxCapacity,
		maxItems:    *maxItems,
	}, nil
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer, logger *zap.Logger) error {
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLimits(opts.maxCapacity, opts.maxItems),
	}
	if opts.once {
		sessionOpts = append(sessionOpts, session.WithSingleRound())
	}
	err := session.New(knapsack.New(), in, out, sessionOpts...).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("session interrupted")
		return nil
	}
	return err
}
