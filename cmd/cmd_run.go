package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fair-squares/go-fairsquares/internal/api/httphandler"
	"github.com/fair-squares/go-fairsquares/internal/chain"
	"github.com/fair-squares/go-fairsquares/internal/config"
	"github.com/fair-squares/go-fairsquares/internal/node"
	"github.com/fair-squares/go-fairsquares/internal/postgres"
	"github.com/fair-squares/go-fairsquares/modules/archive"
	"github.com/fair-squares/go-fairsquares/modules/archive/datagateway"
	archiverepo "github.com/fair-squares/go-fairsquares/modules/archive/repository/postgres"
	"github.com/fair-squares/go-fairsquares/pkg/automaxprocs"
	"github.com/fair-squares/go-fairsquares/pkg/errorhandler"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
	"github.com/fair-squares/go-fairsquares/pkg/middleware/requestcontext"
	"github.com/fair-squares/go-fairsquares/pkg/middleware/requestlogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func NewRunCommand() *cobra.Command {
	// Create command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Fair Squares node",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	// Add local flags
	flags := runCmd.Flags()
	flags.Bool("api-only", false, "Serve the API without producing blocks")
	flags.Bool("archive", false, "Persist runtime events to Postgres")
	flags.String("genesis", "", "Path to a genesis JSON file")

	// Bind flags to configuration
	config.BindPFlag("api_only", flags.Lookup("api-only"))
	config.BindPFlag("chain.archive", flags.Lookup("archive"))
	config.BindPFlag("chain.genesis_file", flags.Lookup("genesis"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.LoadConfig()

	// Validate inputs and configurations
	{
		if conf.Chain.BlockTime <= 0 {
			return errors.New("chain.block_time must be positive")
		}
	}

	// Initialize application process context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := do.New()
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)

	// Initialize Postgres connection pool (only used when archiving is on)
	do.Provide(injector, func(i do.Injector) (*pgxpool.Pool, error) {
		conf := do.MustInvoke[config.Config](i)

		start := time.Now()
		logger.InfoContext(ctx, "Connecting to Postgres...")
		pool, err := postgres.NewPool(ctx, conf.Postgres)
		if err != nil {
			return nil, errors.Wrap(err, "can't connect to Postgres")
		}
		logger.InfoContext(ctx, "Connected to Postgres", slog.Duration("latency", time.Since(start)))
		return pool, nil
	})

	// Initialize event archive
	do.Provide(injector, func(i do.Injector) (datagateway.EventDataGateway, error) {
		pool, err := do.Invoke[*pgxpool.Pool](i)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return archiverepo.NewRepository(pool), nil
	})

	// Initialize chain and node
	do.Provide(injector, func(i do.Injector) (*chain.Chain, error) {
		conf := do.MustInvoke[config.Config](i)

		genesis := chain.DevGenesis()
		if conf.Chain.GenesisFile != "" {
			loaded, err := chain.LoadGenesisFile(conf.Chain.GenesisFile)
			if err != nil {
				return nil, errors.Wrap(err, "invalid genesis file")
			}
			genesis = loaded
		}
		return chain.New(chain.DefaultParams(), genesis), nil
	})
	do.Provide(injector, func(i do.Injector) (*node.Node, error) {
		conf := do.MustInvoke[config.Config](i)
		c := do.MustInvoke[*chain.Chain](i)

		var archiver node.EventArchiver
		if conf.Chain.Archive {
			events, err := do.Invoke[datagateway.EventDataGateway](i)
			if err != nil {
				return nil, errors.Wrap(err, "can't init event archive")
			}
			archiver = archive.NewArchiver(events)
		}
		return node.New(c, archiver, conf.Chain.BlockTime), nil
	})

	// Initialize HTTP server
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		app := fiber.New(fiber.Config{
			AppName:      "Fair Squares Node",
			ErrorHandler: errorhandler.NewHTTPErrorHandler(),
		})
		app.
			Use(favicon.New()).
			Use(cors.New()).
			Use(requestid.New()).
			Use(requestcontext.New(
				requestcontext.WithRequestId(),
				requestcontext.WithClientIP(conf.HTTPServer.RequestIP),
			)).
			Use(requestlogger.New(conf.HTTPServer.Logger)).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024) // bufLen = 1024
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", slogx.Any("panic", e), slog.String("stacktrace", string(buf)))
				},
			})).
			Use(compress.New(compress.Config{
				Level: compress.LevelDefault,
			}))

		// Health check
		app.Get("/", func(c *fiber.Ctx) error {
			return errors.WithStack(c.SendStatus(http.StatusOK))
		})

		return app, nil
	})

	// Initialize worker context to separate worker's lifecycle from main process
	ctxWorker, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	chainNode := do.MustInvoke[*node.Node](injector)

	// Run block production
	if !conf.APIOnly {
		go func() {
			// stop main process if block production stopped
			defer stop()

			logger.InfoContext(ctxWorker, "Starting Fair Squares block production")
			if err := chainNode.Run(ctxWorker); err != nil && !errors.Is(err, context.Canceled) {
				logger.PanicContext(ctxWorker, "Something went wrong, error during block production", slogx.Error(err))
			}
		}()
	}

	// Mount API routes
	httpServer := do.MustInvoke[*fiber.App](injector)
	{
		var events datagateway.EventDataGateway
		if conf.Chain.Archive {
			events = do.MustInvoke[datagateway.EventDataGateway](injector)
		}
		handler := httphandler.New(chainNode, events)
		if err := handler.Mount(httpServer); err != nil {
			return errors.Wrap(err, "can't mount API routes")
		}
	}

	// Run API server
	go func() {
		// stop main process if API stopped
		defer stop()

		logger.InfoContext(ctx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			logger.PanicContext(ctx, "Something went wrong, error during running HTTP server", slogx.Error(err))
		}
	}()

	// Stop application if worker context is done
	go func() {
		<-ctxWorker.Done()
		defer stop()

		logger.InfoContext(ctx, "Fair Squares worker is stopped. Stopping application...")
	}()

	logger.InfoContext(ctxWorker, "Fair Squares node started")

	// Wait for interrupt signal to gracefully stop the server
	<-ctx.Done()

	// Force shutdown if timeout exceeded or got signal again
	go func() {
		defer os.Exit(1)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		select {
		case <-ctx.Done():
			logger.FatalContext(ctx, "Received exit signal again. Force shutdown...")
		case <-time.After(shutdownTimeout + 15*time.Second):
			logger.FatalContext(ctx, "Shutdown timeout exceeded. Force shutdown...")
		}
	}()

	if err := injector.Shutdown(); err != nil {
		logger.PanicContext(ctx, "Failed while gracefully shutting down", slogx.Error(err))
	}

	return nil
}
