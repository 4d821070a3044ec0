// Package servecmder provides the serve command that runs the alembic server.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/alembic/api"
	mcpapi "github.com/papercomputeco/alembic/api/mcp"
	"github.com/papercomputeco/alembic/pkg/config"
	"github.com/papercomputeco/alembic/pkg/credentials"
	"github.com/papercomputeco/alembic/pkg/dotdir"
	"github.com/papercomputeco/alembic/pkg/eventstream"
	"github.com/papercomputeco/alembic/pkg/eventstream/feed"
	"github.com/papercomputeco/alembic/pkg/eventstream/kafka"
	"github.com/papercomputeco/alembic/pkg/eventstream/nop"
	"github.com/papercomputeco/alembic/pkg/generator"
	"github.com/papercomputeco/alembic/pkg/inventory"
	"github.com/papercomputeco/alembic/pkg/logger"
	"github.com/papercomputeco/alembic/pkg/metrics"
	"github.com/papercomputeco/alembic/pkg/recipe"
	"github.com/papercomputeco/alembic/pkg/resolver"
	"github.com/papercomputeco/alembic/pkg/storage"
	storageutils "github.com/papercomputeco/alembic/pkg/storage/utils"
	"github.com/papercomputeco/alembic/pkg/workspace"
)

// Event sink providers.
const (
	eventsNop   = "nop"
	eventsKafka = "kafka"
)

type ServeCommander struct {
	flags config.FlagSet

	listen             string
	storageProvider    string
	sqlitePath         string
	postgresDSN        string
	badgerPath         string
	provider           string
	model              string
	baseURL            string
	timeoutSeconds     uint
	collisionThreshold float64
	workers            uint
	queueSize          uint
	eventsProvider     string
	kafkaBrokers       string
	kafkaTopic         string

	configDir string
	debug     bool
	jsonLogs  bool
	logFile   string

	cfg    *config.Config
	logger *slog.Logger
}

// serveFlags are the registry keys serve binds to viper.
var serveFlags = []string{
	config.FlagListen,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagBadgerPath,
	config.FlagGeneratorProvider,
	config.FlagGeneratorModel,
	config.FlagGeneratorBaseURL,
	config.FlagGeneratorTimeout,
	config.FlagCollisionThreshold,
	config.FlagWorkers,
	config.FlagQueueSize,
	config.FlagEventsProvider,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run the alembic server.

Serves the HTTP API, the MCP endpoint on /mcp and Prometheus metrics on
/metrics from one listener. Discoveries and recipes persist through the
configured storage provider; new combinations are generated by the
configured LLM provider.

Examples:
  alembic serve
  alembic serve --provider openai --model gpt-4o-mini
  alembic serve --storage postgres --postgres-dsn postgres://localhost/alembic
  alembic serve --events kafka --kafka-brokers localhost:9092
  alembic serve --log-file ~/.alembic/serve.log`

const serveShortDesc string = "Run the alembic server"

func NewServeCmd() *cobra.Command {
	cmd, _ := newServeCmd()
	return cmd
}

func newServeCmd() (*cobra.Command, *ServeCommander) {
	cmder := &ServeCommander{
		flags: config.Flags,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, cmder.flags, serveFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, cmder.flags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagPostgresDSN, &cmder.postgresDSN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagBadgerPath, &cmder.badgerPath)
	config.AddStringFlag(cmd, cmder.flags, config.FlagGeneratorProvider, &cmder.provider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagGeneratorModel, &cmder.model)
	config.AddStringFlag(cmd, cmder.flags, config.FlagGeneratorBaseURL, &cmder.baseURL)
	config.AddUintFlag(cmd, cmder.flags, config.FlagGeneratorTimeout, &cmder.timeoutSeconds)
	config.AddFloat64Flag(cmd, cmder.flags, config.FlagCollisionThreshold, &cmder.collisionThreshold)
	config.AddUintFlag(cmd, cmder.flags, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, cmder.flags, config.FlagQueueSize, &cmder.queueSize)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProvider, &cmder.eventsProvider)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, cmder.flags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().BoolVar(&cmder.jsonLogs, "log-json", false, "Write JSON logs instead of pretty output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs with source locations to this file")

	return cmd, cmder
}

func (c *ServeCommander) run(ctx context.Context) error {
	log, closeLog, err := c.newLogger(os.Stdout)
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	inv := inventory.New(ctx, driver, c.logger)
	recipes := recipe.New(ctx, driver, c.logger)
	recorder := metrics.New()

	gen, err := c.newGenerator()
	if err != nil {
		return err
	}

	res, err := resolver.New(resolver.Config{
		Cache:     recipes,
		Generator: gen,
		Timeout:   c.generatorTimeout(),
		Metrics:   recorder,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating resolver: %w", err)
	}

	notices := feed.NewPublisher(int(c.cfg.Events.FeedSize))
	sink, err := c.newEventSink()
	if err != nil {
		return err
	}
	publisher := eventstream.NewFanout(notices, sink)
	defer publisher.Close()

	ws, err := workspace.New(workspace.Config{
		Resolver:           res,
		Inventory:          inv,
		Recipes:            recipes,
		Publisher:          publisher,
		Metrics:            recorder,
		CollisionThreshold: c.cfg.Workspace.CollisionThreshold,
		RollbackOffset:     c.cfg.Workspace.RollbackOffset,
		NarrowViewport:     float64(c.cfg.Workspace.NarrowViewport),
		Workers:            c.cfg.Workspace.Workers,
		QueueSize:          c.cfg.Workspace.QueueSize,
		Logger:             c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}
	defer ws.Close()

	mcpServer, err := mcpapi.NewServer(mcpapi.Config{
		Discoverer: ws,
		Inventory:  inv,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer, err := api.NewServer(api.Config{
		ListenAddr: c.cfg.API.Listen,
		Workspace:  ws,
		Inventory:  inv,
		Recipes:    recipes,
		Notices:    notices,
		Metrics:    recorder,
		MCPHandler: mcpServer.Handler(),
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("alembic ready",
		"listen", c.cfg.API.Listen,
		"discovered", inv.Len(),
		"recipes", recipes.Len(),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}

// newLogger builds the console logger on stdout. With --log-file set, records
// also go to the file as JSON through logger.Multi.
func (c *ServeCommander) newLogger(stdout io.Writer) (*slog.Logger, func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(c.jsonLogs),
		logger.WithPretty(!c.jsonLogs),
		logger.WithWriter(stdout),
	)
	if c.logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

func (c *ServeCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	sqlitePath := c.cfg.Storage.SQLitePath
	if c.cfg.Storage.Provider == storageutils.ProviderSQLite && sqlitePath == "" {
		path, err := dotdir.NewManager().DatabasePath(c.configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving database path: %w", err)
		}
		sqlitePath = path
	}

	driver, err := storageutils.NewDriver(ctx, &storageutils.NewDriverOpts{
		ProviderType: c.cfg.Storage.Provider,
		SQLitePath:   sqlitePath,
		PostgresDSN:  c.cfg.Storage.PostgresDSN,
		BadgerPath:   c.cfg.Storage.BadgerPath,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage driver: %w", err)
	}

	c.logger.Info("using storage", "provider", c.cfg.Storage.Provider, "sqlite_path", sqlitePath)
	return driver, nil
}

func (c *ServeCommander) newGenerator() (generator.Generator, error) {
	credMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	callerCfg := generator.CallerConfig{
		Provider: c.cfg.Generator.Provider,
		Model:    c.cfg.Generator.Model,
		BaseURL:  c.cfg.Generator.BaseURL,
		Timeout:  c.generatorTimeout(),
		CredMgr:  credMgr,
		Logger:   c.logger,
	}
	if !generator.HasCredentials(callerCfg) {
		c.logger.Warn("no credentials for generator provider, store one with 'alembic auth'",
			"provider", c.cfg.Generator.Provider,
		)
	}

	gen, err := generator.New(callerCfg)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	return gen, nil
}

func (c *ServeCommander) newEventSink() (eventstream.Publisher, error) {
	switch strings.ToLower(c.cfg.Events.Provider) {
	case "", eventsNop:
		return nop.NewPublisher(), nil
	case eventsKafka:
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: splitBrokers(c.cfg.Events.Brokers),
			Topic:   c.cfg.Events.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		c.logger.Info("publishing events to kafka", "brokers", c.cfg.Events.Brokers, "topic", c.cfg.Events.Topic)
		return pub, nil
	default:
		return nil, errors.New("unsupported events provider: " + c.cfg.Events.Provider)
	}
}

func (c *ServeCommander) generatorTimeout() time.Duration {
	return time.Duration(c.cfg.Generator.TimeoutSeconds) * time.Second
}

func splitBrokers(raw string) []string {
	var brokers []string
	for b := range strings.SplitSeq(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
