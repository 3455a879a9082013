package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/taskflow/pkg/cmd"
	"github.com/dukex/taskflow/pkg/janitor"
	"github.com/dukex/taskflow/pkg/log"
	"github.com/dukex/taskflow/pkg/otelhelper"
	"github.com/dukex/taskflow/pkg/persistence/redis"
)

const (
	defaultPort          = 9091
	defaultOracleModel   = "gpt-4o"
	defaultOracleTimeout = 8 * time.Second
)

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "taskflow-api",
		Usage:                 "Serve the conversational task tracker",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://dir or postgres://...)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Redis URL used to cache conversation state",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.DurationFlag{
				Name:    "cache-ttl",
				Usage:   "How long cached conversation state lives",
				Value:   redis.DefaultTTL,
				Sources: cli.EnvVars("CACHE_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "patterns-file",
				Usage:   "YAML file overriding the intent pattern table",
				Sources: cli.EnvVars("INTENT_PATTERNS_FILE"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for date escalation; escalation is disabled when empty",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Base URL of an OpenAI compatible endpoint",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "openai-model",
				Usage:   "Model used for date escalation",
				Value:   defaultOracleModel,
				Sources: cli.EnvVars("OPENAI_MODEL"),
			},
			&cli.DurationFlag{
				Name:    "oracle-timeout",
				Usage:   "Deadline for a single escalation call",
				Value:   defaultOracleTimeout,
				Sources: cli.EnvVars("ORACLE_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "day-first",
				Usage:   "Read ambiguous numeric dates as day/month",
				Sources: cli.EnvVars("DATE_DAY_FIRST"),
			},
			&cli.DurationFlag{
				Name:    "stale-after",
				Usage:   "Idle time after which an unfinished workflow is reset",
				Value:   janitor.DefaultStaleAfter,
				Sources: cli.EnvVars("STALE_AFTER"),
			},
			&cli.StringFlag{
				Name:    "sweep-schedule",
				Usage:   "Cron schedule of the stale workflow sweep",
				Value:   janitor.DefaultSchedule,
				Sources: cli.EnvVars("SWEEP_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Taskflow API")

			tracer := otelhelper.NoopTracer()

			if command.Bool("tracing") {
				t, err := otelhelper.NewTracer(ctx, "taskflow-api")
				if err != nil {
					return err
				}

				tracer = t
			}

			persistence, err := cmd.NewPersistence(
				ctx,
				logger,
				command.String("database-url"),
				command.String("cache-url"),
				command.Duration("cache-ttl"),
			)
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sweeper, err := janitor.New(logger, persistence.Conversations(), eventBus, janitor.Config{
				Schedule:   command.String("sweep-schedule"),
				StaleAfter: command.Duration("stale-after"),
			})
			if err != nil {
				return err
			}

			if err := sweeper.Start(ctx); err != nil {
				return err
			}

			defer func() {
				if err := sweeper.Stop(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to stop janitor", "error", err)
				}
			}()

			classifier, err := cmd.NewClassifier(logger, command.String("patterns-file"))
			if err != nil {
				return err
			}

			resolver := cmd.NewDateResolver(logger, tracer, cmd.OracleConfig{
				APIKey:   command.String("openai-api-key"),
				BaseURL:  command.String("openai-base-url"),
				Model:    command.String("openai-model"),
				Timeout:  command.Duration("oracle-timeout"),
				DayFirst: command.Bool("day-first"),
			})

			api := NewAPI(logger, persistence, classifier, resolver, eventBus, tracer)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
