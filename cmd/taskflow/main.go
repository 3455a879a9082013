// Package main provides the taskflow operator CLI.
package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/taskflow/pkg/log"
)

const (
	defaultDatabaseURL   = "file://./data"
	defaultOracleModel   = "gpt-4o"
	defaultOracleTimeout = 8 * time.Second
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "taskflow",
		Usage:                 "Talk to the task tracker and inspect its language layers",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file://dir or postgres://...)",
				Value:   defaultDatabaseURL,
				Sources: cli.EnvVars("DATABASE_URL"),
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
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			chatCommand(),
			classifyCommand(),
			parseDateCommand(),
			matchCommand(),
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
