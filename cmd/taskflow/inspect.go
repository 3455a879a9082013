package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/taskflow/pkg/cmd"
	"github.com/dukex/taskflow/pkg/intent"
	"github.com/dukex/taskflow/pkg/log"
	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/services"
)

var (
	errMissingText = errors.New("text argument is required")
	errUnknownMode = errors.New("mode must be one of local, fallback, oracle")
)

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify a message",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "phase",
				Usage: "Active operation the message is read in (NEUTRAL, ADDING_TASK, ...)",
				Value: string(models.OperationNeutral),
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			text, err := joinedArgs(command)
			if err != nil {
				return err
			}

			classifier, err := newClassifier(command)
			if err != nil {
				return err
			}

			return printJSON(command, classifier.Classify(text, models.Operation(command.String("phase"))))
		},
	}
}

func parseDateCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse-date",
		Aliases:   []string{"date"},
		Usage:     "Resolve a natural-language date",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Resolution mode (local, fallback, oracle)",
				Value: "fallback",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			text, err := joinedArgs(command)
			if err != nil {
				return err
			}

			resolver := newDateResolver(command)

			var result models.DateParseResult

			switch command.String("mode") {
			case "local":
				result = resolver.Resolve(text)
			case "fallback":
				result = resolver.ResolveWithFallback(ctx, text)
			case "oracle":
				result = resolver.ResolveWithOracle(ctx, text)
			default:
				return errUnknownMode
			}

			return printJSON(command, result)
		},
	}
}

func matchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Rank a user's tasks against a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User the tasks belong to",
				Value: "cli",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			query, err := joinedArgs(command)
			if err != nil {
				return err
			}

			logger := log.WithModule("match")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"), "", 0)
			if err != nil {
				return err
			}

			defer func() { _ = persistence.Close(ctx) }()

			conversations := services.NewConversation(persistence, intent.NewClassifier(logger), newDateResolver(command))

			result, err := conversations.Match(ctx, command.String("user"), query)
			if err != nil {
				return err
			}

			return printJSON(command, result)
		},
	}
}

func joinedArgs(command *cli.Command) (string, error) {
	text := strings.TrimSpace(strings.Join(command.Args().Slice(), " "))
	if text == "" {
		return "", errMissingText
	}

	return text, nil
}

func printJSON(command *cli.Command, value any) error {
	encoder := json.NewEncoder(command.Root().Writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	return nil
}
