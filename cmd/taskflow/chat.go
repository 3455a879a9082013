package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/taskflow/pkg/cmd"
	"github.com/dukex/taskflow/pkg/dates"
	"github.com/dukex/taskflow/pkg/intent"
	"github.com/dukex/taskflow/pkg/log"
	"github.com/dukex/taskflow/pkg/otelhelper"
	"github.com/dukex/taskflow/pkg/services"
)

const (
	userPrompt = "you> "
	botPrefix  = "bot> "
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Start an interactive conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User the tasks belong to",
				Value: "cli",
			},
			&cli.StringFlag{
				Name:  "conversation",
				Usage: "Conversation to resume (a new one is started when empty)",
			},
		},
		Action: runChat,
	}
}

func runChat(ctx context.Context, command *cli.Command) error {
	logger := log.WithModule("chat")

	persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"), "", 0)
	if err != nil {
		return err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	classifier, err := newClassifier(command)
	if err != nil {
		return err
	}

	conversations := services.NewConversation(
		persistence,
		classifier,
		newDateResolver(command),
		services.WithLogger(logger),
	)

	conversationID := command.String("conversation")
	if conversationID == "" {
		conversationID = conversations.NewConversationID()
	}

	userID := command.String("user")
	out := command.Root().Writer

	_, _ = fmt.Fprintf(out, "Conversation %s. Type 'exit' to leave.\n", conversationID)

	scanner := bufio.NewScanner(command.Root().Reader)

	for {
		_, _ = fmt.Fprint(out, userPrompt)

		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)

			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := conversations.HandleMessage(ctx, conversationID, userID, line)
		if err != nil {
			if services.IsValidationError(err) {
				_, _ = fmt.Fprintln(out, botPrefix+err.Error())

				continue
			}

			return fmt.Errorf("turn failed: %w", err)
		}

		_, _ = fmt.Fprintln(out, botPrefix+reply.Text)
	}
}

func newClassifier(command *cli.Command) (*intent.Classifier, error) {
	return cmd.NewClassifier(log.WithModule("classifier"), command.String("patterns-file"))
}

func newDateResolver(command *cli.Command) *dates.Resolver {
	return cmd.NewDateResolver(log.WithModule("dates"), otelhelper.NoopTracer(), cmd.OracleConfig{
		APIKey:   command.String("openai-api-key"),
		BaseURL:  command.String("openai-base-url"),
		Model:    command.String("openai-model"),
		Timeout:  command.Duration("oracle-timeout"),
		DayFirst: command.Bool("day-first"),
	})
}
