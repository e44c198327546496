package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillchat/quill/internal/app"
	"github.com/quillchat/quill/internal/chat"
	"github.com/quillchat/quill/internal/config"
	"github.com/quillchat/quill/internal/i18n"
	"github.com/quillchat/quill/internal/log"
)

var askUseTools bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question without persisting a conversation",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askUseTools, "tools", false, "Allow the model to search the web")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	i18n.Init(cfg.Language)

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("%s", i18n.T("ask.usage"))
	}

	outcome := a.Run(ctx, chat.Request{
		Messages:     []chat.Message{{Role: chat.RoleUser, Content: question}},
		ToolsEnabled: askUseTools,
	})
	if !outcome.OK() {
		return fmt.Errorf("%s", outcome.Failure.Message)
	}

	cmd.Println(outcome.Response)
	return nil
}
