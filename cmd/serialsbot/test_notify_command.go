package main

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/SanyCska/serials-bot/internal/logging"
	"github.com/SanyCska/serials-bot/internal/notify"
)

func newTestNotifyCommand(configFlag *string) *cobra.Command {
	var chatID int64

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chatID == 0 {
				return errors.New("--chat is required")
			}

			cfg, _, err := loadConfig(configFlag)
			if err != nil {
				return err
			}

			api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
			if err != nil {
				return fmt.Errorf("authorize telegram bot: %w", err)
			}

			notifier := notify.NewService(api, logging.NewNop())
			if err := notifier.TestNotification(cmd.Context(), chatID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat", 0, "Telegram chat id to notify")
	return cmd
}
