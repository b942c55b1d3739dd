package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SanyCska/serials-bot/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "serialsbot",
		Short:         "Telegram bot that tracks TV series and announces new seasons",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newStatusCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))
	rootCmd.AddCommand(newTestNotifyCommand(&configFlag))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func loadConfig(configFlag *string) (*config.Config, string, error) {
	path := ""
	if configFlag != nil {
		path = *configFlag
	}
	cfg, resolvedPath, _, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("load configuration: %w", err)
	}
	return cfg, resolvedPath, nil
}
