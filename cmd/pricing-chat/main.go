package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"pricing-agent/internal/app"
	"pricing-agent/internal/tui"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/logger"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func main() {
	logPath := flag.String("log", "pricing-chat.log", "log file path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger, err := logger.NewFile(cfg.Logger.Level, *logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize services", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Failed to initialize services: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	m := tui.New(ctx, application.AuthService, application.ChatService)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		appLogger.Error("Terminal client failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
	}
}
