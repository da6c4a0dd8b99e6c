package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pricing-agent/internal/api"
	"pricing-agent/internal/api/handlers"
	"pricing-agent/internal/app"
	"pricing-agent/pkg/config"
	"pricing-agent/pkg/logger"

	"go.uber.org/zap"
)

// @title Pricing Agent API
// @version 1.0
// @description Agente de pricing: chat com ferramentas de busca por similaridade, SQL e comparação de preços.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// pricing-agent hash-password < secret.txt
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting pricing agent service")

	ctx := context.Background()
	application, err := app.Build(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer application.Close()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(application.AuthService, logger.Component("auth"))
	chatHandler := handlers.NewChatHandler(application.ChatService, logger.Component("chat"))
	toolHandler := handlers.NewToolHandler(application.Toolset, logger.Component("tools"))

	// Setup router
	server := api.SetupRouter(authHandler, chatHandler, toolHandler, application.JWTManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := server.ShutdownWithTimeout(cfg.Server.WriteTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
