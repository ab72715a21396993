package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinichub/clinic-gateway/internal/agent"
	"github.com/clinichub/clinic-gateway/internal/bridge"
	"github.com/clinichub/clinic-gateway/internal/channel"
	"github.com/clinichub/clinic-gateway/internal/channel/messenger"
	"github.com/clinichub/clinic-gateway/internal/channel/telegram"
	"github.com/clinichub/clinic-gateway/internal/channel/webchat"
	"github.com/clinichub/clinic-gateway/internal/config"
	"github.com/clinichub/clinic-gateway/internal/handoff"
	"github.com/clinichub/clinic-gateway/internal/knowledge"
	"github.com/clinichub/clinic-gateway/internal/language"
	"github.com/clinichub/clinic-gateway/internal/logging"
	"github.com/clinichub/clinic-gateway/internal/queue"
	"github.com/clinichub/clinic-gateway/internal/registry"
	"github.com/clinichub/clinic-gateway/internal/responder"
	"github.com/clinichub/clinic-gateway/internal/scheduler"
	"github.com/clinichub/clinic-gateway/internal/server"
	"github.com/clinichub/clinic-gateway/internal/session"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.WithComponent("main").Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logging.WithComponent("main").Error("Invalid config", "error", err)
		os.Exit(1)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.WithComponent("main")
	logger.Info("Starting clinic gateway", "version", version)

	// Knowledge pack (compiled defaults plus optional yaml overlay)
	pack, err := knowledge.Load(cfg.Knowledge.Path)
	if err != nil {
		logger.Error("Failed to load knowledge pack", "error", err)
		os.Exit(1)
	}

	// Core state
	store := session.NewStore(cfg.Session.GetIdleTimeout(), pack.DefaultLanguage,
		logging.WithComponent("session"))
	hm := handoff.NewManager(store, cfg.Handoff.GetQuietPeriod(), pack.AdminKeywords,
		logging.WithComponent("handoff"))

	// Backend ring and generation facade
	reg, err := registry.New(cfg.Ring())
	if err != nil {
		logger.Error("Failed to build model registry", "error", err)
		os.Exit(1)
	}
	facade := responder.NewFacade(pack, logging.WithComponent("responder"))
	registerProviders(cfg, facade, logger)

	q := queue.New(reg, facade, queue.Config{
		Window:                 cfg.Generation.GetWindow(),
		CallTimeout:            cfg.Generation.GetCallTimeout(),
		MaxConsecutiveFailures: cfg.Generation.MaxConsecutiveFailures,
	}, logging.WithComponent("queue"))

	loop := agent.NewLoop(store, hm, language.FromPack(pack), q, pack,
		cfg.Handoff.GetFollowupDelay(), logging.WithComponent("agent"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Operator bridge over Redis Streams
	var operatorBridge *bridge.RedisBridge
	if cfg.Redis.Enabled {
		operatorBridge, err = bridge.NewRedisBridge(bridge.RedisBridgeConfig{
			RedisAddr:     cfg.Redis.Addr,
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			ServiceName:   "clinic-gateway",
		}, hm, logging.WithComponent("bridge"))
		if err != nil {
			logger.Error("Failed to connect operator bridge", "error", err)
			os.Exit(1)
		}
		hm.SetPublisher(operatorBridge)
		if err := operatorBridge.Start(ctx); err != nil {
			logger.Error("Failed to start operator bridge", "error", err)
			os.Exit(1)
		}
	}

	// Channels
	var msgr *messenger.MessengerAdapter
	adapters := []channel.ChannelAdapter{}
	if cfg.Messenger.Enabled {
		msgr = messenger.NewMessengerAdapter(messenger.Config{
			PageToken:   cfg.Messenger.PageToken,
			VerifyToken: cfg.Messenger.VerifyToken,
			APIBase:     cfg.Messenger.APIBase,
		}, logging.WithComponent("messenger"))
		adapters = append(adapters, msgr)
		logger.Info("Messenger adapter initialized")
	}
	if cfg.Channels.Telegram.Enabled {
		adapters = append(adapters, telegram.NewTelegramAdapter(cfg.Channels.Telegram.Token))
		logger.Info("Telegram adapter initialized")
	}
	if cfg.Channels.WebChat.Enabled {
		adapters = append(adapters, webchat.NewWebChatAdapter(cfg.Channels.WebChat.Port,
			logging.WithComponent("webchat")))
		logger.Info("WebChat adapter initialized")
	}

	for _, adapter := range adapters {
		if err := adapter.Start(ctx); err != nil {
			logger.Error("Failed to start adapter", "adapter", adapter.Name(), "error", err)
			continue
		}
		loop.Run(ctx, adapter)
		logger.Info("Adapter started", "adapter", adapter.Name())
	}

	// Maintenance jobs
	sched, err := scheduler.NewScheduler(store, hm, loop, logging.WithComponent("scheduler"))
	if err != nil {
		logger.Error("Failed to build scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("Scheduler started")

	// HTTP surface. Assign the bridge through a nil interface so a
	// disabled bridge stays nil inside the server.
	var bridgeStatus server.BridgeStatus
	if operatorBridge != nil {
		bridgeStatus = operatorBridge
	}
	srv := server.New(cfg, store, hm, reg, q, msgr, bridgeStatus, logging.WithComponent("server"))
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for _, adapter := range adapters {
		if err := adapter.Stop(); err != nil {
			logger.Error("Failed to stop adapter", "adapter", adapter.Name(), "error", err)
		}
	}
	if operatorBridge != nil {
		if err := operatorBridge.Stop(); err != nil {
			logger.Error("Failed to stop bridge", "error", err)
		}
	}
	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Shutdown complete")
}

// registerProviders wires one API client per provider named in the model
// ring. A generative descriptor whose provider has no client fails at
// generation time and rotates away, so a missing key degrades instead of
// crashing.
func registerProviders(cfg *config.Config, facade *responder.Facade, logger *slog.Logger) {
	registered := map[string]bool{}
	for _, m := range cfg.Models {
		if m.Kind != "generative" || registered[m.Provider] {
			continue
		}
		switch m.Provider {
		case "gemini":
			client, err := responder.NewGeminiClient(responder.GeminiConfig{
				APIKey:  m.APIKey,
				BaseURL: m.BaseURL,
			})
			if err != nil {
				logger.Warn("Gemini client not available", "error", err)
				continue
			}
			facade.Register("gemini", client)
		case "openai":
			client, err := responder.NewOpenAIClient(responder.OpenAIConfig{
				APIKey:  m.APIKey,
				BaseURL: m.BaseURL,
			})
			if err != nil {
				logger.Warn("OpenAI client not available", "error", err)
				continue
			}
			facade.Register("openai", client)
		default:
			logger.Warn("Unknown provider in model ring", "provider", m.Provider)
		}
		registered[m.Provider] = true
	}
}
