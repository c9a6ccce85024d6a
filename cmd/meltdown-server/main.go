// Package main is the entry point for the Meltdown co-op reactor server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meltdownclowns/server/internal/game"
	"github.com/meltdownclowns/server/internal/lobby"
	"github.com/meltdownclowns/server/internal/network"
	"github.com/meltdownclowns/server/internal/platform/config"
	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/platform/metrics"
)

func main() {
	log.Println("[MELTDOWN-SERVER] Initializing authoritative reactor server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	if cfg.BalanceFile != "" {
		balance, err := config.LoadBalance(cfg.BalanceFile)
		if err != nil {
			appLogger.Error("Failed to load balance file: " + err.Error())
			os.Exit(1)
		}
		balance.Apply()
		appLogger.Info("Applied balance overrides from " + cfg.BalanceFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(appLogger)

	sessions := game.NewRegistry()
	lobbyManager := lobby.NewManager(hub, appLogger, cfg.MaxRooms)

	hub.SetHandler(&router{
		ctx:      ctx,
		hub:      hub,
		lobby:    lobbyManager,
		sessions: sessions,
		logger:   appLogger,
	})
	go hub.Run(ctx)

	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		network.ServeWS(hub, w, r, cfg.ClientSendBuffer)
	})

	mux.HandleFunc("/api/lobbies", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lobbyManager.RoomList())
	})

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"sessions": sessions.Len(),
		})
	})

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Printf("[MELTDOWN-SERVER] HTTP API & WS Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[MELTDOWN-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[MELTDOWN-SERVER] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown error: " + err.Error())
	}
}
