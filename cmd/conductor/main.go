// conductor is the multi-agent task-orchestrator process entrypoint:
// loads configuration, connects the Store, wires the LLM Gateway, Tool
// Registry, Specialist Roster, RAI gate, and Session Runtime, then serves
// the §6 HTTP surface until a shutdown signal arrives.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeready-toolchain/conductor/pkg/api"
	"github.com/codeready-toolchain/conductor/pkg/config"
	"github.com/codeready-toolchain/conductor/pkg/llmgateway"
	"github.com/codeready-toolchain/conductor/pkg/models"
	"github.com/codeready-toolchain/conductor/pkg/rai"
	"github.com/codeready-toolchain/conductor/pkg/runtime"
	"github.com/codeready-toolchain/conductor/pkg/store"
	"github.com/codeready-toolchain/conductor/pkg/tools"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("conductor: load configuration: %v", err)
	}

	db, err := store.New(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("conductor: connect to store: %v", err)
	}
	defer db.Close()
	slog.Info("conductor: connected to store and applied migrations")

	llmGateway := llmgateway.New(cfg.LLM)

	rawCatalogs, err := config.LoadToolCatalogs()
	if err != nil {
		log.Fatalf("conductor: load tool catalogs: %v", err)
	}
	systemMessages, err := config.SystemMessages()
	if err != nil {
		log.Fatalf("conductor: load system messages: %v", err)
	}
	catalogs := make(map[models.AgentName]*tools.Registry, len(rawCatalogs))
	for name, reg := range rawCatalogs {
		catalogs[models.AgentName(name)] = reg
	}
	slog.Info("conductor: loaded tool catalogs", "agents", len(catalogs))

	var gate *rai.Gate
	if cfg.RAIEnabled {
		gate = rai.New(llmGateway)
	}

	rt, err := runtime.New(db, llmGateway, catalogs, systemMessages, cfg.MaxToolIters,
		cfg.EvictionSweepInterval, 2*cfg.EvictionSweepInterval)
	if err != nil {
		log.Fatalf("conductor: start session runtime: %v", err)
	}
	defer rt.Stop()

	srv := &api.Server{Runtime: rt, Store: db, RAI: gate, Catalogs: catalogs}
	router := api.NewRouter(srv)

	httpServer := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	go func() {
		slog.Info("conductor: http server listening", "addr", cfg.ServerAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("conductor: http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("conductor: shutdown signal received, draining")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("conductor: http server shutdown error", "error", err)
	}
	os.Exit(0)
}
