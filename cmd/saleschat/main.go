// Command saleschat runs the sales assistant HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/saleschat/saleschat/assistant"
	"github.com/saleschat/saleschat/config"
	"github.com/saleschat/saleschat/db"
	"github.com/saleschat/saleschat/history"
	"github.com/saleschat/saleschat/kb"
	"github.com/saleschat/saleschat/ragchain"
	"github.com/saleschat/saleschat/router"
	"github.com/saleschat/saleschat/server"
	"github.com/saleschat/saleschat/sqlchain"
	"github.com/saleschat/saleschat/summary"
)

func main() {
	logger := golog.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("loading configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, err := openDatabase(ctx, cfg)
	if err != nil {
		logger.Fatalf("opening database: %v", err)
	}
	defer manager.Close()

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.GoogleAPIKey),
		googleai.WithDefaultModel(cfg.GeminiModel),
	)
	if err != nil {
		logger.Fatalf("creating Gemini client: %v", err)
	}

	knowledge, err := buildKnowledgeBase(ctx, cfg, llm, logger)
	if err != nil {
		logger.Fatalf("building knowledge base: %v", err)
	}

	var hist *history.Store
	var assistantHistory assistant.HistoryStore
	var serverHistory server.HistoryStore
	if cfg.HistoryEnabled() {
		hist = history.NewStore(history.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.HistoryTTL,
		})
		defer hist.Close()
		assistantHistory = hist
		serverHistory = hist
		logger.Infof("chat history enabled on %s", cfg.RedisAddr)
	}

	asst := assistant.New(
		router.New(llm, logger),
		sqlchain.New(llm, manager, logger),
		summary.New(llm, logger),
		ragchain.New(llm, knowledge, ragchain.WithTopK(cfg.RAGTopK), ragchain.WithLogger(logger)),
		assistantHistory,
		logger,
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(asst, serverHistory, manager, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutting down server: %v", err)
		}
	}()

	logger.Infof("listening on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (db.Manager, error) {
	if cfg.UsePostgres() {
		return db.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return db.OpenSQLite(cfg.SQLitePath)
}

func buildKnowledgeBase(ctx context.Context, cfg *config.Config, llm *googleai.GoogleAI, logger *golog.Logger) (*kb.KnowledgeBase, error) {
	embedder, err := buildEmbedder(cfg, llm)
	if err != nil {
		return nil, err
	}

	knowledge := kb.New(
		kb.NewDirLoader(cfg.DocsDir),
		kb.NewRecursiveSplitter(),
		embedder,
		kb.NewMemoryStore(),
	)
	if err := knowledge.Ingest(ctx); err != nil {
		return nil, err
	}
	logger.Infof("ingested %d document chunks from %s", knowledge.Size(), cfg.DocsDir)
	return knowledge, nil
}

func buildEmbedder(cfg *config.Config, llm *googleai.GoogleAI) (kb.Embedder, error) {
	if cfg.EmbeddingProvider == "google" {
		wrapped, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("creating Gemini embedder: %w", err)
		}
		return kb.NewLangChainEmbedder(wrapped), nil
	}
	return kb.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel), nil
}
