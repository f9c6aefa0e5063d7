package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hongwoogi/grantrag/analysis"
	"github.com/hongwoogi/grantrag/api"
	"github.com/hongwoogi/grantrag/chat"
	"github.com/hongwoogi/grantrag/config"
	"github.com/hongwoogi/grantrag/database"
	"github.com/hongwoogi/grantrag/embeddings"
	"github.com/hongwoogi/grantrag/ingestion"
	"github.com/hongwoogi/grantrag/llm"
	"github.com/hongwoogi/grantrag/store"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "list":
		listCmd(cfg, logger)
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Error().Str("command", os.Args[1]).Msg("unknown command")
		printUsage()
		os.Exit(1)
	}
}

type services struct {
	gateway  *store.Gateway
	ingestor *ingestion.Service
	chat     *chat.Service
	close    func()
}

// buildServices wires the persistence gateway, analysis, embedding, and
// chat services from configuration. An empty Postgres DSN runs the whole
// stack against the in-memory store.
func buildServices(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*services, error) {
	var remote store.Repository
	closeFn := func() {}

	if cfg.PostgresDSN != "" {
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		if err := database.EnsureGrantSchema(ctx, pool, cfg.Embeddings.Dimension); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		remote = store.NewPostgresRepository(pool)
		closeFn = pool.Close
	} else {
		logger.Info().Msg("no postgres DSN configured, running with in-memory store")
	}

	gateway := store.NewGateway(remote, logger)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("embedder setup: %w", err)
	}

	models, err := llm.NewClients(cfg)
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("llm setup: %w", err)
	}
	analyzer := analysis.New(models, logger)

	ingestor := ingestion.NewService(analyzer, embedder, gateway, logger,
		ingestion.WithChunking(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		ingestion.WithTimeout(cfg.Ingest.Timeout),
	)

	retriever := chat.NewRetriever(gateway, embedder)
	chatSvc := chat.NewService(gateway, retriever, analyzer, logger)

	return &services{
		gateway:  gateway,
		ingestor: ingestor,
		chat:     chatSvc,
		close:    closeFn,
	}, nil
}

func serveCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.HTTPAddr, "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse serve flags")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("service setup")
	}
	defer svcs.close()

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(svcs.gateway, svcs.ingestor, svcs.chat, logger),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", *addr).Msg("serving grant API")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server")
	}
}

func ingestCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := flags.String("file", "", "path to the grant announcement (.pdf or .hwpx)")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse ingest flags")
	}
	if *file == "" {
		logger.Fatal().Msg("ingest requires -file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("service setup")
	}
	defer svcs.close()

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal().Err(err).Msg("read document")
	}

	g, err := svcs.ingestor.Ingest(ctx, filepath.Base(*file), data, func(status ingestion.ProcessingStatus) {
		logger.Info().Str("step", string(status.Step)).Int("progress", status.Progress).Msg(status.Message)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("ingestion failed")
	}

	fmt.Printf("%s  %s (%s)\n", g.ID, g.Title, g.Status)
}

func listCmd(cfg config.Config, logger zerolog.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("service setup")
	}
	defer svcs.close()

	grants, err := svcs.gateway.ListGrants(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("list grants")
	}

	for _, g := range grants {
		fmt.Printf("%s  [%s]  %s  (%s)\n", g.ID, g.Status, g.Title, g.Period)
	}
}

func askCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	grantID := flags.String("grant", "", "grant id to ask about")
	question := flags.String("question", "", "question to ask")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse ask flags")
	}
	if *grantID == "" || *question == "" {
		logger.Fatal().Msg("ask requires -grant and -question")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcs, err := buildServices(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("service setup")
	}
	defer svcs.close()

	reply, err := svcs.chat.Ask(ctx, *grantID, *question)
	if err != nil {
		logger.Fatal().Err(err).Msg("ask failed")
	}

	fmt.Println(reply.Content)
}

func clearCmd(cfg config.Config, logger zerolog.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatal().Err(err).Msg("parse clear flags")
	}
	if !*confirmed {
		logger.Fatal().Msg("refusing to clear without -confirm")
	}
	if cfg.PostgresDSN == "" {
		logger.Info().Msg("no postgres DSN configured, nothing to clear")
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection")
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "TRUNCATE grant_embeddings, grants"); err != nil {
		logger.Fatal().Err(err).Msg("truncate grant tables")
	}
	logger.Info().Msg("cleared grants and grant_embeddings")
}

func printUsage() {
	fmt.Println("Usage: grantrag <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve    Run the HTTP API")
	fmt.Println("  ingest   Ingest a grant announcement document (-file)")
	fmt.Println("  list     List stored grants with their derived status")
	fmt.Println("  ask      Ask a question about a stored grant (-grant, -question)")
	fmt.Println("  clear    Remove all stored grants and embeddings (-confirm)")
}
