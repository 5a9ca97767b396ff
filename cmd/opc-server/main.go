// Command opc-server runs the OPC incubator chat backend: the web chat page,
// the JSON chat API backed by the tool-calling agent, payment and share
// helpers, report downloads and the token-guarded admin API.
//
// @title                       OPC Agent API
// @version                     1.0
// @description                 Lead-generation and fulfilment chat assistant for the OPC incubator.
// @BasePath                    /api
// @securityDefinitions.apikey  AdminToken
// @in                          header
// @name                        X-Admin-Token
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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/opc-agent/internal/agent"
	"github.com/tbourn/opc-agent/internal/config"
	httpapi "github.com/tbourn/opc-agent/internal/http"
	"github.com/tbourn/opc-agent/internal/knowledge"
	"github.com/tbourn/opc-agent/internal/observability"
	"github.com/tbourn/opc-agent/internal/report"
	"github.com/tbourn/opc-agent/internal/repo"
	"github.com/tbourn/opc-agent/internal/services"
	"github.com/tbourn/opc-agent/internal/storage"
	"github.com/tbourn/opc-agent/internal/sysutil"
	"github.com/tbourn/opc-agent/internal/tools"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	sysutil.InitLogger(cfg.LogLevel, cfg.LogPretty, nil)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	deps, err := buildDeps(cfg, db)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, deps, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Bool("llm", cfg.LLM.Enabled()).
			Bool("admin", cfg.Admin.Token != "").
			Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openDB(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.Database.Path
	if cfg.Database.Driver == repo.DriverPostgres {
		dsn = cfg.Database.DSN
	}
	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}
	db, err := repo.Open(repo.Options{
		Driver:   cfg.Database.Driver,
		DSN:      dsn,
		Tracing:  cfg.OTEL.Enabled,
		LogLevel: level,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// buildDeps assembles the services, the tool palette and the agent.
func buildDeps(cfg config.Config, db *gorm.DB) (httpapi.Deps, error) {
	if err := os.MkdirAll(cfg.Report.Dir, 0o755); err != nil {
		return httpapi.Deps{}, fmt.Errorf("report dir: %w", err)
	}
	store, err := storage.NewLocal(cfg.Report.Dir, cfg.Report.FilesURL())
	if err != nil {
		return httpapi.Deps{}, err
	}
	renderer := report.Renderer{FontPath: cfg.Report.FontPath}
	if err := renderer.CheckFont(); err != nil {
		log.Warn().Err(err).Str("env", "PDF_FONT_PATH").
			Msg("reports will not render Chinese text; set PDF_FONT_PATH to a CJK TTF font")
	}
	reports := services.NewReportService(renderer, store)
	customers := services.NewCustomerService(db)

	registry := tools.New(tools.Deps{
		Customers:     customers,
		Reports:       reports,
		Payment:       cfg.Payment,
		Group:         cfg.Group,
		PublicBaseURL: cfg.Report.PublicBaseURL,
	})

	idx, err := knowledge.Load(cfg.FAQPath)
	if err != nil {
		return httpapi.Deps{}, fmt.Errorf("faq: %w", err)
	}
	prompt, err := agent.LoadSystemPrompt(cfg.LLM.PromptPath)
	if err != nil {
		return httpapi.Deps{}, err
	}

	runner := &agent.Runner{
		Tools:         registry,
		Store:         agent.GormStore{DB: db},
		FAQ:           knowledge.Answerer{Index: idx, Threshold: cfg.FAQThreshold},
		SystemPrompt:  prompt,
		MaxToolRounds: cfg.LLM.MaxToolRounds,
		HistoryWindow: cfg.LLM.HistoryWindow,
	}
	if c := agent.NewOpenAICompleter(cfg.LLM); c != nil {
		runner.Completer = c
	} else {
		log.Warn().Msg("no LLM API key configured; answering from the offline FAQ")
	}

	log.Info().
		Int("faq_entries", idx.Len()).
		Strs("tools", registry.Names()).
		Str("model", cfg.LLM.Model).
		Msg("agent ready")

	return httpapi.Deps{
		DB:        db,
		Chat:      services.NewChatService(db, runner, cfg.IdempotencyTTL, cfg.MaxMessageRunes),
		Customers: customers,
		Welcome:   agent.Welcome(cfg.LLM.WelcomeMessage),
	}, nil
}
