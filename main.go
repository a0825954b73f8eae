package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	composex "github.com/thanawat-k/leadqual/agent/compose"
	contractx "github.com/thanawat-k/leadqual/agent/contract"
	enginex "github.com/thanawat-k/leadqual/agent/engine"
	extractx "github.com/thanawat-k/leadqual/agent/extract"
	guardrailx "github.com/thanawat-k/leadqual/agent/guardrail"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	orchestratorx "github.com/thanawat-k/leadqual/agent/orchestrator"
	promptx "github.com/thanawat-k/leadqual/agent/prompt"
	rolesx "github.com/thanawat-k/leadqual/agent/roles"
	routex "github.com/thanawat-k/leadqual/agent/route"
	statex "github.com/thanawat-k/leadqual/agent/state"
	"github.com/thanawat-k/leadqual/api"
	configx "github.com/thanawat-k/leadqual/pkg/config"
	journalx "github.com/thanawat-k/leadqual/pkg/journal"
	logx "github.com/thanawat-k/leadqual/pkg/logger"
	_ "github.com/thanawat-k/leadqual/pkg/logger/autoload"
	mailerx "github.com/thanawat-k/leadqual/pkg/mailer"
	openrouterx "github.com/thanawat-k/leadqual/pkg/openrouter"
)

type AppConfig struct {
	Addr            string        `split_words:"true" default:":8080"`
	StoreDriver     string        `split_words:"true" default:"sqlite"`
	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"leadqual.db"`
	PostgresDSN     string        `envconfig:"POSTGRES_DSN"`
	JournalSize     int           `split_words:"true" default:"256"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")

	ring := journalx.NewRing(appCfg.JournalSize)
	logx.AttachHook(journalx.NewHook(ring))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	leads, err := openLeadStore(ctx, appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open lead store")
	}
	defer func() {
		if err := leads.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close lead store")
		}
	}()
	log.Info().Str("driver", appCfg.StoreDriver).Msg("lead store ready")

	mailCfg := configx.MustNew[mailerx.Config]("MAIL")
	var mail contractx.Mailer
	if strings.TrimSpace(mailCfg.URL) == "" {
		log.Warn().Msg("MAIL_URL not set, notifications go to the log only")
		mail = mailerx.LogSink{}
	} else {
		mail = mailerx.MustNew(*mailCfg)
	}

	routeCfg := configx.MustNew[routex.Config]("ROUTE")
	router, err := routex.New(leads, mail, *routeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	qualifyCfg := configx.MustNew[extractx.QualificationPolicy]("QUALIFY")
	eng, err := enginex.New(rolesx.NewRegistry(), extractx.NewHeuristic(), *qualifyCfg, router, guardrailx.New())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	var composer contractx.Composer
	if client := openrouterx.NewClient(*openRouterCfg); client != nil {
		composer = composex.New(client, *openRouterCfg, promptx.LoadSet())
		log.Info().Str("model", openRouterCfg.Model).Msg("reply composer enabled")
	} else {
		log.Info().Msg("OPENROUTER_API_KEY not set, replies stay deterministic")
	}

	orch, err := orchestratorx.New(statex.NewMemoryStore(), leads, eng, router, composer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build orchestrator")
	}

	handler := api.NewHandler(orch, leads, router, mail, ring, routeCfg.Destinations())

	srv := &http.Server{
		Addr:              appCfg.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	stop()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped")
}

func openLeadStore(ctx context.Context, cfg *AppConfig) (leadx.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StoreDriver)) {
	case "sqlite":
		return leadx.NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return nil, errors.New("POSTGRES_DSN is required for the postgres driver")
		}
		return leadx.NewPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
