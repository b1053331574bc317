package cli

import (
	"fmt"

	"talentgate/internal/assessment"
	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/extract"
	"talentgate/internal/identity"
	"talentgate/internal/lifecycle"
	"talentgate/internal/ranking"
	"talentgate/internal/scoring"
	"talentgate/internal/server"
	"talentgate/internal/store"
	"talentgate/internal/store/gormstore"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the matching and lifecycle HTTP server",
	Long: `Start an HTTP server that provides REST API endpoints for resume uploads,
applications, test-round gating, and job management.

Key endpoints:
- POST /resume: Upload a resume and extract its candidate signal
- POST /applications: Apply to a job (computes the fit score)
- POST /applications/{id}/assign-test: Assign a first-round test (HR)
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Identity arrives through trusted X-Subject-Id / X-Subject-Role headers
set by the upstream gateway.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("db-driver", "", "Storage driver: memory or mysql (overrides config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
	bindFlag("database.driver", "db-driver")
}

// buildStore opens the storage backend selected by configuration.
func buildStore(cfg *config.Config, logger *errors.Logger) (store.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Info("Using in-memory store; data does not survive restarts")
		return store.NewMemoryStore(), nil
	case "mysql":
		st, err := gormstore.New(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql store: %w", err)
		}
		logger.Info("Connected to MySQL store",
			"max_open_conns", cfg.Database.MaxOpenConns)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Database.Driver)
	}
}

// buildExtractor creates the resume extractor and, when configured,
// starts the vocabulary hot-reload watcher. The returned stop function
// is a no-op when no watcher runs.
func buildExtractor(cfg *config.Config, logger *errors.Logger) (*extract.Extractor, func(), error) {
	opts := extract.Options{
		Vocabulary:             cfg.Extraction.Vocabulary,
		DefaultExperienceYears: cfg.Extraction.DefaultExperienceYears,
		SeniorExperienceYears:  cfg.Extraction.SeniorExperienceYears,
		SeniorMarkers:          cfg.Extraction.SeniorMarkers,
	}
	extractor := extract.New(opts)

	if !cfg.Extraction.HotReload.Enabled || cfg.Extraction.VocabularyFile == "" {
		return extractor, func() {}, nil
	}

	watcher, err := config.NewVocabularyWatcher(
		cfg.Extraction.VocabularyFile,
		cfg.Extraction.HotReload.DebounceDelay,
		extractor.SetVocabulary,
		logger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create vocabulary watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start vocabulary watcher: %w", err)
	}

	logger.Info("Vocabulary hot reload enabled",
		"file", cfg.Extraction.VocabularyFile,
		"debounce", cfg.Extraction.HotReload.DebounceDelay.String())

	stop := func() {
		if err := watcher.Stop(); err != nil {
			logger.LogError(err, "Failed to stop vocabulary watcher")
		}
	}
	return extractor, stop, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	st, err := buildStore(cfg, logger)
	if err != nil {
		return err
	}

	extractor, stopWatcher, err := buildExtractor(cfg, logger)
	if err != nil {
		return err
	}
	defer stopWatcher()

	scorer, err := scoring.New(cfg.Matching)
	if err != nil {
		return err
	}

	engine := lifecycle.NewEngine(st, scorer, logger)
	reconciler := identity.NewReconciler(st, logger)

	var questions assessment.QuestionSource
	if catalogue := assessment.NewCatalogueClient(cfg.Assessment.Catalogue, logger); catalogue != nil {
		questions = catalogue
	}
	gate := assessment.NewGate(st, questions, cfg.Matching.AssignThreshold, logger)

	var rankQueue server.RankPublisher
	if cfg.Queue.Enabled {
		queue, err := ranking.NewQueue(cfg.Queue, logger)
		if err != nil {
			return fmt.Errorf("failed to connect ranking queue: %w", err)
		}
		rankQueue = queue
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}

	deps := server.Dependencies{
		Store:      st,
		Extractor:  extractor,
		Scorer:     scorer,
		Lifecycle:  engine,
		Gate:       gate,
		Reconciler: reconciler,
		RankQueue:  rankQueue,
	}

	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}
