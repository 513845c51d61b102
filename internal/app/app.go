package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/internal/admission"
	"github.com/pegwatch/internal/api"
	"github.com/pegwatch/internal/assess"
	"github.com/pegwatch/internal/audits"
	"github.com/pegwatch/internal/curated"
	"github.com/pegwatch/internal/discovery"
	"github.com/pegwatch/internal/evidence"
	"github.com/pegwatch/internal/history"
	"github.com/pegwatch/internal/liquidity"
	"github.com/pegwatch/internal/messaging"
	"github.com/pegwatch/internal/providers"
	"github.com/pegwatch/pkg/config"
)

// App assembles and runs the assessment service.
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	store     evidence.Store
	registry  *curated.Registry
	mysqlSrc  *curated.MySQLSource
	publisher *messaging.Publisher
	recorder  *history.Recorder
	limiter   *admission.Controller
	apiServer *api.Server
	janitor   *cron.Cron

	orchestrator *assess.Orchestrator
	assembler    *assess.Assembler
}

// Orchestrator exposes the assessment pipeline for non-HTTP callers.
func (a *App) Orchestrator() *assess.Orchestrator { return a.orchestrator }

// Assembler exposes the frame assembler for non-HTTP callers.
func (a *App) Assembler() *assess.Assembler { return a.assembler }

// New creates an application instance.
func New(cfg *config.Config, logger *logrus.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize wires every component. Optional backends (MySQL, Redis, NATS,
// InfluxDB) that are disabled or unreachable downgrade to their in-process
// fallbacks instead of blocking startup.
func (a *App) Initialize() error {
	if err := a.initializeEvidenceStore(); err != nil {
		return fmt.Errorf("failed to initialize evidence store: %w", err)
	}
	if err := a.initializeCuratedRegistry(); err != nil {
		return fmt.Errorf("failed to initialize curated registry: %w", err)
	}
	a.initializeMessaging()
	a.initializeHistory()

	fetcher := providers.NewWebFetcher(&a.cfg.Providers, a.logger)
	coingecko := providers.NewCoinGeckoClient(&a.cfg.Providers, a.logger)
	geckoterminal := providers.NewGeckoTerminalClient(&a.cfg.Providers, a.logger)
	defillama := providers.NewDefiLlamaClient(&a.cfg.Providers, a.logger)
	github := providers.NewGitHubClient(&a.cfg.Providers, a.logger)

	parser := discovery.NewParser()
	discoveryEngine := discovery.NewEngine(&a.cfg.Discovery, fetcher, parser, a.registry, a.logger)
	auditFinder := audits.NewFinder(&a.cfg.Audits, github, fetcher, parser, a.registry, a.logger)
	liquidityAnalyzer := liquidity.NewAnalyzer(defillama, geckoterminal, a.registry, a.logger)

	var publisher assess.EventPublisher
	if a.publisher != nil {
		publisher = a.publisher
	}
	var recorder assess.ScoreRecorder
	if a.recorder != nil {
		recorder = a.recorder
	}

	a.orchestrator = assess.NewOrchestrator(
		&a.cfg.Assessment,
		a.store,
		coingecko,
		coingecko,
		discoveryEngine,
		auditFinder,
		liquidityAnalyzer,
		fetcher,
		a.registry,
		publisher,
		recorder,
		a.logger,
	)
	a.assembler = assess.NewAssembler(a.logger)

	a.limiter = admission.NewController(&a.cfg.Admission, a.logger)
	a.apiServer = api.NewServer(
		a.cfg,
		a.logger,
		a.orchestrator,
		a.assembler,
		coingecko,
		a.store,
		a.limiter,
		map[string]bool{
			"mysql":  a.mysqlSrc != nil,
			"redis":  a.cfg.Assessment.EvidenceBackend == "redis",
			"nats":   a.publisher != nil,
			"influx": a.recorder != nil,
		},
	)

	if err := a.initializeJanitor(); err != nil {
		return fmt.Errorf("failed to initialize janitor: %w", err)
	}
	return nil
}

func (a *App) initializeEvidenceStore() error {
	if a.cfg.Assessment.EvidenceBackend == "redis" {
		store, err := evidence.NewRedisStore(&a.cfg.Redis, a.logger)
		if err != nil {
			return err
		}
		a.store = store
		a.logger.Info("Evidence store backed by Redis")
		return nil
	}
	a.store = evidence.NewMemoryStore()
	a.logger.Info("Evidence store in memory")
	return nil
}

func (a *App) initializeCuratedRegistry() error {
	static, err := curated.NewStaticSource()
	if err != nil {
		return err
	}

	sources := []curated.Source{}
	if a.cfg.MySQL.Enabled {
		mysqlSrc, err := curated.NewMySQLSource(a.cfg, a.logger)
		if err != nil {
			a.logger.WithError(err).Warn("MySQL unavailable, using embedded curated data only")
		} else {
			a.mysqlSrc = mysqlSrc
			sources = append(sources, mysqlSrc)
		}
	}
	sources = append(sources, static)
	a.registry = curated.NewRegistry(a.logger, sources...)
	return nil
}

func (a *App) initializeMessaging() {
	if !a.cfg.NATS.Enabled {
		return
	}
	publisher, err := messaging.NewPublisher(&a.cfg.NATS, a.logger)
	if err != nil {
		a.logger.WithError(err).Warn("NATS unavailable, assessment events disabled")
		return
	}
	a.publisher = publisher
}

func (a *App) initializeHistory() {
	if !a.cfg.InfluxDB.Enabled {
		return
	}
	a.recorder = history.NewRecorder(&a.cfg.InfluxDB, a.logger)
}

// initializeJanitor schedules the periodic cache cleanup and admission-window
// sweep.
func (a *App) initializeJanitor() error {
	a.janitor = cron.New()

	_, err := a.janitor.AddFunc(a.cfg.Assessment.CleanupSchedule, func() {
		removed, err := a.store.Cleanup(a.ctx)
		if err != nil {
			a.logger.WithError(err).Warn("Evidence cleanup failed")
			return
		}
		if removed > 0 {
			a.logger.WithField("removed", removed).Debug("Evidence cleanup done")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule: %w", err)
	}

	if a.cfg.Admission.Enabled {
		if _, err := a.janitor.AddFunc(a.cfg.Admission.SweepSchedule, func() {
			a.limiter.Sweep()
		}); err != nil {
			return fmt.Errorf("invalid sweep schedule: %w", err)
		}
	}
	return nil
}

// Start runs the background jobs and the HTTP server, blocking until the
// server stops.
func (a *App) Start() error {
	a.janitor.Start()
	return a.apiServer.Start()
}

// Stop shuts everything down in reverse dependency order.
func (a *App) Stop(ctx context.Context) {
	if a.apiServer != nil {
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.WithError(err).Warn("HTTP server shutdown failed")
		}
	}
	if a.janitor != nil {
		<-a.janitor.Stop().Done()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.mysqlSrc != nil {
		a.mysqlSrc.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	a.cancel()
	a.wg.Wait()
	a.logger.Info("Application stopped")
}
