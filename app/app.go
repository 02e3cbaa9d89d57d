// Package app wires the analyzer facade, its GC/Memory monitor, the
// leak-report WebSocket broadcaster, and any registered agent sources
// into one process-wide handle.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/agent"
	"github.com/heapguard/analyzer/internal/analyzer"
	"github.com/heapguard/analyzer/internal/apperr"
	"github.com/heapguard/analyzer/internal/config"
	"github.com/heapguard/analyzer/internal/leak/wsbroadcast"
	"github.com/heapguard/analyzer/internal/monitor"
	"github.com/heapguard/analyzer/internal/monitor/hoststat"
)

// App is the process-wide wiring: one Analyzer, one Broadcaster, and
// whatever agent Sources have been registered to feed it.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	analyzer    *analyzer.Analyzer
	broadcaster *wsbroadcast.Broadcaster

	mu      sync.Mutex
	sources []agent.Source
	cancels []context.CancelFunc
}

func newMonitor(cfg config.Config, logger *zap.Logger) (monitor.Monitor, error) {
	switch cfg.MonitorBackend {
	case config.MonitorHostStat:
		return hoststat.New(logger)
	case config.MonitorRuntime, "":
		return monitor.NewRuntime(), nil
	default:
		return nil, fmt.Errorf("%s: %w", cfg.MonitorBackend, apperr.ErrUnknownMonitor)
	}
}

// New builds an App from cfg. It does not register itself as the
// process-wide singleton; call Register for that.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mon, err := newMonitor(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := analyzer.New(cfg, mon, logger)
	bc := wsbroadcast.New(logger)
	a.AddLeakListener(bc.OnLeakDetected)

	return &App{cfg: cfg, logger: logger, analyzer: a, broadcaster: bc}, nil
}

// Register installs app's analyzer as the process-wide Analyzer handle.
// It reports whether it won the race.
func (a *App) Register() bool {
	return analyzer.Register(a.analyzer)
}

// Config returns the configuration App was built from.
func (a *App) Config() config.Config { return a.cfg }

// Analyzer returns the owned Analyzer facade.
func (a *App) Analyzer() *analyzer.Analyzer { return a.analyzer }

// Broadcaster returns the leak-report WebSocket broadcaster.
func (a *App) Broadcaster() *wsbroadcast.Broadcaster { return a.broadcaster }

// Start begins analysis and runs every registered Source until ctx is
// cancelled or Stop is called.
func (a *App) Start(ctx context.Context) {
	a.analyzer.StartAnalysis()

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, src := range a.sources {
		sourceCtx, cancel := context.WithCancel(ctx)
		a.cancels = append(a.cancels, cancel)
		go a.runSource(sourceCtx, src)
	}
}

func (a *App) runSource(ctx context.Context, src agent.Source) {
	sink := agent.NewSamplingSink(a.analyzer.Queue(), a.cfg.SamplingInterval)
	if err := src.Run(ctx, sink); err != nil {
		a.logger.Warn("agent source exited with error", zap.Error(err))
	}
}

// AddSource registers src to be run when Start is called. Registering
// after Start has no effect on already-started sources.
func (a *App) AddSource(src agent.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sources = append(a.sources, src)
}

// Stop cancels every running Source and stops analysis.
func (a *App) Stop() {
	a.mu.Lock()
	cancels := append([]context.CancelFunc(nil), a.cancels...)
	a.cancels = nil
	a.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	a.analyzer.StopAnalysis()
}
