package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/heapguard/analyzer/app"
	"github.com/heapguard/analyzer/internal/apperr"
)

// StartRestServer mounts the query API, the leak-report WebSocket
// endpoint, the Prometheus scrape endpoint, and a pprof debug mount, then
// starts serving in the background.
func StartRestServer(ctx context.Context, application *app.App, logger *zap.Logger) (*http.Server, error) {
	if ctx == nil {
		return nil, apperr.ErrNilContext
	}
	if application == nil {
		return nil, apperr.ErrNilAnalyzer
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	h, err := NewHandler(ctx, application)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler: %w", err)
	}

	router := http.NewServeMux()
	router.HandleFunc("/api/classes/top", h.TopClasses)
	router.HandleFunc("/api/sites/top", h.TopSites)
	router.HandleFunc("/api/allocations/recent", h.RecentAllocations)
	router.HandleFunc("/api/allocations/stats", h.AllocationStats)
	router.HandleFunc("/api/heap", h.HeapUsage)
	router.HandleFunc("/api/heap/pools", h.HeapPoolUsages)
	router.HandleFunc("/api/gc", h.GCStatistics)
	router.HandleFunc("/api/snapshots", h.Snapshots)
	router.HandleFunc("/api/snapshots/diff", h.SnapshotDiff)
	router.HandleFunc("/api/detect", h.Detect)
	router.HandleFunc("/api/reports", h.ReportHistory)
	router.HandleFunc("/api/clear", h.Clear)

	router.HandleFunc("/ws/leaks", application.Broadcaster().HandleUpgrade)
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)

	cfg := application.Config()
	srv := &http.Server{
		Addr:              "127.0.0.1:" + strconv.Itoa(cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to listen and serve", zap.Error(err))
		}
	}()

	return srv, nil
}
