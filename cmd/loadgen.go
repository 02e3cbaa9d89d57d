package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/agent/syntheticsource"
	"github.com/heapguard/analyzer/internal/analyzer"
	"github.com/heapguard/analyzer/internal/config"
	"github.com/heapguard/analyzer/internal/logging"
	"github.com/heapguard/analyzer/internal/monitor"
)

var loadgenCmd = &cobra.Command{
	Use:   "loadgen",
	Short: "Run the synthetic allocation workload standalone and print periodic stats",
	Run: func(cmd *cobra.Command, args []string) {
		interval, err := cmd.Flags().GetDuration("report-interval")
		if err != nil {
			panic(fmt.Sprintf("failed to parse report-interval flag: %v", err))
		}
		runLoadgen(interval)
	},
}

func initLoadgenCmdFlags() {
	loadgenCmd.Flags().Duration("report-interval", 2*time.Second, "How often to print top-class stats")
}

// runLoadgen drives the synthetic workload against a standalone Analyzer,
// with no REST server or process-wide registration, for local
// experimentation with sampling and leak thresholds.
func runLoadgen(interval time.Duration) {
	logger := logging.New("development")
	defer logger.Sync()

	cfg := config.Default()
	a := analyzer.New(cfg, monitor.NewRuntime(), logger)
	a.StartAnalysis()
	defer a.StopAnalysis()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src := syntheticsource.New(syntheticsource.DefaultConfig())
	go func() {
		if err := src.Run(ctx, a.Queue()); err != nil {
			logger.Warn("loadgen source exited", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			printStats(a)
		}
	}
}

func printStats(a *analyzer.Analyzer) {
	stats := a.AllocationStats()
	fmt.Printf("tracked=%d bytes=%d\n", stats.Count, stats.TotalBytes)
	for _, c := range a.TopClasses(5) {
		fmt.Printf("  %-30s instances=%-8d bytes=%d\n", c.ClassName, c.InstanceCount, c.TotalSize)
	}
}
