package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/heapguard/analyzer/app"
	"github.com/heapguard/analyzer/internal/agent/fixturesource"
	"github.com/heapguard/analyzer/internal/agent/syntheticsource"
	"github.com/heapguard/analyzer/internal/config"
	"github.com/heapguard/analyzer/internal/logging"
	"github.com/heapguard/analyzer/internal/server"
)

var analyzerCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the analyzer and its REST/WebSocket query server",
	Run: func(cmd *cobra.Command, args []string) {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			panic(fmt.Sprintf("failed to parse port flag: %v", err))
		}
		fixture, err := cmd.Flags().GetString("fixture")
		if err != nil {
			panic(fmt.Sprintf("failed to parse fixture flag: %v", err))
		}
		env, err := cmd.Flags().GetString("env")
		if err != nil {
			panic(fmt.Sprintf("failed to parse env flag: %v", err))
		}

		runAnalyzer(port, fixture, env)
	},
}

func initAnalyzerCmdFlags() {
	analyzerCmd.Flags().IntP("port", "p", 0, "Port to serve the query API on (0 uses the configured default)")
	analyzerCmd.Flags().StringP("fixture", "f", "", "Path or URL to a fixture event document to replay instead of the synthetic workload")
	analyzerCmd.Flags().StringP("env", "e", "production", "Logger environment: production or development")
}

func runAnalyzer(port int, fixturePath, env string) {
	logger := logging.New(env)
	defer logger.Sync()
	logging.SetGlobal(logger)

	cfg := config.Load()
	if port > 0 {
		cfg.APIPort = port
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}
	if !application.Register() {
		logger.Fatal("another analyzer instance is already registered in this process")
	}

	if fixturePath != "" {
		src, err := fixturesource.LoadFrom(context.Background(), fixturePath, 30, fixturesource.DefaultReplayInterval)
		if err != nil {
			logger.Fatal("failed to load fixture source", zap.Error(err))
		}
		application.AddSource(src)
	} else {
		application.AddSource(syntheticsource.New(syntheticsource.DefaultConfig()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	application.Start(ctx)

	srv, err := server.StartRestServer(ctx, application, logger)
	if err != nil {
		logger.Fatal("failed to start REST server", zap.Error(err))
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	application.Stop()
}
