package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kr-equities/aegis-quant/internal/analysis"
	"github.com/kr-equities/aegis-quant/internal/api"
	"github.com/kr-equities/aegis-quant/internal/api/handlers"
	"github.com/kr-equities/aegis-quant/internal/embed"
	"github.com/kr-equities/aegis-quant/internal/external/dart"
	"github.com/kr-equities/aegis-quant/internal/external/kis"
	"github.com/kr-equities/aegis-quant/internal/external/krx"
	"github.com/kr-equities/aegis-quant/internal/external/naver"
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
	"github.com/kr-equities/aegis-quant/internal/ranker"
	"github.com/kr-equities/aegis-quant/internal/realtime"
	"github.com/kr-equities/aegis-quant/internal/report"
	"github.com/kr-equities/aegis-quant/internal/scheduler"
	"github.com/kr-equities/aegis-quant/internal/scheduler/jobs"
	"github.com/kr-equities/aegis-quant/internal/trigger"
	"github.com/kr-equities/aegis-quant/pkg/config"
	"github.com/kr-equities/aegis-quant/pkg/httputil"
	"github.com/kr-equities/aegis-quant/pkg/logger"
	"github.com/kr-equities/aegis-quant/pkg/redis"
	"github.com/kr-equities/aegis-quant/pkg/store"
)

// apiCmd starts the whole system as one process: the HTTP API, the
// realtime poller, and the cron scheduler all share the embedded Store —
// spec §6's "no external queue, no cache server" design has no separate
// worker process to split them across.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `HTTP API, 실시간 poller, cron 스케줄러를 한 프로세스로 시작합니다.

Endpoints:
  GET  /health

  Stocks:
  GET  /stocks
  GET  /stocks/{ticker}
  GET  /stocks/{ticker}/price
  GET  /stocks/{ticker}/current
  GET  /stocks/{ticker}/technical

  Triggers:
  GET  /triggers
  GET  /triggers/latest
  GET  /triggers/stats
  GET  /triggers/types/{trigger_type}
  GET  /triggers/{ticker}/history
  POST /triggers/run/{morning|afternoon}

  Analysis:
  GET  /analysis/{ticker}
  POST /analysis/{ticker}/refresh
  GET  /analysis/{ticker}/cache-status
  GET  /analysis/{ticker}/comparison
  POST /analysis/batch
  GET  /analysis/popular

  Reports:
  GET  /reports/{morning|afternoon}
  GET  /reports/latest
  POST /reports/{morning|afternoon}/generate
  GET  /reports/history
  GET  /reports/stats

  Operational:
  GET  /internal/jobs/stats

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "8089", "API 서버 포트")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Market Intelligence API ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{"port": cfg.Port, "env": cfg.Env}).Info("Initializing API server")

	st, err := store.Open(cfg.DataDir, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	httpClient := httputil.New(cfg, log)
	kisClient := kis.NewClient(cfg.KIS, httpClient, log)
	naverClient := naver.NewClient(httpClient, log)
	krxClient := krx.NewClient(httpClient, log)
	dartClient := dart.NewClient(cfg.DART.APIKey, log)

	gw := gateway.New(kisClient, naverClient, krxClient, dartClient, st, log)
	embedder := embed.New(cfg.Embedding.APIKey, cfg.Embedding.Model, cfg.Embedding.BaseURL)

	llmOpts := []llm.Option{llm.WithModel(cfg.LLM.Model)}
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(cfg)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, LLM calls run without a shared rate limiter")
		} else {
			llmOpts = append(llmOpts, llm.WithRateLimiter(redis.NewRateLimiter(redisClient, "llm")))
		}
	}
	llmClient, err := llm.New(context.Background(), cfg.LLM.APIKey, log, llmOpts...)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}

	rk := ranker.New(gw, st, llmClient, embedder, log)
	analysisEngine := analysis.New(gw, st, llmClient, embedder, log)
	reportEngine := report.New(gw, st, rk, llmClient, log)
	triggerEngine := trigger.New(gw, st, log)
	presurgeScanner := trigger.NewPreSurgeScanner(gw, st, log)

	poller := realtime.NewPoller(kisClient, st, log)

	sched := scheduler.New(log)
	financialBatchJob := jobs.NewFinancialBatchJob(st, log, cfg.Scheduler.FinancialBatchCron)
	morningReportJob := jobs.NewMorningReportJob(reportEngine, log, cfg.Scheduler.MorningReportCron)
	morningTriggersJob := jobs.NewMorningTriggersJob(triggerEngine, log, cfg.Scheduler.MorningTriggersCron)
	afternoonTriggersJob := jobs.NewAfternoonTriggersJob(triggerEngine, analysisEngine, log, cfg.Scheduler.AfternoonTriggersCron)
	afternoonReportJob := jobs.NewAfternoonReportJob(reportEngine, log, cfg.Scheduler.AfternoonReportCron)
	presurgeJob := jobs.NewPreSurgeJob(presurgeScanner, log, cfg.Scheduler.PreSurgeCron)

	sched.AddJob(financialBatchJob)
	sched.AddJob(morningReportJob)
	sched.AddJob(morningTriggersJob)
	sched.AddJob(afternoonTriggersJob)
	sched.AddJob(afternoonReportJob)
	sched.AddJob(presurgeJob)

	reconciler := scheduler.NewReconciler(st, log, financialBatchJob, morningReportJob, morningTriggersJob, afternoonTriggersJob, afternoonReportJob)

	h := api.Handlers{
		Stocks:   handlers.NewStocksHandler(st, gw, log),
		Triggers: handlers.NewTriggersHandler(st, triggerEngine, log),
		Analysis: handlers.NewAnalysisHandler(analysisEngine, st, gw, log),
		Reports:  handlers.NewReportsHandler(reportEngine, st, log),
		Jobs:     handlers.NewJobsHandler(sched),
	}
	router := api.NewRouter(h, log)
	server := api.New(cfg, log, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := poller.Start(ctx); err != nil {
			log.WithError(err).Error("realtime poller stopped")
		}
	}()

	if cfg.Scheduler.Enabled {
		sched.Start()
		if err := reconciler.Run(ctx); err != nil {
			log.WithError(err).Warn("startup reconciliation failed")
		}
	} else {
		log.Info("scheduler disabled, running API and poller only")
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	poller.Stop()
	if cfg.Scheduler.Enabled {
		sched.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
