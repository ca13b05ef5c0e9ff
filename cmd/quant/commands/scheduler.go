package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kr-equities/aegis-quant/internal/analysis"
	"github.com/kr-equities/aegis-quant/internal/embed"
	"github.com/kr-equities/aegis-quant/internal/external/dart"
	"github.com/kr-equities/aegis-quant/internal/external/kis"
	"github.com/kr-equities/aegis-quant/internal/external/krx"
	"github.com/kr-equities/aegis-quant/internal/external/naver"
	"github.com/kr-equities/aegis-quant/internal/gateway"
	"github.com/kr-equities/aegis-quant/internal/llm"
	"github.com/kr-equities/aegis-quant/internal/ranker"
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

// schedulerCmd manages the cron scheduler out-of-band from the api
// command — useful for inspecting job health or forcing a run without
// restarting the HTTP server.
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

이 명령어는:
- 스케줄러 데몬 시작 (API 서버 없이 배치/리포트/트리거 작업만 실행)
- 등록된 작업 조회
- 작업 실행 이력 조회

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run morning_report`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- financial_batch: 재무 데이터 배치 갱신
- morning_report: 장 시작 전 리포트 생성
- morning_triggers: 오전 트리거 스캔
- afternoon_triggers: 오후 트리거 스캔 (트리거된 종목 분석 포함)
- afternoon_report: 장 마감 후 리포트 생성
- pre_surge: 장중 급등 전조 신호 스캔

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Aegis Market Intelligence Scheduler ===")

	sched, closeFn, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeFn()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, closeFn, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeFn()

	PrintTableHeader([]string{"Job"}, []int{30})
	for _, jobName := range sched.GetAllJobs() {
		PrintTableRow([]string{jobName}, []int{30})
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, closeFn, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeFn()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess("Job started (running in background)")
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	sched, closeFn, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer closeFn()

	stats := sched.GetJobStats()

	const keyWidth = 14
	for jobName, stat := range stats {
		PrintSeparator()
		PrintKeyValue("Job", jobName, keyWidth)
		PrintKeyValue("Schedule", stat.Schedule, keyWidth)
		PrintKeyValue("Total Runs", fmt.Sprintf("%d", stat.TotalRuns), keyWidth)
		PrintKeyValue("Success", fmt.Sprintf("%d (%.1f%%)", stat.SuccessCount, stat.SuccessRate*100), keyWidth)
		PrintKeyValue("Failures", fmt.Sprintf("%d", stat.FailureCount), keyWidth)

		if stat.LastRun != nil {
			PrintKeyValue("Last Run", stat.LastRun.Format("2006-01-02 15:04:05"), keyWidth)
		}
		if stat.LastSuccess != nil {
			PrintKeyValue("Last Success", stat.LastSuccess.Format("2006-01-02 15:04:05"), keyWidth)
		}
		if stat.LastFailure != nil {
			PrintKeyValue("Last Failure", stat.LastFailure.Format("2006-01-02 15:04:05"), keyWidth)
		}
	}
	PrintSeparator()

	return nil
}

// initScheduler builds the same service graph as the api command, minus
// the HTTP router and realtime poller, and registers the six recurring
// jobs. The returned close func releases the Store.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	st, err := store.Open(cfg.DataDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() { st.Close() }

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
		closeFn()
		return nil, nil, fmt.Errorf("init llm client: %w", err)
	}

	rk := ranker.New(gw, st, llmClient, embedder, log)
	analysisEngine := analysis.New(gw, st, llmClient, embedder, log)
	reportEngine := report.New(gw, st, rk, llmClient, log)
	triggerEngine := trigger.New(gw, st, log)
	presurgeScanner := trigger.NewPreSurgeScanner(gw, st, log)

	sched := scheduler.New(log)
	sched.AddJob(jobs.NewFinancialBatchJob(st, log, cfg.Scheduler.FinancialBatchCron))
	sched.AddJob(jobs.NewMorningReportJob(reportEngine, log, cfg.Scheduler.MorningReportCron))
	sched.AddJob(jobs.NewMorningTriggersJob(triggerEngine, log, cfg.Scheduler.MorningTriggersCron))
	sched.AddJob(jobs.NewAfternoonTriggersJob(triggerEngine, analysisEngine, log, cfg.Scheduler.AfternoonTriggersCron))
	sched.AddJob(jobs.NewAfternoonReportJob(reportEngine, log, cfg.Scheduler.AfternoonReportCron))
	sched.AddJob(jobs.NewPreSurgeJob(presurgeScanner, log, cfg.Scheduler.PreSurgeCron))

	return sched, closeFn, nil
}
