package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/accounts"
	"github.com/tomland123/keeper-bots-v2/internal/domain"
	"github.com/tomland123/keeper-bots-v2/internal/filler"
	"github.com/tomland123/keeper-bots-v2/internal/infrastructure/ledger"
	"github.com/tomland123/keeper-bots-v2/internal/infrastructure/stream"
	"github.com/tomland123/keeper-bots-v2/internal/journal"
	"github.com/tomland123/keeper-bots-v2/internal/marketdata"
	"github.com/tomland123/keeper-bots-v2/internal/orderbook"
	"github.com/tomland123/keeper-bots-v2/internal/server"
	"github.com/tomland123/keeper-bots-v2/pkg/config"
	"github.com/tomland123/keeper-bots-v2/pkg/logger"
	"github.com/tomland123/keeper-bots-v2/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}
	log := logrus.WithField("component", "main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shutdownMgr := shutdown.NewManager()

	// 协作者装配
	book := orderbook.NewBook()
	md := marketdata.NewStore()
	dir := accounts.NewDirectory()
	exec := ledger.NewClient(cfg.RPCEndpoint,
		domain.AccountRef(cfg.Submitter), domain.AccountRef(cfg.ProgramRef))

	var jnl *journal.Journal
	if cfg.JournalDir != "" {
		jnl, err = journal.Open(cfg.JournalDir)
		if err != nil {
			log.WithError(err).Warn("journal disabled")
		} else {
			shutdownMgr.OnShutdown(func(context.Context) { _ = jnl.Close() })
		}
	}

	markets := make([]domain.MarketIndex, len(cfg.Markets))
	for i, m := range cfg.Markets {
		markets[i] = domain.MarketIndex(m)
	}

	deps := filler.Deps{
		OrderBook:  book,
		MarketData: md,
		Accounts:   dir,
		Execution:  exec,
	}
	if jnl != nil {
		deps.Journal = jnl
	}
	// 配置缺项取缺省窗口；显式 0 关闭节流
	throttleBackoff := filler.DefaultThrottleBackoff
	if cfg.Filler.ThrottleBackoffMs != nil {
		throttleBackoff = time.Duration(*cfg.Filler.ThrottleBackoffMs) * time.Millisecond
	}

	f := filler.New(filler.Config{
		PollInterval:         time.Duration(cfg.Filler.PollIntervalMs) * time.Millisecond,
		ThrottleBackoff:      throttleBackoff,
		MaxBatchBytes:        cfg.Filler.MaxBatchBytes,
		SnapshotGateTimeout:  time.Duration(cfg.Filler.SnapshotGateTimeoutMs) * time.Millisecond,
		CycleTimeout:         time.Duration(cfg.Filler.CycleTimeoutMs) * time.Millisecond,
		OutcomeFetchAttempts: cfg.Filler.OutcomeFetchAttempts,
		OutcomeFetchDelay:    time.Duration(cfg.Filler.OutcomeFetchDelayMs) * time.Millisecond,
		DryRun:               cfg.Filler.DryRun,
	}, markets, deps)

	f.Start(ctx)
	shutdownMgr.OnShutdown(func(context.Context) { f.Stop() })

	// 事件流：新订单/新账户汇入同一个周期入口
	if cfg.EventStreamURL != "" {
		ws := stream.NewClient(cfg.EventStreamURL, f.OnEvent)
		go ws.Start(ctx)
	}

	// 诊断面
	if cfg.DiagAddr != "" {
		diag := server.New(f, jnl)
		diag.Start(cfg.DiagAddr)
		shutdownMgr.OnShutdown(diag.Shutdown)
	}

	log.WithFields(logrus.Fields{
		"markets": len(markets),
		"rpc":     cfg.RPCEndpoint,
		"dry_run": cfg.Filler.DryRun,
	}).Info("filler started")

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	<-sigC

	log.Info("signal received, shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	shutdownMgr.Shutdown(shutdownCtx)
}
