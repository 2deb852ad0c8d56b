package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/optionvault/internal/options/application"
	"github.com/wyfcoding/optionvault/internal/options/domain"
	"github.com/wyfcoding/optionvault/internal/options/infrastructure/memory"
	"github.com/wyfcoding/optionvault/internal/options/infrastructure/publisher"
	"github.com/wyfcoding/optionvault/pkg/fixedpoint"
)

var configPath = flag.String("config", "configs/optionvault/config.toml", "config file path")

// tickInterval 单机演示用墙钟驱动；生产部署中 Advance 由共识层逐 tick 调用。
const tickInterval = time.Second

func main() {
	flag.Parse()

	// 1. Config
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	logCfg := &logging.Config{
		Service:    cfg.Server.Name,
		Module:     "optionvault",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. Event publisher
	var events domain.EventPublisher
	if cfg.Server.Environment == "dev" {
		events = publisher.NewLogEventPublisher(logger.Logger)
	} else {
		producer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
		events = publisher.NewKafkaEventPublisher(producer)
	}

	// 5. Engine with in-memory collaborators
	vault := memory.NewVault()
	oracle := memory.NewOracle()
	ledger := memory.NewTokenLedger()
	allocator := memory.NewAllocator(1000)
	premium := domain.NewFlatPremiumModel(fixedpoint.One())

	svc := application.NewOptionVaultService(
		vault, oracle, ledger, allocator, premium, events,
		application.Config{MaxPriceAge: 60},
		logger.Logger,
	)

	// 6. Tick loop
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		var moment domain.Moment
		slog.Info("tick driver starting", "interval", tickInterval.String())
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				moment++
				if err := svc.Advance(ctx, moment); err != nil {
					slog.Error("advance failed, will retry next tick",
						"moment", uint64(moment), "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down...")
		case <-ctx.Done():
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		slog.Error("engine exited with error", "error", err)
	}
}
