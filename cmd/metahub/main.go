package main

import (
	"time"

	"k8s.io/klog/v2"

	"github.com/annolab/metahub/dao/store"
	"github.com/annolab/metahub/internal"
	"github.com/annolab/metahub/internal/access"
	"github.com/annolab/metahub/internal/handler"
	"github.com/annolab/metahub/pkg/alert"
	"github.com/annolab/metahub/pkg/config"
)

func main() {
	// set global timezone
	time.Local = time.UTC

	if err := config.LoadDebugEnvironment(); err != nil {
		klog.Fatalf("load debug environment: %v", err)
	}
	cfg := config.GetConfig()

	db := store.GetDB()
	if err := store.Migrate(db); err != nil {
		klog.Fatalf("migrate database: %v", err)
	}

	stores := store.New(db)
	engine := access.NewEngine(db, cfg.Host)

	worker := alert.NewWorker(db, alert.NewSMTPSender(), cfg.Notify.MaxAttempts, cfg.Notify.BatchSize)
	sweepSpec := cfg.Notify.SweepSpec
	if sweepSpec == "" {
		sweepSpec = "@every 30s"
	}
	if err := worker.Start(sweepSpec); err != nil {
		klog.Fatalf("start notification worker: %v", err)
	}
	defer worker.Stop()

	backend := internal.Register(handler.RegisterConfig{
		Stores: stores,
		Engine: engine,
	})
	klog.Infof("starting server on %s", cfg.ServerAddr)
	if err := backend.R.Run(cfg.ServerAddr); err != nil {
		klog.Fatalf("run server: %v", err)
	}
}
