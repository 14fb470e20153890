package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"llm-chat-be/internal/config"
	"llm-chat-be/internal/pkg/logger"
	"llm-chat-be/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "trigger a single sweep and exit")
	flag.Parse()

	// 1. Load Configuration
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	trigger := scheduler.NewReclaimTrigger(cfg.App.ServiceURL, cfg.Auth.ReclaimerToken, 0, sysLogger)

	// 2. One-shot mode for external schedulers (systemd timers, k8s CronJob)
	if *once {
		res, err := trigger.Fire(context.Background())
		if err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		log.Printf("Sweep done: scanned=%d ended=%d skipped=%t", res.Scanned, len(res.Ended), res.Skipped)
		return
	}

	// 3. Cron mode
	c, err := scheduler.Schedule(cfg.Session.ReclaimCron, trigger)
	if err != nil {
		log.Fatalf("Unable to schedule sweep: %v", err)
	}
	c.Start()
	sysLogger.Info("RECLAIMER", "Sweep scheduled", map[string]interface{}{
		"schedule": cfg.Session.ReclaimCron,
		"target":   cfg.App.ServiceURL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	<-c.Stop().Done()
}
