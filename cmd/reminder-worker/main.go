package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/glowdesk/salon-scheduling/internal/config"
	"github.com/glowdesk/salon-scheduling/internal/db"
	"github.com/glowdesk/salon-scheduling/internal/reminder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reminder-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running reminder worker in env=%s cron=%q lead=%s", cfg.Env, cfg.ReminderCron, cfg.ReminderLead)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	repo := reminder.NewPgRepository(pgPool)
	sender := reminder.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
	svc := reminder.NewService(repo, sender, cfg.ReminderLead)

	// Run once at startup, then on the cron schedule.
	runOnce(rootCtx, svc)

	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderCron, func() {
		runOnce(rootCtx, svc)
	}); err != nil {
		log.Fatalf("invalid REMINDER_CRON %q: %v", cfg.ReminderCron, err)
	}
	c.Start()
	log.Println("reminder scheduler started")

	<-rootCtx.Done()

	log.Println("shutdown signal received, stopping reminder worker")
	stopCtx := c.Stop()
	<-stopCtx.Done()
}

func runOnce(ctx context.Context, svc *reminder.Service) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	start := time.Now()
	if err := svc.Run(runCtx); err != nil {
		log.Printf("reminder run error: %v", err)
		return
	}
	log.Printf("reminder run complete in %s", time.Since(start))
}
